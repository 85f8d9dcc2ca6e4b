package server

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const closeWait = time.Second

// streamCommand is what a websocket client may send.
type streamCommand struct {
	Action string `json:"action"`
}

// handleRunStream pushes a Snapshot on every change, at most ProgressRate frames per
// second, and closes the socket after the final one.
func (s *Server) handleRunStream(c *gin.Context) {
	lr, ok := s.lookupRun(c)
	if !ok {
		return
	}
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", "run", lr.run.ID, "err", err)
		return
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			var cmd streamCommand
			if err := ws.ReadJSON(&cmd); err != nil {
				return
			}
			if cmd.Action == "cancel" {
				s.logger.Info("run cancelled by websocket client", "run", lr.run.ID)
				lr.cancel()
			}
		}
	}()

	limiter := rate.NewLimiter(rate.Limit(s.cfg.ProgressRate), 1)
	for {
		snap, changed := lr.snapshot()
		if err := ws.WriteJSON(snap); err != nil {
			s.logger.Debug("websocket write failed", "run", lr.run.ID, "err", err)
			return
		}
		if snap.Finished {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(snap.Outcome))
			if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait)); err != nil {
				// Best-effort close frame.
				_ = err
			}
			return
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}
}
