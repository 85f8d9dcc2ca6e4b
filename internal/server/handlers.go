package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/metrics"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/store"
	"github.com/verte-zerg/cipherbreak/internal/worker"
)

// CipherInfo describes one registered cipher.
type CipherInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	KeyHelp  string `json:"key_help"`
	Solvable bool   `json:"solvable"`
}

// TransformRequest is the body of /api/encode and /api/decode.
type TransformRequest struct {
	Cipher string `json:"cipher" binding:"required"`
	Key    string `json:"key" binding:"required"`
	Text   string `json:"text"`
}

// SolveRequest is the body of POST /api/solve.
type SolveRequest struct {
	Cipher     string `json:"cipher" binding:"required"`
	Ciphertext string `json:"ciphertext" binding:"required"`
}

// RunDetail is a stored run with its results.
type RunDetail struct {
	Run     model.RunRecord   `json:"run"`
	Results []model.Candidate `json:"results"`
}

func errorJSON(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleCiphers(c *gin.Context) {
	solvable := map[string]bool{}
	for _, id := range solver.IDs() {
		solvable[id] = true
	}
	all := cipher.All()
	out := make([]CipherInfo, 0, len(all))
	for _, ci := range all {
		out = append(out, CipherInfo{ID: ci.ID, Name: ci.Name, KeyHelp: ci.KeyHelp, Solvable: solvable[ci.ID]})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleTransform(encode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransformRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, err)
			return
		}
		ci, ok := cipher.Lookup(req.Cipher)
		if !ok {
			errorJSON(c, http.StatusNotFound, errors.New("unknown cipher "+strconv.Quote(req.Cipher)))
			return
		}
		transform := ci.Decode
		if encode {
			transform = ci.Encode
		}
		text, err := transform(req.Text, req.Key)
		if err != nil {
			errorJSON(c, http.StatusUnprocessableEntity, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"text": text})
	}
}

func (s *Server) handleSolve(c *gin.Context) {
	var req SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, err)
		return
	}
	strategy, err := solver.New(req.Cipher, s.cfg.Deps)
	if err != nil {
		errorJSON(c, http.StatusNotFound, err)
		return
	}
	if !s.slots.TryAcquire(1) {
		errorJSON(c, http.StatusTooManyRequests, fmt.Errorf("%d solves already running", s.cfg.MaxRuns))
		return
	}
	opts := []worker.Option{
		worker.WithLogger(s.logger),
		worker.OnFinish(metrics.ObserveRun),
	}
	if s.cfg.OnFinish != nil {
		opts = append(opts, worker.OnFinish(s.cfg.OnFinish))
	}
	// The slot frees before Cancel returns, so a DELETE makes room at once.
	opts = append(opts, worker.OnFinish(func(worker.Summary) { s.slots.Release(1) }))
	metrics.RunStarted()
	// Runs outlive the request; they stop on DELETE or Close.
	run := worker.Start(context.Background(), strategy, s.cfg.Deps.Models, req.Ciphertext, opts...)
	lr := newLiveRun(run)
	s.runs.add(lr)
	snap, _ := lr.snapshot()
	c.JSON(http.StatusAccepted, snap)
}

func (s *Server) lookupRun(c *gin.Context) (*liveRun, bool) {
	lr, ok := s.runs.get(c.Param("id"))
	if !ok {
		errorJSON(c, http.StatusNotFound, errors.New("no such run"))
	}
	return lr, ok
}

func (s *Server) handleRunStatus(c *gin.Context) {
	lr, ok := s.lookupRun(c)
	if !ok {
		return
	}
	snap, _ := lr.snapshot()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleRunCancel(c *gin.Context) {
	lr, ok := s.lookupRun(c)
	if !ok {
		return
	}
	lr.cancel()
	snap, _ := lr.snapshot()
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.cfg.Store == nil {
		errorJSON(c, http.StatusNotFound, errors.New("history is disabled"))
		return
	}
	filter := model.HistoryFilter{Cipher: c.Query("cipher")}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			errorJSON(c, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errorJSON(c, http.StatusBadRequest, errors.New("since must be an RFC 3339 timestamp"))
			return
		}
		filter.Since = &since
	}
	runs, err := s.cfg.Store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list runs", "err", err)
		errorJSON(c, http.StatusInternalServerError, errors.New("failed to list runs"))
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleHistoryRun(c *gin.Context) {
	if s.cfg.Store == nil {
		errorJSON(c, http.StatusNotFound, errors.New("history is disabled"))
		return
	}
	rec, results, err := s.cfg.Store.GetRun(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		errorJSON(c, http.StatusNotFound, err)
		return
	case errors.Is(err, store.ErrAmbiguous):
		errorJSON(c, http.StatusConflict, err)
		return
	case err != nil:
		s.logger.Error("failed to load run", "id", c.Param("id"), "err", err)
		errorJSON(c, http.StatusInternalServerError, errors.New("failed to load run"))
		return
	}
	c.JSON(http.StatusOK, RunDetail{Run: rec, Results: results})
}
