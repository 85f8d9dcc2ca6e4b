// Package server exposes the ciphers and solvers over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/store"
	"github.com/verte-zerg/cipherbreak/internal/worker"
)

// Config wires a Server.
type Config struct {
	Deps solver.Deps
	// Store serves /api/history when set.
	Store  *store.Store
	Logger *slog.Logger
	// ProgressRate caps websocket frames per second per connection.
	ProgressRate float64
	// OnFinish runs for every finished solve.
	OnFinish func(worker.Summary)
	// MaxRuns caps solves running at once; POST /api/solve answers 429 beyond it.
	MaxRuns int
	// AllowedOrigins are browser origins accepted besides the server's own host.
	AllowedOrigins []string
}

const defaultMaxRuns = 4

// Server is the HTTP API.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	runs     *runRegistry
	slots    *semaphore.Weighted
	upgrader websocket.Upgrader
	engine   *gin.Engine
}

// New builds the router.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ProgressRate <= 0 {
		cfg.ProgressRate = 30
	}
	if cfg.MaxRuns <= 0 {
		cfg.MaxRuns = defaultMaxRuns
	}
	s := &Server{
		cfg:    cfg,
		logger: logger,
		runs:   newRunRegistry(maxRetainedRuns),
		slots:  semaphore.NewWeighted(int64(cfg.MaxRuns)),
		engine: gin.New(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     s.originAllowed,
	}
	s.engine.Use(gin.Recovery(), requestLogger(logger))

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api", s.rejectForeignOrigin)
	api.GET("/ciphers", s.handleCiphers)
	api.POST("/encode", s.handleTransform(true))
	api.POST("/decode", s.handleTransform(false))
	api.POST("/solve", s.handleSolve)
	api.GET("/solve/:id", s.handleRunStatus)
	api.DELETE("/solve/:id", s.handleRunCancel)
	api.GET("/solve/:id/ws", s.handleRunStream)
	api.GET("/history", s.handleHistory)
	api.GET("/history/:id", s.handleHistoryRun)
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close cancels every solve still running.
func (s *Server) Close() {
	s.runs.cancelAll()
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		logger.Info("http request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// originAllowed accepts requests without an Origin header (non-browser clients), from the
// server's own host, or from a configured origin.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

func (s *Server) rejectForeignOrigin(c *gin.Context) {
	if s.originAllowed(c.Request) {
		c.Next()
		return
	}
	s.logger.Warn("rejected cross-origin request", "origin", c.Request.Header.Get("Origin"), "path", c.Request.URL.Path)
	errorJSON(c, http.StatusForbidden, errors.New("origin not allowed"))
}
