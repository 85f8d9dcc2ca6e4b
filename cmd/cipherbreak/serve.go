package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/cipherbreak/internal/config"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/server"
	"github.com/verte-zerg/cipherbreak/internal/solver"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr         string
	serveProgressRate float64
	serveNoSave       bool
	serveMaxRuns      int
	serveOrigins      []string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", config.DefaultAddr, "listen address")
	cmd.Flags().Float64Var(&serveProgressRate, "progress-rate", config.DefaultProgressRate, "websocket progress frames per second")
	cmd.Flags().IntVar(&serveMaxRuns, "max-runs", config.DefaultMaxRuns, "solves running at once; more are refused")
	cmd.Flags().StringSliceVar(&serveOrigins, "allowed-origins", nil, "browser origins trusted besides the server's own")
	cmd.Flags().BoolVar(&serveNoSave, "no-save", false, "do not record runs in history")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "ngrams", &ngramDir, fileCfg.Ngrams.Dir)
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyFloatConfig(cmd, "progress-rate", &serveProgressRate, fileCfg.Serve.ProgressRate)
	applyIntConfig(cmd, "max-runs", &serveMaxRuns, fileCfg.Serve.MaxRuns)
	applyStringSliceConfig(cmd, "allowed-origins", &serveOrigins, fileCfg.Serve.AllowedOrigins)

	serveCfg := model.ServeConfig{
		Addr:           serveAddr,
		ProgressRate:   serveProgressRate,
		MaxRuns:        serveMaxRuns,
		AllowedOrigins: serveOrigins,
	}
	if err := config.Validate(serveCfg); err != nil {
		return err
	}
	sub := substitutionFromConfig(fileCfg.Substitution)
	if err := config.Validate(sub); err != nil {
		return fmt.Errorf("invalid [substitution] config: %w", err)
	}
	if !cmd.Flags().Changed("log-level") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	}
	logger := slog.Default()

	cfg := server.Config{
		Deps:           solver.Deps{Models: newModels(ngramDir), Substitution: sub},
		Logger:         logger,
		ProgressRate:   serveCfg.ProgressRate,
		MaxRuns:        serveCfg.MaxRuns,
		AllowedOrigins: serveCfg.AllowedOrigins,
	}
	if !serveNoSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		cfg.Store = st
		cfg.OnFinish = saveRun(st, logger)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(cfg)
	httpServer := &http.Server{
		Addr:              serveCfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", serveCfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		srv.Close()
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	srv.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}
