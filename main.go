// Package main runs the pattern decoding and damage detection HTTP service.
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

	"pattern-reader/internal/config"
	"pattern-reader/internal/damage"
	"pattern-reader/internal/pattern"
	"pattern-reader/internal/server"
	"pattern-reader/internal/version"
	"pattern-reader/internal/watch"
)

const tuningPollInterval = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logger.Info("starting", "service", server.ServiceName, "version", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decoder, err := newDecoder(cfg, logger)
	if err != nil {
		return err
	}

	loader := damage.RemoteLoader(cfg.ModelPath, cfg.InferenceURL, nil)
	detector := damage.NewService(ctx, cfg.ModelPath, loader, logger)

	handler := server.NewHandler(decoder, detector, logger)
	if cfg.TuningPath != "" {
		if err := watchTuning(ctx, cfg, handler, logger); err != nil {
			logger.Warn("tuning reload disabled", "error", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.Routes(cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "model_loaded", detector.Loaded())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func newDecoder(cfg *config.Config, logger *slog.Logger) (*pattern.Decoder, error) {
	params, err := config.PatternParams(cfg.TuningPath)
	if err != nil {
		return nil, err
	}
	opts := []pattern.Option{pattern.WithLogger(logger)}
	if cfg.DebugDir != "" {
		opts = append(opts, pattern.WithDebugDir(cfg.DebugDir))
	}
	return pattern.NewDecoder(params, opts...), nil
}

// watchTuning rebuilds the decoder whenever the tuning file changes. An
// invalid edit keeps the previous decoder.
func watchTuning(ctx context.Context, cfg *config.Config, handler *server.Handler, logger *slog.Logger) error {
	w, err := watch.New(cfg.TuningPath, tuningPollInterval)
	if err != nil {
		return err
	}
	w.OnChange(func() {
		decoder, err := newDecoder(cfg, logger)
		if err != nil {
			logger.Error("tuning reload failed", "path", w.Path(), "error", err)
			return
		}
		handler.SetDecoder(decoder)
		logger.Info("tuning reloaded", "path", w.Path())
	})
	go w.Run(ctx)
	logger.Info("watching tuning file", "path", w.Path())
	return nil
}
