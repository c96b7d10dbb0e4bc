package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"marquee/internal/app"
	"marquee/internal/config"
	"marquee/internal/logging"
)

// Run wires services from cfg, serves the API until ctx is cancelled or the
// process receives SIGINT/SIGTERM, then shuts down.
func Run(cmdCtx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	svc, err := app.New(cfg, logger, app.Options{OpenWatchlist: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logging.WarnWithContext(logger, "failed to close services", "shutdown_failed", logging.Error(err))
		}
	}()

	srv, err := New(svc)
	if err != nil {
		return err
	}
	if err := srv.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	srv.Stop()
	logger.Info("marquee server stopped")
	return nil
}
