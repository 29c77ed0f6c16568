package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/formweave/internal/formrepo"
	"github.com/vk/formweave/internal/server"
)

// shutdownGrace bounds how long in-flight requests get on shutdown.
const shutdownGrace = 10 * time.Second

// runServe opens the form repository, starts the viewer API and blocks until
// the context is cancelled, then drains sessions and in-flight requests.
func (a *App) runServe(ctx context.Context, cfg *Config) error {
	var repo *formrepo.Repo
	if cfg.DBPath != "" {
		var err error
		repo, err = formrepo.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open form repository: %w", err)
		}
		defer repo.Close()
		a.logger.Info("Form repository opened.", "path", cfg.DBPath)
	} else {
		a.logger.Warn("No database path configured, form persistence disabled.")
	}

	srv := server.New(a.logger, a.registry, repo)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Viewer API listening.", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	srv.Sessions().CloseAll(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
