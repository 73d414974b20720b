package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/redresslabs/redress/internal/api"
)

// ServeOps runs the ops HTTP server until ctx is canceled, then drains
// in-flight requests. port overrides server.port when positive.
func (a *App) ServeOps(ctx context.Context, port int) error {
	if port <= 0 {
		port = a.cfg.Server.Port
	}
	apiServer := api.NewServer(api.Config{
		AnalysisDir: a.cfg.AnalysisDir(),
		RunsDir:     a.cfg.RunsDir(),
	}, api.Deps{
		Activity: a.activity,
		Logger:   a.logger.Named("api"),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("ops server started", zap.Int("port", port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ops server shutdown: %w", err)
	}
	return nil
}
