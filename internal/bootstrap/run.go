package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kec/eventhub/config"
	"github.com/kec/eventhub/internal/observability/statsd"
	"golang.org/x/sync/errgroup"
)

// RunConfig groups what Run needs.
type RunConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// Run wires storage, sessions and the HTTP server, then blocks until ctx
// is canceled or the server fails. The listener opens while the persisted
// session is still being restored; guarded routes answer with the loading
// page until Initialize publishes.
func Run(ctx context.Context, cfg RunConfig) error {
	if cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var sink statsd.Sink
	if client := BuildMetricsSink(cfg.Config.Observability.Metrics, logger); client != nil {
		sink = client
		defer func() {
			if cerr := client.Close(); cerr != nil {
				logger.WarnContext(ctx, "close statsd client failed", "error", cerr)
			}
		}()
	}

	store, err := BuildSessionStore(ctx, SessionStoreDeps{Config: cfg.Config, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close session store failed", "error", cerr)
		}
	}()

	sessions, err := BuildSessions(SessionDeps{
		Config:  cfg.Config,
		Store:   store.Store,
		Logger:  logger,
		Metrics: sink,
	})
	if err != nil {
		return err
	}

	handler, err := BuildHTTPHandler(HTTPServerConfig{
		Config:   cfg.Config,
		Sessions: sessions,
		Logger:   logger,
		Metrics:  sink,
	})
	if err != nil {
		return err
	}
	server := newServer(cfg.Config.HTTP, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.Manager.Initialize(gctx)
		logger.InfoContext(gctx, "session initialized", "state", sessions.Manager.State().Status.String())
		return nil
	})
	g.Go(func() error {
		logger.InfoContext(gctx, "starting HTTP server", "addr", server.Addr, "synthetic", Synthetic)
		if serr := server.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", serr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Config.HTTP.ShutdownTimeout)
		defer cancel()
		if serr := server.Shutdown(shutdownCtx); serr != nil {
			return fmt.Errorf("shutdown http server: %w", serr)
		}
		logger.Info("HTTP server stopped")
		return nil
	})

	return g.Wait()
}
