package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/ratiobudget/ratiobudget/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Application wires configuration, store, router, and server lifecycle.
type Application struct {
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context, cfg config.Application) (*Application, error) {
	deps, err := BuildDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Server.Addr,
		WriteTimeout: cfg.Server.WriteTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{deps: deps, router: r, srv: srv}, nil
}

// Handler exposes the router, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.router
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// releases the store.
func (a *Application) Run(ctx context.Context) error {
	defer a.deps.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
