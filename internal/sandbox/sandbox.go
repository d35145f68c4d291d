// ABOUTME: Wires the in-memory clinic backend and runs its HTTP server
// ABOUTME: Used by `clinic sandbox` and by end-to-end tests of the console

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markalston/clinic-console/internal/sandbox/cache"
	"github.com/markalston/clinic-console/internal/sandbox/config"
	"github.com/markalston/clinic-console/internal/sandbox/handlers"
	"github.com/markalston/clinic-console/internal/sandbox/middleware"
	"github.com/markalston/clinic-console/internal/sandbox/models"
	"github.com/markalston/clinic-console/internal/sandbox/services"
)

const shutdownTimeout = 10 * time.Second

// Server is a ready-to-serve sandbox backend.
type Server struct {
	cfg      *config.Config
	store    *services.Store
	sessions *cache.Cache[models.RefreshSession]
	router   http.Handler
}

type Option func(*options)

type options struct {
	storeOpts []services.StoreOption
	now       func() time.Time
}

// WithStoreOptions passes options to the data store.
func WithStoreOptions(opts ...services.StoreOption) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithClock sets the clock used to place demo appointments.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the store, token and session services and the router, and seeds
// the administrator plus demo data when cfg.SeedDemo is set.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	store := services.NewStore(o.storeOpts...)
	if _, err := services.SeedAdmin(store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("seeding administrator: %w", err)
	}
	if cfg.SeedDemo {
		if err := services.SeedDemo(store, o.now()); err != nil {
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
	}

	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		slog.Warn("SANDBOX_JWT_SECRET not set, using a random signing key")
	}

	sessions := cache.New[models.RefreshSession](cfg.RefreshTTL)
	h := handlers.NewHandler(cfg, store, tokens, services.NewSessionService(sessions, cfg.RefreshTTL), middleware.NewMetrics())

	return &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		router:   handlers.NewRouter(h),
	}, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store exposes the data store for seeding in tests.
func (s *Server) Store() *services.Store {
	return s.store
}

// Close stops background cleanup.
func (s *Server) Close() {
	s.sessions.Close()
}

// Run listens on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Sandbox listening", "addr", ln.Addr().String(), "admin", s.cfg.AdminEmail, "demo", s.cfg.SeedDemo)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Sandbox shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
