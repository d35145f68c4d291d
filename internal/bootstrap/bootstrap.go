// ABOUTME: Session bootstrap gate that runs once per process before protected screens render.
// ABOUTME: Silently restores a session from the refresh cookie or settles on signed-out.

package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markalston/clinic-console/internal/client"
	"github.com/markalston/clinic-console/internal/session"
)

//go:generate mockgen -source=bootstrap.go -destination=mocks/mocks.go -package=mocks Refresher

// DefaultTimeout bounds the single refresh attempt.
const DefaultTimeout = 10 * time.Second

// Refresher exchanges the ambient refresh credential for a new session.
type Refresher interface {
	Refresh(ctx context.Context) (*client.AuthResponse, error)
}

// Outcome describes what a Run did. It is diagnostic only; Run never fails.
type Outcome int

const (
	// AlreadyBooted means an earlier Run finished; nothing happened.
	AlreadyBooted Outcome = iota
	// KeptSession means a token was already present, so no refresh was made.
	KeptSession
	// Restored means the refresh succeeded and the session was populated.
	Restored
	// Anonymous means the refresh failed and the session was cleared.
	Anonymous
)

func (o Outcome) String() string {
	switch o {
	case AlreadyBooted:
		return "already-booted"
	case KeptSession:
		return "kept-session"
	case Restored:
		return "restored"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Gate sequences the one-time session bootstrap.
type Gate struct {
	store     *session.Store
	refresher Refresher
	timeout   time.Duration
	inflight  singleflight.Group
}

// New creates a gate. A non-positive timeout uses DefaultTimeout.
func New(store *session.Store, refresher Refresher, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gate{store: store, refresher: refresher, timeout: timeout}
}

// Run performs the bootstrap at most once per store. Concurrent callers
// share a single attempt. When Run returns, the store is booted.
func (g *Gate) Run(ctx context.Context) Outcome {
	if g.store.Booted() {
		return AlreadyBooted
	}
	v, _, _ := g.inflight.Do("bootstrap", func() (any, error) {
		return g.run(ctx), nil
	})
	return v.(Outcome)
}

func (g *Gate) run(ctx context.Context) Outcome {
	// A previous attempt may have finished between the caller's check and Do.
	if g.store.Booted() {
		return AlreadyBooted
	}
	defer g.store.SetBooted(true)

	if g.store.Token() != "" {
		slog.Debug("Bootstrap skipped refresh, session already present")
		return KeptSession
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	auth, err := g.refresher.Refresh(ctx)
	if err != nil {
		slog.Debug("Bootstrap refresh failed, continuing signed out", "error", err)
		g.clear()
		return Anonymous
	}
	if auth == nil || auth.AccessToken == "" || !auth.User.Valid() {
		slog.Debug("Bootstrap refresh returned no usable session, continuing signed out")
		g.clear()
		return Anonymous
	}

	// An explicit login that raced the refresh wins.
	if !g.store.LoginIf("", auth.AccessToken, auth.User) {
		return KeptSession
	}
	slog.Debug("Bootstrap restored session", "user_id", auth.User.ID, "role", auth.User.Role)
	return Restored
}

// clear signs out unless an explicit login happened while the refresh was outstanding.
func (g *Gate) clear() {
	g.store.LogoutIf("")
}
