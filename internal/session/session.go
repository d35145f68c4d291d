// ABOUTME: Process-wide session state shared by the console screens and commands.
// ABOUTME: Holds the access token, the signed-in identity and the booted flag.

package session

import (
	"fmt"
	"strings"
	"sync"
)

// Role is a staff role known to the clinic backend.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDoctor    Role = "doctor"
	RoleReception Role = "reception"
)

// AllRoles lists every staff role in display order.
var AllRoles = []Role{RoleAdmin, RoleDoctor, RoleReception}

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q; valid roles: admin, doctor, reception", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known staff roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleReception:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Identity is the signed-in staff member as reported by the backend.
type Identity struct {
	ID                 string `json:"id" yaml:"id"`
	Email              string `json:"email" yaml:"email"`
	Role               Role   `json:"role" yaml:"role"`
	MustChangePassword bool   `json:"mustChangePassword,omitempty" yaml:"mustChangePassword,omitempty"`
}

// Valid reports whether the identity carries enough data to be trusted.
func (i *Identity) Valid() bool {
	return i != nil && i.ID != "" && i.Role.Valid()
}

// Snapshot is an immutable copy of the session at one point in time.
type Snapshot struct {
	Token    string
	Identity *Identity
	Booted   bool
}

// Authenticated reports whether the snapshot carries a signed-in identity.
func (s Snapshot) Authenticated() bool {
	return s.Identity != nil
}

// Store holds the session for the lifetime of the process.
// Token and identity are always replaced together; booted only ever moves
// from false to true.
type Store struct {
	mu       sync.RWMutex
	token    string
	identity *Identity
	booted   bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Snapshot)
}

// NewStore returns an empty, not yet booted store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Snapshot))}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token, Booted: s.booted}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}

// Token returns the current access token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns a copy of the signed-in identity, or nil.
func (s *Store) Identity() *Identity {
	return s.Snapshot().Identity
}

// Booted reports whether the bootstrap sequence has completed.
func (s *Store) Booted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.booted
}

// Login replaces the token and identity as one pair.
func (s *Store) Login(token string, identity Identity) {
	s.mu.Lock()
	s.token = token
	s.identity = &identity
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Logout clears the token and identity together.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// LoginIf performs Login only while the current token still equals prev.
// It reports whether the session was replaced.
func (s *Store) LoginIf(prev, token string, identity Identity) bool {
	s.mu.Lock()
	if s.token != prev {
		s.mu.Unlock()
		return false
	}
	s.token = token
	s.identity = &identity
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// LogoutIf performs Logout only while the current token still equals prev.
// It reports whether the session was cleared.
func (s *Store) LogoutIf(prev string) bool {
	s.mu.Lock()
	if s.token != prev {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.identity = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// SetBooted records the bootstrap outcome. Once true it stays true;
// a later SetBooted(false) is ignored.
func (s *Store) SetBooted(booted bool) {
	s.mu.Lock()
	if s.booted || !booted {
		s.mu.Unlock()
		return
	}
	s.booted = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// UpdateIdentity replaces the identity while keeping the current token.
// It is a no-op when nobody is signed in.
func (s *Store) UpdateIdentity(identity Identity) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.identity = &identity
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Subscribe registers fn to receive a snapshot after every change.
// Callbacks run on the goroutine that made the change, outside the lock.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
