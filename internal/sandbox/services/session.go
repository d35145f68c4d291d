// ABOUTME: Refresh session management for the httpOnly refresh cookie
// ABOUTME: Stores sessions in the TTL cache and rotates them on every use

package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/markalston/clinic-console/internal/sandbox/cache"
	"github.com/markalston/clinic-console/internal/sandbox/models"
)

// ErrSessionNotFound is returned for unknown, expired or already rotated refresh tokens.
var ErrSessionNotFound = errors.New("session not found")

// SessionService manages server-side refresh sessions
type SessionService struct {
	cache *cache.Cache[models.RefreshSession]
	ttl   time.Duration
}

// NewSessionService creates a new session service
func NewSessionService(c *cache.Cache[models.RefreshSession], ttl time.Duration) *SessionService {
	return &SessionService{cache: c, ttl: ttl}
}

// TTL is the lifetime of a refresh session.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Create starts a session for userID and returns its refresh token.
func (s *SessionService) Create(userID string) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	s.cache.SetWithTTL(sessionKey(token), models.RefreshSession{
		UserID:    userID,
		CreatedAt: time.Now(),
	}, s.ttl)
	return token, nil
}

// Rotate consumes token and issues its replacement. A token can be rotated
// once; replaying it fails.
func (s *SessionService) Rotate(token string) (string, string, error) {
	sess, ok := s.cache.Take(sessionKey(token))
	if !ok {
		return "", "", ErrSessionNotFound
	}
	next, err := s.Create(sess.UserID)
	if err != nil {
		return "", "", err
	}
	return sess.UserID, next, nil
}

// Delete removes a session
func (s *SessionService) Delete(token string) {
	s.cache.Clear(sessionKey(token))
}

// RevokeUser ends every session of userID.
func (s *SessionService) RevokeUser(userID string) int {
	return s.cache.DeleteFunc(func(_ string, sess models.RefreshSession) bool {
		return sess.UserID == userID
	})
}

// randomToken returns 32 bytes of cryptographically secure random data, base64url encoded.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// sessionKey returns the cache key for a refresh token
func sessionKey(token string) string {
	return "refresh:" + token
}
