// ABOUTME: Rate limiting middleware with fixed-window counters
// ABOUTME: Provides per-endpoint rate limits keyed by IP, refresh cookie, or user

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/markalston/clinic-console/internal/sandbox/models"
)

// counter tracks requests within a fixed time window.
type counter struct {
	count     int
	expiresAt time.Time
}

// RateLimiter enforces a maximum number of requests per time window.
// Each key (IP, user, refresh cookie) gets an independent counter.
type RateLimiter struct {
	name    string
	metrics *Metrics
	limit   int
	window  time.Duration

	mu       sync.Mutex
	windows  map[string]*counter
	created  int
	sweepMax int
}

// NewRateLimiter creates a rate limiter named name that allows limit requests
// per window. m may be nil.
func NewRateLimiter(name string, limit int, window time.Duration, m *Metrics) *RateLimiter {
	return &RateLimiter{
		name:     name,
		metrics:  m,
		limit:    limit,
		window:   window,
		windows:  make(map[string]*counter),
		sweepMax: 100,
	}
}

// Allow reports whether a request for key is within the limit. When it is
// not, the second result is the time until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.windows[key]
	if ok && now.Before(c.expiresAt) {
		if c.count >= rl.limit {
			return false, c.expiresAt.Sub(now)
		}
		c.count++
		return true, 0
	}

	// The window boundary itself opens a new window.
	rl.windows[key] = &counter{count: 1, expiresAt: now.Add(rl.window)}
	rl.created++
	if rl.created >= rl.sweepMax {
		rl.sweep(now)
		rl.created = 0
	}
	return true, 0
}

// sweep drops expired windows. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, c := range rl.windows {
		if !now.Before(c.expiresAt) {
			delete(rl.windows, k)
		}
	}
}

// ClientIP extracts the client IP from X-Forwarded-For (leftmost) or RemoteAddr.
// The header is only meaningful behind a proxy that sets it; a direct client
// can spoof it.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if ip != "" && net.ParseIP(ip) != nil {
			return "ip:" + ip
		}
	}

	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return "ip:" + host
}

// RefreshKey keys on the refresh cookie so one console cannot spin the
// refresh endpoint. Falls back to ClientIP if no cookie is present.
func RefreshKey(r *http.Request) string {
	cookie, err := r.Cookie(models.RefreshCookieName)
	if err == nil && cookie.Value != "" {
		return "refresh:" + cookie.Value
	}
	return ClientIP(r)
}

// UserOrIP keys on the authenticated user, falling back to ClientIP.
func UserOrIP(r *http.Request) string {
	claims := GetUserClaims(r)
	if claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID
	}
	return ClientIP(r)
}

// RateLimit returns middleware that enforces limiter per keyFunc(r).
// A nil limiter disables it; an empty key lets the request through.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil || keyFunc == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next(w, r)
				return
			}
			if ok, retryAfter := limiter.Allow(key); !ok {
				retrySeconds := int(math.Ceil(retryAfter.Seconds()))
				slog.Warn("Rate limit exceeded", "limiter", limiter.name, "path", sanitizePath(r.URL.Path), "retry_after", retrySeconds)
				limiter.metrics.rateLimitedInc(limiter.name)

				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds))
				reject(w, fmt.Sprintf("Too many requests, retry in %ds", retrySeconds), http.StatusTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}
