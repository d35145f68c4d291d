// ABOUTME: HTTP client for the clinic REST backend
// ABOUTME: Attaches the session token, refreshes once on 401 and maps errors for console usage

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/markalston/clinic-console/internal/session"
)

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 30 * time.Second

// expirySkew refreshes tokens slightly before they actually expire.
const expirySkew = 10 * time.Second

// Client is the API client for the clinic backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *session.Store
	refreshes  singleflight.Group
	now        func() time.Time

	// applied after all options so their order does not matter
	jar     http.CookieJar
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCookieJar sets the jar that carries the refresh cookie.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a new API client bound to a session store
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.jar != nil || c.timeout > 0 {
		hc := *c.httpClient
		if c.jar != nil {
			hc.Jar = c.jar
		}
		if c.timeout > 0 {
			hc.Timeout = c.timeout
		}
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the backend URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the session store the client reads tokens from.
func (c *Client) Store() *session.Store {
	return c.store
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// public calls never carry the bearer token and never refresh.
	public bool
	// noRefresh calls carry the token but never trigger a refresh.
	noRefresh bool
}

// do performs a request, decoding a 2xx body into out when out is non-nil.
// Protected calls that fail with 401 refresh the session once and retry.
func (c *Client) do(ctx context.Context, r request, out any) error {
	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	// A request refreshes at most once, whether before sending or after a 401.
	token := ""
	refreshed := false
	if !r.public {
		token = c.store.Token()
		if token != "" && !r.noRefresh && c.tokenExpired(token) {
			refreshed = true
			if err := c.refreshSession(ctx, token); err != nil {
				slog.Debug("Refresh of expired token failed", "path", r.path, "error", err)
				return &APIError{Status: http.StatusUnauthorized, Message: "session expired"}
			}
			token = c.store.Token()
		}
	}

	resp, err := c.send(ctx, r, payload, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && !r.public && !r.noRefresh && !refreshed {
		resp.Body.Close()
		if err := c.refreshSession(ctx, token); err != nil {
			slog.Debug("Session refresh after 401 failed", "path", r.path, "error", err)
			return &APIError{Status: http.StatusUnauthorized, Message: "session expired"}
		}
		resp, err = c.send(ctx, r, payload, c.store.Token())
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, r request, payload []byte, token string) (*http.Response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	return resp, nil
}

// refreshSession exchanges the refresh cookie for a new access token.
// Concurrent callers share one refresh. stale is the token that was rejected;
// if the store already moved past it, nothing is refreshed.
func (c *Client) refreshSession(ctx context.Context, stale string) error {
	if current := c.store.Token(); current != stale && current != "" {
		return nil
	}

	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		auth, err := c.Refresh(ctx)
		if err != nil {
			c.store.LogoutIf(stale)
			return nil, err
		}
		c.store.LoginIf(stale, auth.AccessToken, auth.User)
		return nil, nil
	})
	return err
}

// tokenExpired reads the exp claim without verifying the signature.
// Opaque tokens are treated as valid and left to the 401 path.
func (c *Client) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return c.now().Add(expirySkew).After(exp.Time)
}

// handleRequestError converts transport errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("request canceled")
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var errResp ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &errResp); err == nil {
		apiErr.Message = errResp.Text()
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
