// ABOUTME: Cookie jar that persists the backend refresh cookie between runs
// ABOUTME: Stores cookies as JSON in the XDG state directory with owner-only permissions

package credstore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileName = "cookies.json"

// Jar is an http.CookieJar that mirrors every cookie it receives to disk.
type Jar struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	jar     *cookiejar.Jar
	entries map[string]storedCookie
}

// storedCookie is one persisted cookie with the URL it was set for.
type storedCookie struct {
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitzero"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"httpOnly,omitempty"`
	SameSite int       `json:"sameSite,omitempty"`
}

type jarData struct {
	Cookies []storedCookie `json:"cookies"`
}

// Open loads the persisted jar from dir. A missing or unreadable file starts empty.
// An empty dir keeps cookies in memory only.
func Open(dir string) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &Jar{
		dir:     dir,
		now:     time.Now,
		jar:     inner,
		entries: make(map[string]storedCookie),
	}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

// SetCookies implements http.CookieJar and persists the change.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	now := j.now()
	for _, c := range cookies {
		key := entryKey(u, c)
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) || c.Value == "" {
			delete(j.entries, key)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.entries[key] = storedCookie{
			URL:      originOf(u),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: int(c.SameSite),
		}
	}
	// Best-effort: losing the file only means signing in again next run.
	_ = j.saveLocked()
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Len returns the number of persisted cookies.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Clear forgets every cookie and removes the file.
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.jar = inner
	j.entries = make(map[string]storedCookie)
	if j.dir == "" {
		return nil
	}
	if err := os.Remove(j.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cookie file: %w", err)
	}
	return nil
}

func (j *Jar) path() string {
	return filepath.Join(j.dir, fileName)
}

func (j *Jar) load() error {
	if j.dir == "" {
		return nil
	}
	data, err := os.ReadFile(j.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cookie file: %w", err)
	}

	var stored jarData
	if err := json.Unmarshal(data, &stored); err != nil {
		// Invalid JSON, start fresh
		return nil
	}

	now := j.now()
	for _, sc := range stored.Cookies {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		c := &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
			SameSite: http.SameSite(sc.SameSite),
		}
		j.jar.SetCookies(u, []*http.Cookie{c})
		j.entries[entryKey(u, c)] = sc
	}
	return nil
}

func (j *Jar) saveLocked() error {
	if j.dir == "" {
		return nil
	}
	if err := os.MkdirAll(j.dir, 0700); err != nil {
		return err
	}

	out := jarData{Cookies: make([]storedCookie, 0, len(j.entries))}
	for _, sc := range j.entries {
		out.Cookies = append(out.Cookies, sc)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	tmp := j.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, j.path())
}

func entryKey(u *url.URL, c *http.Cookie) string {
	domain := c.Domain
	if domain == "" {
		domain = u.Hostname()
	}
	return domain + ";" + c.Path + ";" + c.Name
}

func originOf(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
}
