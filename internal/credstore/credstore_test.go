// ABOUTME: Tests for the persisted cookie jar
// ABOUTME: Verifies persistence across instances, expiry filtering and clearing

package credstore

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return u
}

func TestJar_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	u := mustURL(t, "http://127.0.0.1:3000/auth/login")

	j, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	j.SetCookies(u, []*http.Cookie{{Name: "clinic_refresh", Value: "r1", Path: "/", MaxAge: 3600, HttpOnly: true}})

	info, err := os.Stat(filepath.Join(dir, "cookies.json"))
	if err != nil {
		t.Fatalf("expected cookie file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cookies := reopened.Cookies(mustURL(t, "http://127.0.0.1:3000/auth/refresh"))
	if len(cookies) != 1 || cookies[0].Value != "r1" {
		t.Errorf("expected restored refresh cookie, got %v", cookies)
	}
}

func TestJar_SkipsExpiredOnLoad(t *testing.T) {
	dir := t.TempDir()
	u := mustURL(t, "http://127.0.0.1:3000/")

	j, _ := Open(dir)
	j.SetCookies(u, []*http.Cookie{{Name: "clinic_refresh", Value: "r1", Path: "/", MaxAge: 60}})

	reopened, _ := Open(dir)
	reopened.now = func() time.Time { return time.Now().Add(time.Hour) }
	// Force a reload with the shifted clock.
	reopened.entries = map[string]storedCookie{}
	if err := reopened.load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if reopened.Len() != 0 {
		t.Errorf("expected expired cookie to be dropped, got %d", reopened.Len())
	}
}

func TestJar_DeletionCookieRemovesEntry(t *testing.T) {
	dir := t.TempDir()
	u := mustURL(t, "http://127.0.0.1:3000/")

	j, _ := Open(dir)
	j.SetCookies(u, []*http.Cookie{{Name: "clinic_refresh", Value: "r1", Path: "/", MaxAge: 3600}})
	j.SetCookies(u, []*http.Cookie{{Name: "clinic_refresh", Value: "", Path: "/", MaxAge: -1}})

	if j.Len() != 0 {
		t.Errorf("expected cookie removed, got %d", j.Len())
	}
	reopened, _ := Open(dir)
	if len(reopened.Cookies(u)) != 0 {
		t.Error("expected no cookies after reopen")
	}
}

func TestJar_Clear(t *testing.T) {
	dir := t.TempDir()
	u := mustURL(t, "http://127.0.0.1:3000/")

	j, _ := Open(dir)
	j.SetCookies(u, []*http.Cookie{{Name: "clinic_refresh", Value: "r1", Path: "/", MaxAge: 3600}})
	if err := j.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(j.Cookies(u)) != 0 {
		t.Error("expected empty jar")
	}
	if _, err := os.Stat(filepath.Join(dir, "cookies.json")); !os.IsNotExist(err) {
		t.Errorf("expected cookie file removed, got %v", err)
	}
}

func TestJar_InvalidFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "cookies.json"), []byte("not json"), 0600)

	j, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if j.Len() != 0 {
		t.Errorf("expected empty jar, got %d", j.Len())
	}
}

func TestJar_MemoryOnly(t *testing.T) {
	j, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	u := mustURL(t, "http://127.0.0.1:3000/")
	j.SetCookies(u, []*http.Cookie{{Name: "clinic_refresh", Value: "r1", Path: "/"}})
	if len(j.Cookies(u)) != 1 {
		t.Error("expected in-memory cookie")
	}
}
