// ABOUTME: Tests for sandbox configuration loading
// ABOUTME: Uses a map lookuper so tests never touch the process environment

package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadFrom(context.Background(), envconfig.MapLookuper(env))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Addr != "127.0.0.1:3000" {
		t.Errorf("Expected default addr 127.0.0.1:3000, got %s", cfg.Addr)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("Expected default access TTL 15m, got %s", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 168*time.Hour {
		t.Errorf("Expected default refresh TTL 168h, got %s", cfg.RefreshTTL)
	}
	if cfg.AdminEmail != "admin@clinic.local" {
		t.Errorf("Expected default admin email, got %s", cfg.AdminEmail)
	}
	if !cfg.RateLimitEnabled || cfg.RateLimitAuth != 5 {
		t.Errorf("Expected rate limiting enabled with auth limit 5, got %v/%d", cfg.RateLimitEnabled, cfg.RateLimitAuth)
	}
	if cfg.CookieSecure {
		t.Error("Expected insecure cookies by default for local use")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"SANDBOX_ADDR":                 ":9090",
		"SANDBOX_ACCESS_TTL":           "1m",
		"SANDBOX_ADMIN_EMAIL":          "root@clinic.uz",
		"SANDBOX_CORS_ALLOWED_ORIGINS": "http://localhost:5173,https://clinic.uz",
		"SANDBOX_RATE_LIMIT_ENABLED":   "false",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("Expected addr :9090, got %s", cfg.Addr)
	}
	if cfg.AccessTTL != time.Minute {
		t.Errorf("Expected access TTL 1m, got %s", cfg.AccessTTL)
	}
	if cfg.AdminEmail != "root@clinic.uz" {
		t.Errorf("Expected admin email override, got %s", cfg.AdminEmail)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://clinic.uz" {
		t.Errorf("Expected two CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitEnabled {
		t.Error("Expected rate limiting disabled")
	}
}

func TestLoadConfig_UnprefixedIgnored(t *testing.T) {
	cfg, err := load(t, map[string]string{"ADDR": ":1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Addr == ":1" {
		t.Error("Expected unprefixed ADDR to be ignored")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"rate limit zero", map[string]string{"SANDBOX_RATE_LIMIT_AUTH": "0"}, "SANDBOX_RATE_LIMIT_AUTH"},
		{"rate limit too high", map[string]string{"SANDBOX_RATE_LIMIT_DEFAULT": "10001"}, "SANDBOX_RATE_LIMIT_DEFAULT"},
		{"refresh shorter than access", map[string]string{"SANDBOX_ACCESS_TTL": "2h", "SANDBOX_REFRESH_TTL": "1h"}, "SANDBOX_REFRESH_TTL"},
		{"short admin password", map[string]string{"SANDBOX_ADMIN_PASSWORD": "short"}, "SANDBOX_ADMIN_PASSWORD"},
		{"bad duration", map[string]string{"SANDBOX_ACCESS_TTL": "soon"}, "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.env)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
