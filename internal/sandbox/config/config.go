// ABOUTME: Configuration loader for the sandbox backend
// ABOUTME: Loads SANDBOX_* settings from the environment and an optional .env file

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	// Server
	Addr               string   `env:"ADDR, default=127.0.0.1:3000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
	CookieSecure       bool     `env:"COOKIE_SECURE, default=false"`

	// Tokens
	JWTSecret  string        `env:"JWT_SECRET"`
	AccessTTL  time.Duration `env:"ACCESS_TTL, default=15m"`
	RefreshTTL time.Duration `env:"REFRESH_TTL, default=168h"`

	// Seeded administrator
	AdminEmail    string `env:"ADMIN_EMAIL, default=admin@clinic.local"`
	AdminPassword string `env:"ADMIN_PASSWORD, default=admin12345"`
	SeedDemo      bool   `env:"SEED_DEMO, default=true"`

	// Rate Limiting
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED, default=true"`
	RateLimitAuth    int  `env:"RATE_LIMIT_AUTH, default=5"`
	RateLimitRefresh int  `env:"RATE_LIMIT_REFRESH, default=30"`
	RateLimitWrite   int  `env:"RATE_LIMIT_WRITE, default=60"`
	RateLimitDefault int  `env:"RATE_LIMIT_DEFAULT, default=300"`

	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFormat string `env:"LOG_FORMAT, default=text"`
}

// Load reads SANDBOX_* variables. A .env file in the working directory
// fills variables that are not already set.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads settings through l, which tests replace with a map.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("SANDBOX_", l),
	}); err != nil {
		return nil, fmt.Errorf("loading sandbox config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if c.AccessTTL <= 0 {
		return fmt.Errorf("SANDBOX_ACCESS_TTL must be positive, got %s", c.AccessTTL)
	}
	if c.RefreshTTL < c.AccessTTL {
		return fmt.Errorf("SANDBOX_REFRESH_TTL (%s) must not be shorter than SANDBOX_ACCESS_TTL (%s)", c.RefreshTTL, c.AccessTTL)
	}
	if len(c.AdminPassword) < 8 {
		return fmt.Errorf("SANDBOX_ADMIN_PASSWORD must be at least 8 characters")
	}

	for _, rl := range []struct {
		name  string
		value int
	}{
		{"SANDBOX_RATE_LIMIT_AUTH", c.RateLimitAuth},
		{"SANDBOX_RATE_LIMIT_REFRESH", c.RateLimitRefresh},
		{"SANDBOX_RATE_LIMIT_WRITE", c.RateLimitWrite},
		{"SANDBOX_RATE_LIMIT_DEFAULT", c.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}
	return nil
}
