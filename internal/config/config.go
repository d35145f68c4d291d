// ABOUTME: Configuration loader for the clinic console
// ABOUTME: Layers defaults, clinic.yaml, .env, CLINIC_* environment variables and flags

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/markalston/clinic-console/internal/validation"
)

const (
	appName   = "clinic"
	envPrefix = "CLINIC"

	DefaultAPIURL = "http://localhost:3000"
)

// Config holds console settings.
type Config struct {
	APIURL         string        `mapstructure:"api_url" json:"api_url" yaml:"api_url" validate:"required,url"`
	Timeout        time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout" json:"refresh_timeout" yaml:"refresh_timeout" validate:"gt=0"`
	Lang           string        `mapstructure:"lang" json:"lang" yaml:"lang" validate:"oneof=en uz"`
	Output         string        `mapstructure:"output" json:"output" yaml:"output" validate:"oneof=text json yaml"`
	StateDir       string        `mapstructure:"state_dir" json:"state_dir" yaml:"state_dir"`
	LogLevel       string        `mapstructure:"log_level" json:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat      string        `mapstructure:"log_format" json:"log_format" yaml:"log_format" validate:"oneof=text json"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"api_url":         DefaultAPIURL,
		"timeout":         "30s",
		"refresh_timeout": "10s",
		"lang":            "en",
		"output":          "text",
		"state_dir":       DefaultStateDir(),
		"log_level":       "info",
		"log_format":      "text",
	}
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"api-url": "api_url",
	"output":  "output",
	"lang":    "lang",
}

// Load builds the configuration. configFile, when non-empty, replaces the
// search for clinic.yaml. flags may be nil.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(appName)
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if dir, err := DefaultConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flag, key := range flagKeys {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.Lang = strings.ToLower(cfg.Lang)
	cfg.Output = strings.ToLower(cfg.Output)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", validation.Message(err))
	}
	return &cfg, nil
}

// DefaultConfigDir returns the directory holding clinic.yaml
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

// DefaultStateDir returns the default state directory following XDG spec
func DefaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// WriteFile saves cfg as YAML at path, creating parent directories.
// An empty path writes to the default config directory.
func WriteFile(cfg *Config, path string) (string, error) {
	if path == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, appName+".yaml")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}
