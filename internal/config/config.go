// Package config loads service configuration from the environment.
//
// Variables use the format LEDGER_SECTION_KEY, e.g. LEDGER_AUTH_SECRET.
// Security-critical values (signing secret, operator credential) are only
// ever supplied this way, never compiled in.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "LEDGER_"

type Config struct {
	Port  string      `koanf:"port"`
	Log   LogConfig   `koanf:"log"`
	Auth  AuthConfig  `koanf:"auth"`
	Store StoreConfig `koanf:"store"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AuthConfig struct {
	// Username is the operator login name.
	Username string `koanf:"username"`

	// Password is the bcrypt hash of the operator password.
	Password string `koanf:"password"`

	// Secret signs and verifies every issued token.
	Secret string `koanf:"secret"`

	// TTL is the validity window of an issued token.
	TTL time.Duration `koanf:"ttl"`
}

type StoreConfig struct {
	// Backend selects the account store: "memory" or "postgres".
	Backend string `koanf:"backend"`

	// Postgres is the connection URI used when Backend is "postgres".
	Postgres string `koanf:"postgres"`
}

func defaults() map[string]any {
	return map[string]any{
		"port": "8080",
		"log": map[string]any{
			"level":  "info",
			"format": "text",
		},
		"auth": map[string]any{
			"ttl": "1h",
		},
		"store": map[string]any{
			"backend": "memory",
		},
	}
}

// mapProvider loads configuration from a map, used for defaults.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: ReadBytes not supported by map provider")
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}

// Load reads defaults, overlays the environment and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(mapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// LEDGER_AUTH_SECRET -> auth.secret
	envTransformer := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "_", ".")
		return s
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformer), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Username == "" {
		return errors.New("config: LEDGER_AUTH_USERNAME is required")
	}
	if c.Auth.Password == "" {
		return errors.New("config: LEDGER_AUTH_PASSWORD (bcrypt hash) is required")
	}
	if c.Auth.Secret == "" {
		return errors.New("config: LEDGER_AUTH_SECRET is required")
	}
	if c.Auth.TTL <= 0 {
		return errors.New("config: LEDGER_AUTH_TTL must be positive")
	}
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.Postgres == "" {
			return errors.New("config: LEDGER_STORE_POSTGRES is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	return nil
}
