// Package config loads Quoter's configuration using koanf.
//
// Sources, lowest precedence first:
//  1. Built-in defaults
//  2. An optional YAML file
//  3. Environment variables prefixed QUOTER_ (QUOTER_SERVER_PORT → server.port)
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "QUOTER_"

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize caps form posts at 64KB.
	DefaultMaxRequestSize = 64 << 10

	// DefaultBcryptCost is the bcrypt work factor for new passwords.
	DefaultBcryptCost = 12

	// DefaultAccessLogMaxSizeMB is the size at which the access log rotates.
	DefaultAccessLogMaxSizeMB = 100

	// DefaultAccessLogMaxBackups is the number of rotated access logs kept.
	DefaultAccessLogMaxBackups = 3

	// DefaultAccessLogMaxAgeDays is how long rotated access logs are kept.
	DefaultAccessLogMaxAgeDays = 28
)

// Config is the root configuration structure.
//
// Sections carry no validate tags of their own; each key is checked where
// it is declared, so an error names the exact key to fix.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	DB        DBConfig        `koanf:"db"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
	AccessLog AccessLogConfig `koanf:"access_log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1024"`
	StaticDir       string        `koanf:"static_dir"       validate:"required"`
}

// Addr is the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DBConfig contains database settings.
type DBConfig struct {
	// Path is a SQLite file path, or ":memory:".
	Path string `koanf:"path" validate:"required"`
}

// AuthConfig contains session and password settings.
type AuthConfig struct {
	// SessionSecret signs session cookies. Empty means a random secret is
	// generated at startup, so sessions end when the process restarts.
	SessionSecret string        `koanf:"session_secret" validate:"omitempty,min=16"`
	SessionTTL    time.Duration `koanf:"session_ttl"    validate:"required,min=1m"`
	BcryptCost    int           `koanf:"bcrypt_cost"    validate:"required,min=4,max=31"`
	// CookieSecure sets the Secure attribute. Turn off only for plain-HTTP development.
	CookieSecure bool `koanf:"cookie_secure"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"required,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"required,oneof=json text"`
}

// AccessLogConfig contains the per-request access log settings.
type AccessLogConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"server.host":             "",
		"server.port":             DefaultServerPort,
		"server.read_timeout":     "15s",
		"server.write_timeout":    "15s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "30s",
		"server.max_request_size": DefaultMaxRequestSize,
		"server.static_dir":       "web/static",

		"db.path": "data/quoter.db",

		"auth.session_secret": "",
		"auth.session_ttl":    "168h",
		"auth.bcrypt_cost":    DefaultBcryptCost,
		"auth.cookie_secure":  true,

		"log.level":  "info",
		"log.format": "text",

		"access_log.enabled":     false,
		"access_log.path":        "logs/access.log",
		"access_log.max_size":    DefaultAccessLogMaxSizeMB,
		"access_log.max_backups": DefaultAccessLogMaxBackups,
		"access_log.max_age":     DefaultAccessLogMaxAgeDays,
		"access_log.compress":    true,
	}
}

// sections lists the top-level keys, longest first, so envKey can tell
// QUOTER_ACCESS_LOG_PATH (access_log.path) from QUOTER_LOG_LEVEL (log.level).
var sections = []string{"access_log", "server", "auth", "log", "db"}

// envKey maps QUOTER_SERVER_MAX_REQUEST_SIZE to server.max_request_size.
// Only the section separator becomes a dot; underscores inside a key stay.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return key
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (QUOTER_ prefix)
//  2. The YAML file at path, if path is non-empty and the file exists
//  3. Default values
//
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load the config file if it exists
	if path != "" {
		if err := loadFileIfExists(k, path); err != nil {
			return nil, fmt.Errorf("loading config file %q: %w", path, err)
		}
	}

	// 3. Load environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
