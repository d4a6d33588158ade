// Package config loads the server's environment configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joeshaw/envdecode"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds settings read from the process environment. Command-line
// flags take precedence over these values.
type Config struct {
	// ServerName is reported as serverInfo.name. ENV: MCP_SERVER_NAME
	ServerName string `env:"MCP_SERVER_NAME,default=hello-world-server"`
	// ServerVersion is reported as serverInfo.version. ENV: MCP_SERVER_VERSION
	ServerVersion string `env:"MCP_SERVER_VERSION,default=1.0.0"`
	// LogLevel is one of debug, info, warn or error. ENV: MCP_LOG_LEVEL
	LogLevel string `env:"MCP_LOG_LEVEL,default=info"`
	// LogFormat is text or json. ENV: MCP_LOG_FORMAT
	LogFormat string `env:"MCP_LOG_FORMAT,default=text"`
	// UserID overrides the OS user as the peer identity. ENV: MCP_USER_ID
	UserID string `env:"MCP_USER_ID"`
	// Instructions are returned during initialize when set. ENV: MCP_INSTRUCTIONS
	Instructions string `env:"MCP_INSTRUCTIONS"`
}

// Load decodes Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	// Every field has a default or is optional, so an empty environment is fine.
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown log levels and formats.
func (c Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: want %s or %s", c.LogFormat, LogFormatText, LogFormatJSON)
	}
	return nil
}

// LogLevels lists the accepted level names.
var LogLevels = []string{"debug", "info", "warn", "error"}

// ParseLogLevel maps one of LogLevels onto slog.
func ParseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: want one of %v", s, LogLevels)
	}
}
