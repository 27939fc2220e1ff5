// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/sprite-tools-mcp/internal/sprite"
)

// Environment variables understood by the server.
const (
	EnvLogLevel          = "SPRITE_MCP_LOG_LEVEL"
	EnvHTTPAddr          = "SPRITE_HTTP_ADDR"
	EnvHTTPRoot          = "SPRITE_HTTP_ROOT"
	EnvDecodeConcurrency = "SPRITE_DECODE_CONCURRENCY"
	EnvMaxImagePixels    = "SPRITE_MAX_IMAGE_PIXELS"
)

// DefaultHTTPAddr is used by the serve command when no address is given.
// It only accepts local connections.
const DefaultHTTPAddr = "127.0.0.1:8080"

// Config holds runtime settings.
type Config struct {
	// LogLevel is "debug", "info", "warn" or "error". Empty means "info".
	LogLevel string

	// HTTPAddr is the listen address of the HTTP API.
	HTTPAddr string

	// HTTPRoot confines every file the HTTP API reads or writes. Empty means
	// the working directory.
	HTTPRoot string

	// DecodeConcurrency caps parallel image decodes. 0 means no limit.
	DecodeConcurrency int

	// MaxImagePixels rejects larger source images. 0 means no limit.
	MaxImagePixels int
}

// FromEnv builds a Config from the environment, applying defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		LogLevel: strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel))),
		HTTPAddr: os.Getenv(EnvHTTPAddr),
		HTTPRoot: os.Getenv(EnvHTTPRoot),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}

	if v := os.Getenv(EnvDecodeConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a non-negative integer", EnvDecodeConcurrency, v)
		}
		cfg.DecodeConcurrency = n
	}
	if v := os.Getenv(EnvMaxImagePixels); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid %s %q: must be a non-negative integer", EnvMaxImagePixels, v)
		}
		cfg.MaxImagePixels = n
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeOptions turns the decode settings into sprite options.
func (c Config) DecodeOptions() []sprite.Option {
	var opts []sprite.Option
	if c.DecodeConcurrency > 0 {
		opts = append(opts, sprite.WithConcurrency(c.DecodeConcurrency))
	}
	if c.MaxImagePixels > 0 {
		opts = append(opts, sprite.WithMaxPixels(c.MaxImagePixels))
	}
	return opts
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

// SlogLevel maps LogLevel onto a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid %s %q", EnvLogLevel, c.LogLevel)
}
