// Package config loads server settings from the environment.
//
// An optional .env file in the working directory is read first; variables
// already set in the process environment take precedence over it.
//
//	PIXELKIT_LOG_LEVEL        debug, info, warn, error (default info)
//	PIXELKIT_MAX_PIXELS       decode/encode pixel cap (default 100000000)
//	PIXELKIT_DEFAULT_FORMAT   output format when a call names none (default png)
//	PIXELKIT_DEFAULT_QUALITY  encoder quality 0..1 (default 0.92)
//	PIXELKIT_TOOL_TIMEOUT     per tool call limit, Go duration (default 60s)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/pixelkit-mcp/internal/imaging"
)

// Environment variable names.
const (
	EnvLogLevel       = "PIXELKIT_LOG_LEVEL"
	EnvMaxPixels      = "PIXELKIT_MAX_PIXELS"
	EnvDefaultFormat  = "PIXELKIT_DEFAULT_FORMAT"
	EnvDefaultQuality = "PIXELKIT_DEFAULT_QUALITY"
	EnvToolTimeout    = "PIXELKIT_TOOL_TIMEOUT"
)

// Config holds the resolved settings.
type Config struct {
	LogLevel       string
	MaxPixels      int
	DefaultFormat  imaging.Format
	DefaultQuality float64
	ToolTimeout    time.Duration
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:       "info",
		MaxPixels:      imaging.DefaultMaxPixels,
		DefaultFormat:  imaging.FormatPNG,
		DefaultQuality: 0.92,
		ToolTimeout:    60 * time.Second,
	}
}

// Load reads .env (if present) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv resolves settings through getenv, starting from Default.
// An invalid value is an error rather than a silent fallback.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(v)
		default:
			return Config{}, fmt.Errorf("%s: unknown level %q", EnvLogLevel, v)
		}
	}

	if v := strings.TrimSpace(getenv(EnvMaxPixels)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: want a positive integer, got %q", EnvMaxPixels, v)
		}
		cfg.MaxPixels = n
	}

	if v := strings.TrimSpace(getenv(EnvDefaultFormat)); v != "" {
		f, err := imaging.ParseFormat(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvDefaultFormat, err)
		}
		if f == imaging.FormatWebP {
			return Config{}, fmt.Errorf("%s: webp cannot be encoded", EnvDefaultFormat)
		}
		cfg.DefaultFormat = f
	}

	if v := strings.TrimSpace(getenv(EnvDefaultQuality)); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil || q < 0 || q > 1 {
			return Config{}, fmt.Errorf("%s: want a number in 0..1, got %q", EnvDefaultQuality, v)
		}
		cfg.DefaultQuality = q
	}

	if v := strings.TrimSpace(getenv(EnvToolTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%s: want a positive duration, got %q", EnvToolTimeout, v)
		}
		cfg.ToolTimeout = d
	}

	return cfg, nil
}
