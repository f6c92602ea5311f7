/*
Package logging builds the zerolog loggers used by galtree binaries.
*/
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "GALTREE_LOG_LEVEL"
	EnvLogNoColor = "GALTREE_LOG_NOCOLOR"
	EnvLogJSON    = "GALTREE_LOG_JSON"
)

// Config describes where and how much to log.
type Config struct {
	Level   zerolog.Level
	NoColor bool
	// JSON writes one JSON object per line instead of console output.
	JSON bool
}

// DefaultConfig logs at info level to a colored console.
func DefaultConfig() Config {
	return Config{Level: zerolog.InfoLevel}
}

// ConfigFromString returns the default configuration at the named level,
// with any environment overrides applied on top. An unrecognized level
// name leaves the default in place and ok is false.
func ConfigFromString(level string) (cfg Config, ok bool) {
	cfg = DefaultConfig()
	ok = true
	if level != "" {
		var lvl zerolog.Level
		if lvl, ok = ParseLevel(level); ok {
			cfg.Level = lvl
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, ok
}

// New creates a logger which writes to w and stamps every event with the
// time and the app name.
func New(w io.Writer, app string, cfg Config) zerolog.Logger {
	out := w
	if !cfg.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
	}
	return zerolog.New(out).Level(cfg.Level).
		With().Timestamp().Str("app", app).Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		cfg.JSON = v
	}
}

// ParseLevel converts a level name into a zerolog.Level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "fatal":
		return zerolog.FatalLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
