package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Name is the name of the service that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// name is the name of the service.
	name Name

	// level is the minimum level to log at.
	level slog.Level
}

// NewConfig creates a new logging configuration for the named service. The
// level is taken from the LOG_LEVEL environment variable and defaults to info.
func NewConfig(name Name) *Config {
	return &Config{
		name:  name,
		level: levelFromEnv(),
	}
}

// CommonLogger creates the logger used across the application. It logs JSON to
// stdout with the service name attached to every record.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: c.level,
	})

	l := slog.New(h).With(slog.String(KeyService, string(c.name)))

	// Make the logger available to code that uses the default logger.
	slog.SetDefault(l)

	return l, nil
}

func levelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
