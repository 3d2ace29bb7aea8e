package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gatorkit/gator-cli/internal/domain/config"
	"github.com/google/uuid"
	"github.com/google/wire"
)

var LoggingSet = wire.NewSet(
	NewLogger,
)

// NewLogger creates the process logger on stderr.
// GATOR_LOG_LEVEL sets the level; --debug forces debug with source locations.
func NewLogger(cfg *config.RuntimeConfig) *slog.Logger {
	return newLogger(os.Stderr, cfg, os.Getenv("GATOR_LOG_LEVEL"))
}

func newLogger(w io.Writer, cfg *config.RuntimeConfig, levelName string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(levelName, slog.LevelWarn),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if !cfg.Debug {
					return slog.Attr{}
				}
			case slog.SourceKey:
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = shortPath(source.File)
				}
			}
			return a
		},
	}
	if cfg.Debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("session", uuid.NewString()[:8])
}

// parseLevel maps a level name to a slog level, falling back on unknown names
func parseLevel(name string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return fallback
}

// shortPath trims a source path to its location inside the module
func shortPath(file string) string {
	if idx := strings.Index(file, "gator-cli/"); idx != -1 {
		return file[idx+len("gator-cli/"):]
	}
	dir, name := filepath.Split(file)
	return filepath.Join(filepath.Base(dir), name)
}
