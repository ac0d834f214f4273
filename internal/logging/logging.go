package logging

import (
	"io"
	"time"

	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/rs/zerolog"
)

// New builds the process logger. The writer should be stderr because stdout
// carries the stdio MCP stream.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.GetLogFormat() != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
