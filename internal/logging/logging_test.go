package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/docusign-mcp-server/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type logConfig struct {
	level  string
	format string
}

func (c logConfig) GetLogLevel() string  { return c.level }
func (c logConfig) GetLogFormat() string { return c.format }

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logConfig{level: "debug", format: "json"}, &buf)

	logger.Debug().Str("accountId", "acct-123").Msg("session ready")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, "acct-123", entry["accountId"])
	require.Equal(t, "session ready", entry["message"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logConfig{level: "chatty", format: "json"}, &buf)

	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	logger.Debug().Msg("dropped")
	require.Zero(t, buf.Len())
}
