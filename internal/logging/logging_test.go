package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callcharge.log")

	logger, closeLog, err := New(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Debug("rated call")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"rated call"`)
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	logger, closeLog, err := New(Config{Level: "chatty", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	defer closeLog()

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewReportsUnopenableOutput(t *testing.T) {
	_, _, err := New(Config{Level: "info", Format: "json", Output: filepath.Join(t.TempDir(), "missing", "callcharge.log")})
	assert.Error(t, err)
}
