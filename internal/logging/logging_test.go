package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "player.log")

	logger, err := New(Config{Level: "debug", Format: "json", File: path}, "quran-player")
	require.NoError(t, err)

	logger.Debug("chapter selected")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"chapter selected"`)
	require.Contains(t, string(data), `"service":"quran-player"`)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"}, "x")
	require.Error(t, err)

	_, err = New(Config{Level: "info", Format: "xml"}, "x")
	require.Error(t, err)
}

func TestLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxy.log")

	logger, err := New(Config{Level: "warn", Format: "console", File: path}, "tafseer-proxy")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hidden")
	require.Contains(t, string(data), "shown")
}
