package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpersAreNoopsBeforeInit(t *testing.T) {
	Close()
	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warn("warn")
		Error("error")
	})
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "modeldeck.log")
	require.NoError(t, Init(path, "debug"))
	defer Close()

	Debug("dispatching", "request", "abc")
	Info("catalog loaded", "models", 3)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dispatching")
	assert.Contains(t, string(data), "request=abc")
	assert.Contains(t, string(data), "models=3")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(filepath.Join(t.TempDir(), "x.log"), "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)
	defer Close()

	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
