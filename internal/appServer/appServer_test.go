package appServer

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/ds124wfegd/skysight/config"
	"github.com/ds124wfegd/skysight/internal/locator"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver(t *testing.T) {
	cfg := config.Default().App

	_, isEnv := NewResolver(&cfg, http.DefaultClient).(*locator.EnvResolver)
	assert.True(t, isEnv)

	cfg.BackendStrategy = config.BackendFromDocument
	doc, isDoc := NewResolver(&cfg, http.DefaultClient).(*locator.DocumentResolver)
	require.True(t, isDoc)
	assert.Equal(t, cfg.BackendDocument, doc.URL)
}

func TestSetupLoggingWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	closeLog, err := SetupLogging(&config.LogConfig{File: path, Level: "info"})
	require.NoError(t, err)

	logrus.Error("Error uploading image")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"error"`)
	assert.Contains(t, string(data), "Error uploading image")
}

func TestSetupLoggingRejectsLevel(t *testing.T) {
	_, err := SetupLogging(&config.LogConfig{Level: "loud"})
	assert.Error(t, err)
}
