package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go2tv.app/tizenbridge/internal/adapters/desktop"
	"go2tv.app/tizenbridge/internal/buildinfo"
	"go2tv.app/tizenbridge/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, buildinfo.Version, strings.TrimSpace(out))
}

func TestSelfTestReportsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("video:\n  app_resolution: 16K\n"), 0o600))

	out, err := execute(t, "self-test", "--config", path)
	require.NoError(t, err)

	var report selfTestOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, buildinfo.Name, report.Server.Name)
	assert.False(t, report.Config.Valid)
	assert.Contains(t, report.Config.Error, "app_resolution")
	assert.True(t, report.Adapters.DLNAWired)
	assert.True(t, report.DRM.MultiDRM)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("unknown_key: 1\n"), 0o600))

	_, err := execute(t, "serve", "--config", path)
	assert.Error(t, err)
}

func TestPanelFor(t *testing.T) {
	assert.Equal(t, domain.ResolutionFHD, panelFor(desktop.Product{}))
	assert.Equal(t, domain.ResolutionUHD4K, panelFor(desktop.Product{UHDPanel: true}))
	assert.Equal(t, domain.ResolutionUHD8K, panelFor(desktop.Product{UHD8K: true}))
}
