package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/build-fetch-go/internal/domain"
)

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
download:
  install_dir: ~/Games/Builds
manifest:
  base_url: https://builds.internal.test
progress:
  interval: 250ms
`), 0644))

	t.Setenv("BUILDFETCH_HTTP_USER_AGENT", "env-agent")
	t.Setenv("BUILDFETCH_STORE_DATABASE_PATH", filepath.Join(dir, "jobs.db"))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, filepath.Join(home, "Games", "Builds"), config.Download.InstallDir)
	assert.Equal(t, "https://builds.internal.test", config.Manifest.BaseURL)
	assert.Equal(t, 250*time.Millisecond, config.Progress.Interval)
	assert.Equal(t, "env-agent", config.HTTP.UserAgent)
	assert.Equal(t, filepath.Join(dir, "jobs.db"), config.Store.DatabasePath)
	assert.Equal(t, 60*time.Second, config.HTTP.RequestTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manifest:\n  base_url: not-a-url\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "manifest base url")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	config := domain.DefaultConfig()
	config.Server.Port = 7070
	config.Download.InstallDir = filepath.Join(dir, "builds")
	config.HTTP.IdleConnTimeout = 45 * time.Second
	config.Notification.Enabled = true

	path := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, loaded.Server.Port)
	assert.Equal(t, filepath.Join(dir, "builds"), loaded.Download.InstallDir)
	assert.Equal(t, 45*time.Second, loaded.HTTP.IdleConnTimeout)
	assert.True(t, loaded.Notification.Enabled)
	assert.Equal(t, config.HTTP.UserAgent, loaded.HTTP.UserAgent)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *domain.Config)
	}{
		{"port", func(c *domain.Config) { c.Server.Port = 0 }},
		{"install dir", func(c *domain.Config) { c.Download.InstallDir = "" }},
		{"buffer", func(c *domain.Config) { c.Download.BufferSize = 0 }},
		{"pool", func(c *domain.Config) { c.HTTP.MaxIdleConnsPerHost = 0 }},
		{"timeout", func(c *domain.Config) { c.HTTP.RequestTimeout = 0 }},
		{"interval", func(c *domain.Config) { c.Progress.Interval = -time.Second }},
		{"database", func(c *domain.Config) { c.Store.DatabasePath = "" }},
	}

	require.NoError(t, validateConfig(domain.DefaultConfig()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := domain.DefaultConfig()
			tt.mutate(config)
			assert.Error(t, validateConfig(config))
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "BuildFetch"), expandPath("$HOME/BuildFetch"))
	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}
