package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/model"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvPort, "")
	t.Setenv(EnvDebug, "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 20, cfg.Poller.HistorySize)
	assert.Equal(t, 30*time.Second, cfg.Poller.HealthInterval)
	assert.Equal(t, 12, cfg.Alerts.MockCount)
	assert.Equal(t, model.RiskHigh, cfg.Alerts.RaiseCategory)
	assert.False(t, cfg.Debug)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIURL, "http://models.internal:8080/")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvDebug, "true")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://models.internal:8080", cfg.Backend.BaseURL)
	assert.Equal(t, ":8081", cfg.API.Addr)
	assert.True(t, cfg.Debug)
}

func TestEnvIgnoresBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "eighty")
	t.Setenv(EnvDebug, "maybe")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":10000", cfg.API.Addr)
	assert.False(t, cfg.Debug)
}

func TestLoadYAMLAndJSON(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "rockwatch.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
log_level: warn
backend:
  base_url: http://backend:5000
poller:
  interval: 5s
  history_size: 50
alerts:
  raise_category: critical
notify:
  email:
    min_category: " HIGH "
`), 0o644))
	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "http://backend:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 50, cfg.Poller.HistorySize)
	assert.Equal(t, model.RiskCritical, cfg.Alerts.RaiseCategory)
	assert.Equal(t, model.RiskHigh, cfg.Notify.Email.MinCategory)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)

	jsonPath := filepath.Join(dir, "rockwatch.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"validation": {"strict": true}, "poller": {"history_size": 7}}`), 0o644))
	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	assert.True(t, cfg.Validation.Strict)
	assert.Equal(t, 7, cfg.Poller.HistorySize)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err = Load(empty)
	assert.EqualError(t, err, "config file is empty")

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("alerts:\n  raise_category: severe\n"), 0o644))
	_, err = Load(unknown)
	assert.ErrorContains(t, err, "alerts.raise_category unknown")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative url", func(c *Config) { c.Backend.BaseURL = "localhost:5000" }, "backend.base_url is not an absolute url"},
		{"api addr", func(c *Config) { c.API.Addr = "" }, "api.addr required"},
		{"storage driver", func(c *Config) { c.Storage.Enabled = true; c.Storage.Driver = "mysql" }, "storage.driver unsupported"},
		{"kafka", func(c *Config) { c.Broadcast.Kafka.Enabled = true }, "broadcast.kafka requires"},
		{"email", func(c *Config) { c.Notify.Email.Enabled = true }, "notify.email requires"},
		{"raise category", func(c *Config) { c.Alerts.RaiseCategory = "Severe" }, "alerts.raise_category unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestManagerReloadAndUpdate(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "rockwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, "info", m.Get().LogLevel)

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))
	needs, err := m.NeedsReload()
	require.NoError(t, err)
	assert.True(t, needs)

	cfg, err := m.Reload()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	next := *cfg
	next.Validation.Strict = true
	require.NoError(t, m.Update(&next))
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, reloaded.Validation.Strict)
}

func TestStaticManager(t *testing.T) {
	m := NewStaticManager(DefaultConfig())
	assert.Empty(t, m.Path())
	needs, err := m.NeedsReload()
	require.NoError(t, err)
	assert.False(t, needs)
}
