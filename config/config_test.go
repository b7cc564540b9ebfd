package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, BackendSQL, cfg.Storage.Backend)
	assert.Equal(t, "GJTracker", cfg.Storage.Key)
	assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, 5, cfg.Tracker.DefaultRequiredLevel)
	assert.Equal(t, ConfirmAsk, cfg.Tracker.Confirm)
	assert.Equal(t, 100, cfg.Tracker.XPCostPerLevel)
	assert.Equal(t, time.Hour, cfg.Tracker.ReminderInterval)
	assert.Equal(t, 30*time.Second, cfg.Cache.LocalGCInterval)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
  api_key: secret
storage:
  backend: kv
tracker:
  confirm: "yes"
  reminder_interval: 10m
security:
  allowed_ips: ["127.0.0.1", "10.0.0.0/8"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, BackendKV, cfg.Storage.Backend)
	assert.Equal(t, ConfirmYes, cfg.Tracker.Confirm)
	assert.Equal(t, 10*time.Minute, cfg.Tracker.ReminderInterval)
	assert.Equal(t, []string{"127.0.0.1", "10.0.0.0/8"}, cfg.Security.AllowedIPs)
	assert.Equal(t, "./data/gjtracker.db", cfg.Database.SQLitePath, "defaults fill the rest")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GJT_SERVER_PORT", "7070")
	t.Setenv("GJT_TRACKER_CONFIRM", "no")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, ConfirmNo, cfg.Tracker.Confirm)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(c *Config){
		"db mode":        func(c *Config) { c.Database.Mode = "embedded_xml" },
		"backend":        func(c *Config) { c.Storage.Backend = "s3" },
		"confirm":        func(c *Config) { c.Tracker.Confirm = "maybe" },
		"required level": func(c *Config) { c.Tracker.DefaultRequiredLevel = 8 },
		"xp cost":        func(c *Config) { c.Tracker.XPCostPerLevel = -1 },
		"storage key":    func(c *Config) { c.Storage.Key = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := *base
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
