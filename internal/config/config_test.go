package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.InDelta(t, 4.0, cfg.HTTP.PerHostRPS, 1e-9)
	require.Equal(t, 2, cfg.HTTP.PerHostBurst)
	require.Equal(t, "memory", cfg.DB.Provider)
	require.Equal(t, "noop", cfg.Blob.Provider)
	require.Equal(t, "noop", cfg.PubSub.Provider)
	require.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	require.Equal(t, 30*time.Second, cfg.FetchTimeout())
	require.Equal(t, time.Second, cfg.BackoffBase())
	require.Equal(t, 24*time.Hour, cfg.InsightsTTL())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
http:
  max_retries: 1
db:
  provider: postgres
  dsn: postgres://localhost/insights
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 1, cfg.HTTP.MaxRetries)
	require.Equal(t, "postgres", cfg.DB.Provider)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"BadPort", func(c *Config) { c.Server.Port = 0 }},
		{"NegativeRetries", func(c *Config) { c.HTTP.MaxRetries = -1 }},
		{"NegativePerHostRPS", func(c *Config) { c.HTTP.PerHostRPS = -1 }},
		{"NegativePerHostBurst", func(c *Config) { c.HTTP.PerHostBurst = -1 }},
		{"AuthWithoutKey", func(c *Config) { c.Auth.Enabled = true }},
		{"PostgresWithoutDSN", func(c *Config) { c.DB.Provider = "postgres" }},
		{"UnknownDBProvider", func(c *Config) { c.DB.Provider = "oracle" }},
		{"LocalBlobWithoutDir", func(c *Config) { c.Blob.Provider = "local" }},
		{"GCSBlobWithoutBucket", func(c *Config) { c.Blob.Provider = "gcs" }},
		{"UnknownBlobProvider", func(c *Config) { c.Blob.Provider = "s3" }},
		{"GCPPubSubWithoutProject", func(c *Config) { c.PubSub.Provider = "gcp" }},
		{"UnknownPubSubProvider", func(c *Config) { c.PubSub.Provider = "kafka" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
