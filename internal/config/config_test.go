package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAPS_API_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, config.StoreMemory, cfg.Store.Backend)
	assert.True(t, cfg.Store.Seed)
	assert.Equal(t, config.EventsLog, cfg.Events.Backend)
	assert.Equal(t, "TACNA_TRANSIT_FLOW_MAP_ID", cfg.Maps.MapID)
	assert.Equal(t, 14, cfg.Maps.Zoom)
	assert.NotEmpty(t, cfg.Worker.WarmAddresses)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
	assert.False(t, cfg.MapsConfigured(), "a missing key is not a load error")
}

func TestLoad_MapsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAPS_API_KEY", "abc123")
	t.Setenv("MAPS_MAP_ID", "custom-style")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", cfg.Maps.APIKey)
	assert.Equal(t, "custom-style", cfg.Maps.MapID)
	assert.True(t, cfg.MapsConfigured())
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TACNAVIAL_SERVER_PORT", "9090")
	t.Setenv("TACNAVIAL_STORE_BACKEND", "postgres")
	t.Setenv("TACNAVIAL_DATABASE_HOST", "db.internal")
	t.Setenv("TACNAVIAL_GEOCODING_CACHE_TTL", "2h")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.StorePostgres, cfg.Store.Backend)
	assert.Equal(t, "db.internal", cfg.Database.Pool().Host)
	assert.Equal(t, 2*time.Hour, cfg.Geocoding.CacheTTL)
}

func TestLoad_DotEnvAndConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("MAPS_API_KEY", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TACNAVIAL_LOG_LEVEL=debug\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("maps:\n  zoom: 12\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TACNAVIAL_LOG_LEVEL") })

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 12, cfg.Maps.Zoom)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Server: config.ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second},
			Store:  config.StoreConfig{Backend: config.StoreMemory},
			Events: config.EventsConfig{Backend: config.EventsLog},
			Maps:   config.MapsConfig{Zoom: 14},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantMsg string
	}{
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"unknown store", func(c *config.Config) { c.Store.Backend = "sqlite" }, "store.backend"},
		{"postgres without host", func(c *config.Config) { c.Store.Backend = config.StorePostgres; c.Database.Name = "x" }, "database.host"},
		{"pubsub without project", func(c *config.Config) { c.Events.Backend = config.EventsPubSub; c.Events.Topic = "t" }, "events.project_id"},
		{"unknown bus", func(c *config.Config) { c.Events.Backend = "kafka" }, "events.backend"},
		{"zoom", func(c *config.Config) { c.Maps.Zoom = 30 }, "maps.zoom"},
		{"sample ratio", func(c *config.Config) { c.Telemetry.SampleRatio = 1.5 }, "telemetry.sample_ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
