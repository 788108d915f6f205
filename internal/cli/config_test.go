package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ghassane04/EcoLabel-MS/internal/model"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	registerDefaults(v, model.DefaultConfig())
	v.SetEnvPrefix("ECOLABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("ECOLABEL_SERVICES_SCORING", "http://scoring:9000")
	t.Setenv("ECOLABEL_HEALTH_INTERVAL", "5s")
	t.Setenv("ECOLABEL_SCORING_MAX_CO2_REF", "12.5")

	cfg, err := loadConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, "http://scoring:9000", cfg.Services.Scoring)
	assert.Equal(t, 5*time.Second, cfg.Health.Interval)
	assert.Equal(t, 12.5, cfg.Scoring.MaxCO2Ref)
	assert.Equal(t, "http://localhost:8001", cfg.Services.Ingestion)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  enabled: true\n  ttl: 1m\nworkers: 9\nhttp:\n  stage_timeout: 90s\n"), 0o644))

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 9, cfg.Workers)
	assert.Equal(t, 90*time.Second, cfg.HTTP.StageTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".ecolabel", "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# EcoLabel configuration"))

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "services")

	// Round trip through viper yields the defaults again
	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)

	assert.Error(t, writeDefaultConfig(path), "existing config must not be overwritten")
}

func TestParseCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"parse", "packaging", "Verre", "recyclable", "720g"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, Execute(context.Background()))
	assert.JSONEq(t, `{"material": "glass", "weight_kg": 0.72}`, out.String())
}
