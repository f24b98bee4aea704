package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/wildfire-cli/internal/perimeter"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://services3.arcgis.com/T4QMspbfLg3qTGWY/arcgis/rest/services", cfg.Fetch.NIFCBaseURL)
	assert.Equal(t, "Historic_Geomac_Perimeters_", cfg.Fetch.NIFCLayerPrefix)
	assert.Equal(t, 300*time.Second, cfg.Fetch.Timeout())
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, "static/data/fires", cfg.Output.Dest)
	assert.Equal(t, "nifc", cfg.Output.Source)

	assert.Equal(t, perimeter.DefaultHigh(), cfg.Tiers.High)
	assert.Equal(t, perimeter.DefaultLow(), cfg.Tiers.Low)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
tiers:
  low:
    min_acres: 10000
output:
  source: geomac
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.InDelta(t, 10000, cfg.Tiers.Low.MinAcres, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.005, cfg.Tiers.Low.Tolerance, 1e-9)
	assert.Equal(t, perimeter.TierLow, cfg.Tiers.Low.Name)
	assert.Equal(t, "geomac", cfg.Output.Source)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log:\n  level: debug\n"), 0o644))
	t.Setenv("WILDFIRE_LOG_LEVEL", "warn")
	t.Setenv("WILDFIRE_FETCH_TIMEOUT_SECS", "45")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 45*time.Second, cfg.Fetch.Timeout())
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WILDFIRE_OUTPUT_SOURCE", "modis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modis")
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate_HexResolution(t *testing.T) {
	cfg := &Config{
		Tiers:  TiersConfig{High: perimeter.DefaultHigh(), Low: perimeter.DefaultLow()},
		Output: OutputConfig{Source: "nifc"},
	}
	require.NoError(t, cfg.Validate())

	cfg.Tiers.Low.HexResolution = 16
	assert.Error(t, cfg.Validate())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
