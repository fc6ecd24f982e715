package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, ":2015", cfg.Server.Listen)
	assert.Equal(t, ":2016", cfg.Server.TLSListen)
	assert.Equal(t, "Home", cfg.Server.LocationCaption)
	assert.Equal(t, 30*time.Second, cfg.Server.ActivityTimeout)
	assert.Equal(t, uint8(10), cfg.Server.MinProtoVersion)
	assert.Empty(t, cfg.Devices)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
server:
  listen: ":3015"
  location_caption: "Cottage"
  activity_timeout: 2m
  superuser_email: admin@example.org
  superuser_password: hunter2
metrics:
  enabled: true
devices:
  - name: lights
    guid: "0102030405060708090a0b0c0d0e0f10"
    manufacturer_id: 7
    product_id: 9
    channels:
      - name: hall-light
        caption: Hall
        type: RELAY
        func: LIGHT_SWITCH
        flags: [CHANNEL_STATE]
scenes:
  - name: evening
    steps:
      - channel: hall-light
        action: TURN_ON
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Level is normalized to uppercase
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":3015", cfg.Server.Listen)
	assert.Equal(t, "Cottage", cfg.Server.LocationCaption)
	assert.Equal(t, 2*time.Minute, cfg.Server.ActivityTimeout)
	assert.True(t, cfg.Metrics.Enabled)

	require.Len(t, cfg.Devices, 1)
	require.Len(t, cfg.Devices[0].Channels, 1)
	assert.Equal(t, "hall-light", cfg.Devices[0].Channels[0].Name)
	require.Len(t, cfg.Scenes, 1)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: INFO
`)
	t.Setenv("SUPLAD_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: verbose
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestLoadRejectsOutOfRangeActivityTimeout(t *testing.T) {
	path := writeConfigFile(t, `
server:
  activity_timeout: 10s
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadGUID(t *testing.T) {
	path := writeConfigFile(t, `
devices:
  - name: lights
    guid: "not-a-guid"
    channels:
      - name: hall-light
        type: RELAY
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestMustLoadMissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suplad init")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	require.NoError(t, SaveConfig(ExampleConfig(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ExampleConfig(), cfg)
}

func TestValidateDefaultConfig(t *testing.T) {
	require.NoError(t, Validate(GetDefaultConfig()))
}

func TestServerOptionsMapping(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Listen = ":4015"
	cfg.Server.APIURL = "https://hub.example.org"
	cfg.Server.SuperUserEmail = "admin@example.org"

	opts := cfg.Server.ServerOptions()
	assert.Equal(t, ":4015", opts.Addr)
	assert.Equal(t, ":2016", opts.TLSAddr)
	assert.Equal(t, "https://hub.example.org", opts.APIURL)
	assert.Equal(t, "admin@example.org", opts.SuperUserEmail)
	assert.Equal(t, 30*time.Second, opts.ActivityTimeout)
	assert.Equal(t, uint8(10), opts.MinProtoVersion)
}
