package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adsbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "adc/data", cfg.MQTT.Topic)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := writeFile(t, `
bus:
  port: /dev/spidev1.0
  mode: 1
mqtt:
  broker: tcp://broker.lan:1883
  timeout: 2s
buffer: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/spidev1.0", cfg.Bus.Port)
	assert.Equal(t, 1, cfg.Bus.Mode)
	assert.Equal(t, int64(500000), cfg.Bus.SpeedHz)
	assert.Equal(t, "GPIO25", cfg.Bus.SelectPin)
	assert.Equal(t, 5*time.Millisecond, cfg.Bus.LoadDelay)
	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTT.Broker)
	assert.Equal(t, 2*time.Second, cfg.MQTT.Timeout)
	assert.Equal(t, "adc/data", cfg.MQTT.Topic)
	assert.Equal(t, 8, cfg.Buffer)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	for name, body := range map[string]string{
		"mode":   "bus:\n  mode: 4\n",
		"qos":    "mqtt:\n  qos: 3\n",
		"buffer": "buffer: -1\n",
		"delay":  "bus:\n  load_delay: -1ms\n",
	} {
		_, err := Load(writeFile(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeFile(t, "bus: [unterminated"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Telemetry.Enabled = true
	cfg.MQTT.ClientID = "bench"
	cfg.Telemetry.Baud = 57600
	cfg.Bus.LoadDelay = 2 * time.Millisecond

	require.NoError(t, cfg.Save(path))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
