package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "puzzlebox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
serial:
  device: /dev/ttyUSB3
link:
  ack_timeout_ms: 500
sim:
  store: ""
  lock:
    long_hold_min_ms: 1500
    default_combination: [7, 7, 2]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB3", cfg.Serial.Device)
	assert.Equal(t, 115200, cfg.Serial.Baud, "unset fields keep defaults")
	assert.Equal(t, 500*time.Millisecond, cfg.AckTimeout())
	assert.Equal(t, time.Second, cfg.ResponseTimeout())
	assert.Empty(t, cfg.Sim.Store)

	core := cfg.CoreConfig()
	assert.Equal(t, uint32(1500), core.LongHoldMin)
	assert.Equal(t, uint32(0), core.ShortPressMin)
	assert.Equal(t, uint32(5), core.TickDelay)
	assert.Equal(t, []uint8{7, 7, 2}, core.DefaultCombination)

	port := cfg.SerialPort()
	assert.Equal(t, "/dev/ttyUSB3", port.Device)
	assert.Equal(t, 100, port.ReadTimeout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "serial: [", "failed to parse"},
		{"baud", "serial:\n  baud: 0\n", "serial.baud"},
		{"timeouts", "link:\n  response_timeout_ms: -1\n", "link timeouts"},
		{"tick", "sim:\n  tick_ms: 0\n", "sim.tick_ms"},
		{"thresholds", "sim:\n  lock:\n    short_press_min_ms: 5000\n", "long_hold_min_ms"},
		{"too many cards", "sim:\n  lock:\n    default_combination: [1,2,3,4,5,6,7,8,9,10,11]\n", "at most 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
