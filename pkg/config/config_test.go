package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/golightmeter/pkg/exposure"
	"github.com/itohio/golightmeter/pkg/meter"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/power"
	"github.com/itohio/golightmeter/pkg/sensor"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, ReceptorDome, cfg.Exposure.Receptor)
	assert.Equal(t, exposure.DefaultCalibration(), cfg.Calibration())
	assert.Equal(t, metering.DefaultTiming(), cfg.Timing())
	assert.Equal(t, meter.DefaultIntervals(), cfg.Intervals())
	assert.Equal(t, sensor.DefaultScenario(), cfg.Scenario())
	assert.Equal(t, "eeprom.bin", cfg.Storage.File)
	assert.Equal(t, float32(3.3), cfg.Divider().VRef)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: "/dev/ttyACM0"
  baud: 57600
  timeout: 500ms

exposure:
  k: 3.3
  receptor: flat

metering:
  flash_window: 2s
  auto_interval: 1s

storage:
  file: /tmp/meter.bin
  offset: 16

mock:
  ambient_lux: 1000
  flash_lux: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.Baud)
	assert.Equal(t, 500*time.Millisecond, cfg.Serial.Timeout)

	cal := cfg.Calibration()
	assert.InDelta(t, 3.3, cal.K, 1e-6)
	assert.False(t, cal.Dome)
	assert.InDelta(t, 2.17, cal.DomeMultiplier, 1e-6)

	assert.Equal(t, 2*time.Second, cfg.Timing().FlashWindow)
	assert.Equal(t, 16*time.Millisecond, cfg.Timing().FlashSampleInterval)
	assert.Equal(t, time.Second, cfg.Intervals().Auto)
	assert.Equal(t, 10*time.Second, cfg.Intervals().Battery)

	assert.Equal(t, "/tmp/meter.bin", cfg.Storage.File)
	assert.Equal(t, int64(16), cfg.Storage.Offset)

	sc := cfg.Scenario()
	assert.Equal(t, float32(1000), sc.AmbientLux)
	assert.Equal(t, float32(0), sc.FlashLux)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: yaml: content: [")

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"receptor", "exposure:\n  receptor: sphere\n"},
		{"offset", "storage:\n  offset: -1\n"},
		{"battery source", "battery:\n  source: solar\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_PartialYAML(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: "/dev/ttyACM0"
exposure:
  k: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, exposure.DefaultCalibration(), cfg.Calibration())
	assert.Equal(t, metering.DefaultTiming(), cfg.Timing())
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Metering.AutoInterval = 500 * time.Millisecond
	cfg.Exposure.Receptor = ReceptorFlat

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(path))

	// Load it back and verify
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSimulatedSupply(t *testing.T) {
	cfg := Default()
	cfg.Mock.BatteryVolts = 3.9

	s, err := cfg.SimulatedSupply()
	require.NoError(t, err)
	assert.IsType(t, &power.DividerSupply{}, s)
	v, err := s.Voltage()
	require.NoError(t, err)
	assert.InDelta(t, 3.9, v, 0.001)

	cfg.Battery.Source = BatteryBandgap
	cfg.VoltageDivider.Bits = 12
	s, err = cfg.SimulatedSupply()
	require.NoError(t, err)
	assert.IsType(t, &power.BandgapSupply{}, s)
	v, err = s.Voltage()
	require.NoError(t, err)
	assert.InDelta(t, 3.9, v, 0.01)
}
