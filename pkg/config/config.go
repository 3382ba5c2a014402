package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/golightmeter/pkg/exposure"
	"github.com/itohio/golightmeter/pkg/meter"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/power"
	"github.com/itohio/golightmeter/pkg/sensor"
)

// Receptor values.
const (
	ReceptorDome = "dome"
	ReceptorFlat = "flat"
)

// Battery monitor sources.
const (
	BatteryDivider = "divider"
	BatteryBandgap = "bandgap"
)

// Config represents the application configuration.
type Config struct {
	Serial         SerialConfig         `yaml:"serial"`
	Exposure       ExposureConfig       `yaml:"exposure"`
	Metering       MeteringConfig       `yaml:"metering"`
	Storage        StorageConfig        `yaml:"storage"`
	VoltageDivider VoltageDividerConfig `yaml:"voltage_divider"`
	Battery        BatteryConfig        `yaml:"battery"`
	Mock           MockConfig           `yaml:"mock"`
}

// SerialConfig contains the sensor bridge port configuration.
type SerialConfig struct {
	Port    string        `yaml:"port"`
	Baud    int           `yaml:"baud"`
	Timeout time.Duration `yaml:"timeout"`
}

// ExposureConfig contains the EV calibration.
type ExposureConfig struct {
	K              float64 `yaml:"k"`               // Incident-light calibration constant
	Receptor       string  `yaml:"receptor"`        // "dome" or "flat"
	DomeMultiplier float64 `yaml:"dome_multiplier"` // Applied to lux when the dome is fitted
}

// MeteringConfig contains measurement and control loop timings.
type MeteringConfig struct {
	OverflowRetryDelay  time.Duration `yaml:"overflow_retry_delay"`
	FlashWindow         time.Duration `yaml:"flash_window"`
	FlashSampleInterval time.Duration `yaml:"flash_sample_interval"`
	AutoInterval        time.Duration `yaml:"auto_interval"`    // Ambient auto-remeasure period
	BatteryInterval     time.Duration `yaml:"battery_interval"` // Supply voltage refresh period
	SettleDelay         time.Duration `yaml:"settle_delay"`     // Pause after a manual ambient reading
	Poll                time.Duration `yaml:"poll"`             // Control loop tick period
}

// StorageConfig locates the emulated EEPROM image.
type StorageConfig struct {
	File   string `yaml:"file"`
	Offset int64  `yaml:"offset"`
}

// VoltageDividerConfig contains voltage divider configuration.
type VoltageDividerConfig struct {
	R1   float64 `yaml:"r1"`
	R2   float64 `yaml:"r2"`
	VRef float64 `yaml:"vref"`
	Bits int     `yaml:"bits"`
}

// BatteryConfig selects how the supply voltage is measured.
type BatteryConfig struct {
	Source       string  `yaml:"source"`        // "divider" or "bandgap"
	BandgapVolts float64 `yaml:"bandgap_volts"` // Internal reference voltage
}

// MockConfig contains mock sensor configuration.
type MockConfig struct {
	AmbientLux    float64       `yaml:"ambient_lux"`    // Steady illuminance (lx)
	NoiseLevel    float64       `yaml:"noise_level"`    // Ripple amplitude (lx)
	FlashLux      float64       `yaml:"flash_lux"`      // Simulated flash illuminance (lx)
	FlashDuration time.Duration `yaml:"flash_duration"` // Flash duration
	FlashPeriod   time.Duration `yaml:"flash_period"`   // Time between flashes
	BatteryVolts  float64       `yaml:"battery_volts"`  // Simulated supply voltage (V)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	timing := metering.DefaultTiming()
	intervals := meter.DefaultIntervals()
	scenario := sensor.DefaultScenario()

	return &Config{
		Serial: SerialConfig{
			Port:    "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			Baud:    115200,
			Timeout: time.Second,
		},
		Exposure: ExposureConfig{
			K:              float64(exposure.DefaultK),
			Receptor:       ReceptorDome,
			DomeMultiplier: float64(exposure.DefaultDomeMultiplier),
		},
		Metering: MeteringConfig{
			OverflowRetryDelay:  timing.OverflowRetryDelay,
			FlashWindow:         timing.FlashWindow,
			FlashSampleInterval: timing.FlashSampleInterval,
			AutoInterval:        intervals.Auto,
			BatteryInterval:     intervals.Battery,
			SettleDelay:         intervals.Settle,
			Poll:                meter.DefaultPoll,
		},
		Storage: StorageConfig{
			File:   "eeprom.bin",
			Offset: 0,
		},
		VoltageDivider: VoltageDividerConfig{
			R1:   100000,
			R2:   100000,
			VRef: 3.3,
			Bits: 16,
		},
		Battery: BatteryConfig{
			Source:       BatteryDivider,
			BandgapVolts: 1.1,
		},
		Mock: MockConfig{
			AmbientLux:    float64(scenario.AmbientLux),
			NoiseLevel:    float64(scenario.NoiseLevel),
			FlashLux:      float64(scenario.FlashLux),
			FlashDuration: scenario.FlashDuration,
			FlashPeriod:   scenario.FlashPeriod,
			BatteryVolts:  3.7,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	switch c.Exposure.Receptor {
	case "", ReceptorDome, ReceptorFlat:
	default:
		return fmt.Errorf("invalid exposure receptor %q: want %q or %q", c.Exposure.Receptor, ReceptorDome, ReceptorFlat)
	}
	switch c.Battery.Source {
	case "", BatteryDivider, BatteryBandgap:
	default:
		return fmt.Errorf("invalid battery source %q: want %q or %q", c.Battery.Source, BatteryDivider, BatteryBandgap)
	}
	if c.Storage.Offset < 0 {
		return fmt.Errorf("invalid storage offset %d", c.Storage.Offset)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
	if c.Serial.Timeout == 0 {
		c.Serial.Timeout = def.Serial.Timeout
	}

	if c.Exposure.K == 0 {
		c.Exposure.K = def.Exposure.K
	}
	if c.Exposure.Receptor == "" {
		c.Exposure.Receptor = def.Exposure.Receptor
	}
	if c.Exposure.DomeMultiplier == 0 {
		c.Exposure.DomeMultiplier = def.Exposure.DomeMultiplier
	}

	if c.Metering.OverflowRetryDelay == 0 {
		c.Metering.OverflowRetryDelay = def.Metering.OverflowRetryDelay
	}
	if c.Metering.FlashWindow == 0 {
		c.Metering.FlashWindow = def.Metering.FlashWindow
	}
	if c.Metering.FlashSampleInterval == 0 {
		c.Metering.FlashSampleInterval = def.Metering.FlashSampleInterval
	}
	if c.Metering.AutoInterval == 0 {
		c.Metering.AutoInterval = def.Metering.AutoInterval
	}
	if c.Metering.BatteryInterval == 0 {
		c.Metering.BatteryInterval = def.Metering.BatteryInterval
	}
	if c.Metering.SettleDelay == 0 {
		c.Metering.SettleDelay = def.Metering.SettleDelay
	}
	if c.Metering.Poll == 0 {
		c.Metering.Poll = def.Metering.Poll
	}

	if c.Storage.File == "" {
		c.Storage.File = def.Storage.File
	}

	if c.VoltageDivider.R1 == 0 {
		c.VoltageDivider.R1 = def.VoltageDivider.R1
	}
	if c.VoltageDivider.R2 == 0 {
		c.VoltageDivider.R2 = def.VoltageDivider.R2
	}
	if c.VoltageDivider.VRef == 0 {
		c.VoltageDivider.VRef = def.VoltageDivider.VRef
	}
	if c.VoltageDivider.Bits == 0 {
		c.VoltageDivider.Bits = def.VoltageDivider.Bits
	}

	if c.Battery.Source == "" {
		c.Battery.Source = def.Battery.Source
	}
	if c.Battery.BandgapVolts == 0 {
		c.Battery.BandgapVolts = def.Battery.BandgapVolts
	}

	if c.Mock.FlashPeriod == 0 {
		c.Mock.FlashPeriod = def.Mock.FlashPeriod
	}
	if c.Mock.FlashDuration == 0 {
		c.Mock.FlashDuration = def.Mock.FlashDuration
	}
}

// Calibration returns the exposure calculator calibration.
func (c *Config) Calibration() exposure.Calibration {
	return exposure.Calibration{
		K:              float32(c.Exposure.K),
		Dome:           c.Exposure.Receptor != ReceptorFlat,
		DomeMultiplier: float32(c.Exposure.DomeMultiplier),
	}
}

// Timing returns the metering controller timings.
func (c *Config) Timing() metering.Timing {
	return metering.Timing{
		OverflowRetryDelay:  c.Metering.OverflowRetryDelay,
		FlashWindow:         c.Metering.FlashWindow,
		FlashSampleInterval: c.Metering.FlashSampleInterval,
	}
}

// Intervals returns the control loop timers.
func (c *Config) Intervals() meter.Intervals {
	return meter.Intervals{
		Auto:    c.Metering.AutoInterval,
		Battery: c.Metering.BatteryInterval,
		Settle:  c.Metering.SettleDelay,
	}
}

// Scenario returns the mock sensor lighting.
func (c *Config) Scenario() sensor.Scenario {
	return sensor.Scenario{
		AmbientLux:    float32(c.Mock.AmbientLux),
		NoiseLevel:    float32(c.Mock.NoiseLevel),
		FlashLux:      float32(c.Mock.FlashLux),
		FlashPeriod:   c.Mock.FlashPeriod,
		FlashDuration: c.Mock.FlashDuration,
	}
}

// Divider returns the battery divider description.
func (c *Config) Divider() power.Divider {
	return power.Divider{
		VRef: float32(c.VoltageDivider.VRef),
		R1:   float32(c.VoltageDivider.R1),
		R2:   float32(c.VoltageDivider.R2),
		Bits: c.VoltageDivider.Bits,
	}
}

// SimulatedSupply returns the battery monitor selected by Battery.Source fed
// with the mock battery voltage, so that the simulator reads it through the
// same conversion the firmware uses.
func (c *Config) SimulatedSupply() (power.Supply, error) {
	volts := float32(c.Mock.BatteryVolts)
	divider := c.Divider()

	if c.Battery.Source == BatteryBandgap {
		vbg := float32(c.Battery.BandgapVolts)
		adc := power.FixedADC(power.BandgapCounts(volts, divider.Bits, vbg))
		s, err := power.NewBandgapSupply(adc, divider.Bits, vbg, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to create bandgap supply: %w", err)
		}
		return s, nil
	}

	s, err := power.NewDividerSupply(power.FixedADC(divider.Counts(volts)), divider, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create divider supply: %w", err)
	}
	return s, nil
}
