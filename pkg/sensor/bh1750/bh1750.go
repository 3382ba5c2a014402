// Package bh1750 adapts the TinyGo BH1750 driver to sensor.Sensor. It only
// needs an I2C bus, so it runs on the device and against a fake bus in tests.
package bh1750

import (
	"tinygo.org/x/drivers"
	driver "tinygo.org/x/drivers/bh1750"

	"github.com/itohio/golightmeter/pkg/clock"
	"github.com/itohio/golightmeter/pkg/sensor"
)

// Sensor drives a BH1750 on an I2C bus.
type Sensor struct {
	dev        driver.Device
	clk        clock.Clock
	mode       sensor.Mode
	configured bool
}

// Ensure Sensor implements sensor.Sensor.
var _ sensor.Sensor = (*Sensor)(nil)

// New powers the sensor on at the default address.
func New(bus drivers.I2C, clk clock.Clock) *Sensor {
	if clk == nil {
		clk = clock.Real{}
	}
	s := &Sensor{dev: driver.New(bus), clk: clk}
	s.dev.Configure()
	return s
}

// Configure implements sensor.Sensor.
func (s *Sensor) Configure(mode sensor.Mode) error {
	switch mode {
	case sensor.OneShotHighRes, sensor.ContinuousLowRes:
	default:
		return sensor.ErrInvalidMode
	}
	s.mode = mode
	s.configured = true
	s.dev.SetMode(samplingMode(mode))
	return nil
}

// samplingMode maps a sensor mode to the driver's measurement mode.
func samplingMode(mode sensor.Mode) driver.SamplingMode {
	if mode == sensor.ContinuousLowRes {
		return driver.CONTINUOUS_LOW_RES_MODE
	}
	return driver.ONE_TIME_HIGH_RES_MODE_2
}

// Read implements sensor.Sensor. One-shot conversions power the part down
// after each result, so the measurement command is reissued first.
func (s *Sensor) Read() (sensor.Reading, error) {
	if !s.configured {
		return sensor.Reading{}, sensor.ErrNotConnected
	}
	if s.mode == sensor.OneShotHighRes {
		s.dev.SetMode(samplingMode(s.mode))
	}
	s.clk.Sleep(s.mode.ConversionTime())
	return sensor.FromCounts(s.dev.RawSensorData(), s.mode), nil
}

// Mode returns the configured mode.
func (s *Sensor) Mode() sensor.Mode { return s.mode }
