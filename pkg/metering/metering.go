// Package metering takes light measurements: a single ambient reading with one
// retry on saturation, or a time-bounded peak-hold capture of a flash.
package metering

import (
	"log/slog"
	"time"

	"github.com/itohio/golightmeter/pkg/clock"
	"github.com/itohio/golightmeter/pkg/sensor"
	"github.com/itohio/golightmeter/pkg/tables"
)

// MaxFlashMeteringTime is the flash capture window.
const MaxFlashMeteringTime = 5000 * time.Millisecond

// State is the controller's activity.
type State uint8

const (
	Idle State = iota
	AmbientMeasuring
	FlashCapturing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AmbientMeasuring:
		return "ambient"
	case FlashCapturing:
		return "flash"
	default:
		return "unknown"
	}
}

// Sample is the result of one metering pass.
type Sample struct {
	Lux        float32
	Overflow   bool      // Sensor saturated; Lux is a lower bound
	CapturedAt time.Time // Clock time when the pass completed
}

// Timing holds the fixed waits of the metering passes.
type Timing struct {
	OverflowRetryDelay  time.Duration // Wait before resampling a saturated ambient reading
	FlashWindow         time.Duration // Flash capture deadline measured from loop start
	FlashSampleInterval time.Duration // Flash sample period, including the read itself
}

// DefaultTiming returns the stock timings.
func DefaultTiming() Timing {
	return Timing{
		OverflowRetryDelay:  10 * time.Millisecond,
		FlashWindow:         MaxFlashMeteringTime,
		FlashSampleInterval: 16 * time.Millisecond,
	}
}

// Controller runs metering passes against a sensor. It is not safe for
// concurrent use; the control loop owns it.
type Controller struct {
	sensor sensor.Sensor
	clk    clock.Clock
	timing Timing
	log    *slog.Logger

	state State
}

// New creates a Controller. Zero timings fall back to defaults.
func New(s sensor.Sensor, clk clock.Clock, timing Timing, logger *slog.Logger) *Controller {
	def := DefaultTiming()
	if timing.OverflowRetryDelay == 0 {
		timing.OverflowRetryDelay = def.OverflowRetryDelay
	}
	if timing.FlashWindow == 0 {
		timing.FlashWindow = def.FlashWindow
	}
	if timing.FlashSampleInterval == 0 {
		timing.FlashSampleInterval = def.FlashSampleInterval
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Controller{
		sensor: s,
		clk:    clk,
		timing: timing,
		log:    logger,
	}
}

// State returns what the controller is doing.
func (c *Controller) State() State { return c.state }

// Timing returns the timings in use.
func (c *Controller) Timing() Timing { return c.timing }

// Measure runs the pass for mode.
func (c *Controller) Measure(mode tables.MeteringMode) Sample {
	if mode == tables.Flash {
		return c.Flash()
	}
	return c.Ambient()
}

// Ambient takes one high resolution reading. A saturated reading is retried
// once after OverflowRetryDelay and the retry is reported whatever its
// overflow flag. If the retry itself fails the first reading stands.
func (c *Controller) Ambient() Sample {
	c.state = AmbientMeasuring
	defer func() { c.state = Idle }()

	if err := c.sensor.Configure(sensor.OneShotHighRes); err != nil {
		c.log.Warn("configure sensor", "mode", sensor.OneShotHighRes.String(), "err", err)
	}

	r, err := c.sensor.Read()
	if err != nil {
		c.log.Warn("ambient read failed", "err", err)
		r = sensor.Reading{}
	}

	if r.Overflow {
		c.clk.Sleep(c.timing.OverflowRetryDelay)
		retry, err := c.sensor.Read()
		if err != nil {
			c.log.Warn("ambient retry failed", "err", err)
		} else {
			r = retry
		}
	}

	s := Sample{Lux: clampLux(r.Lux), Overflow: r.Overflow, CapturedAt: c.clk.Now()}
	c.log.Debug("ambient", "lux", s.Lux, "overflow", s.Overflow)
	return s
}

// Flash samples the sensor in its fastest mode until FlashWindow has elapsed
// and reports the brightest reading. The loop cannot be interrupted; its only
// exit is the deadline, checked on every iteration.
func (c *Controller) Flash() Sample {
	c.state = FlashCapturing
	defer func() { c.state = Idle }()

	if err := c.sensor.Configure(sensor.ContinuousLowRes); err != nil {
		c.log.Warn("configure sensor", "mode", sensor.ContinuousLowRes.String(), "err", err)
	}

	var (
		peak     float32
		overflow bool
		samples  int
		failures int
	)

	start := c.clk.Now()
	next := start
	for c.clk.Since(start) <= c.timing.FlashWindow {
		r, err := c.sensor.Read()
		next = c.waitSlot(next)
		if err != nil {
			failures++
			continue
		}

		samples++
		if r.Lux > peak {
			peak = r.Lux
		}
		overflow = overflow || r.Overflow
	}

	if failures > 0 {
		c.log.Warn("flash reads failed", "failures", failures, "samples", samples)
	}

	s := Sample{Lux: clampLux(peak), Overflow: overflow, CapturedAt: c.clk.Now()}
	c.log.Debug("flash", "peak", s.Lux, "overflow", s.Overflow, "samples", samples)
	return s
}

// waitSlot sleeps until one FlashSampleInterval after slot and returns the new
// slot. Time spent inside Read counts towards the interval; a read that overran
// the slot restarts the schedule from now.
func (c *Controller) waitSlot(slot time.Time) time.Time {
	slot = slot.Add(c.timing.FlashSampleInterval)
	wait := slot.Sub(c.clk.Now())
	if wait <= 0 {
		return c.clk.Now()
	}
	c.clk.Sleep(wait)
	return slot
}

func clampLux(lux float32) float32 {
	if lux < 0 || lux != lux {
		return 0
	}
	return lux
}
