// Package exposure turns an illuminance reading into photographic exposure
// settings.
//
// The exposure value at ISO 100 is derived from incident illuminance as
//
//	EV100 = log2(lux * D / K)
//
// where K is the incident-light calibration constant (2.5, i.e. C = 250) and D
// is the diffuser dome multiplier when the dome is fitted. The working EV adds
// the ISO contribution and subtracts the ND filter stops:
//
//	EVw = EV100 + log2(ISO / 100) - ndStops
//
// Aperture priority solves t = N² / 2^EVw, shutter priority solves
// N = sqrt(t * 2^EVw). Results are snapped to the nearest table entry in log2
// space and are always valid indices.
package exposure

import (
	"github.com/chewxy/math32"

	"github.com/itohio/golightmeter/pkg/tables"
)

const (
	// DefaultK is the incident-light calibration constant (C = 250 / 100).
	DefaultK float32 = 2.5
	// DefaultDomeMultiplier compensates the light lost in a white translucent dome.
	DefaultDomeMultiplier float32 = 2.17
)

// Calibration holds the constants of the EV conversion.
type Calibration struct {
	K              float32
	Dome           bool
	DomeMultiplier float32
}

// DefaultCalibration returns the calibration of the stock meter with dome fitted.
func DefaultCalibration() Calibration {
	return Calibration{
		K:              DefaultK,
		Dome:           true,
		DomeMultiplier: DefaultDomeMultiplier,
	}
}

// Calculator computes complementary exposure parameters. It is stateless apart
// from its calibration and safe to share.
type Calculator struct {
	cal Calibration
}

// New creates a Calculator. Non-positive constants fall back to defaults.
func New(cal Calibration) *Calculator {
	if cal.K <= 0 {
		cal.K = DefaultK
	}
	if cal.DomeMultiplier <= 0 {
		cal.DomeMultiplier = DefaultDomeMultiplier
	}
	return &Calculator{cal: cal}
}

// Calibration returns the constants in use.
func (c *Calculator) Calibration() Calibration { return c.cal }

// EV100 returns the exposure value at ISO 100 for lux. Zero, negative or NaN
// lux yields -Inf.
func (c *Calculator) EV100(lux float32) float32 {
	if math32.IsNaN(lux) || lux <= 0 {
		return math32.Inf(-1)
	}
	if c.cal.Dome {
		lux *= c.cal.DomeMultiplier
	}
	return math32.Log2(lux / c.cal.K)
}

// WorkingEV returns EV100 corrected for film speed and ND filter.
func (c *Calculator) WorkingEV(lux float32, isoIndex, ndIndex int) float32 {
	ev := c.EV100(lux)
	ev += math32.Log2(tables.ISO(isoIndex) / 100)
	ev -= float32(tables.NDStops(ndIndex))
	return ev
}

// Compute returns the index of the parameter complementary to priority:
// the shutter index in aperture priority (fixedIndex is the aperture index),
// the aperture index in shutter priority (fixedIndex is the shutter index).
func (c *Calculator) Compute(lux float32, isoIndex, ndIndex int, priority tables.Priority, fixedIndex int) int {
	if priority == tables.ShutterPriority {
		return c.ApertureIndex(lux, isoIndex, ndIndex, fixedIndex)
	}
	return c.ShutterIndex(lux, isoIndex, ndIndex, fixedIndex)
}

// ShutterIndex returns the shutter index for a fixed aperture.
func (c *Calculator) ShutterIndex(lux float32, isoIndex, ndIndex, apertureIndex int) int {
	ev := c.WorkingEV(lux, isoIndex, ndIndex)
	// log2(t) = 2*log2(N) - EVw
	target := 2*math32.Log2(tables.Aperture(apertureIndex)) - ev
	return nearest(tables.MaxShutterIndex, tables.Shutter, target)
}

// ApertureIndex returns the aperture index for a fixed shutter time.
func (c *Calculator) ApertureIndex(lux float32, isoIndex, ndIndex, shutterIndex int) int {
	ev := c.WorkingEV(lux, isoIndex, ndIndex)
	// log2(N) = (log2(t) + EVw) / 2
	target := (math32.Log2(tables.Shutter(shutterIndex)) + ev) / 2
	return nearest(tables.MaxApertureIndex, tables.Aperture, target)
}

// nearest returns the index in [0, max] whose log2 table value is closest to
// target. Infinite targets map to the matching extreme.
func nearest(max int, at func(int) float32, target float32) int {
	switch {
	case math32.IsNaN(target), math32.IsInf(target, -1):
		return 0
	case math32.IsInf(target, 1):
		return max
	}

	best := 0
	bestDist := math32.Abs(math32.Log2(at(0)) - target)
	for i := 1; i <= max; i++ {
		d := math32.Abs(math32.Log2(at(i)) - target)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
