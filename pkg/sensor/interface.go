package sensor

import (
	"errors"
	"time"
)

// Mode selects how the illuminance sensor converts.
type Mode uint8

const (
	// OneShotHighRes takes a single 0.5 lx resolution measurement.
	OneShotHighRes Mode = iota
	// ContinuousLowRes converts continuously at 4 lx resolution, the fastest mode.
	ContinuousLowRes
)

func (m Mode) String() string {
	switch m {
	case OneShotHighRes:
		return "one-shot high-res"
	case ContinuousLowRes:
		return "continuous low-res"
	default:
		return "unknown"
	}
}

// ConversionTime returns the typical conversion time of the mode.
func (m Mode) ConversionTime() time.Duration {
	if m == ContinuousLowRes {
		return 16 * time.Millisecond
	}
	return 120 * time.Millisecond
}

// Reading is one conversion result.
type Reading struct {
	Lux      float32
	Overflow bool // Sensor saturated, Lux is a lower bound
}

// Sensor is the illuminance sensor collaborator. Read blocks until the
// conversion of the configured mode has completed.
type Sensor interface {
	Configure(mode Mode) error
	Read() (Reading, error)
}

var (
	ErrNotConnected = errors.New("sensor not connected")
	ErrInvalidMode  = errors.New("invalid sensor mode")
)

// Ensure Mock implements Sensor.
var _ Sensor = (*Mock)(nil)
