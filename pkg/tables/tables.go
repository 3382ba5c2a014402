// Package tables holds the discrete setting scales of the light meter.
//
// Every user-editable exposure parameter is an index into one of the tables
// below. Accessors clamp out-of-range indices to the nearest bound, so callers
// always get a usable physical value.
package tables

const (
	MaxISOIndex      = 57
	MaxApertureIndex = 70
	MaxShutterIndex  = 80
	MaxNDIndex       = 13
)

// Defaults used when persisted settings are missing or out of range.
const (
	DefaultISOIndex      = 11 // ISO 100
	DefaultApertureIndex = 12 // f/4
	DefaultShutterIndex  = 19 // 1/125 s
	DefaultNDIndex       = 0  // no filter
)

// Priority selects which exposure parameter the operator fixes.
type Priority uint8

const (
	// AperturePriority fixes the aperture and computes the shutter time.
	AperturePriority Priority = iota
	// ShutterPriority fixes the shutter time and computes the aperture.
	ShutterPriority
)

func (p Priority) String() string {
	switch p {
	case AperturePriority:
		return "Aperture"
	case ShutterPriority:
		return "Shutter"
	default:
		return "Unknown"
	}
}

// Toggle returns the other priority.
func (p Priority) Toggle() Priority {
	if p == AperturePriority {
		return ShutterPriority
	}
	return AperturePriority
}

// Valid reports whether p is one of the two defined priorities.
func (p Priority) Valid() bool { return p <= ShutterPriority }

// MeteringMode selects ambient or flash metering.
type MeteringMode uint8

const (
	Ambient MeteringMode = iota
	Flash
)

func (m MeteringMode) String() string {
	switch m {
	case Ambient:
		return "Ambient"
	case Flash:
		return "Flash"
	default:
		return "Unknown"
	}
}

// Toggle returns the other metering mode.
func (m MeteringMode) Toggle() MeteringMode {
	if m == Ambient {
		return Flash
	}
	return Ambient
}

// Valid reports whether m is one of the two defined metering modes.
func (m MeteringMode) Valid() bool { return m <= Flash }

// ISO speeds in third stops.
var isoValues = [MaxISOIndex + 1]float32{
	8, 10, 12, 16, 20, 25, 32, 40, 50, 64,
	80, 100, 125, 160, 200, 250, 320, 400, 500, 640,
	800, 1000, 1250, 1600, 2000, 2500, 3200, 4000, 5000, 6400,
	8000, 10000, 12800, 16000, 20000, 25600, 32000, 40000, 51200, 64000,
	80000, 102400, 128000, 160000, 204800, 256000, 320000, 409600, 512000, 640000,
	819200, 1024000, 1280000, 1600000, 2048000, 2560000, 3200000, 4096000,
}

// f-numbers in third stops. Nominal markings up to f/90, rounded 2^(i/6) above.
var apertureValues = [MaxApertureIndex + 1]float32{
	1.0, 1.1, 1.2, 1.4, 1.6, 1.8, 2.0, 2.2, 2.5, 2.8,
	3.2, 3.5, 4.0, 4.5, 5.0, 5.6, 6.3, 7.1, 8, 9,
	10, 11, 13, 14, 16, 18, 20, 22, 25, 29,
	32, 36, 40, 45, 51, 57, 64, 72, 81, 90,
	102, 114, 128, 144, 161, 181, 203, 228, 256, 287,
	323, 362, 406, 456, 512, 575, 645, 724, 813, 912,
	1024, 1149, 1290, 1448, 1625, 1825, 2048, 2299, 2580, 2896,
	3251,
}

// Shutter times in seconds, third stops from 1/10000 s.
var shutterValues = [MaxShutterIndex + 1]float32{
	1.0 / 10000, 1.0 / 8000, 1.0 / 6400, 1.0 / 5000, 1.0 / 4000,
	1.0 / 3200, 1.0 / 2500, 1.0 / 2000, 1.0 / 1600, 1.0 / 1250,
	1.0 / 1000, 1.0 / 800, 1.0 / 640, 1.0 / 500, 1.0 / 400,
	1.0 / 320, 1.0 / 250, 1.0 / 200, 1.0 / 160, 1.0 / 125,
	1.0 / 100, 1.0 / 80, 1.0 / 60, 1.0 / 50, 1.0 / 40,
	1.0 / 30, 1.0 / 25, 1.0 / 20, 1.0 / 15, 1.0 / 13,
	1.0 / 10, 1.0 / 8, 1.0 / 6, 1.0 / 5, 1.0 / 4,
	0.3, 0.4, 0.5, 0.6, 0.8,
	1, 1.3, 1.6, 2, 2.5,
	3.2, 4, 5, 6, 8,
	10, 13, 15, 20, 25,
	30, 40, 50, 60, 80,
	100, 125, 160, 200, 250,
	320, 400, 500, 640, 800,
	1000, 1250, 1600, 2000, 2500,
	3200, 4000, 5000, 6400, 8000,
	10000,
}

// ISO returns the ISO speed at index i.
func ISO(i int) float32 { return isoValues[ClampISO(i)] }

// Aperture returns the f-number at index i.
func Aperture(i int) float32 { return apertureValues[ClampAperture(i)] }

// Shutter returns the shutter time in seconds at index i.
func Shutter(i int) float32 { return shutterValues[ClampShutter(i)] }

// NDStops returns the light loss in stops of the ND filter at index i.
// Index 0 is no filter, index n is an ND(2^n) filter.
func NDStops(i int) int { return ClampND(i) }

// NDFactor returns the filter factor (2, 4, 8, ...) of the ND filter at index i.
func NDFactor(i int) int { return 1 << ClampND(i) }

func ClampISO(i int) int      { return clamp(i, MaxISOIndex) }
func ClampAperture(i int) int { return clamp(i, MaxApertureIndex) }
func ClampShutter(i int) int  { return clamp(i, MaxShutterIndex) }
func ClampND(i int) int       { return clamp(i, MaxNDIndex) }

func clamp(i, hi int) int {
	if i < 0 {
		return 0
	}
	if i > hi {
		return hi
	}
	return i
}
