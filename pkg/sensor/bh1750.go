package sensor

// BH1750 result scaling for the modes used by the meter.
const (
	BH1750MaxCounts uint16 = 0xFFFF

	bh1750CountsPerLux    float32 = 1.2
	bh1750HighRes2Divisor float32 = 2
)

// FromCounts converts a raw BH1750 16-bit result into a Reading. A full-scale
// result means the sensor saturated.
func FromCounts(counts uint16, mode Mode) Reading {
	lux := float32(counts) / bh1750CountsPerLux
	if mode == OneShotHighRes {
		lux /= bh1750HighRes2Divisor
	}
	return Reading{
		Lux:      lux,
		Overflow: counts == BH1750MaxCounts,
	}
}

// Saturation returns the highest illuminance mode can report.
func (m Mode) Saturation() float32 {
	return FromCounts(BH1750MaxCounts, m).Lux
}
