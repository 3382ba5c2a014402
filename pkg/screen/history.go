package screen

import (
	"math"
	"time"
)

// Point is one entry of the EV trace.
type Point struct {
	At time.Time
	EV float32
}

// Darkest EV plotted; darker readings, including no light at all, sit on it.
const floorEV = -6

// Downsample decimates points to at most maxPoints for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
func Downsample(dst []Point, points []Point, maxPoints int) []Point {
	if len(points) <= maxPoints {
		if cap(dst) >= len(points) {
			dst = dst[:len(points)]
			copy(dst, points)
			return dst
		}
		result := make([]Point, len(points))
		copy(result, points)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Point, 0, maxPoints)
	}

	step := float64(len(points)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(points) {
			dst = append(dst, points[idx])
		}
	}

	return dst
}

// Range returns the EV axis bounds with a 10% margin. It never returns an
// empty range.
func Range(points []Point) (lo, hi float32) {
	if len(points) == 0 {
		return 0, 15
	}

	lo, hi = plotEV(points[0].EV), plotEV(points[0].EV)
	for _, p := range points[1:] {
		ev := plotEV(p.EV)
		if ev < lo {
			lo = ev
		}
		if ev > hi {
			hi = ev
		}
	}

	span := hi - lo
	if span < 1 {
		span = 1
	}
	margin := span * 0.1
	return lo - margin, hi + margin
}

func plotEV(ev float32) float32 {
	if ev != ev || math.IsInf(float64(ev), -1) || ev < floorEV {
		return floorEV
	}
	return ev
}
