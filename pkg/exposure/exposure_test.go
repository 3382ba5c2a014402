package exposure

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/itohio/golightmeter/pkg/tables"
)

const (
	iso100   = 11
	iso400   = 17
	f8       = 18
	t1_125   = 19
	t1_4     = 34
	t1_15    = 28
	t1_500   = 13
	noFilter = 0
)

func TestNew_FallsBackToDefaults(t *testing.T) {
	c := New(Calibration{})
	cal := c.Calibration()

	assert.Equal(t, DefaultK, cal.K)
	assert.Equal(t, DefaultDomeMultiplier, cal.DomeMultiplier)
	assert.False(t, cal.Dome)
}

func TestEV100(t *testing.T) {
	flat := New(Calibration{K: 2.5})
	dome := New(DefaultCalibration())

	assert.InDelta(t, 7.0, flat.EV100(320), 1e-4)
	assert.InDelta(t, 13.0, flat.EV100(20480), 1e-4)
	assert.InDelta(t, 13.0, dome.EV100(20480/DefaultDomeMultiplier), 1e-4)
	assert.True(t, math32.IsInf(flat.EV100(0), -1))
	assert.True(t, math32.IsInf(flat.EV100(-3), -1))
	assert.True(t, math32.IsInf(flat.EV100(math32.NaN()), -1))
}

func TestWorkingEV(t *testing.T) {
	c := New(Calibration{K: 2.5})

	assert.InDelta(t, 13.0, c.WorkingEV(20480, iso100, noFilter), 1e-4)
	assert.InDelta(t, 15.0, c.WorkingEV(20480, iso400, noFilter), 1e-2)
	assert.InDelta(t, 10.0, c.WorkingEV(20480, iso100, 3), 1e-4)
}

func TestCompute_AperturePriority(t *testing.T) {
	tests := []struct {
		name string
		cal  Calibration
		lux  float32
		iso  int
		nd   int
		want int
	}{
		{"dome 320 lux", DefaultCalibration(), 320, iso100, noFilter, t1_4},
		{"dome EV13", DefaultCalibration(), 9437, iso100, noFilter, t1_125},
		{"flat EV13", Calibration{K: 2.5}, 20480, iso100, noFilter, t1_125},
		{"flat EV13 ISO400", Calibration{K: 2.5}, 20480, iso400, noFilter, t1_500},
		{"flat EV13 ND8", Calibration{K: 2.5}, 20480, iso100, 3, t1_15},
		{"zero lux", DefaultCalibration(), 0, iso100, noFilter, tables.MaxShutterIndex},
		{"blinding", DefaultCalibration(), 1e30, iso100, noFilter, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cal)
			got := c.Compute(tt.lux, tt.iso, tt.nd, tables.AperturePriority, f8)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompute_ShutterPriority(t *testing.T) {
	c := New(Calibration{K: 2.5})

	assert.Equal(t, f8, c.Compute(20480, iso100, noFilter, tables.ShutterPriority, t1_125))
	assert.Equal(t, 0, c.Compute(0, iso100, noFilter, tables.ShutterPriority, t1_125))
	assert.Equal(t, tables.MaxApertureIndex, c.Compute(1e30, iso100, noFilter, tables.ShutterPriority, t1_125))
}

func TestCompute_AlwaysWithinBounds(t *testing.T) {
	c := New(DefaultCalibration())
	luxes := []float32{0, 0.001, 0.5, 1, 10, 320, 1000, 54612, 1e6, 1e12, math32.Inf(1), math32.NaN(), -1}

	for iso := 0; iso <= tables.MaxISOIndex; iso++ {
		for nd := 0; nd <= tables.MaxNDIndex; nd++ {
			for _, lux := range luxes {
				s := c.Compute(lux, iso, nd, tables.AperturePriority, tables.DefaultApertureIndex)
				assert.True(t, s >= 0 && s <= tables.MaxShutterIndex, "shutter %d for iso=%d nd=%d lux=%v", s, iso, nd, lux)

				a := c.Compute(lux, iso, nd, tables.ShutterPriority, tables.DefaultShutterIndex)
				assert.True(t, a >= 0 && a <= tables.MaxApertureIndex, "aperture %d for iso=%d nd=%d lux=%v", a, iso, nd, lux)
			}
		}
	}
}

func TestCompute_Monotonic(t *testing.T) {
	c := New(DefaultCalibration())

	prev := tables.MaxShutterIndex
	for lux := float32(0.01); lux < 1e6; lux *= 1.5 {
		got := c.ShutterIndex(lux, iso100, noFilter, f8)
		assert.LessOrEqual(t, got, prev, "brighter light must not lengthen the exposure (lux=%v)", lux)
		prev = got
	}
}
