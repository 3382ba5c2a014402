package sensor

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/golightmeter/pkg/clock"
)

// LuxFunc returns the simulated illuminance at elapsed time since the mock was
// created.
type LuxFunc func(elapsed time.Duration) float32

// Scenario describes a simulated lighting environment: steady ambient light
// with a little ripple and an optional periodic flash.
type Scenario struct {
	AmbientLux    float32       // Steady illuminance (lx)
	NoiseLevel    float32       // Ripple amplitude (lx)
	FlashLux      float32       // Extra illuminance while the flash fires (lx), 0 disables
	FlashPeriod   time.Duration // Time between flashes
	FlashDuration time.Duration // Flash duration
}

// DefaultScenario returns a dim room with a studio flash firing every 3 s.
func DefaultScenario() Scenario {
	return Scenario{
		AmbientLux:    320,
		NoiseLevel:    2,
		FlashLux:      20000,
		FlashPeriod:   3 * time.Second,
		FlashDuration: 40 * time.Millisecond,
	}
}

// Lux returns the scenario as a LuxFunc.
func (s Scenario) Lux() LuxFunc {
	return func(elapsed time.Duration) float32 {
		lux := s.AmbientLux
		if s.NoiseLevel > 0 {
			x := elapsed.Seconds()
			lux += s.NoiseLevel * 0.5 * float32(math.Sin(x*7.1)+math.Cos(x*13.3))
		}
		if s.FlashLux > 0 && s.FlashPeriod > 0 && elapsed%s.FlashPeriod < s.FlashDuration {
			lux += s.FlashLux
		}
		if lux < 0 {
			lux = 0
		}
		return lux
	}
}

// Mock simulates the illuminance sensor for testing and development.
// Scripted readings are returned first; afterwards readings follow the LuxFunc.
type Mock struct {
	mu sync.Mutex

	clk   clock.Clock
	start time.Time
	lux   LuxFunc

	script     []Reading
	saturation map[Mode]float32
	conversion bool
	err        error

	mode  Mode
	modes []Mode
	reads int
}

// NewMock creates a mocked sensor driven by lux. A nil lux reads darkness.
func NewMock(clk clock.Clock, lux LuxFunc) *Mock {
	if clk == nil {
		clk = clock.Real{}
	}
	if lux == nil {
		lux = func(time.Duration) float32 { return 0 }
	}
	return &Mock{
		clk:        clk,
		start:      clk.Now(),
		lux:        lux,
		saturation: make(map[Mode]float32),
	}
}

// NewScenarioMock creates a mocked BH1750 that saturates like the real part
// and takes the mode's conversion time on every read.
func NewScenarioMock(clk clock.Clock, s Scenario) *Mock {
	m := NewMock(clk, s.Lux())
	m.SetSaturation(OneShotHighRes, OneShotHighRes.Saturation())
	m.SetSaturation(ContinuousLowRes, ContinuousLowRes.Saturation())
	m.SimulateConversion(true)
	return m
}

// Script queues readings returned by the next Read calls.
func (m *Mock) Script(readings ...Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, readings...)
}

// SetSaturation clamps readings in mode at lux and flags them as overflow.
// Zero disables saturation.
func (m *Mock) SetSaturation(mode Mode, lux float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saturation[mode] = lux
}

// SimulateConversion makes Read sleep for the mode's conversion time.
func (m *Mock) SimulateConversion(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversion = on
}

// FailWith makes subsequent reads fail with err. A nil err clears the failure.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Configure records the requested mode.
func (m *Mock) Configure(mode Mode) error {
	if mode > ContinuousLowRes {
		return ErrInvalidMode
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	m.modes = append(m.modes, mode)
	return nil
}

// Read returns the next scripted reading or samples the LuxFunc.
func (m *Mock) Read() (Reading, error) {
	m.mu.Lock()
	conversion := m.conversion
	mode := m.mode
	m.mu.Unlock()

	if conversion {
		m.clk.Sleep(mode.ConversionTime())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.err != nil {
		return Reading{}, m.err
	}

	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r, nil
	}

	r := Reading{Lux: m.lux(m.clk.Since(m.start))}
	if sat := m.saturation[mode]; sat > 0 && r.Lux >= sat {
		r.Lux = sat
		r.Overflow = true
	}
	return r, nil
}

// Mode returns the currently configured mode.
func (m *Mock) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Modes returns every mode passed to Configure, in order.
func (m *Mock) Modes() []Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Mode, len(m.modes))
	copy(result, m.modes)
	return result
}

// Reads returns the number of Read calls.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
