// Package meter runs the light meter's control loop.
package meter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itohio/golightmeter/pkg/buttons"
	"github.com/itohio/golightmeter/pkg/clock"
	"github.com/itohio/golightmeter/pkg/display"
	"github.com/itohio/golightmeter/pkg/exposure"
	"github.com/itohio/golightmeter/pkg/menu"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/power"
	"github.com/itohio/golightmeter/pkg/settings"
	"github.com/itohio/golightmeter/pkg/tables"
)

var _ LightMeter = (*Meter)(nil)

// LightMeter runs the meter's control loop.
type LightMeter interface {
	Start()
	Tick(events []buttons.Event)
	Run(ctx context.Context, events <-chan buttons.Event, poll time.Duration)
	View() display.View
	OnUpdate(func(display.View)) // Register callback for updates
}

// DefaultPoll is the tick period used by Run when none is given.
const DefaultPoll = 20 * time.Millisecond

// Intervals are the cooperative timers of the loop.
type Intervals struct {
	Auto    time.Duration // Ambient auto-remeasure period
	Battery time.Duration // Supply voltage refresh period
	Settle  time.Duration // Pause after a manual ambient reading
}

// DefaultIntervals returns the stock intervals.
func DefaultIntervals() Intervals {
	return Intervals{
		Auto:    200 * time.Millisecond,
		Battery: 10 * time.Second,
		Settle:  200 * time.Millisecond,
	}
}

// Options wires the collaborators of a Meter. Controller is required.
type Options struct {
	Calculator *exposure.Calculator
	Controller *metering.Controller
	Store      *settings.Store
	Supply     power.Supply
	Clock      clock.Clock
	Logger     *slog.Logger
	Intervals  Intervals
}

// Meter is the control loop context. It owns the settings, the last sample
// and the menu. Tick and Run must be called from one goroutine; View and
// OnUpdate are safe from any goroutine.
type Meter struct {
	calc      *exposure.Calculator
	ctrl      *metering.Controller
	store     *settings.Store
	supply    power.Supply
	clk       clock.Clock
	log       *slog.Logger
	intervals Intervals

	mu        sync.RWMutex
	settings  settings.Exposure
	menu      *menu.Menu
	sample    metering.Sample
	battery   float32
	measuring bool

	auto         *clock.Periodic
	batteryTimer *clock.Periodic

	callbacks []func(display.View)
	cbMu      sync.RWMutex

	// Set when Run returns, prevents further callbacks
	shutdown bool
}

// New creates a Meter and loads the persisted settings.
func New(opts Options) *Meter {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Calculator == nil {
		opts.Calculator = exposure.New(exposure.DefaultCalibration())
	}
	if opts.Store == nil {
		opts.Store = settings.NewStore(settings.NewMemory(0), 0, opts.Logger)
	}
	def := DefaultIntervals()
	if opts.Intervals.Auto <= 0 {
		opts.Intervals.Auto = def.Auto
	}
	if opts.Intervals.Battery <= 0 {
		opts.Intervals.Battery = def.Battery
	}
	if opts.Intervals.Settle <= 0 {
		opts.Intervals.Settle = def.Settle
	}

	m := &Meter{
		calc:      opts.Calculator,
		ctrl:      opts.Controller,
		store:     opts.Store,
		supply:    opts.Supply,
		clk:       opts.Clock,
		log:       opts.Logger,
		intervals: opts.Intervals,
	}
	m.settings = m.store.Load()
	m.menu = menu.New(&m.settings)

	now := m.clk.Now()
	m.auto = clock.NewPeriodic(m.intervals.Auto, now)
	m.batteryTimer = clock.NewPeriodic(m.intervals.Battery, now)
	return m
}

// Start logs the supply voltage, takes the first ambient reading and notifies
// observers.
func (m *Meter) Start() {
	m.mu.Lock()
	m.shutdown = false
	m.mu.Unlock()

	m.refreshBattery()
	m.log.Info("battery voltage", "volts", m.batteryVolts())

	s := m.ctrl.Ambient()
	m.mu.Lock()
	m.sample = s
	m.mu.Unlock()

	now := m.clk.Now()
	m.auto.Reset(now)
	m.batteryTimer.Reset(now)
	m.notifyCallbacks()
}

// Tick runs one pass of the loop: battery refresh when due, button events,
// then either the manual measurement while the metering button is held or the
// ambient auto-remeasure when due. A metering press and release within the
// same batch still triggers one manual measurement.
func (m *Meter) Tick(events []buttons.Event) {
	changed := false
	now := m.clk.Now()
	if m.batteryTimer.Due(now) {
		m.refreshBattery()
		changed = true
	}

	m.mu.Lock()
	triggered := false
	for _, ev := range events {
		if m.menu.Handle(ev) {
			changed = true
		}
		if ev.Button == buttons.Metering && ev.Pressed {
			triggered = true
		}
	}
	triggered = triggered || m.menu.MeteringHeld()
	mode := m.settings.Metering
	m.mu.Unlock()

	switch {
	case triggered:
		m.manual(mode)
	case mode == tables.Ambient && m.auto.Due(m.clk.Now()):
		m.measure(tables.Ambient)
	case changed:
		m.notifyCallbacks()
	}
}

// manual saves the settings and then measures in mode.
func (m *Meter) manual(mode tables.MeteringMode) {
	m.mu.RLock()
	s := m.settings
	m.mu.RUnlock()

	if err := m.store.Save(s); err != nil {
		m.log.Error("save settings", "err", err)
	}

	m.mu.Lock()
	m.sample = metering.Sample{CapturedAt: m.clk.Now()}
	m.measuring = true
	m.mu.Unlock()
	m.notifyCallbacks()

	m.measure(mode)

	if mode == tables.Ambient {
		m.clk.Sleep(m.intervals.Settle)
	}
}

func (m *Meter) measure(mode tables.MeteringMode) {
	s := m.ctrl.Measure(mode)

	m.mu.Lock()
	m.sample = s
	m.measuring = false
	m.mu.Unlock()
	m.notifyCallbacks()
}

func (m *Meter) refreshBattery() {
	if m.supply == nil {
		return
	}
	v, err := m.supply.Voltage()
	if err != nil {
		m.log.Warn("read battery voltage", "err", err)
		return
	}
	m.mu.Lock()
	m.battery = v
	m.mu.Unlock()
}

func (m *Meter) batteryVolts() float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.battery
}

// Run starts the meter and ticks it every poll until ctx is done. Button
// events received between ticks are delivered with the next tick.
func (m *Meter) Run(ctx context.Context, events <-chan buttons.Event, poll time.Duration) {
	if poll <= 0 {
		poll = DefaultPoll
	}

	m.Start()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var pending []buttons.Event
	for {
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.shutdown = true
			m.mu.Unlock()
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			pending = append(pending, ev)
		case <-ticker.C:
			m.Tick(pending)
			pending = pending[:0]
		}
	}
}

// Settings returns a copy of the live settings.
func (m *Meter) Settings() settings.Exposure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// View returns what the panel should show now.
func (m *Meter) View() display.View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewLocked()
}

func (m *Meter) viewLocked() display.View {
	s := m.settings
	return display.View{
		Settings:     s,
		Sample:       m.sample,
		Computed:     m.calc.Compute(m.sample.Lux, s.ISOIndex, s.NDIndex, s.Priority, s.FixedIndex()),
		EV:           m.calc.EV100(m.sample.Lux),
		Screen:       m.menu.Screen(),
		Measuring:    m.measuring,
		BatteryVolts: m.battery,
	}
}

// OnUpdate registers a callback function that will be called whenever the
// view changes. The callback runs on the loop goroutine and should return
// quickly.
func (m *Meter) OnUpdate(callback func(display.View)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// notifyCallbacks invokes all registered callbacks with the current view.
func (m *Meter) notifyCallbacks() {
	m.mu.RLock()
	if m.shutdown {
		m.mu.RUnlock()
		return
	}
	view := m.viewLocked()
	m.mu.RUnlock()

	m.cbMu.RLock()
	callbacks := make([]func(display.View), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(view)
		}
	}
}
