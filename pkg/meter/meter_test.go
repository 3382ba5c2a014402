package meter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/golightmeter/pkg/buttons"
	"github.com/itohio/golightmeter/pkg/clock"
	"github.com/itohio/golightmeter/pkg/display"
	"github.com/itohio/golightmeter/pkg/menu"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/sensor"
	"github.com/itohio/golightmeter/pkg/settings"
	"github.com/itohio/golightmeter/pkg/tables"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type countingSupply struct {
	volts float32
	err   error
	reads int
}

func (s *countingSupply) Voltage() (float32, error) {
	s.reads++
	return s.volts, s.err
}

// savingRecorder records how many settings writes had happened at every read.
type savingRecorder struct {
	*sensor.Mock
	mem    *settings.Memory
	writes []int
}

func (p *savingRecorder) Read() (sensor.Reading, error) {
	p.writes = append(p.writes, p.mem.Writes())
	return p.Mock.Read()
}

type rig struct {
	clk    *clock.Manual
	sensor *savingRecorder
	mem    *settings.Memory
	supply *countingSupply
	logs   *bytes.Buffer
	meter  *Meter
	views  []display.View
}

func constant(lux float32) sensor.LuxFunc {
	return func(time.Duration) float32 { return lux }
}

func newRig(t *testing.T, lux sensor.LuxFunc, initial *settings.Exposure) *rig {
	t.Helper()

	r := &rig{
		clk:    clock.NewManual(epoch),
		mem:    settings.NewMemory(0),
		supply: &countingSupply{volts: 3.7},
		logs:   &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(r.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := settings.NewStore(r.mem, 0, logger)
	if initial != nil {
		require.NoError(t, store.Save(*initial))
	}

	r.sensor = &savingRecorder{Mock: sensor.NewMock(r.clk, lux), mem: r.mem}
	r.meter = New(Options{
		Controller: metering.New(r.sensor, r.clk, metering.Timing{}, logger),
		Store:      store,
		Supply:     r.supply,
		Clock:      r.clk,
		Logger:     logger,
	})
	r.meter.OnUpdate(func(v display.View) { r.views = append(r.views, v) })
	return r
}

func TestMeter_Start(t *testing.T) {
	initial := settings.Default()
	initial.ApertureIndex = 18 // f/8
	r := newRig(t, constant(320), &initial)

	assert.Equal(t, initial, r.meter.Settings(), "settings loaded on creation")

	r.meter.Start()

	require.Len(t, r.views, 1)
	v := r.views[0]
	assert.Equal(t, float32(320), v.Sample.Lux)
	assert.Equal(t, 34, v.Computed, "ISO 100, f/8, 320 lux with dome is 1/4 s")
	assert.Equal(t, float32(3.7), v.BatteryVolts)
	assert.Equal(t, menu.MainScreen, v.Screen)
	assert.False(t, v.Measuring)
	assert.Equal(t, 1, r.supply.reads)
	assert.Contains(t, r.logs.String(), "battery voltage")
}

func TestMeter_ManualSavesBeforeMeasuring(t *testing.T) {
	r := newRig(t, constant(320), nil)
	r.meter.Start()
	r.views = nil
	writesBefore := r.mem.Writes()

	r.meter.Tick([]buttons.Event{buttons.Press(buttons.Metering)})

	require.NotEmpty(t, r.sensor.writes)
	assert.Equal(t, writesBefore+1, r.sensor.writes[len(r.sensor.writes)-1])

	require.Len(t, r.views, 2)
	assert.True(t, r.views[0].Measuring)
	assert.Equal(t, float32(0), r.views[0].Sample.Lux)
	assert.False(t, r.views[1].Measuring)
	assert.Equal(t, float32(320), r.views[1].Sample.Lux)

	sleeps := r.clk.Sleeps()
	require.NotEmpty(t, sleeps)
	assert.Equal(t, 200*time.Millisecond, sleeps[len(sleeps)-1], "settle after manual ambient")

	saved := settings.NewStore(r.mem, 0, nil).Load()
	assert.Equal(t, r.meter.Settings(), saved)
}

func TestMeter_HeldButtonRepeats(t *testing.T) {
	r := newRig(t, constant(100), nil)
	r.meter.Start()

	r.meter.Tick([]buttons.Event{buttons.Press(buttons.Metering)})
	r.meter.Tick(nil)
	assert.Equal(t, 2, r.mem.Writes())

	r.meter.Tick([]buttons.Event{buttons.Release(buttons.Metering)})
	assert.Equal(t, 2, r.mem.Writes())

	// Click within one batch.
	r.meter.Tick([]buttons.Event{buttons.Press(buttons.Metering), buttons.Release(buttons.Metering)})
	assert.Equal(t, 3, r.mem.Writes())
}

func TestMeter_AutoRemeasure(t *testing.T) {
	r := newRig(t, constant(500), nil)
	r.meter.Start()
	require.Equal(t, 1, r.sensor.Reads())

	r.meter.Tick(nil)
	assert.Equal(t, 1, r.sensor.Reads())

	r.clk.Advance(199 * time.Millisecond)
	r.meter.Tick(nil)
	assert.Equal(t, 1, r.sensor.Reads())

	r.clk.Advance(time.Millisecond)
	r.meter.Tick(nil)
	assert.Equal(t, 2, r.sensor.Reads())

	// No auto-remeasure in flash mode.
	r.meter.Tick([]buttons.Event{buttons.Press(buttons.MeteringMode)})
	assert.Equal(t, tables.Flash, r.meter.Settings().Metering)
	r.clk.Advance(time.Second)
	r.meter.Tick(nil)
	assert.Equal(t, 2, r.sensor.Reads())
	assert.Equal(t, 0, r.mem.Writes(), "auto path never saves")
}

func TestMeter_ManualFlash(t *testing.T) {
	initial := settings.Default()
	initial.Metering = tables.Flash
	r := newRig(t, func(elapsed time.Duration) float32 {
		if elapsed >= 3*time.Second && elapsed < 3*time.Second+50*time.Millisecond {
			return 4000
		}
		return 10
	}, &initial)
	r.meter.Start()
	start := r.clk.Now()

	r.meter.Tick([]buttons.Event{buttons.Press(buttons.Metering), buttons.Release(buttons.Metering)})

	assert.Equal(t, float32(4000), r.meter.View().Sample.Lux)
	assert.Greater(t, r.clk.Since(start), metering.MaxFlashMeteringTime)
	assert.Equal(t, sensor.ContinuousLowRes, r.sensor.Mode())
	for _, d := range r.clk.Sleeps() {
		assert.NotEqual(t, 200*time.Millisecond, d, "no settle after flash")
	}
}

func TestMeter_ButtonsRecompute(t *testing.T) {
	r := newRig(t, constant(9437), nil)
	r.meter.Start()
	before := r.meter.View()
	r.views = nil

	r.meter.Tick([]buttons.Event{buttons.Press(buttons.Plus), buttons.Release(buttons.Plus)})

	require.Len(t, r.views, 1)
	assert.Equal(t, before.Settings.ApertureIndex+1, r.views[0].Settings.ApertureIndex)
	assert.Equal(t, before.Computed+1, r.views[0].Computed, "a third stop smaller aperture needs a third stop longer time")
	assert.Equal(t, 1, r.sensor.Reads(), "adjusting does not remeasure")

	r.meter.Tick([]buttons.Event{buttons.Press(buttons.Menu)})
	assert.Equal(t, menu.ISOMenu, r.meter.View().Screen)

	r.meter.Tick([]buttons.Event{buttons.Release(buttons.Menu)})
	assert.Len(t, r.views, 2, "release changes nothing")
}

func TestMeter_Battery(t *testing.T) {
	r := newRig(t, constant(1), nil)
	r.meter.Start()

	r.supply.volts = 3.5
	r.clk.Advance(9 * time.Second)
	r.meter.Tick(nil)
	assert.Equal(t, 1, r.supply.reads)

	r.clk.Advance(time.Second)
	r.meter.Tick(nil)
	assert.Equal(t, 2, r.supply.reads)
	assert.Equal(t, float32(3.5), r.meter.View().BatteryVolts)

	r.supply.err = errors.New("adc busy")
	r.clk.Advance(10 * time.Second)
	r.meter.Tick(nil)
	assert.Equal(t, float32(3.5), r.meter.View().BatteryVolts, "last good reading kept")
}

func TestMeter_SaveFailureStillMeasures(t *testing.T) {
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	clk := clock.NewManual(epoch)
	s := sensor.NewMock(clk, constant(42))

	m := New(Options{
		Controller: metering.New(s, clk, metering.Timing{}, logger),
		Store:      settings.NewStore(settings.NewMemory(4), 0, logger),
		Clock:      clk,
		Logger:     logger,
	})
	assert.Equal(t, settings.Default(), m.Settings())

	m.Start()
	m.Tick([]buttons.Event{buttons.Press(buttons.Metering)})

	assert.Equal(t, 2, s.Reads())
	assert.Equal(t, float32(42), m.View().Sample.Lux)
	assert.Contains(t, logs.String(), "save settings")
}

func TestMeter_Run(t *testing.T) {
	r := newRig(t, constant(250), nil)
	var notified atomic.Int32
	r.meter.OnUpdate(func(display.View) { notified.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan buttons.Event, 4)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.meter.Run(ctx, events, time.Millisecond)
	}()

	events <- buttons.Press(buttons.Minus)
	events <- buttons.Release(buttons.Minus)

	want := settings.Default().ApertureIndex - 1
	require.Eventually(t, func() bool {
		return r.meter.Settings().ApertureIndex == want
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	count := notified.Load()
	assert.GreaterOrEqual(t, count, int32(2))
	r.meter.notifyCallbacks()
	assert.Equal(t, count, notified.Load(), "no callbacks after Run returns")
}
