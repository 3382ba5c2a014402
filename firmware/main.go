//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"log/slog"
	"machine"
	"time"

	"tinygo.org/x/drivers/hd44780i2c"

	"github.com/itohio/golightmeter/pkg/buttons"
	"github.com/itohio/golightmeter/pkg/clock"
	"github.com/itohio/golightmeter/pkg/display"
	"github.com/itohio/golightmeter/pkg/exposure"
	"github.com/itohio/golightmeter/pkg/meter"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/power"
	"github.com/itohio/golightmeter/pkg/sensor/bh1750"
	"github.com/itohio/golightmeter/pkg/settings"
)

var buttonPins = [buttons.Count]machine.Pin{
	buttons.Plus:         PIN_PLUS,
	buttons.Minus:        PIN_MINUS,
	buttons.Metering:     PIN_METERING,
	buttons.Mode:         PIN_MODE,
	buttons.Menu:         PIN_MENU,
	buttons.MeteringMode: PIN_METERING_MODE,
}

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	clk := clock.Real{}

	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       PIN_SDA,
		SCL:       PIN_SCL,
		Frequency: I2C_FREQUENCY,
	})
	if err != nil {
		printErrForever(logger, "configure I2C", slog.Any("reason", err))
	}

	lcd := hd44780i2c.New(machine.I2C0, LCD_ADDRESS)
	if err := lcd.Configure(hd44780i2c.Config{Width: display.Columns, Height: display.Rows}); err != nil {
		printErrForever(logger, "configure LCD", slog.Any("reason", err))
	}
	lcd.ClearDisplay()
	panel := display.NewPanel(&lcd)

	for _, pin := range buttonPins {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	machine.InitADC()
	battery := machine.ADC{Pin: PIN_BATTERY}
	battery.Configure(machine.ADCConfig{})
	supply, err := power.NewDividerSupply(battery, power.DefaultDivider(), BATTERY_SAMPLES)
	if err != nil {
		printErrForever(logger, "configure battery monitor", slog.Any("reason", err))
	}

	m := meter.New(meter.Options{
		Calculator: exposure.New(exposure.DefaultCalibration()),
		Controller: metering.New(bh1750.New(machine.I2C0, clk), clk, metering.DefaultTiming(), logger),
		Store:      settings.NewStore(settings.NewFlash(machine.Flash), STORAGE_OFFSET, logger),
		Supply:     supply,
		Clock:      clk,
		Logger:     logger,
		Intervals:  meter.DefaultIntervals(),
	})
	m.OnUpdate(panel.Draw)
	m.Start()

	edges := buttons.NewEdges(clk, DEBOUNCE, true)
	events := make([]buttons.Event, 0, buttons.Count)
	for {
		events = edges.Update(readLevels(), events[:0])
		m.Tick(events)
		time.Sleep(POLL)
	}
}

func readLevels() buttons.Levels {
	var levels buttons.Levels
	for i, pin := range buttonPins {
		levels[i] = pin.Get()
	}
	return levels
}

// printErrForever prints a string to serial @ 1hz. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
