package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/golightmeter/pkg/buttons"
	"github.com/itohio/golightmeter/pkg/clock"
	"github.com/itohio/golightmeter/pkg/config"
	"github.com/itohio/golightmeter/pkg/display"
	"github.com/itohio/golightmeter/pkg/exposure"
	"github.com/itohio/golightmeter/pkg/meter"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/screen"
	"github.com/itohio/golightmeter/pkg/sensor"
	"github.com/itohio/golightmeter/pkg/sensor/bridge"
	"github.com/itohio/golightmeter/pkg/settings"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked sensor instead of serial bridge")
		debugFlag  = flag.Bool("debug", false, "Log every measurement")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.golightmeter")

	// Create main window
	window := application.NewWindow("Light Meter")
	window.Resize(fyne.NewSize(420, 520))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
		events:     make(chan buttons.Event, 32),
		logger:     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}

	state.screen = screen.New(0)

	content := container.NewBorder(
		createToolbar(state),
		createKeypad(state),
		nil,
		nil,
		state.screen,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		stopMeter(state)
	})
	window.ShowAndRun()
}

// meterChain tracks the running meter for graceful shutdown.
type meterChain struct {
	meter  *meter.Meter
	bridge *bridge.Sensor // nil when mocked
	cancel context.CancelFunc
	done   chan struct{} // Closed when the meter goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg        *config.Config
	configPath string
	window     fyne.Window
	screen     *screen.Widget
	connectBtn *widget.Button
	useMock    bool
	logger     *slog.Logger

	// Button events for the meter goroutine
	events chan buttons.Event
	chain  *meterChain // Current meter (nil if stopped)
}

// createToolbar creates the application toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewHBox(connectBtn, settingsBtn)
}

// handleConnect starts the meter or stops it when running.
func handleConnect(state *appState) {
	if state.chain != nil {
		stopMeter(state)
		if state.useMock {
			fmt.Println("Stopped mocked sensor")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	if err := startMeter(state); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if state.useMock {
		fmt.Println("Using mocked sensor")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}
}

// startMeter wires the sensor, settings image and meter from the configuration
// and runs the meter on its own goroutine.
func startMeter(state *appState) error {
	cfg := state.cfg
	clk := clock.Real{}

	supply, err := cfg.SimulatedSupply()
	if err != nil {
		return err
	}

	var (
		s    sensor.Sensor
		link *bridge.Sensor
	)
	if state.useMock {
		s = sensor.NewScenarioMock(clk, cfg.Scenario())
	} else {
		link = bridge.New(cfg.Serial.Port, cfg.Serial.Baud, cfg.Serial.Timeout)
		if err := link.Connect(); err != nil {
			return fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
		}
		s = link
	}

	m := meter.New(meter.Options{
		Calculator: exposure.New(cfg.Calibration()),
		Controller: metering.New(s, clk, cfg.Timing(), state.logger),
		Store:      settings.NewStore(settings.NewFile(cfg.Storage.File), cfg.Storage.Offset, state.logger),
		Supply:     supply,
		Clock:      clk,
		Logger:     state.logger,
		Intervals:  cfg.Intervals(),
	})
	m.OnUpdate(func(v display.View) {
		updateScreen(state, v)
	})

	ctx, cancel := context.WithCancel(context.Background())
	chain := &meterChain{
		meter:  m,
		bridge: link,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(chain.done)
		m.Run(ctx, state.events, cfg.Metering.Poll)
	}()

	state.chain = chain
	return nil
}

// stopMeter cancels the meter and waits for it. A flash capture in progress
// finishes first.
func stopMeter(state *appState) {
	chain := state.chain
	if chain == nil {
		return
	}
	state.chain = nil

	chain.cancel()
	<-chain.done

	if chain.bridge != nil {
		if err := chain.bridge.Close(); err != nil {
			state.logger.Warn("close sensor bridge", "err", err)
		}
	}
}

// restartMeter applies a changed configuration to a running meter.
func restartMeter(state *appState) {
	if state.chain == nil {
		return
	}
	stopMeter(state)
	if err := startMeter(state); err != nil {
		dialog.ShowError(err, state.window)
	}
}
