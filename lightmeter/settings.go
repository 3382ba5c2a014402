package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/golightmeter/pkg/config"
	"github.com/itohio/golightmeter/pkg/sensor/bridge"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createExposureTab(state),
		createMeteringTab(state),
		createStorageTab(state),
		createVoltageDividerTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(520, 420))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(520, 420))
	d.Show()
}

// saveConfig writes the configuration and restarts a running meter with it.
func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return
	}
	restartMeter(state)
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := bridge.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.Baud))

	timeoutEntry := widget.NewEntry()
	timeoutEntry.SetText(state.cfg.Serial.Timeout.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
			{Text: "Reply Timeout", Widget: timeoutEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.Baud = baud
			}
			if d, err := time.ParseDuration(timeoutEntry.Text); err == nil && d > 0 {
				state.cfg.Serial.Timeout = d
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Serial", form)
}

// createExposureTab creates the Exposure calibration tab.
func createExposureTab(state *appState) *container.TabItem {
	kEntry := widget.NewEntry()
	kEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Exposure.K))

	receptorSelect := widget.NewSelect([]string{config.ReceptorDome, config.ReceptorFlat}, nil)
	receptorSelect.SetSelected(state.cfg.Exposure.Receptor)

	domeEntry := widget.NewEntry()
	domeEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Exposure.DomeMultiplier))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Calibration K", Widget: kEntry},
			{Text: "Receptor", Widget: receptorSelect},
			{Text: "Dome Multiplier", Widget: domeEntry},
		},
		OnSubmit: func() {
			if k, err := strconv.ParseFloat(kEntry.Text, 64); err == nil && k > 0 {
				state.cfg.Exposure.K = k
			}
			if receptorSelect.Selected != "" {
				state.cfg.Exposure.Receptor = receptorSelect.Selected
			}
			if dm, err := strconv.ParseFloat(domeEntry.Text, 64); err == nil && dm > 0 {
				state.cfg.Exposure.DomeMultiplier = dm
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Exposure", form)
}

// durationItem binds a duration entry to target.
type durationItem struct {
	label  string
	target *time.Duration
	entry  *widget.Entry
}

func newDurationItems(items ...durationItem) []durationItem {
	for i := range items {
		items[i].entry = widget.NewEntry()
		items[i].entry.SetText(items[i].target.String())
	}
	return items
}

func durationForm(state *appState, items []durationItem) *widget.Form {
	form := &widget.Form{
		OnSubmit: func() {
			for _, it := range items {
				if d, err := time.ParseDuration(it.entry.Text); err == nil && d > 0 {
					*it.target = d
				}
			}
			saveConfig(state)
		},
	}
	for _, it := range items {
		form.Append(it.label, it.entry)
	}
	return form
}

// createMeteringTab creates the Metering timings tab.
func createMeteringTab(state *appState) *container.TabItem {
	m := &state.cfg.Metering
	items := newDurationItems(
		durationItem{label: "Overflow Retry Delay", target: &m.OverflowRetryDelay},
		durationItem{label: "Flash Window", target: &m.FlashWindow},
		durationItem{label: "Flash Sample Interval", target: &m.FlashSampleInterval},
		durationItem{label: "Auto Remeasure", target: &m.AutoInterval},
		durationItem{label: "Battery Refresh", target: &m.BatteryInterval},
		durationItem{label: "Settle Delay", target: &m.SettleDelay},
		durationItem{label: "Poll", target: &m.Poll},
	)

	return container.NewTabItem("Metering", durationForm(state, items))
}

// createStorageTab creates the settings image tab.
func createStorageTab(state *appState) *container.TabItem {
	fileEntry := widget.NewEntry()
	fileEntry.SetText(state.cfg.Storage.File)

	offsetEntry := widget.NewEntry()
	offsetEntry.SetText(strconv.FormatInt(state.cfg.Storage.Offset, 10))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "EEPROM Image", Widget: fileEntry},
			{Text: "Offset", Widget: offsetEntry},
		},
		OnSubmit: func() {
			if fileEntry.Text != "" {
				state.cfg.Storage.File = fileEntry.Text
			}
			if off, err := strconv.ParseInt(offsetEntry.Text, 10, 64); err == nil && off >= 0 {
				state.cfg.Storage.Offset = off
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Storage", form)
}

// createVoltageDividerTab creates the battery monitor configuration tab.
func createVoltageDividerTab(state *appState) *container.TabItem {
	r1Entry := widget.NewEntry()
	r1Entry.SetText(fmt.Sprintf("%.0f", state.cfg.VoltageDivider.R1))

	r2Entry := widget.NewEntry()
	r2Entry.SetText(fmt.Sprintf("%.0f", state.cfg.VoltageDivider.R2))

	vrefEntry := widget.NewEntry()
	vrefEntry.SetText(fmt.Sprintf("%.2f", state.cfg.VoltageDivider.VRef))

	bitsEntry := widget.NewEntry()
	bitsEntry.SetText(strconv.Itoa(state.cfg.VoltageDivider.Bits))

	sourceSelect := widget.NewSelect([]string{config.BatteryDivider, config.BatteryBandgap}, nil)
	sourceSelect.SetSelected(state.cfg.Battery.Source)

	bandgapEntry := widget.NewEntry()
	bandgapEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Battery.BandgapVolts))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "R1 (Ω)", Widget: r1Entry},
			{Text: "R2 (Ω)", Widget: r2Entry},
			{Text: "VRef (V)", Widget: vrefEntry},
			{Text: "ADC Bits", Widget: bitsEntry},
			{Text: "Battery Source", Widget: sourceSelect},
			{Text: "Bandgap (V)", Widget: bandgapEntry},
		},
		OnSubmit: func() {
			if r1, err := strconv.ParseFloat(r1Entry.Text, 64); err == nil && r1 >= 0 {
				state.cfg.VoltageDivider.R1 = r1
			}
			if r2, err := strconv.ParseFloat(r2Entry.Text, 64); err == nil && r2 > 0 {
				state.cfg.VoltageDivider.R2 = r2
			}
			if vref, err := strconv.ParseFloat(vrefEntry.Text, 64); err == nil && vref > 0 {
				state.cfg.VoltageDivider.VRef = vref
			}
			if bits, err := strconv.Atoi(bitsEntry.Text); err == nil && bits > 0 && bits <= 16 {
				state.cfg.VoltageDivider.Bits = bits
			}
			if sourceSelect.Selected != "" {
				state.cfg.Battery.Source = sourceSelect.Selected
			}
			if vbg, err := strconv.ParseFloat(bandgapEntry.Text, 64); err == nil && vbg > 0 {
				state.cfg.Battery.BandgapVolts = vbg
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Battery", form)
}

// createMockTab creates the Mock sensor configuration tab.
func createMockTab(state *appState) *container.TabItem {
	ambientEntry := widget.NewEntry()
	ambientEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.AmbientLux))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.NoiseLevel))

	flashEntry := widget.NewEntry()
	flashEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.FlashLux))

	flashDurationEntry := widget.NewEntry()
	flashDurationEntry.SetText(state.cfg.Mock.FlashDuration.String())

	flashPeriodEntry := widget.NewEntry()
	flashPeriodEntry.SetText(state.cfg.Mock.FlashPeriod.String())

	batteryEntry := widget.NewEntry()
	batteryEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.BatteryVolts))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Ambient (lx)", Widget: ambientEntry},
			{Text: "Noise Level (lx)", Widget: noiseEntry},
			{Text: "Flash (lx)", Widget: flashEntry},
			{Text: "Flash Duration", Widget: flashDurationEntry},
			{Text: "Flash Period", Widget: flashPeriodEntry},
			{Text: "Battery (V)", Widget: batteryEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(ambientEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.AmbientLux = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.NoiseLevel = v
			}
			if v, err := strconv.ParseFloat(flashEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.FlashLux = v
			}
			if d, err := time.ParseDuration(flashDurationEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.FlashDuration = d
			}
			if d, err := time.ParseDuration(flashPeriodEntry.Text); err == nil && d > 0 {
				state.cfg.Mock.FlashPeriod = d
			}
			if v, err := strconv.ParseFloat(batteryEntry.Text, 64); err == nil && v >= 0 {
				state.cfg.Mock.BatteryVolts = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
