package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/golightmeter/pkg/buttons"
)

// keyButton is a push button reporting both press and release, so that the
// metering button can be held like the physical one.
type keyButton struct {
	widget.Button
	button buttons.Button
	send   func(buttons.Event)
	down   bool
}

var _ desktop.Mouseable = (*keyButton)(nil)

func newKeyButton(label string, b buttons.Button, send func(buttons.Event)) *keyButton {
	k := &keyButton{button: b, send: send}
	k.Text = label
	k.ExtendBaseWidget(k)
	return k
}

// MouseDown reports a press.
func (k *keyButton) MouseDown(*desktop.MouseEvent) {
	k.down = true
	k.send(buttons.Press(k.button))
}

// MouseUp reports a release.
func (k *keyButton) MouseUp(*desktop.MouseEvent) {
	if !k.down {
		return
	}
	k.down = false
	k.send(buttons.Release(k.button))
}

// Tapped keeps the button animation and covers touch input, which has no
// mouse events.
func (k *keyButton) Tapped(ev *fyne.PointEvent) {
	k.Button.Tapped(ev)
	if fyne.CurrentDevice().IsMobile() {
		k.send(buttons.Press(k.button))
		k.send(buttons.Release(k.button))
	}
}

// createKeypad lays out the six meter buttons.
func createKeypad(state *appState) fyne.CanvasObject {
	send := func(ev buttons.Event) {
		select {
		case state.events <- ev:
		default:
			state.logger.Warn("button event dropped", "button", ev.Button.String(), "pressed", ev.Pressed)
		}
	}

	return container.NewGridWithColumns(3,
		newKeyButton("Menu", buttons.Menu, send),
		newKeyButton("+", buttons.Plus, send),
		newKeyButton("Mode", buttons.Mode, send),
		newKeyButton("Amb/Flash", buttons.MeteringMode, send),
		newKeyButton("-", buttons.Minus, send),
		newKeyButton("Measure", buttons.Metering, send),
	)
}
