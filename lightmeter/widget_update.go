package main

import (
	"fyne.io/fyne/v2"

	"github.com/itohio/golightmeter/pkg/display"
)

// updateScreen schedules a screen update on the main Fyne thread. Fyne widgets
// cannot be updated directly from the meter goroutine.
func updateScreen(state *appState, v display.View) {
	fyne.Do(func() {
		state.screen.Update(v)
	})
}
