// Package menu implements the button-driven navigation of the meter.
package menu

import (
	"github.com/itohio/golightmeter/pkg/buttons"
	"github.com/itohio/golightmeter/pkg/settings"
	"github.com/itohio/golightmeter/pkg/tables"
)

// Screen is the active page.
type Screen uint8

const (
	MainScreen Screen = iota
	ISOMenu
	NDMenu
)

func (s Screen) String() string {
	switch s {
	case MainScreen:
		return "main"
	case ISOMenu:
		return "iso"
	case NDMenu:
		return "nd"
	default:
		return "unknown"
	}
}

// Next returns the screen the Menu button leads to.
func (s Screen) Next() Screen {
	switch s {
	case MainScreen:
		return ISOMenu
	case ISOMenu:
		return NDMenu
	default:
		return MainScreen
	}
}

// Menu edits the settings it was given in response to button events.
type Menu struct {
	settings *settings.Exposure
	screen   Screen
	metering bool
}

// New creates a Menu on the main screen editing s.
func New(s *settings.Exposure) *Menu {
	return &Menu{settings: s}
}

// Screen returns the active screen.
func (m *Menu) Screen() Screen { return m.screen }

// MeteringHeld reports whether the metering button is currently held.
func (m *Menu) MeteringHeld() bool { return m.metering }

// Handle applies one event and reports whether anything visible changed.
func (m *Menu) Handle(ev buttons.Event) bool {
	if ev.Button == buttons.Metering {
		m.metering = ev.Pressed
		return false
	}
	if !ev.Pressed {
		return false
	}

	switch ev.Button {
	case buttons.Menu:
		m.screen = m.screen.Next()
		return true
	case buttons.Mode:
		m.settings.Priority = m.settings.Priority.Toggle()
		return true
	case buttons.MeteringMode:
		m.settings.Metering = m.settings.Metering.Toggle()
		return true
	case buttons.Plus:
		return m.Plus()
	case buttons.Minus:
		return m.Minus()
	}
	return false
}

// Plus increments the value the active screen edits. It reports false at the
// upper bound.
func (m *Menu) Plus() bool { return m.step(1) }

// Minus decrements the value the active screen edits. It reports false at the
// lower bound.
func (m *Menu) Minus() bool { return m.step(-1) }

func (m *Menu) step(delta int) bool {
	s := m.settings
	switch m.screen {
	case ISOMenu:
		return adjust(&s.ISOIndex, delta, tables.MaxISOIndex)
	case NDMenu:
		return adjust(&s.NDIndex, delta, tables.MaxNDIndex)
	}
	if s.Priority == tables.ShutterPriority {
		return adjust(&s.ShutterIndex, delta, tables.MaxShutterIndex)
	}
	return adjust(&s.ApertureIndex, delta, tables.MaxApertureIndex)
}

func adjust(idx *int, delta, max int) bool {
	v := *idx + delta
	if v < 0 || v > max {
		return false
	}
	*idx = v
	return true
}
