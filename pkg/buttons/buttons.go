// Package buttons turns the meter's six push buttons into logical press and
// release events.
package buttons

import (
	"time"

	"github.com/itohio/golightmeter/pkg/clock"
)

// Button identifies one physical input.
type Button uint8

const (
	Plus Button = iota
	Minus
	Metering
	Mode
	Menu
	MeteringMode

	// Count is the number of buttons.
	Count
)

func (b Button) String() string {
	switch b {
	case Plus:
		return "plus"
	case Minus:
		return "minus"
	case Metering:
		return "metering"
	case Mode:
		return "mode"
	case Menu:
		return "menu"
	case MeteringMode:
		return "metering-mode"
	default:
		return "unknown"
	}
}

// Event is a logical edge.
type Event struct {
	Button  Button
	Pressed bool
}

// Press returns the press event of b.
func Press(b Button) Event { return Event{Button: b, Pressed: true} }

// Release returns the release event of b.
func Release(b Button) Event { return Event{Button: b} }

// Levels is one raw snapshot of all inputs, indexed by Button.
type Levels [Count]bool

// Edges debounces raw level snapshots into events. A change is reported once
// the new level has been stable for the debounce time.
type Edges struct {
	clk       clock.Clock
	debounce  time.Duration
	activeLow bool

	stable    Levels
	candidate Levels
	since     [Count]time.Time
}

// NewEdges creates a detector. With activeLow a low level means pressed, which
// is how the inputs are wired with pull-ups.
func NewEdges(clk clock.Clock, debounce time.Duration, activeLow bool) *Edges {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Edges{clk: clk, debounce: debounce, activeLow: activeLow}
}

// Pressed reports the debounced state of b.
func (e *Edges) Pressed(b Button) bool {
	if b >= Count {
		return false
	}
	return e.stable[b]
}

// Update feeds one snapshot and appends resulting events to dst.
func (e *Edges) Update(levels Levels, dst []Event) []Event {
	now := e.clk.Now()
	for i := range levels {
		pressed := e.logicalPressed(levels[i])
		if pressed != e.candidate[i] {
			e.candidate[i] = pressed
			e.since[i] = now
		}
		if e.candidate[i] != e.stable[i] && now.Sub(e.since[i]) >= e.debounce {
			e.stable[i] = e.candidate[i]
			dst = append(dst, Event{Button: Button(i), Pressed: e.stable[i]})
		}
	}
	return dst
}

func (e *Edges) logicalPressed(level bool) bool {
	if e.activeLow {
		return !level
	}
	return level
}
