// Package screen is a fyne widget emulating the meter's character panel with
// an EV trace of recent readings underneath.
package screen

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/golightmeter/pkg/display"
)

// Widget shows display.Lines of the latest view.
type Widget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu      sync.RWMutex
	lines   []string
	history []Point
	last    time.Time

	// Display buffer (reused for downsampling)
	trace []Point

	maxHistory       int
	maxDisplayPoints int
}

// New creates a Widget keeping up to maxHistory readings in its trace.
func New(maxHistory int) *Widget {
	if maxHistory <= 0 {
		maxHistory = 600
	}
	w := &Widget{
		lines:            make([]string, display.Rows),
		history:          make([]Point, 0, maxHistory),
		trace:            make([]Point, 0, 200),
		maxHistory:       maxHistory,
		maxDisplayPoints: 200,
	}
	w.ExtendBaseWidget(w)
	return w
}

// Update shows v. Call it on the fyne goroutine, e.g. through fyne.Do.
func (w *Widget) Update(v display.View) {
	w.mu.Lock()
	w.lines = display.Lines(v)

	at := v.Sample.CapturedAt
	if !v.Measuring && !at.IsZero() && !at.Equal(w.last) {
		w.last = at
		w.history = append(w.history, Point{At: at, EV: v.EV})
		if len(w.history) > w.maxHistory {
			w.history = w.history[len(w.history)-w.maxHistory:]
		}
		w.trace = Downsample(w.trace, w.history, w.maxDisplayPoints)
	}
	w.mu.Unlock()

	// Refresh outside the lock, the renderer takes it
	w.Refresh()
}

// Lines returns the text currently shown.
func (w *Widget) Lines() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make([]string, len(w.lines))
	copy(result, w.lines)
	return result
}

// History returns the readings in the trace, oldest first.
func (w *Widget) History() []Point {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make([]Point, len(w.history))
	copy(result, w.history)
	return result
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 8, G: 16, B: 40, A: 255})
	r := &screenRenderer{
		screen: w,
		bg:     bg,
	}
	for range display.Rows {
		t := canvas.NewText("", lcdColor)
		t.TextStyle = fyne.TextStyle{Monospace: true}
		t.TextSize = textSize
		r.texts = append(r.texts, t)
	}
	r.rebuild()
	return r
}
