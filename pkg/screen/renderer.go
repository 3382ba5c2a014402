package screen

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

const (
	textSize    = 18
	lineSpacing = 1.3
	padding     = 10
	traceHeight = 80
)

var (
	lcdColor   = color.RGBA{R: 120, G: 200, B: 255, A: 255}
	gridColor  = color.RGBA{R: 30, G: 40, B: 70, A: 255}
	traceColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}
)

// screenRenderer renders the screen widget.
type screenRenderer struct {
	screen *Widget

	bg    *canvas.Rectangle
	texts []*canvas.Text

	// Trace segments and grid, rebuilt on every refresh
	traceLines []fyne.CanvasObject

	objects []fyne.CanvasObject
}

// MinSize returns the minimum size of the widget.
func (r *screenRenderer) MinSize() fyne.Size {
	char := fyne.MeasureText("M", textSize, fyne.TextStyle{Monospace: true})
	w := char.Width*20 + 2*padding
	h := float32(len(r.texts))*textSize*lineSpacing + traceHeight + 3*padding
	return fyne.NewSize(w, h)
}

// Layout arranges the widget components.
func (r *screenRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	for i, t := range r.texts {
		t.Move(fyne.NewPos(padding, padding+float32(i)*textSize*lineSpacing))
	}
	r.layoutTrace(size)
}

// Refresh updates the widget display.
func (r *screenRenderer) Refresh() {
	r.screen.mu.RLock()
	for i, t := range r.texts {
		if i < len(r.screen.lines) {
			t.Text = r.screen.lines[i]
		} else {
			t.Text = ""
		}
	}
	r.screen.mu.RUnlock()

	r.layoutTrace(r.screen.Size())
	r.bg.Refresh()
	for _, t := range r.texts {
		t.Refresh()
	}
}

// layoutTrace redraws the EV trace in the strip below the text.
func (r *screenRenderer) layoutTrace(size fyne.Size) {
	r.screen.mu.RLock()
	trace := make([]Point, len(r.screen.trace))
	copy(trace, r.screen.trace)
	r.screen.mu.RUnlock()

	r.traceLines = nil

	plotX := float32(padding)
	plotY := size.Height - traceHeight - padding
	plotW := size.Width - 2*padding
	plotH := float32(traceHeight)
	if plotW <= 0 || plotH <= 0 || plotY <= 0 {
		r.rebuild()
		return
	}

	for _, y := range []float32{plotY, plotY + plotH/2, plotY + plotH} {
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotW, y)
		line.StrokeWidth = 1
		r.traceLines = append(r.traceLines, line)
	}

	if len(trace) > 1 {
		lo, hi := Range(trace)
		t0 := trace[0].At
		span := trace[len(trace)-1].At.Sub(t0).Seconds()
		if span <= 0 {
			span = 1
		}

		pos := func(p Point) fyne.Position {
			x := plotX + float32(p.At.Sub(t0).Seconds()/span)*plotW
			y := plotY + plotH - (plotEV(p.EV)-lo)/(hi-lo)*plotH
			return fyne.NewPos(x, y)
		}
		for i := range len(trace) - 1 {
			line := canvas.NewLine(traceColor)
			line.Position1 = pos(trace[i])
			line.Position2 = pos(trace[i+1])
			line.StrokeWidth = 1.5
			r.traceLines = append(r.traceLines, line)
		}
	}

	r.rebuild()
}

func (r *screenRenderer) rebuild() {
	r.objects = make([]fyne.CanvasObject, 0, 1+len(r.texts)+len(r.traceLines))
	r.objects = append(r.objects, r.bg)
	for _, t := range r.texts {
		r.objects = append(r.objects, t)
	}
	r.objects = append(r.objects, r.traceLines...)
}

// Objects returns all canvas objects for rendering.
func (r *screenRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *screenRenderer) Destroy() {}
