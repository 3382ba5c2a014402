package display

// CharDevice is a character LCD such as an HD44780 behind an I2C backpack.
type CharDevice interface {
	SetCursor(x, y uint8)
	Print(data []byte)
}

// Panel draws views on a Columns x Rows character device. Only rows that
// changed since the last draw are rewritten.
type Panel struct {
	dev  CharDevice
	rows [Rows][]byte
	buf  []byte
}

// NewPanel creates a panel on dev.
func NewPanel(dev CharDevice) *Panel {
	p := &Panel{dev: dev, buf: make([]byte, 0, Columns)}
	for i := range p.rows {
		p.rows[i] = make([]byte, 0, Columns)
	}
	return p
}

// Draw renders v.
func (p *Panel) Draw(v View) {
	for i, line := range Lines(v) {
		if i >= Rows {
			break
		}
		p.drawRow(i, line)
	}
}

func (p *Panel) drawRow(row int, line string) {
	// Pad so that a shorter line blanks what was left of the previous one.
	p.buf = append(p.buf[:0], line...)
	if len(p.buf) > Columns {
		p.buf = p.buf[:Columns]
	}
	for len(p.buf) < Columns {
		p.buf = append(p.buf, ' ')
	}
	if string(p.buf) == string(p.rows[row]) {
		return
	}
	p.rows[row] = append(p.rows[row][:0], p.buf...)
	p.dev.SetCursor(0, uint8(row))
	p.dev.Print(p.rows[row])
}
