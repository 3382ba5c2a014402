package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/golightmeter/pkg/menu"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/settings"
)

type fakeLCD struct {
	rows   [Rows]string
	cursor uint8
	prints int
}

func (l *fakeLCD) SetCursor(x, y uint8) { l.cursor = y }

func (l *fakeLCD) Print(data []byte) {
	l.rows[l.cursor] = string(data)
	l.prints++
}

func TestPanel_Draw(t *testing.T) {
	lcd := &fakeLCD{}
	p := NewPanel(lcd)

	v := View{
		Settings: settings.Default(),
		Sample:   metering.Sample{Lux: 320},
		Computed: 34,
		EV:       7,
	}
	p.Draw(v)
	require.Equal(t, Rows, lcd.prints)

	want := Lines(v)
	for i := range Rows {
		assert.Len(t, lcd.rows[i], Columns)
		assert.Equal(t, want[i], lcd.rows[i][:len(want[i])])
	}

	p.Draw(v)
	assert.Equal(t, Rows, lcd.prints, "unchanged rows are not rewritten")

	v.Screen = menu.ISOMenu
	p.Draw(v)
	assert.Equal(t, Rows+1, lcd.prints, "only the head row changes")
}
