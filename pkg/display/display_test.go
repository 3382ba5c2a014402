package display

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/golightmeter/pkg/menu"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/settings"
	"github.com/itohio/golightmeter/pkg/tables"
)

func TestFormatAperture(t *testing.T) {
	assert.Equal(t, "f/8", FormatAperture(tables.Aperture(18)))
	assert.Equal(t, "f/5.6", FormatAperture(tables.Aperture(15)))
	assert.Equal(t, "f/1", FormatAperture(tables.Aperture(0)))
	assert.Equal(t, "f/22", FormatAperture(tables.Aperture(27)))
}

func TestFormatShutter(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "1/10000"},
		{19, "1/125"},
		{29, "1/13"},
		{34, "1/4"},
		{35, "0.3s"},
		{40, "1s"},
		{41, "1.3s"},
		{43, "2s"},
		{80, "10000s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatShutter(tables.Shutter(tt.index)))
		})
	}
	assert.Equal(t, "--", FormatShutter(0))
}

func TestFormatMisc(t *testing.T) {
	assert.Equal(t, "100", FormatISO(tables.ISO(tables.DefaultISOIndex)))
	assert.Equal(t, "no ND", FormatND(0))
	assert.Equal(t, "ND8", FormatND(3))
	assert.Equal(t, "EV --", FormatEV(float32(math.Inf(-1))))
	assert.Equal(t, "EV 13.0", FormatEV(13))
	assert.Equal(t, "320lx", FormatLux(319.6))
}

func TestLines_Main(t *testing.T) {
	v := View{
		Settings:     settings.Default(),
		Sample:       metering.Sample{Lux: 9437},
		Computed:     19,
		EV:           13,
		BatteryVolts: 3.7,
	}

	lines := Lines(v)
	require.Len(t, lines, Rows)
	for _, l := range lines {
		assert.Len(t, l, Columns)
	}

	assert.Equal(t, "ISO100", strings.TrimSpace(lines[0]))
	assert.True(t, strings.HasPrefix(lines[1], "*f/4 "))
	assert.True(t, strings.HasSuffix(lines[1], " 1/125"))
	assert.True(t, strings.HasPrefix(lines[2], "EV 13.0"))
	assert.True(t, strings.HasSuffix(lines[2], "9437lx"))
	assert.True(t, strings.HasPrefix(lines[3], "A Ambient"))
	assert.True(t, strings.HasSuffix(lines[3], "3.7V"))
}

func TestLines_ShutterPriorityAndMenus(t *testing.T) {
	s := settings.Default()
	s.Priority = tables.ShutterPriority
	s.NDIndex = 3
	v := View{
		Settings:  s,
		Sample:    metering.Sample{Lux: 60000, Overflow: true},
		Computed:  18,
		Measuring: true,
	}

	lines := Lines(v)
	assert.True(t, strings.HasSuffix(lines[0], "ND8"))
	assert.True(t, strings.HasPrefix(lines[1], "f/8 "))
	assert.True(t, strings.HasSuffix(lines[1], "*1/125"))
	assert.True(t, strings.HasSuffix(lines[2], "OVER"))
	assert.Equal(t, "Measuring Ambient", strings.TrimSpace(lines[3]))

	v.Screen = menu.ISOMenu
	assert.Equal(t, "SET ISO", strings.TrimSpace(Lines(v)[0][:10]))
	assert.True(t, strings.HasSuffix(Lines(v)[0], ">100"))

	v.Screen = menu.NDMenu
	assert.True(t, strings.HasSuffix(Lines(v)[0], ">ND8"))
}

func TestJustify_Truncates(t *testing.T) {
	got := justify(strings.Repeat("x", 18), "abcdef")
	assert.Len(t, got, Columns)
	assert.Equal(t, strings.Repeat("x", 18)+" a", got)
}
