// Package display formats the meter state into the text lines shown on the
// panel.
package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/itohio/golightmeter/pkg/menu"
	"github.com/itohio/golightmeter/pkg/metering"
	"github.com/itohio/golightmeter/pkg/settings"
	"github.com/itohio/golightmeter/pkg/tables"
)

const (
	Columns = 20
	Rows    = 4
)

// View is everything the panel shows.
type View struct {
	Settings settings.Exposure
	Sample   metering.Sample
	Computed int     // Complementary index for Settings.Priority
	EV       float32 // EV at ISO 100 of Sample
	Screen   menu.Screen

	Measuring    bool
	BatteryVolts float32
}

// ApertureIndex returns the aperture shown: fixed or computed.
func (v View) ApertureIndex() int {
	if v.Settings.Priority == tables.ShutterPriority {
		return v.Computed
	}
	return v.Settings.ApertureIndex
}

// ShutterIndex returns the shutter time shown: fixed or computed.
func (v View) ShutterIndex() int {
	if v.Settings.Priority == tables.ShutterPriority {
		return v.Settings.ShutterIndex
	}
	return v.Computed
}

// Lines renders the active screen.
func Lines(v View) []string {
	var head, value string
	switch v.Screen {
	case menu.ISOMenu:
		head, value = "SET ISO", ">"+FormatISO(tables.ISO(v.Settings.ISOIndex))
	case menu.NDMenu:
		head, value = "SET ND", ">"+FormatND(v.Settings.NDIndex)
	default:
		head = "ISO" + FormatISO(tables.ISO(v.Settings.ISOIndex))
		if v.Settings.NDIndex > 0 {
			value = FormatND(v.Settings.NDIndex)
		}
	}

	return []string{
		justify(head, value),
		exposureLine(v),
		meterLine(v),
		statusLine(v),
	}
}

func exposureLine(v View) string {
	ap := FormatAperture(tables.Aperture(v.ApertureIndex()))
	sh := FormatShutter(tables.Shutter(v.ShutterIndex()))
	if v.Settings.Priority == tables.ShutterPriority {
		sh = "*" + sh
	} else {
		ap = "*" + ap
	}
	return justify(ap, sh)
}

func meterLine(v View) string {
	lux := FormatLux(v.Sample.Lux)
	if v.Sample.Overflow {
		lux = "OVER"
	}
	return justify(FormatEV(v.EV), lux)
}

func statusLine(v View) string {
	left := v.Settings.Priority.String()[:1] + " " + v.Settings.Metering.String()
	if v.Measuring {
		left = "Measuring " + v.Settings.Metering.String()
	}
	right := ""
	if v.BatteryVolts > 0 {
		right = fmt.Sprintf("%.1fV", v.BatteryVolts)
	}
	return justify(left, right)
}

// justify puts left and right on one line of Columns characters.
func justify(left, right string) string {
	gap := Columns - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	if len(line) > Columns {
		line = line[:Columns]
	}
	return line
}

// FormatAperture formats an f-number, e.g. "f/5.6".
func FormatAperture(n float32) string {
	return "f/" + strconv.FormatFloat(float64(n), 'f', -1, 32)
}

// FormatShutter formats a shutter time: fractions below 0.3 s as "1/125",
// longer times in seconds, e.g. "0.5s", "2s".
func FormatShutter(t float32) string {
	switch {
	case t <= 0:
		return "--"
	case t < 0.3:
		return "1/" + strconv.Itoa(int(math.Round(1/float64(t))))
	case t == float32(int(t)):
		return strconv.Itoa(int(t)) + "s"
	default:
		return strconv.FormatFloat(float64(t), 'f', 1, 32) + "s"
	}
}

// FormatISO formats an ISO speed.
func FormatISO(iso float32) string {
	return strconv.Itoa(int(iso))
}

// FormatND formats the filter at index i, e.g. "ND8".
func FormatND(i int) string {
	if i <= 0 {
		return "no ND"
	}
	return "ND" + strconv.Itoa(tables.NDFactor(i))
}

// FormatEV formats an exposure value; darkness reads "EV --".
func FormatEV(ev float32) string {
	if math.IsInf(float64(ev), 0) || ev != ev {
		return "EV --"
	}
	return fmt.Sprintf("EV %.1f", ev)
}

// FormatLux formats an illuminance.
func FormatLux(lux float32) string {
	return strconv.Itoa(int(lux+0.5)) + "lx"
}
