// Package settings owns the operator's exposure settings and their persisted
// byte image.
package settings

import (
	"errors"
	"fmt"

	"github.com/itohio/golightmeter/pkg/tables"
)

// Exposure is the live configuration edited through the menu.
type Exposure struct {
	ISOIndex      int
	ApertureIndex int
	ShutterIndex  int
	NDIndex       int
	Priority      tables.Priority
	Metering      tables.MeteringMode
}

// Default returns the settings used when nothing valid was persisted.
func Default() Exposure {
	return Exposure{
		ISOIndex:      tables.DefaultISOIndex,
		ApertureIndex: tables.DefaultApertureIndex,
		ShutterIndex:  tables.DefaultShutterIndex,
		NDIndex:       tables.DefaultNDIndex,
		Priority:      tables.AperturePriority,
		Metering:      tables.Ambient,
	}
}

// Sanitize replaces every out-of-range field with its default.
func (e Exposure) Sanitize() Exposure {
	def := Default()
	if e.ISOIndex < 0 || e.ISOIndex > tables.MaxISOIndex {
		e.ISOIndex = def.ISOIndex
	}
	if e.ApertureIndex < 0 || e.ApertureIndex > tables.MaxApertureIndex {
		e.ApertureIndex = def.ApertureIndex
	}
	if e.ShutterIndex < 0 || e.ShutterIndex > tables.MaxShutterIndex {
		e.ShutterIndex = def.ShutterIndex
	}
	if e.NDIndex < 0 || e.NDIndex > tables.MaxNDIndex {
		e.NDIndex = def.NDIndex
	}
	if !e.Priority.Valid() {
		e.Priority = tables.AperturePriority
	}
	if !e.Metering.Valid() {
		e.Metering = tables.Ambient
	}
	return e
}

// FixedIndex returns the index the operator fixed for the current priority.
func (e Exposure) FixedIndex() int {
	if e.Priority == tables.ShutterPriority {
		return e.ShutterIndex
	}
	return e.ApertureIndex
}

// Persisted layout, one byte per field.
const (
	OffsetVersion  = 0
	OffsetISO      = 1
	OffsetAperture = 2
	OffsetPriority = 3
	OffsetShutter  = 4
	OffsetMetering = 5
	OffsetND       = 6

	ImageSize = 7

	// LayoutVersion is written by Marshal.
	LayoutVersion byte = 1
	// Erased is the content of never-written storage. Images whose version
	// byte is Erased use the version 1 offsets.
	Erased byte = 0xFF
)

var (
	ErrUnknownVersion = errors.New("unknown settings layout version")
	ErrShortImage     = errors.New("settings image too short")
)

// Marshal encodes e into its persisted image. Fields are sanitized first so the
// image never carries an out-of-range value.
func Marshal(e Exposure) []byte {
	e = e.Sanitize()

	b := make([]byte, ImageSize)
	b[OffsetVersion] = LayoutVersion
	b[OffsetISO] = byte(e.ISOIndex)
	b[OffsetAperture] = byte(e.ApertureIndex)
	b[OffsetPriority] = byte(e.Priority)
	b[OffsetShutter] = byte(e.ShutterIndex)
	b[OffsetMetering] = byte(e.Metering)
	b[OffsetND] = byte(e.NDIndex)
	return b
}

// Unmarshal decodes a persisted image. Out-of-range fields, including erased
// bytes, are replaced by defaults. An unknown layout version or a short image
// yields the defaults together with an error.
func Unmarshal(b []byte) (Exposure, error) {
	if len(b) < ImageSize {
		return Default(), fmt.Errorf("%w: %d bytes", ErrShortImage, len(b))
	}

	switch b[OffsetVersion] {
	case LayoutVersion, Erased:
	default:
		return Default(), fmt.Errorf("%w: %d", ErrUnknownVersion, b[OffsetVersion])
	}

	e := Exposure{
		ISOIndex:      int(b[OffsetISO]),
		ApertureIndex: int(b[OffsetAperture]),
		Priority:      tables.Priority(b[OffsetPriority]),
		ShutterIndex:  int(b[OffsetShutter]),
		Metering:      tables.MeteringMode(b[OffsetMetering]),
		NDIndex:       int(b[OffsetND]),
	}
	return e.Sanitize(), nil
}
