package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Serial bridge line protocol.
//
// Host to bridge, one command byte followed by '\n':
//
//	H  configure one-shot high resolution
//	L  configure continuous low resolution
//	R  read
//
// Bridge to host: "OK" after a mode change, "<lux>,<overflow>" after a read,
// e.g. "1234.5,0", or "ERR <reason>".
const (
	CmdHighRes byte = 'H'
	CmdLowRes  byte = 'L'
	CmdRead    byte = 'R'

	ReplyOK  = "OK"
	ReplyErr = "ERR"
)

// CommandFor returns the bridge command selecting mode.
func CommandFor(mode Mode) byte {
	if mode == ContinuousLowRes {
		return CmdLowRes
	}
	return CmdHighRes
}

// ModeForCommand maps a bridge command back to a mode.
func ModeForCommand(cmd byte) (Mode, bool) {
	switch cmd {
	case CmdHighRes:
		return OneShotHighRes, true
	case CmdLowRes:
		return ContinuousLowRes, true
	default:
		return 0, false
	}
}

// AppendReading appends the wire form of r, without the newline, to dst.
func AppendReading(dst []byte, r Reading) []byte {
	dst = strconv.AppendFloat(dst, float64(r.Lux), 'f', 1, 32)
	if r.Overflow {
		return append(dst, ",1"...)
	}
	return append(dst, ",0"...)
}

// ParseReading parses a reading reply.
// Format: lux,overflow
// Example: 1234.5,0
func ParseReading(line string) (Reading, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ReplyErr) {
		return Reading{}, fmt.Errorf("bridge error: %s", strings.TrimSpace(strings.TrimPrefix(line, ReplyErr)))
	}

	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return Reading{}, fmt.Errorf("invalid reading format: expected 2 comma-separated values, got %d", len(parts))
	}

	lux, err := strconv.ParseFloat(parts[0], 32)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid lux: %w", err)
	}
	if lux < 0 {
		return Reading{}, fmt.Errorf("lux out of range: %v", lux)
	}

	var overflow bool
	switch parts[1] {
	case "0":
	case "1":
		overflow = true
	default:
		return Reading{}, fmt.Errorf("invalid overflow flag: %q", parts[1])
	}

	return Reading{Lux: float32(lux), Overflow: overflow}, nil
}

// AppendReply runs one bridge command against s and appends the reply line,
// without the newline, to dst. This is the device side of the protocol.
func AppendReply(dst []byte, s Sensor, cmd byte) []byte {
	if cmd == CmdRead {
		r, err := s.Read()
		if err != nil {
			return appendErr(dst, err.Error())
		}
		return AppendReading(dst, r)
	}

	mode, ok := ModeForCommand(cmd)
	if !ok {
		return appendErr(dst, "unknown command")
	}
	if err := s.Configure(mode); err != nil {
		return appendErr(dst, err.Error())
	}
	return append(dst, ReplyOK...)
}

func appendErr(dst []byte, reason string) []byte {
	dst = append(dst, ReplyErr...)
	dst = append(dst, ' ')
	return append(dst, reason...)
}
