//go:build tinygo

//go:generate tinygo flash -target=pico

// Command bridge exposes a BH1750 over the USB serial port so that the
// desktop meter can use a real sensor.
package main

import (
	"machine"
	"time"

	"github.com/itohio/golightmeter/pkg/clock"
	"github.com/itohio/golightmeter/pkg/sensor"
	"github.com/itohio/golightmeter/pkg/sensor/bh1750"
)

const (
	PIN_SDA       = machine.GP4
	PIN_SCL       = machine.GP5
	I2C_FREQUENCY = 400 * machine.KHz

	// Only single-letter commands are accepted; longer lines are dropped
	MAX_LINE = 1
)

var (
	serial = machine.Serial

	// Serial buffer for reading lines
	serialBuffer [MAX_LINE]byte
	serialPos    int
	dropLine     bool

	reply = make([]byte, 0, 32)
)

func main() {
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       PIN_SDA,
		SCL:       PIN_SCL,
		Frequency: I2C_FREQUENCY,
	})
	if err != nil {
		for {
			println("configure I2C:", err.Error())
			time.Sleep(time.Second)
		}
	}

	light := bh1750.New(machine.I2C0, clock.Real{})
	light.Configure(sensor.OneShotHighRes)

	for {
		processSerial(light)
		time.Sleep(time.Millisecond)
	}
}

func processSerial(light sensor.Sensor) {
	for serial.Buffered() > 0 {
		data, err := serial.ReadByte()
		if err != nil {
			break
		}

		switch data {
		case '\n', '\r':
			if serialPos == MAX_LINE && !dropLine {
				reply = sensor.AppendReply(reply[:0], light, serialBuffer[0])
				reply = append(reply, '\n')
				serial.Write(reply)
			}
			// Reset buffer regardless of length
			serialPos = 0
			dropLine = false
		case ' ', '\t':
		default:
			if serialPos < MAX_LINE {
				serialBuffer[serialPos] = data
				serialPos++
			} else {
				dropLine = true
			}
		}
	}
}
