//go:build tinygo

package main

import (
	"time"

	"machine"
)

const (
	// I2C bus shared by the BH1750 and the LCD backpack
	PIN_SDA       = machine.GP4
	PIN_SCL       = machine.GP5
	I2C_FREQUENCY = 400 * machine.KHz

	// HD44780 behind a PCF8574 backpack; some modules strap 0x3F instead
	LCD_ADDRESS = 0x27

	// Buttons switch to ground; inputs use the internal pull-ups
	PIN_PLUS          = machine.GP10
	PIN_MINUS         = machine.GP11
	PIN_METERING      = machine.GP12
	PIN_MODE          = machine.GP13
	PIN_MENU          = machine.GP14
	PIN_METERING_MODE = machine.GP15

	// Battery through a 100k/100k divider
	PIN_BATTERY     = machine.ADC2
	BATTERY_SAMPLES = 8

	// Settings image offset in the flash data area
	STORAGE_OFFSET = 0

	DEBOUNCE = 20 * time.Millisecond
	POLL     = 10 * time.Millisecond
)
