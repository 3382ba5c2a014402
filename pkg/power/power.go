// Package power reports the supply voltage shown on the meter.
package power

import "errors"

var (
	ErrNoSamples   = errors.New("no ADC samples")
	ErrNoADC       = errors.New("supply needs an ADC")
	ErrNoReference = errors.New("bandgap reading is zero")
)

// Supply reports the battery voltage in volts.
type Supply interface {
	Voltage() (float32, error)
}

// Fixed is a Supply with a constant voltage.
type Fixed float32

// Voltage implements Supply.
func (f Fixed) Voltage() (float32, error) { return float32(f), nil }

// ADC is a raw analog input. machine.ADC satisfies it.
type ADC interface {
	Get() uint16
}

// Divider describes the resistor divider between the battery and the ADC pin.
type Divider struct {
	VRef float32 // ADC reference voltage (V)
	R1   float32 // Upper resistor (ohms)
	R2   float32 // Lower resistor (ohms)
	Bits int     // ADC resolution; 16 for TinyGo's scaled readings
}

// DefaultDivider returns a 1:1 divider on a 3.3 V, 16-bit ADC.
func DefaultDivider() Divider {
	return Divider{VRef: 3.3, R1: 100000, R2: 100000, Bits: 16}
}

// Counts returns the raw reading the ADC would produce for a battery at vin,
// saturating at full scale.
func (d Divider) Counts(vin float32) uint16 {
	bits := d.Bits
	if bits <= 0 || bits > 16 {
		bits = 16
	}
	full := float32(uint32(1)<<uint(bits) - 1)
	vout := vin
	if d.R2 > 0 {
		vout = vin * d.R2 / (d.R1 + d.R2)
	}
	if vout <= 0 || d.VRef <= 0 {
		return 0
	}
	c := vout/d.VRef*full + 0.5
	if c >= full {
		return uint16(full)
	}
	return uint16(c)
}

// FixedADC always reads the same counts.
type FixedADC uint16

// Get implements ADC.
func (a FixedADC) Get() uint16 { return uint16(a) }

// AdcToVoltage converts a raw reading at the pin to volts.
func AdcToVoltage(adc uint16, bits int, vref float32) float32 {
	if bits <= 0 || bits > 16 {
		bits = 16
	}
	full := float32(uint32(1)<<uint(bits) - 1)
	return float32(adc) / full * vref
}

// VoltageDivider calculates the input voltage from the measured output voltage.
// Formula: V_in = V_out * ((R1 + R2) / R2)
func VoltageDivider(vout, r1, r2 float32) float32 {
	if r2 <= 0 {
		return vout
	}
	return vout * ((r1 + r2) / r2)
}

// BandgapVcc derives the supply voltage from a reading of the internal
// reference taken against Vcc: Vcc = Vbg * full scale / counts.
func BandgapVcc(counts uint16, bits int, vbg float32) float32 {
	if counts == 0 {
		return 0
	}
	if bits <= 0 || bits > 16 {
		bits = 16
	}
	full := float32(uint32(1)<<uint(bits) - 1)
	return vbg * full / float32(counts)
}

// Average returns the rounded mean of raw readings.
func Average(samples []uint16) (uint16, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	var sum uint32
	for _, s := range samples {
		sum += uint32(s)
	}
	n := float32(len(samples))
	return uint16(float32(sum)/n + 0.5), nil
}

// DividerSupply reads a battery through a resistor divider, averaging a few
// conversions per call.
type DividerSupply struct {
	adc     ADC
	divider Divider
	buf     []uint16
}

// NewDividerSupply creates a supply. Fewer than one sample means one.
func NewDividerSupply(adc ADC, divider Divider, samples int) (*DividerSupply, error) {
	if adc == nil {
		return nil, ErrNoADC
	}
	if samples < 1 {
		samples = 1
	}
	return &DividerSupply{adc: adc, divider: divider, buf: make([]uint16, samples)}, nil
}

// Voltage implements Supply.
func (d *DividerSupply) Voltage() (float32, error) {
	for i := range d.buf {
		d.buf[i] = d.adc.Get()
	}
	avg, err := Average(d.buf)
	if err != nil {
		return 0, err
	}
	vout := AdcToVoltage(avg, d.divider.Bits, d.divider.VRef)
	return VoltageDivider(vout, d.divider.R1, d.divider.R2), nil
}

// BandgapCounts returns the reading of a vbg reference taken against a supply
// at vcc, saturating at full scale.
func BandgapCounts(vcc float32, bits int, vbg float32) uint16 {
	if bits <= 0 || bits > 16 {
		bits = 16
	}
	full := float32(uint32(1)<<uint(bits) - 1)
	if vcc <= vbg {
		return uint16(full)
	}
	return uint16(vbg*full/vcc + 0.5)
}

// BandgapSupply measures the supply by reading an internal reference against
// it, for boards without a battery divider.
type BandgapSupply struct {
	adc  ADC
	bits int
	vbg  float32
	buf  []uint16
}

// NewBandgapSupply creates a supply reading a vbg volt reference on a bits
// wide ADC. Fewer than one sample means one.
func NewBandgapSupply(adc ADC, bits int, vbg float32, samples int) (*BandgapSupply, error) {
	if adc == nil {
		return nil, ErrNoADC
	}
	if samples < 1 {
		samples = 1
	}
	return &BandgapSupply{adc: adc, bits: bits, vbg: vbg, buf: make([]uint16, samples)}, nil
}

// Voltage implements Supply.
func (b *BandgapSupply) Voltage() (float32, error) {
	for i := range b.buf {
		b.buf[i] = b.adc.Get()
	}
	avg, err := Average(b.buf)
	if err != nil {
		return 0, err
	}
	if avg == 0 {
		return 0, ErrNoReference
	}
	return BandgapVcc(avg, b.bits, b.vbg), nil
}
