package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeADC struct {
	values []uint16
	i      int
}

func (f *fakeADC) Get() uint16 {
	v := f.values[f.i%len(f.values)]
	f.i++
	return v
}

func TestAdcToVoltage(t *testing.T) {
	tests := []struct {
		name string
		adc  uint16
		bits int
		vref float32
		want float32
	}{
		{name: "zero", adc: 0, bits: 12, vref: 3.3, want: 0},
		{name: "12-bit max", adc: 4095, bits: 12, vref: 3.3, want: 3.3},
		{name: "12-bit half", adc: 2047, bits: 12, vref: 3.3, want: 1.65},
		{name: "16-bit quarter", adc: 16384, bits: 16, vref: 3.3, want: 0.825},
		{name: "bad bits means 16", adc: 65535, bits: 0, vref: 5.0, want: 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdcToVoltage(tt.adc, tt.bits, tt.vref)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestVoltageDivider(t *testing.T) {
	tests := []struct {
		name   string
		vout   float32
		r1, r2 float32
		want   float32
	}{
		{"equal", 1.5, 10000, 10000, 3.0},
		{"3:1", 1.0, 20000, 10000, 3.0},
		{"no r2", 1.2, 10000, 0, 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VoltageDivider(tt.vout, tt.r1, tt.r2), 1e-4)
		})
	}
}

func TestBandgapVcc(t *testing.T) {
	// 1.1 V bandgap read as 225 counts on a 10-bit ADC means Vcc = 5 V.
	assert.InDelta(t, 5.0, BandgapVcc(225, 10, 1.1), 0.01)
	assert.Equal(t, float32(0), BandgapVcc(0, 10, 1.1))
}

func TestAverage(t *testing.T) {
	_, err := Average(nil)
	assert.ErrorIs(t, err, ErrNoSamples)

	got, err := Average([]uint16{100, 101})
	require.NoError(t, err)
	assert.Equal(t, uint16(101), got, "rounds to nearest")
}

func TestDividerSupply(t *testing.T) {
	_, err := NewDividerSupply(nil, DefaultDivider(), 4)
	assert.ErrorIs(t, err, ErrNoADC)

	adc := &fakeADC{values: []uint16{39000, 40000, 41000}}
	s, err := NewDividerSupply(adc, DefaultDivider(), 3)
	require.NoError(t, err)

	v, err := s.Voltage()
	require.NoError(t, err)
	// 40000/65535 * 3.3 * 2
	assert.InDelta(t, 4.03, v, 0.01)
	assert.Equal(t, 3, adc.i)

	f, err := Fixed(3.7).Voltage()
	require.NoError(t, err)
	assert.Equal(t, float32(3.7), f)
}

func TestDivider_Counts(t *testing.T) {
	d := DefaultDivider()
	assert.Equal(t, uint16(0), d.Counts(0))
	assert.Equal(t, uint16(0xFFFF), d.Counts(12), "saturates at full scale")

	s, err := NewDividerSupply(FixedADC(d.Counts(3.7)), d, 1)
	require.NoError(t, err)
	v, err := s.Voltage()
	require.NoError(t, err)
	assert.InDelta(t, 3.7, v, 0.001)

	d12 := Divider{VRef: 3.3, R1: 200000, R2: 100000, Bits: 12}
	assert.InDelta(t, 4.2, VoltageDivider(AdcToVoltage(d12.Counts(4.2), 12, 3.3), 200000, 100000), 0.01)
}

func TestBandgapSupply(t *testing.T) {
	_, err := NewBandgapSupply(nil, 10, 1.1, 1)
	assert.ErrorIs(t, err, ErrNoADC)

	s, err := NewBandgapSupply(FixedADC(BandgapCounts(3.7, 12, 1.1)), 12, 1.1, 4)
	require.NoError(t, err)
	v, err := s.Voltage()
	require.NoError(t, err)
	assert.InDelta(t, 3.7, v, 0.01)

	assert.Equal(t, uint16(1023), BandgapCounts(1.0, 10, 1.1), "supply below the reference saturates")

	s, err = NewBandgapSupply(FixedADC(0), 10, 1.1, 1)
	require.NoError(t, err)
	_, err = s.Voltage()
	assert.ErrorIs(t, err, ErrNoReference)
}
