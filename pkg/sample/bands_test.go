package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSensorBand(t *testing.T) {
	tests := []struct {
		mv   float64
		want Band
	}{
		{mv: 12, want: BandHigh},
		{mv: 9, want: BandHigh},
		{mv: 8.5, want: BandGood},
		{mv: 8, want: BandGood},
		{mv: 7.8, want: BandMarginal},
		{mv: 7.5, want: BandLow},
		{mv: 0, want: BandLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SensorBand(tt.mv), "%.2f mV", tt.mv)
	}
}

func TestBatteryBand(t *testing.T) {
	assert.Equal(t, BandGood, BatteryBand(4.1))
	assert.Equal(t, BandGood, BatteryBand(3.6))
	assert.Equal(t, BandMarginal, BatteryBand(3.5))
	assert.Equal(t, BandLow, BatteryBand(3.39))
}

func TestOxygenMix(t *testing.T) {
	tests := []struct {
		percent float64
		want    Mix
	}{
		{percent: 5, want: MixHypoxic},
		{percent: 18, want: MixHypoxic},
		{percent: 19.5, want: MixLean},
		{percent: 20, want: MixLean},
		{percent: 20.9, want: MixAir},
		{percent: 22, want: MixEnriched},
		{percent: 32, want: MixEnriched},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OxygenMix(tt.percent), "%.1f%%", tt.percent)
	}
	assert.Equal(t, "air", MixAir.String())
	assert.Equal(t, "marginal", BandMarginal.String())
}
