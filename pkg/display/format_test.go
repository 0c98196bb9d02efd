package display

import (
	"errors"
	"testing"

	"github.com/itohio/eanx/pkg/analyzer"
	"github.com/itohio/eanx/pkg/calibrate"
	"github.com/itohio/eanx/pkg/gas"
	"github.com/itohio/eanx/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func TestFormatDepth(t *testing.T) {
	l := gas.Limit{PPO2: 1.4, Depth: gas.Depth{Feet: 187, Meters: 56}}
	assert.Equal(t, "MOD 1.4: 187ft", FormatDepth(l, false))
	assert.Equal(t, "MOD 1.4: 56m", FormatDepth(l, true))
}

func TestFormatOxygen(t *testing.T) {
	assert.Equal(t, "20.9%", FormatOxygen(20.912))
	assert.Equal(t, "99.9%", FormatOxygen(99.9))
}

func TestFormatFault(t *testing.T) {
	tests := []struct {
		fault analyzer.Fault
		want  string
	}{
		{analyzer.Fault{Kind: analyzer.FaultSensorLow, Value: 6.25}, "Sensor low: 6.25 mV"},
		{analyzer.Fault{Kind: analyzer.FaultBatteryLow, Value: 3.1}, "Battery low: 3.10 V"},
		{analyzer.Fault{Kind: analyzer.FaultCalibrationRefining, Value: 0.2}, "Refining calibration: 0.200%"},
		{analyzer.Fault{Kind: analyzer.FaultCalibrationRefining, Err: calibrate.ErrDegenerateReading}, "Refining calibration: no signal"},
		{analyzer.Fault{Kind: analyzer.FaultADCFailure, Err: errors.New("nack")}, "ADC failure, check wiring and reset"},
		{analyzer.Fault{Kind: analyzer.FaultDegenerateReading}, "No oxygen reading"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFault(tt.fault))
	}
}

func TestColors(t *testing.T) {
	assert.Equal(t, colorRed, BandColor(sample.BandLow))
	assert.Equal(t, colorGreen, BandColor(sample.BandGood))
	assert.Equal(t, colorGray, BandColor(sample.BandUnknown))
	assert.Equal(t, colorGreen, MixColor(sample.MixAir))
	assert.Equal(t, colorCyan, MixColor(sample.MixEnriched))
}
