package display

import (
	"fmt"
	"image/color"

	"github.com/itohio/eanx/pkg/analyzer"
	"github.com/itohio/eanx/pkg/gas"
	"github.com/itohio/eanx/pkg/sample"
)

var (
	colorRed    = color.RGBA{R: 230, G: 40, B: 40, A: 255}
	colorOrange = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorYellow = color.RGBA{R: 240, G: 220, B: 60, A: 255}
	colorGreen  = color.RGBA{R: 60, G: 200, B: 90, A: 255}
	colorCyan   = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	colorGray   = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// BandColor maps an advisory band to a display colour.
func BandColor(b sample.Band) color.Color {
	switch b {
	case sample.BandHigh:
		return colorCyan
	case sample.BandGood:
		return colorGreen
	case sample.BandMarginal:
		return colorYellow
	case sample.BandLow:
		return colorRed
	}
	return colorGray
}

// MixColor maps an oxygen classification to a display colour.
func MixColor(m sample.Mix) color.Color {
	switch m {
	case sample.MixHypoxic:
		return colorRed
	case sample.MixLean:
		return colorOrange
	case sample.MixAir:
		return colorGreen
	}
	return colorCyan
}

// FormatOxygen renders an oxygen percentage with one decimal.
func FormatOxygen(percent float64) string {
	return fmt.Sprintf("%.1f%%", percent)
}

// FormatDepth renders a MOD limit in feet or meters.
func FormatDepth(l gas.Limit, metric bool) string {
	if metric {
		return fmt.Sprintf("MOD %.1f: %dm", l.PPO2, l.Meters)
	}
	return fmt.Sprintf("MOD %.1f: %dft", l.PPO2, l.Feet)
}

// FormatFault renders the blocking advisory text for a fault.
func FormatFault(f analyzer.Fault) string {
	switch f.Kind {
	case analyzer.FaultSensorLow:
		return fmt.Sprintf("Sensor low: %.2f mV", f.Value)
	case analyzer.FaultBatteryLow:
		return fmt.Sprintf("Battery low: %.2f V", f.Value)
	case analyzer.FaultCalibrationRefining:
		if f.Err != nil {
			return "Refining calibration: no signal"
		}
		return fmt.Sprintf("Refining calibration: %.3f%%", f.Value)
	case analyzer.FaultADCFailure:
		return "ADC failure, check wiring and reset"
	case analyzer.FaultDegenerateReading:
		return "No oxygen reading"
	}
	return f.Error()
}
