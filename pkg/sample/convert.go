package sample

// Millivolts converts an averaged ADC magnitude to sensor millivolts.
func Millivolts(avgRaw, multiplier float64) float64 {
	return avgRaw * multiplier
}

// Oxygen converts an averaged ADC magnitude to an oxygen percentage using the
// calibration factor. Values above ceiling are clamped to it; there is no
// floor clamp. The second result reports whether clamping happened.
func Oxygen(avgRaw, factor, ceiling float64) (float64, bool) {
	o2 := avgRaw * factor
	if o2 > ceiling {
		return ceiling, true
	}
	return o2, false
}

// BatteryVolts converts a battery divider reading to volts using the board
// adjustment constant.
func BatteryVolts(millivolts, scale float64) float64 {
	return millivolts / 1000 * scale
}
