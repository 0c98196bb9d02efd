package sample

// Band is an advisory classification used by displays to pick a colour.
type Band int

const (
	BandUnknown Band = iota
	BandLow
	BandMarginal
	BandGood
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMarginal:
		return "marginal"
	case BandGood:
		return "good"
	case BandHigh:
		return "high"
	}
	return "unknown"
}

// SensorBand classifies the cell output in millivolts.
func SensorBand(mv float64) Band {
	switch {
	case mv >= 9.0:
		return BandHigh
	case mv >= 8.0:
		return BandGood
	case mv > 7.5:
		return BandMarginal
	default:
		return BandLow
	}
}

// BatteryBand classifies the supply voltage.
func BatteryBand(volts float64) Band {
	switch {
	case volts >= 3.6:
		return BandGood
	case volts >= 3.4:
		return BandMarginal
	default:
		return BandLow
	}
}

// Mix describes which kind of gas an oxygen reading looks like.
type Mix int

const (
	MixHypoxic Mix = iota
	MixLean
	MixAir
	MixEnriched
)

func (m Mix) String() string {
	switch m {
	case MixHypoxic:
		return "hypoxic"
	case MixLean:
		return "lean"
	case MixAir:
		return "air"
	}
	return "enriched"
}

// OxygenMix classifies an oxygen percentage.
func OxygenMix(percent float64) Mix {
	switch {
	case percent <= 18:
		return MixHypoxic
	case percent <= 20:
		return MixLean
	case percent < 22:
		return MixAir
	default:
		return MixEnriched
	}
}
