// Package gas derives dive planning limits from an oxygen reading.
package gas

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrDegenerateReading is returned when the oxygen fraction is zero, negative
// or not a number, so no depth limit exists.
var ErrDegenerateReading = errors.New("gas: degenerate oxygen reading")

const divisionPrecision = 16

var (
	feetPerAtm   = decimal.NewFromInt(33)
	metersPerAtm = decimal.NewFromInt(10)
	hundred      = decimal.NewFromInt(100)
	one          = decimal.NewFromInt(1)
)

// Depth is a maximum operating depth in whole feet and meters of sea water.
type Depth struct {
	Feet   int
	Meters int
}

// Limit is the MOD at one partial pressure set-point.
type Limit struct {
	PPO2 float64
	Depth
}

// DepthLimits holds the MOD at the primary set-point and, when enabled, at the
// secondary one.
type DepthLimits struct {
	Primary      Limit
	Secondary    Limit
	HasSecondary bool
}

// MOD returns the depth at which a gas with the given oxygen percentage reaches
// the ppo2 set-point (ATA). Both figures are floored:
//
//	feet   = floor(33 * (ppo2/f - 1))
//	meters = floor(10 * (ppo2/f - 1))
//
// where f is the oxygen fraction. Decimal arithmetic keeps set-points such as
// 1.4 at 21% on the exact integer boundary.
func MOD(ppo2, oxygenPercent float64) (Depth, error) {
	if math.IsNaN(oxygenPercent) || math.IsInf(oxygenPercent, 0) || oxygenPercent <= 0 {
		return Depth{}, fmt.Errorf("%w: %v%%", ErrDegenerateReading, oxygenPercent)
	}
	if math.IsNaN(ppo2) || math.IsInf(ppo2, 0) || ppo2 <= 0 {
		return Depth{}, fmt.Errorf("gas: invalid set-point %v", ppo2)
	}

	f := decimal.NewFromFloat(oxygenPercent).DivRound(hundred, divisionPrecision)
	if f.IsZero() {
		return Depth{}, fmt.Errorf("%w: %v%%", ErrDegenerateReading, oxygenPercent)
	}
	atm := decimal.NewFromFloat(ppo2).DivRound(f, divisionPrecision).Sub(one)

	return Depth{
		Feet:   int(atm.Mul(feetPerAtm).Floor().IntPart()),
		Meters: int(atm.Mul(metersPerAtm).Floor().IntPart()),
	}, nil
}

// Limits computes the depth limits for a cycle.
func Limits(oxygenPercent, primary, secondary float64, secondaryEnabled bool) (DepthLimits, error) {
	var limits DepthLimits

	d, err := MOD(primary, oxygenPercent)
	if err != nil {
		return DepthLimits{}, err
	}
	limits.Primary = Limit{PPO2: primary, Depth: d}

	if !secondaryEnabled {
		return limits, nil
	}

	d, err = MOD(secondary, oxygenPercent)
	if err != nil {
		return DepthLimits{}, err
	}
	limits.Secondary = Limit{PPO2: secondary, Depth: d}
	limits.HasSecondary = true

	return limits, nil
}
