package analyzer

import (
	"errors"
	"fmt"

	"github.com/itohio/eanx/pkg/gas"
)

var (
	// ErrADCFailure is returned when the signal source cannot be configured or
	// read. The control loop halts on it.
	ErrADCFailure = errors.New("analyzer: ADC failure")
	// ErrDegenerateReading marks a cycle whose oxygen reading has no depth
	// limit.
	ErrDegenerateReading = gas.ErrDegenerateReading
)

// FaultKind classifies fault events sent to the sink.
type FaultKind int

const (
	FaultSensorLow FaultKind = iota + 1
	FaultBatteryLow
	FaultCalibrationRefining
	FaultADCFailure
	FaultDegenerateReading
)

func (k FaultKind) String() string {
	switch k {
	case FaultSensorLow:
		return "SensorLow"
	case FaultBatteryLow:
		return "BatteryLow"
	case FaultCalibrationRefining:
		return "CalibrationRefining"
	case FaultADCFailure:
		return "ADCFailure"
	case FaultDegenerateReading:
		return "DegenerateReading"
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// Fault is a discrete fault event with the offending value: millivolts for
// SensorLow, volts for BatteryLow, deviation percent for CalibrationRefining
// and oxygen percent for DegenerateReading.
type Fault struct {
	Kind  FaultKind
	Value float64
	Err   error
}

func (f Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s (%.3f): %v", f.Kind, f.Value, f.Err)
	}
	return fmt.Sprintf("%s (%.3f)", f.Kind, f.Value)
}

func (f Fault) Unwrap() error {
	return f.Err
}

// holds reports whether the loop pauses on this fault.
func (f Fault) holds() bool {
	return f.Kind == FaultSensorLow || f.Kind == FaultBatteryLow
}
