package analyzer

import (
	"time"

	"github.com/google/uuid"
)

// Reading holds the outputs of one measurement cycle.
type Reading struct {
	Average    float64 // mean raw ADC magnitude
	Millivolts float64 // sensor output
	Oxygen     float64 // percent
	Battery    float64 // volts, zero on boards without a battery gauge
}

// MeasurementState is the current cycle's reading and the one before it.
type MeasurementState struct {
	Current  Reading
	Previous Reading
}

// OxygenChanged reports whether the oxygen reading moved since the last cycle.
func (m MeasurementState) OxygenChanged() bool {
	return m.Current.Oxygen != m.Previous.Oxygen
}

// MillivoltsChanged reports whether the sensor output moved since the last
// cycle.
func (m MeasurementState) MillivoltsChanged() bool {
	return m.Current.Millivolts != m.Previous.Millivolts
}

// BatteryChanged reports whether the battery voltage moved since the last
// cycle.
func (m MeasurementState) BatteryChanged() bool {
	return m.Current.Battery != m.Previous.Battery
}

func (m *MeasurementState) push(r Reading) {
	m.Previous = m.Current
	m.Current = r
}

// Session is the state owned by the control loop for one power cycle. The
// calibration factor is never persisted.
type Session struct {
	ID           uuid.UUID
	Started      time.Time
	Factor       float64
	Calibrated   bool
	CalibratedAt time.Time
	State        MeasurementState
	BatteryValid bool // a battery reading has succeeded
	MsgID        uint64
}

func newSession(now time.Time) Session {
	return Session{
		ID:      uuid.New(),
		Started: now,
		Factor:  1.0,
	}
}
