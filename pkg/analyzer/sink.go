package analyzer

import (
	"time"

	"github.com/google/uuid"
	"github.com/itohio/eanx/pkg/gas"
)

// State is the control loop state shown by sinks.
type State int

const (
	StateCalibrating State = iota
	StateSampling
	StateFault
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateCalibrating:
		return "calibrating"
	case StateSampling:
		return "sampling"
	case StateFault:
		return "fault"
	case StateHalted:
		return "halted"
	}
	return "unknown"
}

// Snapshot is what a cycle emits.
type Snapshot struct {
	MsgID      uint64
	SessionID  uuid.UUID
	Time       time.Time
	Factor     float64
	State      MeasurementState
	Clamped    bool // oxygen hit the ceiling
	Limits     gas.DepthLimits
	HasLimits  bool // false when the reading is degenerate
	HasBattery bool // a battery reading has succeeded this session
}

// Sink receives everything the analyzer produces. Calls come from the control
// loop goroutine.
type Sink interface {
	SetState(State)
	Measurement(Snapshot)
	Fault(Fault)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) SetState(State)       {}
func (discard) Measurement(Snapshot) {}
func (discard) Fault(Fault)          {}
