// Package analyzer runs the oxygen analyzer control loop: calibration against
// room air, then one measurement cycle after another, reporting readings and
// faults to a Sink.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/eanx/pkg/calibrate"
	"github.com/itohio/eanx/pkg/config"
	"github.com/itohio/eanx/pkg/gas"
	"github.com/itohio/eanx/pkg/sample"
	"github.com/itohio/eanx/pkg/sensor"
	"github.com/rs/zerolog"
)

// Analyzer owns the signal source, the running average and the session.
type Analyzer struct {
	src     sensor.Source
	battery sensor.Battery
	cfg     *config.Config
	board   config.Board
	sink    Sink
	filter  *sample.RunningAverage

	sleep sample.SleepFunc
	now   func() time.Time
	log   zerolog.Logger

	recal chan struct{}

	mu      sync.Mutex
	session Session
}

// An Option configures an Analyzer.
type Option func(a *Analyzer)

// WithSleep replaces the delay function used between samples and cycles.
func WithSleep(fn sample.SleepFunc) Option {
	return func(a *Analyzer) {
		a.sleep = fn
	}
}

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(fn func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = fn
	}
}

// WithLogger sets the logger. The session id is added to its context.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// New creates an analyzer. battery may be nil; it is also ignored when the
// configured board has no battery gauge. A nil sink discards output. cfg is
// copied; later edits by the caller take effect on the next New.
func New(src sensor.Source, battery sensor.Battery, cfg *config.Config, sink Sink, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	board, err := cfg.ResolveBoard()
	if err != nil {
		return nil, err
	}
	if !board.HasBattery {
		battery = nil
	}
	if sink == nil {
		sink = Discard
	}
	own := *cfg

	a := &Analyzer{
		src:     src,
		battery: battery,
		cfg:     &own,
		board:   board,
		sink:    sink,
		filter:  sample.NewRunningAverage(cfg.Filter.Size),
		sleep:   sample.Sleep,
		now:     time.Now,
		log:     zerolog.Nop(),
		recal:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.session = newSession(a.now())
	a.log = a.log.With().Str("session", a.session.ID.String()).Logger()

	return a, nil
}

// Session returns a copy of the session state.
func (a *Analyzer) Session() Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Recalibrate asks the control loop to calibrate again before its next cycle.
// It never blocks; repeated requests before the loop picks one up collapse
// into one.
func (a *Analyzer) Recalibrate() {
	select {
	case a.recal <- struct{}{}:
	default:
	}
}

// Calibrate configures the ADC and runs the calibration engine. Rejected
// attempts are reported as CalibrationRefining faults. The session factor is
// only replaced by an accepted calibration.
func (a *Analyzer) Calibrate(ctx context.Context) error {
	if _, err := a.src.ConfigureGain(); err != nil {
		return fmt.Errorf("%w: configure gain: %w", ErrADCFailure, err)
	}

	engine := calibrate.New(a.src, a.filter, a.cfg.Calibration,
		calibrate.WithSleep(a.sleep),
		calibrate.WithLogger(a.log),
		calibrate.OnAttempt(func(at calibrate.Attempt) {
			if at.Accepted {
				return
			}
			a.sink.Fault(Fault{Kind: FaultCalibrationRefining, Value: at.Deviation, Err: at.Err})
		}),
	)

	res, err := engine.Run(ctx)
	if err != nil {
		if isSourceError(err) {
			return fmt.Errorf("%w: %w", ErrADCFailure, err)
		}
		return err
	}

	a.mu.Lock()
	a.session.Factor = res.Factor
	a.session.Calibrated = true
	a.session.CalibratedAt = a.now()
	a.mu.Unlock()

	return nil
}

// Cycle runs one measurement cycle and records it in the session. Advisory
// faults are returned alongside the snapshot; the error is non-nil only when
// the cycle could not be measured.
func (a *Analyzer) Cycle(ctx context.Context) (Snapshot, []Fault, error) {
	multiplier, err := a.src.ConfigureGain()
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("%w: configure gain: %w", ErrADCFailure, err)
	}

	if err := sample.Fill(ctx, a.filter, a.src, a.cfg.Filter.Size+1, a.cfg.Measurement.SampleDelay, a.sleep); err != nil {
		if isSourceError(err) {
			return Snapshot{}, nil, fmt.Errorf("%w: %w", ErrADCFailure, err)
		}
		return Snapshot{}, nil, err
	}

	a.mu.Lock()
	factor := a.session.Factor
	a.mu.Unlock()

	avg := a.filter.Average()
	oxygen, clamped := sample.Oxygen(avg, factor, a.cfg.Measurement.OxygenCeiling)
	r := Reading{
		Average:    avg,
		Millivolts: sample.Millivolts(avg, multiplier),
		Oxygen:     oxygen,
	}

	var faults []Fault

	// BatteryLow is only judged on a reading taken this cycle
	batteryRead := false
	if a.battery != nil {
		mv, err := a.battery.ReadBatteryMillivolts()
		if err != nil {
			a.log.Warn().Err(err).Msg("battery read failed")
			r.Battery = a.Session().State.Current.Battery
		} else {
			r.Battery = sample.BatteryVolts(mv, a.board.BatteryScale)
			batteryRead = true
		}
	}

	m := a.cfg.Measurement
	limits, limErr := gas.Limits(oxygen, m.PrimaryPPO2, m.SecondaryPPO2, m.SecondaryEnabled)
	if limErr != nil {
		if !errors.Is(limErr, gas.ErrDegenerateReading) {
			return Snapshot{}, nil, limErr
		}
		faults = append(faults, Fault{Kind: FaultDegenerateReading, Value: oxygen, Err: limErr})
	}

	if r.Millivolts < a.cfg.Faults.SensorLowMillivolts {
		faults = append(faults, Fault{Kind: FaultSensorLow, Value: r.Millivolts})
	}
	if batteryRead && r.Battery < a.cfg.Faults.BatteryLowVolts {
		faults = append(faults, Fault{Kind: FaultBatteryLow, Value: r.Battery})
	}

	a.mu.Lock()
	a.session.State.push(r)
	a.session.BatteryValid = a.session.BatteryValid || batteryRead
	a.session.MsgID++
	snap := Snapshot{
		MsgID:      a.session.MsgID,
		SessionID:  a.session.ID,
		Time:       a.now(),
		Factor:     factor,
		State:      a.session.State,
		Clamped:    clamped,
		Limits:     limits,
		HasLimits:  limErr == nil,
		HasBattery: a.session.BatteryValid,
	}
	a.mu.Unlock()

	ev := a.log.Debug().
		Uint64("msg", snap.MsgID).
		Float64("adc", r.Average).
		Float64("mv", r.Millivolts).
		Float64("o2", r.Oxygen)
	if snap.HasBattery {
		ev = ev.Float64("battery", r.Battery)
	}
	if snap.HasLimits {
		ev = ev.Int("mod_primary", limits.Primary.Feet)
		if limits.HasSecondary {
			ev = ev.Int("mod_secondary", limits.Secondary.Feet)
		}
	}
	ev.Msg("cycle")

	return snap, faults, nil
}

// Run calibrates and then measures until ctx is done or the ADC fails. A
// calibration that gives up at startup halts the loop; one requested later
// keeps the previous factor.
func (a *Analyzer) Run(ctx context.Context) error {
	a.sink.SetState(StateCalibrating)
	if err := a.Calibrate(ctx); err != nil {
		return a.halt(err)
	}
	a.sink.SetState(StateSampling)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.recal:
			a.sink.SetState(StateCalibrating)
			if err := a.Calibrate(ctx); err != nil {
				if !errors.Is(err, calibrate.ErrDiverged) {
					return a.halt(err)
				}
				a.log.Warn().Err(err).Msg("recalibration gave up, keeping previous factor")
			}
			a.sink.SetState(StateSampling)
		default:
		}

		snap, faults, err := a.Cycle(ctx)
		if err != nil {
			return a.halt(err)
		}
		a.sink.Measurement(snap)

		hold := false
		for _, f := range faults {
			a.log.Warn().Stringer("fault", f.Kind).Float64("value", f.Value).Msg("advisory")
			a.sink.Fault(f)
			hold = hold || f.holds()
		}
		if hold {
			a.sink.SetState(StateFault)
			if err := a.sleep(ctx, a.cfg.Faults.Hold); err != nil {
				return err
			}
			a.sink.SetState(StateSampling)
		}

		if err := a.sleep(ctx, a.cfg.Measurement.CycleDelay); err != nil {
			return err
		}
	}
}

// halt reports a fatal error to the sink. Context cancellation is not a fault.
func (a *Analyzer) halt(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, ErrADCFailure) {
		a.sink.Fault(Fault{Kind: FaultADCFailure, Err: err})
	}
	a.sink.SetState(StateHalted)
	a.log.Error().Err(err).Msg("halted")
	return err
}

func isSourceError(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, calibrate.ErrDiverged)
}
