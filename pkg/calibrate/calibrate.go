// Package calibrate derives the factor that maps averaged raw cell readings
// to oxygen percent, using room air as the reference gas.
//
// Each attempt takes two passes over the running average. The first pass uses
// a short inter-sample delay, the second a longer one to expose drift. The
// attempt is accepted when both means agree within MaxDeviationPercent.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/itohio/eanx/pkg/config"
	"github.com/itohio/eanx/pkg/sample"
	"github.com/rs/zerolog"
)

var (
	// ErrDiverged is returned when the retry policy runs out before two passes
	// agree.
	ErrDiverged = errors.New("calibrate: passes did not converge")
	// ErrDegenerateReading marks an attempt whose check pass averaged zero.
	ErrDegenerateReading = errors.New("calibrate: degenerate reading")
)

// Attempt describes one two-pass calibration attempt.
type Attempt struct {
	Number    int
	Raw       float64 // mean of the first pass
	Check     float64 // mean of the second pass
	Deviation float64 // percent
	Accepted  bool
	Err       error // ErrDegenerateReading when the check pass averaged zero
}

// Result is an accepted calibration.
type Result struct {
	Factor    float64
	Raw       float64
	Check     float64
	Deviation float64
	Attempts  int
}

// Engine runs calibration attempts until one is accepted or the retry policy
// gives up.
type Engine struct {
	src sample.Reader
	avg *sample.RunningAverage
	cfg config.CalibrationConfig

	maxAttempts int
	timeout     time.Duration
	onAttempt   func(Attempt)
	sleep       sample.SleepFunc
	log         zerolog.Logger
}

// An Option configures an Engine.
type Option func(e *Engine)

// MaxAttempts bounds the number of attempts. Zero retries until accepted.
func MaxAttempts(n int) Option {
	return func(e *Engine) {
		e.maxAttempts = n
	}
}

// Timeout bounds the total calibration time. Zero disables the bound.
func Timeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// OnAttempt registers an observer called after every attempt.
func OnAttempt(fn func(Attempt)) Option {
	return func(e *Engine) {
		e.onAttempt = fn
	}
}

// WithSleep replaces the delay function.
func WithSleep(fn sample.SleepFunc) Option {
	return func(e *Engine) {
		e.sleep = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an engine sampling src through avg. The retry policy defaults to
// cfg.MaxAttempts and cfg.Timeout.
func New(src sample.Reader, avg *sample.RunningAverage, cfg config.CalibrationConfig, opts ...Option) *Engine {
	e := &Engine{
		src:         src,
		avg:         avg,
		cfg:         cfg,
		maxAttempts: cfg.MaxAttempts,
		timeout:     cfg.Timeout,
		sleep:       sample.Sleep,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.PassMultiplier <= 0 {
		e.cfg.PassMultiplier = 1
	}
	return e
}

// Run calibrates. On success the returned factor is the reference percentage
// divided by the running average resident at acceptance, which holds the
// check pass.
//
// Running out of Timeout is reported as ErrDiverged joined with
// context.DeadlineExceeded; cancellation of ctx itself is returned as is.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	parent := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	expired := func(n int, err error) error {
		if parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w after %d attempts: %w", ErrDiverged, n, err)
		}
		return err
	}

	for n := 1; ; n++ {
		a, err := e.attempt(ctx, n)
		if err != nil {
			return Result{Attempts: n}, expired(n, fmt.Errorf("calibration attempt %d: %w", n, err))
		}

		e.log.Debug().
			Int("attempt", a.Number).
			Float64("raw", a.Raw).
			Float64("check", a.Check).
			Float64("deviation", a.Deviation).
			Bool("accepted", a.Accepted).
			Msg("calibration attempt")

		if e.onAttempt != nil {
			e.onAttempt(a)
		}

		if a.Accepted {
			res := Result{
				Factor:    e.cfg.ReferencePercent / e.avg.Average(),
				Raw:       a.Raw,
				Check:     a.Check,
				Deviation: a.Deviation,
				Attempts:  n,
			}
			e.log.Info().
				Float64("factor", res.Factor).
				Int("attempts", n).
				Msg("calibration accepted")
			return res, nil
		}

		if e.maxAttempts > 0 && n >= e.maxAttempts {
			if a.Err != nil {
				return Result{Attempts: n}, fmt.Errorf("%w after %d attempts: %w", ErrDiverged, n, a.Err)
			}
			return Result{Attempts: n}, fmt.Errorf("%w after %d attempts (deviation %.3f%%)", ErrDiverged, n, a.Deviation)
		}

		if err := e.sleep(ctx, e.cfg.RefineDelay); err != nil {
			return Result{Attempts: n}, expired(n, fmt.Errorf("calibration refine: %w", err))
		}
	}
}

func (e *Engine) attempt(ctx context.Context, n int) (Attempt, error) {
	count := e.cfg.PassMultiplier * e.avg.Size()
	a := Attempt{Number: n}

	if err := sample.Fill(ctx, e.avg, e.src, count, e.cfg.SampleDelay, e.sleep); err != nil {
		return a, err
	}
	a.Raw = e.avg.Average()

	if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
		return a, err
	}

	if err := sample.Fill(ctx, e.avg, e.src, count, e.cfg.CheckDelay, e.sleep); err != nil {
		return a, err
	}
	a.Check = e.avg.Average()

	if a.Check == 0 {
		a.Deviation = math.Inf(1)
		a.Err = ErrDegenerateReading
		return a, nil
	}

	a.Deviation = Deviation(a.Raw, a.Check)
	a.Accepted = a.Deviation <= e.cfg.MaxDeviationPercent
	return a, nil
}

// Deviation returns |raw/check - 1| in percent.
func Deviation(raw, check float64) float64 {
	return math.Abs(raw/check-1) * 100
}
