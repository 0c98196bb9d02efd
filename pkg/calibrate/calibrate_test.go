package calibrate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itohio/eanx/pkg/config"
	"github.com/itohio/eanx/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passSource returns a constant code per pass of perPass samples. The last
// pass repeats forever.
type passSource struct {
	perPass int
	passes  []int32
	reads   int
}

func (s *passSource) ReadDifferential() (int32, error) {
	p := s.reads / s.perPass
	if p >= len(s.passes) {
		p = len(s.passes) - 1
	}
	s.reads++
	return -s.passes[p], nil
}

// patternSource cycles through codes.
type patternSource struct {
	codes []int32
	reads int
}

func (s *patternSource) ReadDifferential() (int32, error) {
	c := s.codes[s.reads%len(s.codes)]
	s.reads++
	return c, nil
}

type failingSource struct{ err error }

func (s failingSource) ReadDifferential() (int32, error) { return 0, s.err }

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func testConfig() config.CalibrationConfig {
	return config.Default().Calibration
}

func newEngine(src sample.Reader, size int, rec *sleepRecorder, opts ...Option) *Engine {
	opts = append([]Option{WithSleep(rec.sleep)}, opts...)
	return New(src, sample.NewRunningAverage(size), testConfig(), opts...)
}

func TestRun_AcceptsFirstAttempt(t *testing.T) {
	src := &passSource{perPass: 12, passes: []int32{160, 160}}
	rec := &sleepRecorder{}
	var attempts []Attempt

	res, err := newEngine(src, 4, rec, OnAttempt(func(a Attempt) { attempts = append(attempts, a) })).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Attempts)
	assert.InDelta(t, 20.9/160, res.Factor, 1e-12)
	assert.Equal(t, 160.0, res.Raw)
	assert.Equal(t, 160.0, res.Check)
	assert.Equal(t, 0.0, res.Deviation)
	assert.Equal(t, 24, src.reads)

	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Accepted)
}

func TestRun_RetriesExactlyOnce(t *testing.T) {
	src := &passSource{perPass: 12, passes: []int32{160, 170, 160, 160}}
	rec := &sleepRecorder{}
	var attempts []Attempt

	res, err := newEngine(src, 4, rec, OnAttempt(func(a Attempt) { attempts = append(attempts, a) })).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Attempts)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].Accepted)
	assert.InDelta(t, 5.882, attempts[0].Deviation, 0.001)
	assert.NoError(t, attempts[0].Err)
	assert.True(t, attempts[1].Accepted)

	assert.Contains(t, rec.delays, 2*time.Second, "refine pause between attempts")
}

func TestRun_AcceptsAtThreshold(t *testing.T) {
	// 1000/1001 deviates by ~0.0999%
	src := &passSource{perPass: 12, passes: []int32{1000, 1001}}

	res, err := newEngine(src, 4, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Less(t, res.Deviation, 0.15)
}

func TestRun_FactorUsesCheckPass(t *testing.T) {
	src := &passSource{perPass: 12, passes: []int32{1000, 1001}}

	res, err := newEngine(src, 4, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 20.9/1001, res.Factor, 1e-15)
	assert.NotEqual(t, 20.9/1000, res.Factor)
}

func TestRun_UnityFactor(t *testing.T) {
	// the last 10 samples of every pass average exactly 20.9
	src := &patternSource{codes: []int32{21, 21, 21, 21, 21, 21, 21, 21, 21, 20}}

	res, err := newEngine(src, 10, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Factor, 1e-12)
}

func TestRun_RecordedDelays(t *testing.T) {
	src := &passSource{perPass: 6, passes: []int32{160, 160}}
	rec := &sleepRecorder{}

	_, err := newEngine(src, 2, rec).Run(context.Background())
	require.NoError(t, err)

	var want []time.Duration
	for i := 0; i < 6; i++ {
		want = append(want, 12*time.Millisecond)
	}
	want = append(want, time.Second)
	for i := 0; i < 6; i++ {
		want = append(want, 36*time.Millisecond)
	}
	assert.Equal(t, want, rec.delays)
}

func TestRun_DegenerateCheckPass(t *testing.T) {
	src := &passSource{perPass: 12, passes: []int32{160, 0}}
	var attempts []Attempt

	_, err := newEngine(src, 4, &sleepRecorder{},
		MaxAttempts(1),
		OnAttempt(func(a Attempt) { attempts = append(attempts, a) }),
	).Run(context.Background())

	assert.ErrorIs(t, err, ErrDiverged)
	assert.ErrorIs(t, err, ErrDegenerateReading)
	require.Len(t, attempts, 1)
	assert.ErrorIs(t, attempts[0].Err, ErrDegenerateReading)
	assert.False(t, attempts[0].Accepted)
}

func TestRun_DegenerateThenRecovers(t *testing.T) {
	src := &passSource{perPass: 12, passes: []int32{0, 0, 160, 160}}

	res, err := newEngine(src, 4, &sleepRecorder{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.InDelta(t, 20.9/160, res.Factor, 1e-12)
}

func TestRun_MaxAttemptsExhausted(t *testing.T) {
	src := &patternSource{codes: []int32{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
		200, 200, 200, 200, 200, 200, 200, 200, 200, 200, 200, 200}}
	rec := &sleepRecorder{}
	count := 0

	res, err := newEngine(src, 4, rec, MaxAttempts(3), OnAttempt(func(Attempt) { count++ })).Run(context.Background())

	assert.ErrorIs(t, err, ErrDiverged)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, count)

	refines := 0
	for _, d := range rec.delays {
		if d == 2*time.Second {
			refines++
		}
	}
	assert.Equal(t, 2, refines)
}

func TestRun_Timeout(t *testing.T) {
	src := &patternSource{codes: []int32{100, 200}}

	cfg := testConfig()
	cfg.SampleDelay = 5 * time.Millisecond
	cfg.CheckDelay = 5 * time.Millisecond

	e := New(src, sample.NewRunningAverage(4), cfg, Timeout(30*time.Millisecond))
	_, err := e.Run(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrDiverged)
}

func TestRun_ParentDeadlineIsNotDivergence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	src := &passSource{perPass: 12, passes: []int32{160}}
	_, err := newEngine(src, 4, &sleepRecorder{}).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrDiverged)
}

func TestRun_ReadError(t *testing.T) {
	failure := errors.New("i2c nack")

	_, err := newEngine(failingSource{err: failure}, 4, &sleepRecorder{}).Run(context.Background())
	assert.ErrorIs(t, err, failure)
	assert.NotErrorIs(t, err, ErrDiverged)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &passSource{perPass: 12, passes: []int32{160}}
	_, err := newEngine(src, 4, &sleepRecorder{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeviation(t *testing.T) {
	assert.Equal(t, 0.0, Deviation(160, 160))
	assert.InDelta(t, 10.0, Deviation(110, 100), 1e-9)
	assert.InDelta(t, 10.0, Deviation(90, 100), 1e-9)
}
