package sample

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedReader struct {
	codes []int32
	pos   int
	err   error
}

func (s *scriptedReader) ReadDifferential() (int32, error) {
	if s.err != nil && s.pos >= len(s.codes) {
		return 0, s.err
	}
	c := s.codes[s.pos%len(s.codes)]
	s.pos++
	return c, nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func TestFill_AbsoluteValues(t *testing.T) {
	src := &scriptedReader{codes: []int32{-160, 162, -158, 160}}
	rec := &sleepRecorder{}
	ra := NewRunningAverage(4)
	ra.Add(1000)

	err := Fill(context.Background(), ra, src, 4, 8*time.Millisecond, rec.sleep)
	require.NoError(t, err)

	assert.Equal(t, 160.0, ra.Average())
	assert.Equal(t, 4, src.pos)
	require.Len(t, rec.delays, 4)
	for _, d := range rec.delays {
		assert.Equal(t, 8*time.Millisecond, d)
	}
}

func TestFill_LongerThanBuffer(t *testing.T) {
	src := &scriptedReader{codes: []int32{100, 100, 100, 200, 200}}
	rec := &sleepRecorder{}
	ra := NewRunningAverage(2)

	require.NoError(t, Fill(context.Background(), ra, src, 5, 0, rec.sleep))
	assert.Equal(t, 200.0, ra.Average())
}

func TestFill_ReadError(t *testing.T) {
	failure := errors.New("bus error")
	src := &scriptedReader{codes: []int32{5, 5}, err: failure}
	ra := NewRunningAverage(4)

	err := Fill(context.Background(), ra, src, 4, 0, (&sleepRecorder{}).sleep)
	assert.ErrorIs(t, err, failure)
	assert.ErrorContains(t, err, "sample 3 of 4")
}

func TestFill_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedReader{codes: []int32{5}}
	err := Fill(ctx, NewRunningAverage(4), src, 4, time.Millisecond, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, src.pos)
}

func TestSleep(t *testing.T) {
	start := time.Now()
	require.NoError(t, Sleep(context.Background(), 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Sleep(ctx, 0), context.Canceled)
}

func TestMagnitude(t *testing.T) {
	assert.Equal(t, 163.0, Magnitude(-163))
	assert.Equal(t, 163.0, Magnitude(163))
	assert.Equal(t, 0.0, Magnitude(0))
	assert.Equal(t, 2147483648.0, Magnitude(-2147483648))
}
