package sample

import (
	"context"
	"fmt"
	"time"
)

// Reader provides signed differential ADC samples.
type Reader interface {
	ReadDifferential() (int32, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep blocks for at least d. It returns early only when ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fill clears ra and feeds it count sample magnitudes from src, waiting delay
// after each read to let the front-end settle.
func Fill(ctx context.Context, ra *RunningAverage, src Reader, count int, delay time.Duration, sleep SleepFunc) error {
	if sleep == nil {
		sleep = Sleep
	}

	ra.Clear()
	for i := 0; i < count; i++ {
		code, err := src.ReadDifferential()
		if err != nil {
			return fmt.Errorf("sample %d of %d: %w", i+1, count, err)
		}
		ra.Add(Magnitude(code))

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// Magnitude returns the absolute value of a differential code.
func Magnitude(code int32) float64 {
	v := float64(code)
	if v < 0 {
		return -v
	}
	return v
}
