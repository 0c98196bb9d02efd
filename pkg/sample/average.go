package sample

// RunningAverage is a fixed-capacity mean filter over raw ADC magnitudes.
//
// It is a ring buffer: once full, each Add evicts the oldest value, so the
// average always covers the most recent Size() values. Callers clear it at
// the start of every sampling window; nothing is carried across windows.
type RunningAverage struct {
	values []float64
	head   int // index of the oldest value when full
	count  int
	sum    float64
}

// NewRunningAverage creates a running average over at most size values.
func NewRunningAverage(size int) *RunningAverage {
	if size <= 0 {
		size = 1
	}
	return &RunningAverage{
		values: make([]float64, size),
	}
}

// Clear drops all values.
func (ra *RunningAverage) Clear() {
	ra.head = 0
	ra.count = 0
	ra.sum = 0
}

// Add inserts a value, evicting the oldest one when the buffer is full.
func (ra *RunningAverage) Add(v float64) {
	size := len(ra.values)
	if ra.count < size {
		ra.values[(ra.head+ra.count)%size] = v
		ra.count++
		ra.sum += v
		return
	}

	ra.values[ra.head] = v
	ra.head = (ra.head + 1) % size

	// sum is rebuilt from the buffer on eviction
	ra.sum = 0
	for _, x := range ra.values {
		ra.sum += x
	}
}

// Average returns the mean of the buffered values, or 0 when empty.
func (ra *RunningAverage) Average() float64 {
	if ra.count == 0 {
		return 0
	}
	return ra.sum / float64(ra.count)
}

// Count returns the number of buffered values.
func (ra *RunningAverage) Count() int {
	return ra.count
}

// Size returns the capacity.
func (ra *RunningAverage) Size() int {
	return len(ra.values)
}

// Sum returns the total of the buffered values.
func (ra *RunningAverage) Sum() float64 {
	return ra.sum
}
