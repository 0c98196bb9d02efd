package display

import "time"

// Point is one oxygen reading on the trend graph.
type Point struct {
	Time   time.Time
	Oxygen float64
}

// History keeps the readings of the last window.
type History struct {
	window time.Duration
	points []Point
}

// NewHistory creates a history spanning window.
func NewHistory(window time.Duration) *History {
	return &History{window: window}
}

// Add appends p and drops points older than the window.
func (h *History) Add(p Point) {
	h.points = append(h.points, p)

	cutoff := p.Time.Add(-h.window)
	i := 0
	for i < len(h.points) && h.points[i].Time.Before(cutoff) {
		i++
	}
	if i > 0 {
		h.points = append(h.points[:0], h.points[i:]...)
	}
}

// Points returns the retained points, oldest first.
func (h *History) Points() []Point {
	return h.points
}

// Len returns the number of retained points.
func (h *History) Len() int {
	return len(h.points)
}

// Downsample decimates src to at most maxPoints elements. It reuses dst when
// it has enough capacity.
func Downsample[T any](dst, src []T, maxPoints int) []T {
	if maxPoints <= 0 {
		return dst[:0]
	}
	if len(src) <= maxPoints {
		if cap(dst) < len(src) {
			dst = make([]T, len(src))
		}
		dst = dst[:len(src)]
		copy(dst, src)
		return dst
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		dst = append(dst, src[int(float64(i)*step)])
	}
	return dst
}
