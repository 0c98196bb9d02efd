package sample

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunningAverage_Empty(t *testing.T) {
	ra := NewRunningAverage(20)
	assert.Equal(t, 0.0, ra.Average())
	assert.Equal(t, 0, ra.Count())
	assert.Equal(t, 20, ra.Size())
}

func TestRunningAverage_InvalidSize(t *testing.T) {
	ra := NewRunningAverage(0)
	assert.Equal(t, 1, ra.Size())

	ra.Add(3)
	ra.Add(5)
	assert.Equal(t, 5.0, ra.Average())
}

func TestRunningAverage_MeanIsOrderIndependent(t *testing.T) {
	values := []float64{163, 171, 158, 166, 160, 169, 162, 175, 159, 164}

	var want float64
	for _, v := range values {
		want += v
	}
	want /= float64(len(values))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]float64(nil), values...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		ra := NewRunningAverage(len(values))
		for _, v := range shuffled {
			ra.Add(v)
		}
		assert.InDelta(t, want, ra.Average(), 1e-9, "order %v", shuffled)
	}
}

func TestRunningAverage_ClearThenSingle(t *testing.T) {
	ra := NewRunningAverage(4)
	for _, v := range []float64{10, 20, 30, 40, 50} {
		ra.Add(v)
	}

	ra.Clear()
	ra.Add(163.25)
	assert.Equal(t, 163.25, ra.Average())
	assert.Equal(t, 1, ra.Count())
}

func TestRunningAverage_EvictsOldest(t *testing.T) {
	ra := NewRunningAverage(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		ra.Add(v)
	}

	assert.Equal(t, 3, ra.Count())
	assert.Equal(t, 12.0, ra.Sum())
	assert.Equal(t, 4.0, ra.Average())
}

func TestRunningAverage_SumMatchesBuffer(t *testing.T) {
	ra := NewRunningAverage(20)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		ra.Add(rng.Float64() * 1e6)

		var total float64
		for j := 0; j < ra.Count(); j++ {
			total += ra.values[(ra.head+j)%ra.Size()]
		}
		assert.InDelta(t, total, ra.Sum(), 1e-6)
	}
}
