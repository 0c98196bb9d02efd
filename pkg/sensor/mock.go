package sensor

import (
	"fmt"
	"math"
	"sync"

	"github.com/itohio/eanx/pkg/config"
)

// airPercent is the oxygen fraction the simulated cell is rated against.
const airPercent = 20.9

// Mock simulates a galvanic oxygen cell wired to the ADC with reversed
// polarity, so samples are negative like on most builds.
type Mock struct {
	cfg  config.MockConfig
	gain config.Gain

	mu         sync.Mutex
	configured bool
	oxygen     float64
	n          int
}

// NewMock creates a simulated source.
func NewMock(cfg config.MockConfig, gain config.Gain) *Mock {
	if cfg.AirMillivolts == 0 {
		cfg.AirMillivolts = 10
	}
	if cfg.OxygenPercent == 0 {
		cfg.OxygenPercent = airPercent
	}
	if gain.Multiplier == 0 {
		gain, _ = config.LookupGain("2")
	}

	return &Mock{
		cfg:    cfg,
		gain:   gain,
		oxygen: cfg.OxygenPercent,
	}
}

// SetOxygen changes the simulated gas mix.
func (m *Mock) SetOxygen(percent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.oxygen = percent
}

// ConfigureGain returns the multiplier of the simulated gain.
func (m *Mock) ConfigureGain() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured = true
	return m.gain.Multiplier, nil
}

// ReadDifferential returns the next simulated conversion.
func (m *Mock) ReadDifferential() (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.configured {
		return 0, ErrNotConnected
	}

	m.n++
	mv := m.cfg.AirMillivolts * m.oxygen / airPercent
	counts := mv / m.gain.Multiplier

	// Deterministic noise so runs are reproducible
	x := float64(m.n)
	noise := (math.Sin(x*0.7) + math.Cos(x*1.3)) * m.cfg.NoiseLevel * 0.5

	return -int32(math.Round(counts + noise)), nil
}

// ReadBatteryMillivolts returns the configured battery voltage.
func (m *Mock) ReadBatteryMillivolts() (float64, error) {
	return m.cfg.BatteryMillivolts, nil
}

// Close resets the simulated converter.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured = false
	return nil
}

func (m *Mock) String() string {
	return fmt.Sprintf("Mock{oxygen:%.1f%%, air:%.2fmV, gain:%s}", m.oxygen, m.cfg.AirMillivolts, m.gain.Name)
}
