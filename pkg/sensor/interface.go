package sensor

import "errors"

var (
	// ErrNotConnected is returned when a source is used before it is opened.
	ErrNotConnected = errors.New("sensor: not connected")
	// ErrTimeout is returned when the bridge does not answer in time.
	ErrTimeout = errors.New("sensor: read timeout")
	// ErrProtocol is returned when the bridge answers with an unexpected line.
	ErrProtocol = errors.New("sensor: protocol error")
)

// Source is a differential ADC front-end for the oxygen cell.
type Source interface {
	// ConfigureGain applies the configured gain and returns the matching
	// millivolts-per-count multiplier. It is safe to call every cycle.
	ConfigureGain() (float64, error)
	// ReadDifferential blocks until one signed differential sample is available.
	ReadDifferential() (int32, error)
	Close() error
}

// Battery reports the supply voltage as measured by the board.
type Battery interface {
	ReadBatteryMillivolts() (float64, error)
}

var (
	_ Source  = (*Serial)(nil)
	_ Battery = (*Serial)(nil)
	_ Source  = (*ADS1115)(nil)
	_ Source  = (*Mock)(nil)
	_ Battery = (*Mock)(nil)
)
