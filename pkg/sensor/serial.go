package sensor

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/eanx/pkg/bridge"
	"github.com/itohio/eanx/pkg/config"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the bridge firmware UART.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds a single request/response exchange.
	DefaultReadTimeout = time.Second
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// inputResetter is implemented by serial.Port.
type inputResetter interface {
	ResetInputBuffer() error
}

// Serial talks to the bridge firmware over a UART using the bridge line
// protocol.
type Serial struct {
	port     string
	baudRate int
	timeout  time.Duration
	gain     config.Gain

	mu      sync.Mutex
	conn    io.ReadWriteCloser
	pending []byte
}

// NewSerial creates a serial source for the given configuration. Call Connect
// before use.
func NewSerial(cfg config.SourceConfig) (*Serial, error) {
	gain, err := config.LookupGain(cfg.Gain)
	if err != nil {
		return nil, err
	}

	baudRate := cfg.BaudRate
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	timeout := cfg.ReadTimeout
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}

	return &Serial{
		port:     cfg.Port,
		baudRate: baudRate,
		timeout:  timeout,
		gain:     gain,
	}, nil
}

// NewSerialConn wraps an already opened connection. Reads on conn must
// return (0, nil) on timeout, as go.bug.st/serial ports do.
func NewSerialConn(conn io.ReadWriteCloser, gain config.Gain) *Serial {
	return &Serial{
		port:     "conn",
		baudRate: DefaultBaudRate,
		timeout:  DefaultReadTimeout,
		gain:     gain,
		conn:     conn,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(s.port, &serial.Mode{
		BaudRate: s.baudRate,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	if err := port.SetReadTimeout(s.timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", s.port, err)
	}

	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return fmt.Errorf("failed to flush %s: %w", s.port, err)
	}

	s.conn = port
	s.pending = s.pending[:0]

	return nil
}

// Close closes the serial port.
func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}

	err := s.conn.Close()
	s.conn = nil
	return err
}

// ConfigureGain sends the PGA setting to the bridge.
func (s *Serial) ConfigureGain() (float64, error) {
	resp, err := s.request(bridge.GainRequest(s.gain.PGA))
	if err != nil {
		return 0, fmt.Errorf("failed to configure gain %s: %w", s.gain.Name, err)
	}
	if resp != bridge.ReplyOK {
		return 0, fmt.Errorf("failed to configure gain %s: %w: %s", s.gain.Name, ErrProtocol, resp)
	}
	return s.gain.Multiplier, nil
}

// ReadDifferential requests one AIN0-AIN1 conversion.
func (s *Serial) ReadDifferential() (int32, error) {
	value, err := s.requestValue(bridge.SampleRequest())
	if err != nil {
		return 0, err
	}

	code, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid sample %q: %w", value, err)
	}
	return int32(code), nil
}

// ReadBatteryMillivolts requests the battery divider reading.
func (s *Serial) ReadBatteryMillivolts() (float64, error) {
	value, err := s.requestValue(bridge.BatteryRequest())
	if err != nil {
		return 0, err
	}

	mv, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid battery reading %q: %w", value, err)
	}
	return mv, nil
}

// requestValue sends cmd and returns the value of a "<cmd>,<value>" answer.
func (s *Serial) requestValue(cmd string) (string, error) {
	resp, err := s.request(cmd)
	if err != nil {
		return "", err
	}

	prefix, value, ok := strings.Cut(resp, ",")
	if !ok || prefix != cmd {
		return "", fmt.Errorf("%w: unexpected answer %q to %q", ErrProtocol, resp, cmd)
	}
	return value, nil
}

func (s *Serial) request(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return "", ErrNotConnected
	}

	// drop late replies to earlier requests
	s.pending = s.pending[:0]
	if r, ok := s.conn.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return "", fmt.Errorf("failed to flush %s: %w", s.port, err)
		}
	}

	if _, err := s.conn.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("failed to send %q: %w", cmd, err)
	}

	for {
		line, err := s.readLine()
		if err != nil {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
	}
}

// readLine returns the next newline-terminated line. A read that returns no
// data and no error is a port timeout.
func (s *Serial) readLine() (string, error) {
	var buf [64]byte
	for {
		if i := bytes.IndexByte(s.pending, '\n'); i >= 0 {
			line := string(s.pending[:i])
			s.pending = append(s.pending[:0], s.pending[i+1:]...)
			return line, nil
		}

		n, err := s.conn.Read(buf[:])
		if n > 0 {
			s.pending = append(s.pending, buf[:n]...)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read from %s: %w", s.port, err)
		}
		return "", ErrTimeout
	}
}

func (s *Serial) String() string {
	return fmt.Sprintf("Serial{port:%s, baud:%d, gain:%s}", s.port, s.baudRate, s.gain.Name)
}
