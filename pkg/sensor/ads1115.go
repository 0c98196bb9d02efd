package sensor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/itohio/eanx/pkg/config"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/devices/ads1x15"
	"periph.io/x/periph/host"
)

// conversionRate is the requested ADS1115 data rate.
const conversionRate = 128 * physic.Hertz

// ADS1115 reads the cell directly from an ADS1115 on a host I2C bus
// (e.g. a Raspberry Pi) instead of going through the bridge firmware.
type ADS1115 struct {
	busName string
	addr    uint16
	gain    config.Gain

	mu  sync.Mutex
	bus i2c.BusCloser
	dev *ads1x15.Dev
	pin ads1x15.PinADC
}

// NewADS1115 creates an ADS1115 source. Call Connect before use.
func NewADS1115(cfg config.SourceConfig) (*ADS1115, error) {
	gain, err := config.LookupGain(cfg.Gain)
	if err != nil {
		return nil, err
	}

	addr := cfg.I2CAddress
	if addr == 0 {
		addr = ads1x15.DefaultOpts.I2cAddress
	}

	return &ADS1115{
		busName: cfg.I2CBus,
		addr:    addr,
		gain:    gain,
	}, nil
}

// Connect initializes the host drivers and opens the I2C bus.
func (a *ADS1115) Connect() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev != nil {
		return fmt.Errorf("already connected")
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("could not initialize host: %w", err)
	}

	bus, err := i2creg.Open(a.busName)
	if err != nil {
		return fmt.Errorf("could not open I2C bus %q: %w", a.busName, err)
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: a.addr})
	if err != nil {
		bus.Close()
		return fmt.Errorf("could not open ADS1115 at 0x%02x: %w", a.addr, err)
	}

	a.bus = bus
	a.dev = dev
	return nil
}

// ConfigureGain (re)creates the AIN0-AIN1 differential pin for the
// configured full-scale range.
func (a *ADS1115) ConfigureGain() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dev == nil {
		return 0, ErrNotConnected
	}

	maxVoltage := physic.ElectricPotential(a.gain.FullScale * float64(physic.Volt))
	pin, err := a.dev.PinForChannel(ads1x15.Channel0Minus1, maxVoltage, conversionRate, ads1x15.BestQuality)
	if err != nil {
		return 0, fmt.Errorf("could not configure gain %s: %w", a.gain.Name, err)
	}

	if a.pin != nil {
		_ = a.pin.Halt()
	}
	a.pin = pin

	return a.gain.Multiplier, nil
}

// ReadDifferential performs a single conversion.
func (a *ADS1115) ReadDifferential() (int32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pin == nil {
		return 0, ErrNotConnected
	}

	s, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ADS1115 conversion failed: %w", err)
	}
	return s.Raw, nil
}

// Close halts the converter and releases the bus.
func (a *ADS1115) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	if a.pin != nil {
		err = errors.Join(err, a.pin.Halt())
		a.pin = nil
	}
	if a.dev != nil {
		err = errors.Join(err, a.dev.Halt())
		a.dev = nil
	}
	if a.bus != nil {
		err = errors.Join(err, a.bus.Close())
		a.bus = nil
	}
	return err
}

func (a *ADS1115) String() string {
	return fmt.Sprintf("ADS1115{bus:%q, addr:0x%02x, gain:%s}", a.busName, a.addr, a.gain.Name)
}
