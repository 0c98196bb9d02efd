package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the analyzer configuration.
type Config struct {
	Board       BoardConfig       `yaml:"board"`
	Source      SourceConfig      `yaml:"source"`
	Filter      FilterConfig      `yaml:"filter"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Faults      FaultConfig       `yaml:"faults"`
	Mock        MockConfig        `yaml:"mock"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BoardConfig selects a board profile. BatteryScale overrides the profile's
// battery adjustment constant when non-zero.
type BoardConfig struct {
	Profile      string  `yaml:"profile"`
	BatteryScale float64 `yaml:"battery_scale"`
}

// SourceConfig describes where differential samples come from.
type SourceConfig struct {
	Kind        string        `yaml:"kind"` // serial, ads1115 or mock
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	I2CBus      string        `yaml:"i2c_bus"`     // empty picks the first available bus
	I2CAddress  uint16        `yaml:"i2c_address"` // 0x48 when zero
	Gain        string        `yaml:"gain"`        // ADS1115 PGA: 2/3, 1, 2, 4, 8, 16
}

// FilterConfig contains the running average size.
type FilterConfig struct {
	Size int `yaml:"size"`
}

// CalibrationConfig contains the two-pass calibration parameters.
type CalibrationConfig struct {
	ReferencePercent    float64       `yaml:"reference_percent"`
	PassMultiplier      int           `yaml:"pass_multiplier"` // samples per pass = multiplier * filter size
	SampleDelay         time.Duration `yaml:"sample_delay"`
	CheckDelay          time.Duration `yaml:"check_delay"`
	SettleDelay         time.Duration `yaml:"settle_delay"`
	RefineDelay         time.Duration `yaml:"refine_delay"`
	MaxDeviationPercent float64       `yaml:"max_deviation_percent"`
	MaxAttempts         int           `yaml:"max_attempts"` // 0 = unlimited
	Timeout             time.Duration `yaml:"timeout"`      // 0 = none
}

// MeasurementConfig contains per-cycle parameters.
type MeasurementConfig struct {
	SampleDelay      time.Duration `yaml:"sample_delay"`
	CycleDelay       time.Duration `yaml:"cycle_delay"`
	OxygenCeiling    float64       `yaml:"oxygen_ceiling"`
	PrimaryPPO2      float64       `yaml:"primary_ppo2"`
	SecondaryPPO2    float64       `yaml:"secondary_ppo2"`
	SecondaryEnabled bool          `yaml:"secondary_enabled"`
	Metric           bool          `yaml:"metric"`
}

// FaultConfig contains the advisory thresholds.
type FaultConfig struct {
	SensorLowMillivolts float64       `yaml:"sensor_low_mv"`
	BatteryLowVolts     float64       `yaml:"battery_low_v"`
	Hold                time.Duration `yaml:"hold"`
}

// MockConfig contains simulated cell parameters.
type MockConfig struct {
	OxygenPercent     float64 `yaml:"oxygen_percent"`
	AirMillivolts     float64 `yaml:"air_millivolts"` // cell output in 20.9% air
	NoiseLevel        float64 `yaml:"noise_level"`    // peak noise in ADC counts
	BatteryMillivolts float64 `yaml:"battery_mv"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a default configuration with the values the analyzer was
// tuned with.
func Default() *Config {
	return &Config{
		Board: BoardConfig{
			Profile: "generic",
		},
		Source: SourceConfig{
			Kind:        "serial",
			Port:        "/dev/ttyACM0",
			BaudRate:    115200,
			ReadTimeout: time.Second,
			I2CAddress:  0x48,
			Gain:        "2",
		},
		Filter: FilterConfig{
			Size: 20,
		},
		Calibration: CalibrationConfig{
			ReferencePercent:    20.9,
			PassMultiplier:      3,
			SampleDelay:         12 * time.Millisecond,
			CheckDelay:          36 * time.Millisecond,
			SettleDelay:         time.Second,
			RefineDelay:         2 * time.Second,
			MaxDeviationPercent: 0.15,
			MaxAttempts:         0,
		},
		Measurement: MeasurementConfig{
			SampleDelay:      8 * time.Millisecond,
			CycleDelay:       100 * time.Millisecond,
			OxygenCeiling:    99.9,
			PrimaryPPO2:      1.4,
			SecondaryPPO2:    1.6,
			SecondaryEnabled: true,
		},
		Faults: FaultConfig{
			SensorLowMillivolts: 7.1,
			BatteryLowVolts:     3.2,
			Hold:                5 * time.Second,
		},
		Mock: MockConfig{
			OxygenPercent:     20.9,
			AirMillivolts:     10.0,
			NoiseLevel:        0.5,
			BatteryMillivolts: 3900,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Filter.Size <= 0 {
		return fmt.Errorf("invalid filter size %d: must be positive", c.Filter.Size)
	}
	if c.Calibration.PassMultiplier <= 0 {
		return fmt.Errorf("invalid calibration pass multiplier %d: must be positive", c.Calibration.PassMultiplier)
	}
	if c.Calibration.ReferencePercent <= 0 {
		return fmt.Errorf("invalid calibration reference %.3f%%", c.Calibration.ReferencePercent)
	}
	if c.Calibration.MaxAttempts < 0 {
		return fmt.Errorf("invalid calibration max attempts %d", c.Calibration.MaxAttempts)
	}
	if c.Calibration.MaxDeviationPercent <= 0 {
		return fmt.Errorf("invalid calibration max deviation %.3f%%: must be positive", c.Calibration.MaxDeviationPercent)
	}
	if c.Measurement.OxygenCeiling <= 0 || c.Measurement.OxygenCeiling > 100 {
		return fmt.Errorf("invalid oxygen ceiling %.1f%%: must be in (0, 100]", c.Measurement.OxygenCeiling)
	}
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"source.read_timeout", c.Source.ReadTimeout},
		{"calibration.sample_delay", c.Calibration.SampleDelay},
		{"calibration.check_delay", c.Calibration.CheckDelay},
		{"calibration.settle_delay", c.Calibration.SettleDelay},
		{"calibration.refine_delay", c.Calibration.RefineDelay},
		{"calibration.timeout", c.Calibration.Timeout},
		{"measurement.sample_delay", c.Measurement.SampleDelay},
		{"measurement.cycle_delay", c.Measurement.CycleDelay},
		{"faults.hold", c.Faults.Hold},
	} {
		if d.v < 0 {
			return fmt.Errorf("invalid %s %v: must not be negative", d.name, d.v)
		}
	}
	if _, ok := gains[c.Source.Gain]; !ok {
		return fmt.Errorf("unknown ADC gain %q", c.Source.Gain)
	}
	if _, ok := boards[c.Board.Profile]; !ok {
		return fmt.Errorf("unknown board profile %q", c.Board.Profile)
	}
	if c.Measurement.PrimaryPPO2 <= 0 {
		return fmt.Errorf("invalid primary ppO2 %.2f: must be positive", c.Measurement.PrimaryPPO2)
	}
	if c.Measurement.SecondaryEnabled && c.Measurement.SecondaryPPO2 <= c.Measurement.PrimaryPPO2 {
		return fmt.Errorf("secondary ppO2 %.2f must be above primary %.2f",
			c.Measurement.SecondaryPPO2, c.Measurement.PrimaryPPO2)
	}
	switch c.Source.Kind {
	case "serial", "ads1115", "mock":
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Board.Profile == "" {
		c.Board.Profile = def.Board.Profile
	}

	if c.Source.Kind == "" {
		c.Source.Kind = def.Source.Kind
	}
	if c.Source.Port == "" {
		c.Source.Port = def.Source.Port
	}
	if c.Source.BaudRate == 0 {
		c.Source.BaudRate = def.Source.BaudRate
	}
	if c.Source.ReadTimeout == 0 {
		c.Source.ReadTimeout = def.Source.ReadTimeout
	}
	if c.Source.I2CAddress == 0 {
		c.Source.I2CAddress = def.Source.I2CAddress
	}
	if c.Source.Gain == "" {
		c.Source.Gain = def.Source.Gain
	}

	if c.Filter.Size == 0 {
		c.Filter.Size = def.Filter.Size
	}

	if c.Calibration.ReferencePercent == 0 {
		c.Calibration.ReferencePercent = def.Calibration.ReferencePercent
	}
	if c.Calibration.PassMultiplier == 0 {
		c.Calibration.PassMultiplier = def.Calibration.PassMultiplier
	}
	if c.Calibration.SampleDelay == 0 {
		c.Calibration.SampleDelay = def.Calibration.SampleDelay
	}
	if c.Calibration.CheckDelay == 0 {
		c.Calibration.CheckDelay = def.Calibration.CheckDelay
	}
	if c.Calibration.SettleDelay == 0 {
		c.Calibration.SettleDelay = def.Calibration.SettleDelay
	}
	if c.Calibration.RefineDelay == 0 {
		c.Calibration.RefineDelay = def.Calibration.RefineDelay
	}
	if c.Calibration.MaxDeviationPercent == 0 {
		c.Calibration.MaxDeviationPercent = def.Calibration.MaxDeviationPercent
	}

	if c.Measurement.SampleDelay == 0 {
		c.Measurement.SampleDelay = def.Measurement.SampleDelay
	}
	if c.Measurement.CycleDelay == 0 {
		c.Measurement.CycleDelay = def.Measurement.CycleDelay
	}
	if c.Measurement.OxygenCeiling == 0 {
		c.Measurement.OxygenCeiling = def.Measurement.OxygenCeiling
	}
	if c.Measurement.PrimaryPPO2 == 0 {
		c.Measurement.PrimaryPPO2 = def.Measurement.PrimaryPPO2
	}
	if c.Measurement.SecondaryPPO2 == 0 {
		c.Measurement.SecondaryPPO2 = def.Measurement.SecondaryPPO2
	}

	if c.Faults.SensorLowMillivolts == 0 {
		c.Faults.SensorLowMillivolts = def.Faults.SensorLowMillivolts
	}
	if c.Faults.BatteryLowVolts == 0 {
		c.Faults.BatteryLowVolts = def.Faults.BatteryLowVolts
	}
	if c.Faults.Hold == 0 {
		c.Faults.Hold = def.Faults.Hold
	}

	if c.Mock.OxygenPercent == 0 {
		c.Mock.OxygenPercent = def.Mock.OxygenPercent
	}
	if c.Mock.AirMillivolts == 0 {
		c.Mock.AirMillivolts = def.Mock.AirMillivolts
	}
	if c.Mock.BatteryMillivolts == 0 {
		c.Mock.BatteryMillivolts = def.Mock.BatteryMillivolts
	}

	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}
