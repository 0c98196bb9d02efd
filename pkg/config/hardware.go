package config

import (
	"fmt"
	"sort"
)

// Gain describes one ADS1115 programmable gain setting.
type Gain struct {
	Name       string
	PGA        uint16  // PGA bits of the ADS1115 config register
	FullScale  float64 // +/- full-scale input range (V)
	Multiplier float64 // millivolts per LSB for 16-bit results
}

// ADS1115 gain table. Single-ended or differential, the LSB size only depends on the PGA.
var gains = map[string]Gain{
	"2/3": {Name: "2/3", PGA: 0x0000, FullScale: 6.144, Multiplier: 0.1875},
	"1":   {Name: "1", PGA: 0x0200, FullScale: 4.096, Multiplier: 0.125},
	"2":   {Name: "2", PGA: 0x0400, FullScale: 2.048, Multiplier: 0.0625},
	"4":   {Name: "4", PGA: 0x0600, FullScale: 1.024, Multiplier: 0.03125},
	"8":   {Name: "8", PGA: 0x0800, FullScale: 0.512, Multiplier: 0.015625},
	"16":  {Name: "16", PGA: 0x0A00, FullScale: 0.256, Multiplier: 0.0078125},
}

// LookupGain returns the gain setting for the given name.
func LookupGain(name string) (Gain, error) {
	g, ok := gains[name]
	if !ok {
		return Gain{}, fmt.Errorf("unknown ADC gain %q", name)
	}
	return g, nil
}

// Board is a hardware profile: pin mapping and battery gauge scaling.
// Pins set to -1 are not connected.
type Board struct {
	Name         string
	MCU          string
	SDA          int
	SCL          int
	Button       int
	HasBattery   bool
	BatteryScale float64 // applied to the battery ADC reading in volts
}

var boards = map[string]Board{
	"generic":        {Name: "generic", MCU: "Unknown", SDA: -1, SCL: -1, Button: -1},
	"xiao-m0":        {Name: "xiao-m0", MCU: "Seeed Xiao M0", SDA: 4, SCL: 5, Button: 1},
	"xiao-esp32c3":   {Name: "xiao-esp32c3", MCU: "Seeed Xiao ESP32 C3", SDA: 6, SCL: 7, Button: 3, HasBattery: true, BatteryScale: 0.85},
	"esp32-pico":     {Name: "esp32-pico", MCU: "ESP32 Pico D4", SDA: 21, SCL: 22, Button: 4, HasBattery: true, BatteryScale: 4.0},
	"arduino-nano":   {Name: "arduino-nano", MCU: "Arduino Nano", SDA: 23, SCL: 24, Button: 2},
	"tinys3":         {Name: "tinys3", MCU: "UM Tiny S3 ESP32", SDA: 8, SCL: 9, Button: 4, HasBattery: true, BatteryScale: 1.0},
	"t-display-s3":   {Name: "t-display-s3", MCU: "T-Display S3", SDA: 18, SCL: 17, Button: 14, HasBattery: true, BatteryScale: 1.0},
	"ttgo-t-oi-plus": {Name: "ttgo-t-oi-plus", MCU: "TTGO T-OI PLUS RISC-V ESP32-C3", SDA: 19, SCL: 18, Button: 9, HasBattery: true, BatteryScale: 1.0},
}

// Boards returns the names of all known board profiles.
func Boards() []string {
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveBoard returns the selected board profile with the configured
// battery scale override applied.
func (c *Config) ResolveBoard() (Board, error) {
	b, ok := boards[c.Board.Profile]
	if !ok {
		return Board{}, fmt.Errorf("unknown board profile %q", c.Board.Profile)
	}
	if c.Board.BatteryScale != 0 {
		b.BatteryScale = c.Board.BatteryScale
	}
	return b, nil
}

// ResolveGain returns the configured ADC gain setting.
func (c *Config) ResolveGain() (Gain, error) {
	return LookupGain(c.Source.Gain)
}
