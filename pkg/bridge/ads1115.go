package bridge

// ADS1115 registers.
const (
	RegConversion = 0x00
	RegConfig     = 0x01
)

// Config register fields.
const (
	osSingle     = 0x8000 // start a single conversion; reads 1 when idle
	muxDiff01    = 0x0000 // AIN0 - AIN1
	pgaMask      = 0x0E00
	modeSingle   = 0x0100
	rate128      = 0x0080
	compQueueOff = 0x0003
)

// PGA settings.
const (
	PGA2_3 uint16 = 0x0000
	PGA1   uint16 = 0x0200
	PGA2   uint16 = 0x0400
	PGA4   uint16 = 0x0600
	PGA8   uint16 = 0x0800
	PGA16  uint16 = 0x0A00
)

// SingleShotConfig returns the config word that starts one AIN0-AIN1
// conversion at 128 SPS with the comparator disabled.
func SingleShotConfig(pga uint16) uint16 {
	return osSingle | muxDiff01 | (pga & pgaMask) | modeSingle | rate128 | compQueueOff
}

// ConversionReady reports whether a config register read shows no conversion
// in progress.
func ConversionReady(config uint16) bool {
	return config&osSingle != 0
}

// PutConfig encodes a register write.
func PutConfig(dst []byte, reg byte, v uint16) []byte {
	return append(dst, reg, byte(v>>8), byte(v))
}

// Code decodes a big-endian conversion register read.
func Code(b [2]byte) int16 {
	return int16(uint16(b[0])<<8 | uint16(b[1]))
}
