// Package bridge is the line protocol spoken between the host and the bridge
// firmware, plus the ADS1115 register encoding the firmware needs. It avoids
// fmt so it stays small under TinyGo.
//
// One request per line:
//
//	G<pga hex>  -> OK | ERR <reason>
//	D           -> D,<signed code>
//	B           -> B,<millivolts>
package bridge

import (
	"errors"
	"strconv"

	"github.com/chewxy/math32"
)

// Request opcodes.
const (
	CmdGain    = 'G'
	CmdSample  = 'D'
	CmdBattery = 'B'
)

// Replies.
const (
	ReplyOK  = "OK"
	ReplyErr = "ERR"
)

// MCU ADC readings are scaled to 16 bits regardless of resolution.
const adcFullScale = 0xFFFF

var (
	ErrEmpty   = errors.New("bridge: empty request")
	ErrUnknown = errors.New("bridge: unknown request")
	ErrGain    = errors.New("bridge: invalid gain")
)

// Command is a parsed request.
type Command struct {
	Op  byte
	PGA uint16 // only for CmdGain
}

// GainRequest encodes a gain request for the PGA bits of the config register.
func GainRequest(pga uint16) string {
	s := strconv.FormatUint(uint64(pga), 16)
	for len(s) < 4 {
		s = "0" + s
	}
	return string(rune(CmdGain)) + upper(s)
}

// SampleRequest is the differential sample request.
func SampleRequest() string { return string(rune(CmdSample)) }

// BatteryRequest is the battery request.
func BatteryRequest() string { return string(rune(CmdBattery)) }

// ParseCommand parses one request line without its terminator.
func ParseCommand(line []byte) (Command, error) {
	line = trim(line)
	if len(line) == 0 {
		return Command{}, ErrEmpty
	}

	switch line[0] {
	case CmdSample, CmdBattery:
		if len(line) != 1 {
			return Command{}, ErrUnknown
		}
		return Command{Op: line[0]}, nil
	case CmdGain:
		v, err := strconv.ParseUint(string(line[1:]), 16, 16)
		if err != nil || uint16(v)&^pgaMask != 0 || uint16(v) > PGA16 {
			return Command{}, ErrGain
		}
		return Command{Op: CmdGain, PGA: uint16(v)}, nil
	}
	return Command{}, ErrUnknown
}

// AppendOK appends the gain acknowledgement.
func AppendOK(dst []byte) []byte {
	return append(append(dst, ReplyOK...), '\n')
}

// AppendError appends an error reply.
func AppendError(dst []byte, reason string) []byte {
	dst = append(dst, ReplyErr...)
	if reason != "" {
		dst = append(append(dst, ' '), reason...)
	}
	return append(dst, '\n')
}

// AppendSample appends a sample reply.
func AppendSample(dst []byte, code int16) []byte {
	dst = append(dst, CmdSample, ',')
	dst = strconv.AppendInt(dst, int64(code), 10)
	return append(dst, '\n')
}

// AppendBattery appends a battery reply with one decimal.
func AppendBattery(dst []byte, mv float32) []byte {
	dst = append(dst, CmdBattery, ',')
	dst = strconv.AppendFloat(dst, float64(mv), 'f', 1, 32)
	return append(dst, '\n')
}

// BatteryMillivolts converts a 16-bit scaled MCU ADC reading to millivolts at
// the battery, given the ADC reference and the divider ratio. The result is
// rounded to 0.1 mV.
func BatteryMillivolts(raw uint16, referenceMV, divider float32) float32 {
	mv := float32(raw) / adcFullScale * referenceMV * divider
	return math32.Round(mv*10) / 10
}

func trim(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t' || b[0] == '\r') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
