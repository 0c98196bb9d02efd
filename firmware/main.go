//go:build tinygo

//go:generate tinygo flash -target=xiao

// Bridge firmware: exposes an ADS1115 differential input and the battery
// divider over the serial line protocol in pkg/bridge.
package main

import (
	"errors"
	"machine"
	"time"

	"github.com/itohio/eanx/pkg/bridge"
)

var (
	i2c        = machine.I2C0
	uart       = machine.Serial
	adcBattery machine.ADC

	pga = bridge.PGA2

	// Serial buffer for reading lines
	serialBuffer [LINE_BUFFER_SIZE]byte
	serialPos    int
	overflow     bool

	reply []byte

	errConversionTimeout = errors.New("conversion timeout")
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	if err := i2c.Configure(machine.I2CConfig{
		Frequency: I2C_FREQUENCY,
		SDA:       machine.SDA_PIN,
		SCL:       machine.SCL_PIN,
	}); err != nil {
		println("i2c:", err.Error())
	}

	PIN_BATTERY_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcBattery = machine.ADC{Pin: PIN_BATTERY_ADC}
	adcBattery.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	reply = make([]byte, 0, LINE_BUFFER_SIZE)

	for {
		processSerial()
		time.Sleep(100 * time.Microsecond)
	}
}

func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' {
			if !overflow {
				handle(serialBuffer[:serialPos])
			} else {
				respond(bridge.AppendError(reply[:0], "overflow"))
			}
			serialPos = 0
			overflow = false
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		} else {
			overflow = true
		}
	}
}

func handle(line []byte) {
	cmd, err := bridge.ParseCommand(line)
	if err == bridge.ErrEmpty {
		return
	}
	if err != nil {
		respond(bridge.AppendError(reply[:0], "request"))
		return
	}

	switch cmd.Op {
	case bridge.CmdGain:
		pga = cmd.PGA
		respond(bridge.AppendOK(reply[:0]))

	case bridge.CmdSample:
		code, err := readDifferential()
		if err != nil {
			respond(bridge.AppendError(reply[:0], "i2c"))
			return
		}
		respond(bridge.AppendSample(reply[:0], code))

	case bridge.CmdBattery:
		mv := bridge.BatteryMillivolts(adcBattery.Get(), ADC_REFERENCE_MV, BATTERY_DIVIDER)
		respond(bridge.AppendBattery(reply[:0], mv))
	}
}

// readDifferential starts a single-shot AIN0-AIN1 conversion and waits for it.
func readDifferential() (int16, error) {
	var w [3]byte
	if err := i2c.Tx(ADS1115_ADDRESS, bridge.PutConfig(w[:0], bridge.RegConfig, bridge.SingleShotConfig(pga)), nil); err != nil {
		return 0, err
	}

	var r [2]byte
	ready := false
	for range CONVERSION_POLLS {
		time.Sleep(CONVERSION_POLL_US * time.Microsecond)
		if err := i2c.Tx(ADS1115_ADDRESS, []byte{bridge.RegConfig}, r[:]); err != nil {
			return 0, err
		}
		if bridge.ConversionReady(uint16(r[0])<<8 | uint16(r[1])) {
			ready = true
			break
		}
	}
	if !ready {
		return 0, errConversionTimeout
	}

	if err := i2c.Tx(ADS1115_ADDRESS, []byte{bridge.RegConversion}, r[:]); err != nil {
		return 0, err
	}
	return bridge.Code(r), nil
}

func respond(b []byte) {
	uart.Write(b)
}
