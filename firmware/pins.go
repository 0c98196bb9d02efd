//go:build tinygo

package main

import "machine"

const (
	// ADS1115 with ADDR tied to GND
	ADS1115_ADDRESS    = 0x48
	I2C_FREQUENCY      = 400 * machine.KHz
	CONVERSION_POLLS   = 20 // config register polls before giving up on a conversion
	CONVERSION_POLL_US = 1000

	// Battery divider on the MCU ADC
	PIN_BATTERY_ADC  = machine.A3
	ADC_REFERENCE_MV = 3300
	ADC_RESOLUTION   = 12
	BATTERY_DIVIDER  = 2

	// One request line is at most "G0A00"; replies are at most "B,6600.0"
	LINE_BUFFER_SIZE = 16
	UART_BAUD_RATE   = 115200
)
