// Package adc provides analog sampling behind a channel-number contract.
package adc

// MaxChannel is the highest valid channel number.
const MaxChannel = 7

// MaxSample is the largest value a 10-bit conversion can return.
const MaxSample = 1023

// Channels used by the controller.
const (
	ChannelJoystickX = 0
	ChannelJoystickY = 1
	ChannelPulse     = 2
)

// Sampler reads one 10-bit sample from an analog channel.
// Implementations return 0 for channels above MaxChannel without touching hardware.
type Sampler interface {
	ReadChannel(ch uint8) (uint16, error)
}

// Valid reports whether ch names a real channel.
func Valid(ch uint8) bool {
	return ch <= MaxChannel
}
