// Package gpio provides the controller's digital I/O with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// BridgeLevels holds the logical levels of the H-bridge inputs IN1..IN4.
type BridgeLevels [4]bool

// Board drives and samples the digital lines of the platform.
type Board interface {
	// SetBridge writes all four H-bridge lines in one operation.
	SetBridge(levels BridgeLevels) error

	// SetAlarm switches the obstacle buzzer.
	SetAlarm(on bool) error

	// SetIndicator switches the pulse indicator LED.
	SetIndicator(on bool) error

	// SwitchPressed reports the joystick push-button.
	// The raw line is active low: raw 0 = pressed.
	SwitchPressed() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Pins holds line offsets (BCM numbering) on the GPIO chip.
type Pins struct {
	IN1       int
	IN2       int
	IN3       int
	IN4       int
	Alarm     int
	Indicator int
	Switch    int
}

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// DefaultPins returns the wiring used on the reference Raspberry Pi harness.
func DefaultPins() Pins {
	return Pins{
		IN1:       17,
		IN2:       27,
		IN3:       22,
		IN4:       23,
		Alarm:     24,
		Indicator: 25,
		Switch:    5,
	}
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
