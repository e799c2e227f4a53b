// Package motion drives the differential motor pair through an H-bridge
// and two PWM channels.
package motion

import (
	"fmt"

	"github.com/sweeney/wheelchair/internal/gpio"
)

// Direction is the motion state asserted on the bridge.
type Direction string

const (
	Forward  Direction = "Forward"
	Backward Direction = "Backward"
	Left     Direction = "Left"
	Right    Direction = "Right"
	Stopped  Direction = "Stopped"
)

// Patterns maps each direction to its IN1..IN4 levels.
// These five are the only patterns the actuator ever asserts.
var Patterns = map[Direction]gpio.BridgeLevels{
	Forward:  {true, false, true, false},
	Backward: {false, true, false, true},
	Left:     {true, false, false, true},
	Right:    {false, true, true, false},
	Stopped:  {false, false, false, false},
}

// DefaultSpeed is the duty value applied at boot.
const DefaultSpeed uint8 = 150

// PWM writes a compare value to both motor enable channels.
type PWM interface {
	SetCompare(value uint8) error
}

// Actuator owns the direction label, the bridge lines and the duty value.
type Actuator struct {
	bridge    gpio.Board
	pwm       PWM
	direction Direction
	speed     uint8
}

// NewActuator creates an Actuator. It does not touch the hardware until
// the first entry point is called.
func NewActuator(bridge gpio.Board, pwm PWM) *Actuator {
	return &Actuator{
		bridge:    bridge,
		pwm:       pwm,
		direction: Stopped,
		speed:     DefaultSpeed,
	}
}

func (a *Actuator) apply(d Direction) error {
	if err := a.bridge.SetBridge(Patterns[d]); err != nil {
		return fmt.Errorf("motion: %s: %w", d, err)
	}
	a.direction = d
	return nil
}

// Forward drives both motors forward.
func (a *Actuator) Forward() error { return a.apply(Forward) }

// Backward drives both motors in reverse.
func (a *Actuator) Backward() error { return a.apply(Backward) }

// Left spins the platform left.
func (a *Actuator) Left() error { return a.apply(Left) }

// Right spins the platform right.
func (a *Actuator) Right() error { return a.apply(Right) }

// Stop releases both motors.
func (a *Actuator) Stop() error { return a.apply(Stopped) }

// Move dispatches to the entry point for d.
func (a *Actuator) Move(d Direction) error {
	if _, ok := Patterns[d]; !ok {
		return fmt.Errorf("motion: unknown direction %q", d)
	}
	return a.apply(d)
}

// Direction returns the label of the last asserted pattern.
func (a *Actuator) Direction() Direction {
	return a.direction
}

// Speed returns the current duty value.
func (a *Actuator) Speed() uint8 {
	return a.speed
}

// SetSpeed stores speed and writes speed>>2 to both PWM channels,
// keeping the 6-bit effective resolution of the drive stage.
func (a *Actuator) SetSpeed(speed uint8) error {
	a.speed = speed
	if err := a.pwm.SetCompare(CompareValue(speed)); err != nil {
		return fmt.Errorf("motion: set speed %d: %w", speed, err)
	}
	return nil
}

// CompareValue returns the PWM compare register value for a duty value.
func CompareValue(speed uint8) uint8 {
	return speed >> 2
}
