// Package logic contains the pure decision logic of the controller:
// obstacle detection, motion-source arbitration and pulse-rate estimation.
// This package has NO hardware dependencies (no GPIO, ADC, serial or sleeps).
// Time is always injected as a Tick.
package logic

import "github.com/sweeney/wheelchair/internal/motion"

// Tick is a reading of the 16-bit free-running timer.
type Tick uint16

// Since returns the ticks elapsed from prev to t, correct across one wrap.
func (t Tick) Since(prev Tick) uint16 {
	return uint16(t - prev)
}

// Source identifies where an Action came from.
type Source string

const (
	SourceNone     Source = ""
	SourceJoystick Source = "joystick"
	SourceSerial   Source = "serial"
)

// ActionKind classifies an Action.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMove
	ActionSpeed
)

// Action is a decision for the motion actuator.
type Action struct {
	Kind      ActionKind
	Source    Source
	Direction motion.Direction // for ActionMove
	Speed     uint8            // for ActionSpeed
	Settle    bool             // hold after a push-button stop
}

// JoystickSample is one reading of the joystick.
type JoystickSample struct {
	X       uint16
	Y       uint16
	Pressed bool
}
