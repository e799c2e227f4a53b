package logic

import "github.com/sweeney/wheelchair/internal/motion"

// Joystick calibration defaults for a 10-bit two-axis stick.
const (
	JoystickCenter    = 512
	JoystickThreshold = 200
)

// Serial command bytes.
const (
	CmdForward  = 'F'
	CmdBackward = 'B'
	CmdLeft     = 'L'
	CmdRight    = 'R'
	CmdStop     = 'S'
)

// Arbiter maps raw motion-source inputs to actions.
type Arbiter struct {
	Center    uint16
	Threshold uint16
}

// NewArbiter creates an Arbiter with the default joystick calibration.
func NewArbiter() Arbiter {
	return Arbiter{Center: JoystickCenter, Threshold: JoystickThreshold}
}

// Joystick decides on a joystick sample. Y takes precedence over X, and
// the push-button only counts when the stick is centered. Pushing the stick
// up lowers Y, so low Y means Forward.
func (a Arbiter) Joystick(s JoystickSample) Action {
	low := a.Center - a.Threshold
	high := a.Center + a.Threshold

	move := func(d motion.Direction) Action {
		return Action{Kind: ActionMove, Source: SourceJoystick, Direction: d}
	}

	switch {
	case s.Y < low:
		return move(motion.Forward)
	case s.Y > high:
		return move(motion.Backward)
	case s.X < low:
		return move(motion.Left)
	case s.X > high:
		return move(motion.Right)
	case s.Pressed:
		act := move(motion.Stopped)
		act.Settle = true
		return act
	}
	return Action{}
}

// Command decides on one received serial byte. Digits set the speed to
// digit*25+30; unknown bytes yield ActionNone.
func (a Arbiter) Command(b byte) Action {
	move := func(d motion.Direction) Action {
		return Action{Kind: ActionMove, Source: SourceSerial, Direction: d}
	}

	switch b {
	case CmdForward:
		return move(motion.Forward)
	case CmdBackward:
		return move(motion.Backward)
	case CmdLeft:
		return move(motion.Left)
	case CmdRight:
		return move(motion.Right)
	case CmdStop:
		return move(motion.Stopped)
	}
	if b >= '0' && b <= '9' {
		return Action{Kind: ActionSpeed, Source: SourceSerial, Speed: SpeedForDigit(b - '0')}
	}
	return Action{Source: SourceSerial}
}

// SpeedForDigit returns the duty value selected by a digit command.
func SpeedForDigit(d byte) uint8 {
	return d*25 + 30
}
