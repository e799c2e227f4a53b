// Package controller runs one iteration of the wheelchair control loop.
// All hardware is reached through capability interfaces; the caller owns
// pacing and passes the current timer reading to Step.
package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/wheelchair/internal/adc"
	"github.com/sweeney/wheelchair/internal/display"
	"github.com/sweeney/wheelchair/internal/gpio"
	"github.com/sweeney/wheelchair/internal/logic"
	"github.com/sweeney/wheelchair/internal/motion"
	"github.com/sweeney/wheelchair/internal/ranging"
	"github.com/sweeney/wheelchair/internal/serial"
	"github.com/sweeney/wheelchair/internal/telemetry"
)

// Fixed holds applied by the loop.
const (
	SettleDelay   = 300 * time.Millisecond
	BlinkDuration = 20 * time.Millisecond
)

// Hardware bundles the capabilities the controller drives.
type Hardware struct {
	Board   gpio.Board
	Range   ranging.Sensor
	ADC     adc.Sampler
	Link    *serial.Transport
	Display display.TextDisplay
	PWM     motion.PWM
}

// Options tunes the controller. Zero values select defaults.
type Options struct {
	MinDistance       uint16
	DisplayCycleTicks uint16
	TelemetryTicks    uint16

	// Sleep implements the settle, blink and splash holds. Defaults to time.Sleep.
	Sleep func(time.Duration)
}

// Result reports what one iteration did.
type Result struct {
	Distance  uint16
	Obstacle  bool
	Joystick  logic.Action
	Beat      bool
	Command   logic.Action
	Received  bool
	Telemetry *telemetry.Frame
}

// State is a point-in-time copy of the controller's observable state.
type State struct {
	Distance      uint16
	Obstacle      bool
	BPM           uint16
	Direction     motion.Direction
	Speed         uint8
	View          display.View
	Iterations    int
	Trips         int
	Beats         int
	RejectedBeats int
	Commands      int
	Ignored       int
	Overruns      int
	TelemetrySent int
	Faults        int
}

// Controller owns every piece of control state.
type Controller struct {
	hw    Hardware
	sleep func(time.Duration)

	safety    *logic.SafetyMonitor
	arbiter   logic.Arbiter
	pulse     *logic.PulseEstimator
	actuator  *motion.Actuator
	scheduler *display.Scheduler
	reporter  *telemetry.Reporter

	iterations int
	commands   int
	ignored    int
	faults     int
}

// New creates a Controller. It does not touch the hardware; call Boot first.
func New(hw Hardware, opts Options) *Controller {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Controller{
		hw:        hw,
		sleep:     sleep,
		safety:    logic.NewSafetyMonitor(opts.MinDistance),
		arbiter:   logic.NewArbiter(),
		pulse:     logic.NewPulseEstimator(),
		actuator:  motion.NewActuator(hw.Board, hw.PWM),
		scheduler: display.NewScheduler(hw.Display, opts.DisplayCycleTicks),
		reporter:  telemetry.NewReporter(hw.Link, opts.TelemetryTicks),
	}
}

// Boot shows the splash, applies the initial speed, stops the motors,
// silences the outputs and announces readiness. Only a failure to put the
// drive into a known state is returned; display and link errors are logged.
func (c *Controller) Boot() error {
	if err := c.scheduler.Splash(c.sleep); err != nil {
		c.fault("splash", err)
	}

	var errs []error
	if err := c.actuator.SetSpeed(motion.DefaultSpeed); err != nil {
		errs = append(errs, err)
	}
	if err := c.actuator.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := c.hw.Board.SetAlarm(false); err != nil {
		errs = append(errs, fmt.Errorf("alarm off: %w", err))
	}
	if err := c.hw.Board.SetIndicator(false); err != nil {
		errs = append(errs, fmt.Errorf("indicator off: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("boot: %w", err)
	}

	if err := c.reporter.Ready(); err != nil {
		c.fault("ready", err)
	}
	log.Printf("controller: ready (speed=%d)", c.actuator.Speed())
	return nil
}

// Step runs one control iteration at timer reading now.
func (c *Controller) Step(now logic.Tick) Result {
	c.iterations++
	var res Result

	// 1. Safety
	res.Distance = c.readDistance()
	trips := c.safety.Trips()
	res.Obstacle = c.safety.Update(res.Distance)
	if res.Obstacle {
		if c.safety.Trips() != trips {
			log.Printf("controller: obstacle at %dcm, stopping", res.Distance)
		}
		if err := c.hw.Board.SetAlarm(true); err != nil {
			c.fault("alarm on", err)
		}
		if err := c.actuator.Stop(); err != nil {
			c.fault("stop", err)
		}
	} else if err := c.hw.Board.SetAlarm(false); err != nil {
		c.fault("alarm off", err)
	}

	// 2. Joystick
	if !res.Obstacle {
		res.Joystick = c.arbiter.Joystick(c.readJoystick())
		c.apply(res.Joystick)
	}

	// 3. Pulse
	pr := c.pulse.Process(c.readChannel(adc.ChannelPulse), now)
	if pr.Beat {
		res.Beat = true
		c.blink()
	}

	// 4. Command link
	if c.hw.Link.Pending() {
		b, err := c.hw.Link.ReadByte()
		switch {
		case errors.Is(err, serial.ErrNoData):
		case err != nil:
			c.fault("serial read", err)
		default:
			res.Received = true
			if !res.Obstacle {
				res.Command = c.arbiter.Command(b)
				c.commands++
				if res.Command.Kind == logic.ActionNone {
					c.ignored++
					log.Printf("controller: ignoring command byte 0x%02x", b)
				}
				c.apply(res.Command)
			}
		}
	}

	// 5. Display
	if err := c.scheduler.Update(now, c.displayStatus()); err != nil {
		c.fault("display", err)
	}

	// 6. Telemetry
	frame := c.Frame()
	sent, err := c.reporter.Report(now, frame)
	if err != nil {
		c.fault("telemetry", err)
	}
	if sent {
		res.Telemetry = &frame
	}

	return res
}

// Shutdown stops the motors and silences the outputs.
func (c *Controller) Shutdown() error {
	var errs []error
	if err := c.actuator.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := c.hw.Board.SetAlarm(false); err != nil {
		errs = append(errs, fmt.Errorf("alarm off: %w", err))
	}
	if err := c.hw.Board.SetIndicator(false); err != nil {
		errs = append(errs, fmt.Errorf("indicator off: %w", err))
	}
	if err := c.hw.Display.Clear(); err != nil {
		errs = append(errs, fmt.Errorf("display clear: %w", err))
	}
	return errors.Join(errs...)
}

// Frame returns the telemetry record for the current state.
func (c *Controller) Frame() telemetry.Frame {
	return telemetry.Frame{
		Distance:  c.safety.Distance(),
		BPM:       c.pulse.BPM(),
		Direction: string(c.actuator.Direction()),
		Speed:     c.actuator.Speed(),
	}
}

// State returns a copy of the observable state.
func (c *Controller) State() State {
	return State{
		Distance:      c.safety.Distance(),
		Obstacle:      c.safety.Obstacle(),
		BPM:           c.pulse.BPM(),
		Direction:     c.actuator.Direction(),
		Speed:         c.actuator.Speed(),
		View:          c.scheduler.View(),
		Iterations:    c.iterations,
		Trips:         c.safety.Trips(),
		Beats:         c.pulse.Beats(),
		RejectedBeats: c.pulse.Rejected(),
		Commands:      c.commands,
		Ignored:       c.ignored,
		Overruns:      c.hw.Link.Overruns,
		TelemetrySent: c.reporter.Sent(),
		Faults:        c.faults,
	}
}

func (c *Controller) displayStatus() display.Status {
	return display.Status{
		Distance:  c.safety.Distance(),
		Obstacle:  c.safety.Obstacle(),
		BPM:       c.pulse.BPM(),
		Direction: string(c.actuator.Direction()),
	}
}

// apply executes an action on the actuator. A failed move falls back to Stop.
func (c *Controller) apply(act logic.Action) {
	switch act.Kind {
	case logic.ActionMove:
		if err := c.actuator.Move(act.Direction); err != nil {
			c.fault(string(act.Source)+" move", err)
			if err := c.actuator.Stop(); err != nil {
				c.fault("stop", err)
			}
			return
		}
		if act.Settle {
			c.sleep(SettleDelay)
		}
	case logic.ActionSpeed:
		if err := c.actuator.SetSpeed(act.Speed); err != nil {
			c.fault("set speed", err)
			return
		}
		log.Printf("controller: speed set to %d", act.Speed)
	}
}

func (c *Controller) blink() {
	if err := c.hw.Board.SetIndicator(true); err != nil {
		c.fault("indicator on", err)
		return
	}
	c.sleep(BlinkDuration)
	if err := c.hw.Board.SetIndicator(false); err != nil {
		c.fault("indicator off", err)
	}
}

func (c *Controller) readDistance() uint16 {
	d, err := c.hw.Range.Distance()
	if err != nil {
		c.fault("range", err)
		return 0
	}
	return d
}

func (c *Controller) readChannel(ch uint8) uint16 {
	v, err := c.hw.ADC.ReadChannel(ch)
	if err != nil {
		c.fault(fmt.Sprintf("adc channel %d", ch), err)
		return 0
	}
	return v
}

// readJoystick samples both axes and the button. A failed read yields a
// centered, released stick.
func (c *Controller) readJoystick() logic.JoystickSample {
	s := logic.JoystickSample{X: logic.JoystickCenter, Y: logic.JoystickCenter}
	x, errX := c.hw.ADC.ReadChannel(adc.ChannelJoystickX)
	y, errY := c.hw.ADC.ReadChannel(adc.ChannelJoystickY)
	if err := errors.Join(errX, errY); err != nil {
		c.fault("joystick", err)
		return s
	}
	s.X, s.Y = x, y
	pressed, err := c.hw.Board.SwitchPressed()
	if err != nil {
		c.fault("joystick switch", err)
		return s
	}
	s.Pressed = pressed
	return s
}

func (c *Controller) fault(what string, err error) {
	c.faults++
	log.Printf("controller: %s: %v", what, err)
}
