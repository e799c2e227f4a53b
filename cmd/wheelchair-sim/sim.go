package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/wheelchair/internal/adc"
	"github.com/sweeney/wheelchair/internal/controller"
	"github.com/sweeney/wheelchair/internal/display"
	"github.com/sweeney/wheelchair/internal/gpio"
	"github.com/sweeney/wheelchair/internal/logic"
	"github.com/sweeney/wheelchair/internal/motion"
	"github.com/sweeney/wheelchair/internal/ranging"
	"github.com/sweeney/wheelchair/internal/serial"
)

// sim is a controller running on fake hardware, stepped by hand.
type sim struct {
	board   *gpio.FakeBoard
	rng     *ranging.FakeSensor
	sampler *adc.FakeSampler
	port    *serial.FakePort
	lcd     *display.FakeDisplay
	pwm     *motion.FakePWM
	ctrl    *controller.Controller

	tick         logic.Tick
	ticksPerStep uint16
}

func newSim(opts controller.Options, ticksPerStep uint16) (*sim, error) {
	if ticksPerStep == 0 {
		ticksPerStep = 10
	}
	s := &sim{
		board:        gpio.NewFakeBoard(),
		rng:          ranging.NewFakeSensor(200),
		sampler:      adc.NewFakeSampler(),
		port:         serial.NewFakePort(),
		lcd:          display.NewFakeDisplay(),
		pwm:          &motion.FakePWM{},
		ticksPerStep: ticksPerStep,
	}
	s.sampler.Set(adc.ChannelJoystickX, logic.JoystickCenter)
	s.sampler.Set(adc.ChannelJoystickY, logic.JoystickCenter)
	if opts.Sleep == nil {
		opts.Sleep = func(time.Duration) {}
	}
	s.ctrl = controller.New(controller.Hardware{
		Board:   s.board,
		Range:   s.rng,
		ADC:     s.sampler,
		Link:    serial.NewTransport(s.port),
		Display: s.lcd,
		PWM:     s.pwm,
	}, opts)
	if err := s.ctrl.Boot(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseUint16(arg string) (uint16, error) {
	v, err := strconv.ParseUint(arg, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", arg)
	}
	return uint16(v), nil
}

// setDistance scripts the range sensor. Several values are consumed one per
// step; the last one repeats.
func (s *sim) setDistance(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: dist CM [CM...]")
	}
	readings := make([]uint16, 0, len(args))
	for _, a := range args {
		v, err := parseUint16(a)
		if err != nil {
			return err
		}
		readings = append(readings, v)
	}
	s.rng.Set(readings[0])
	s.rng.Readings = readings
	return nil
}

func (s *sim) setJoystick(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: joy X Y")
	}
	x, err := parseUint16(args[0])
	if err != nil {
		return err
	}
	y, err := parseUint16(args[1])
	if err != nil {
		return err
	}
	s.sampler.Set(adc.ChannelJoystickX, x)
	s.sampler.Set(adc.ChannelJoystickY, y)
	return nil
}

func (s *sim) setPressed(pressed bool) {
	s.board.Switch = []bool{pressed}
}

// setPulse scripts the pulse channel, one sample per step.
func (s *sim) setPulse(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pulse SAMPLE [SAMPLE...]")
	}
	samples := make([]uint16, 0, len(args))
	for _, a := range args {
		v, err := parseUint16(a)
		if err != nil {
			return err
		}
		samples = append(samples, v)
	}
	s.sampler.Set(adc.ChannelPulse, samples...)
	return nil
}

// send queues the characters of each argument on the command link.
func (s *sim) send(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: send TEXT")
	}
	s.port.Inject([]byte(strings.Join(args, ""))...)
	return nil
}

func (s *sim) overrun() {
	s.port.OverrunFlag = true
}

// step runs n iterations and returns one line per iteration that did
// something worth reporting.
func (s *sim) step(args []string) ([]string, error) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return nil, fmt.Errorf("invalid step count %q", args[0])
		}
		n = v
	}
	var out []string
	for i := 0; i < n; i++ {
		now := s.tick
		res := s.ctrl.Step(now)
		s.tick += logic.Tick(s.ticksPerStep)
		if line := describe(now, res); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

func describe(now logic.Tick, res controller.Result) string {
	var parts []string
	if res.Obstacle {
		parts = append(parts, fmt.Sprintf("obstacle %dcm", res.Distance))
	}
	if res.Joystick.Kind != logic.ActionNone {
		parts = append(parts, "joystick "+describeAction(res.Joystick))
	}
	if res.Beat {
		parts = append(parts, "beat")
	}
	if res.Received {
		if res.Command.Kind == logic.ActionNone {
			parts = append(parts, "serial ignored")
		} else {
			parts = append(parts, "serial "+describeAction(res.Command))
		}
	}
	if res.Telemetry != nil {
		parts = append(parts, "tx "+strings.TrimSpace(res.Telemetry.Format()))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("t=%d: %s", now, strings.Join(parts, ", "))
}

func describeAction(a logic.Action) string {
	switch a.Kind {
	case logic.ActionMove:
		return string(a.Direction)
	case logic.ActionSpeed:
		return fmt.Sprintf("speed %d", a.Speed)
	}
	return "none"
}

// show renders the LCD, outputs and counters.
func (s *sim) show() string {
	st := s.ctrl.State()
	var w bytes.Buffer
	fmt.Fprintf(&w, "+%s+\n", strings.Repeat("-", display.Width))
	for l := 0; l < display.Lines; l++ {
		fmt.Fprintf(&w, "|%-*s|\n", display.Width, s.lcd.Line(l))
	}
	fmt.Fprintf(&w, "+%s+\n", strings.Repeat("-", display.Width))
	fmt.Fprintf(&w, "tick=%d distance=%dcm obstacle=%t bpm=%d\n", s.tick, st.Distance, st.Obstacle, st.BPM)
	fmt.Fprintf(&w, "direction=%s speed=%d pwm=%d bridge=%v\n", st.Direction, st.Speed, s.pwm.Value, s.board.Bridge)
	fmt.Fprintf(&w, "alarm=%t indicator=%t pulses=%d\n", s.board.Alarm, s.board.Indicator, s.board.IndicatorPulses)
	fmt.Fprintf(&w, "iterations=%d trips=%d beats=%d commands=%d ignored=%d overruns=%d telemetry=%d faults=%d",
		st.Iterations, st.Trips, st.Beats, st.Commands, st.Ignored, st.Overruns, st.TelemetrySent, st.Faults)
	return w.String()
}

// drainSerial returns and forgets everything written to the link.
func (s *sim) drainSerial() string {
	out := s.port.Written.String()
	s.port.Written.Reset()
	return out
}
