package controller

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sweeney/wheelchair/internal/adc"
	"github.com/sweeney/wheelchair/internal/display"
	"github.com/sweeney/wheelchair/internal/gpio"
	"github.com/sweeney/wheelchair/internal/logic"
	"github.com/sweeney/wheelchair/internal/motion"
	"github.com/sweeney/wheelchair/internal/ranging"
	"github.com/sweeney/wheelchair/internal/serial"
)

type rig struct {
	board  *gpio.FakeBoard
	rng    *ranging.FakeSensor
	adc    *adc.FakeSampler
	port   *serial.FakePort
	disp   *display.FakeDisplay
	pwm    *motion.FakePWM
	sleeps []time.Duration
	ctrl   *Controller
}

// newRig builds a booted controller with a clear path and a centered stick.
func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		board: gpio.NewFakeBoard(),
		rng:   ranging.NewFakeSensor(100),
		adc:   adc.NewFakeSampler(),
		port:  serial.NewFakePort(),
		disp:  display.NewFakeDisplay(),
		pwm:   &motion.FakePWM{},
	}
	r.adc.Set(adc.ChannelJoystickX, 512)
	r.adc.Set(adc.ChannelJoystickY, 512)
	r.ctrl = New(Hardware{
		Board:   r.board,
		Range:   r.rng,
		ADC:     r.adc,
		Link:    serial.NewTransport(r.port),
		Display: r.disp,
		PWM:     r.pwm,
	}, Options{Sleep: func(d time.Duration) { r.sleeps = append(r.sleeps, d) }})
	if err := r.ctrl.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	r.sleeps = nil
	r.board.BridgeWrites = nil
	r.port.Written.Reset()
	return r
}

var (
	forward  = motion.Patterns[motion.Forward]
	backward = motion.Patterns[motion.Backward]
	stopped  = motion.Patterns[motion.Stopped]
)

func TestBoot(t *testing.T) {
	board := gpio.NewFakeBoard()
	board.Alarm = true
	port := serial.NewFakePort()
	disp := display.NewFakeDisplay()
	pwm := &motion.FakePWM{}
	var sleeps []time.Duration

	c := New(Hardware{
		Board:   board,
		Range:   ranging.NewFakeSensor(),
		ADC:     adc.NewFakeSampler(),
		Link:    serial.NewTransport(port),
		Display: disp,
		PWM:     pwm,
	}, Options{Sleep: func(d time.Duration) { sleeps = append(sleeps, d) }})

	if err := c.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if diff := cmp.Diff([]time.Duration{display.SplashHold}, sleeps); diff != "" {
		t.Errorf("sleeps (-want +got):\n%s", diff)
	}
	if got := port.Written.String(); got != "SYSTEM:READY\r\n" {
		t.Errorf("written = %q", got)
	}
	if pwm.Value != 37 {
		t.Errorf("pwm = %d, want 150>>2 = 37", pwm.Value)
	}
	if diff := cmp.Diff([]gpio.BridgeLevels{stopped}, board.BridgeWrites); diff != "" {
		t.Errorf("bridge writes (-want +got):\n%s", diff)
	}
	if board.Alarm || board.Indicator {
		t.Error("alarm or indicator left on after boot")
	}
	if disp.Line(0) != "" {
		t.Errorf("splash not cleared: %q", disp.Line(0))
	}
	if got := c.State(); got.Speed != 150 || got.Direction != motion.Stopped {
		t.Errorf("state = %+v", got)
	}
}

func TestBootFailsWhenBridgeUnavailable(t *testing.T) {
	board := gpio.NewFakeBoard()
	board.WriteError = errors.New("line busy")
	c := New(Hardware{
		Board:   board,
		Range:   ranging.NewFakeSensor(),
		ADC:     adc.NewFakeSampler(),
		Link:    serial.NewTransport(serial.NewFakePort()),
		Display: display.NewFakeDisplay(),
		PWM:     &motion.FakePWM{},
	}, Options{Sleep: func(time.Duration) {}})

	if err := c.Boot(); !errors.Is(err, board.WriteError) {
		t.Errorf("Boot() = %v, want wrapped line busy", err)
	}
}

func TestObstacleStopsAndSuppresses(t *testing.T) {
	r := newRig(t)
	r.rng.Set(10)
	r.adc.Set(adc.ChannelJoystickY, 100)
	r.port.Inject('F')

	res := r.ctrl.Step(1)

	if !res.Obstacle || res.Distance != 10 {
		t.Fatalf("result = %+v", res)
	}
	if !r.board.Alarm {
		t.Error("alarm off, want on")
	}
	if diff := cmp.Diff([]gpio.BridgeLevels{stopped}, r.board.BridgeWrites); diff != "" {
		t.Errorf("bridge writes (-want +got):\n%s", diff)
	}
	if len(r.port.Incoming) != 0 {
		t.Error("command byte not consumed while suppressed")
	}
	if !res.Received || res.Command.Kind != logic.ActionNone {
		t.Errorf("command = %+v received=%v, want consumed and not dispatched", res.Command, res.Received)
	}
	if r.disp.Line(0) != "Distance:" || r.disp.Line(1) != "10cm STOP!" {
		t.Errorf("display = %q / %q", r.disp.Line(0), r.disp.Line(1))
	}
	if got := r.ctrl.State(); got.Direction != motion.Stopped || got.Trips != 1 || got.Commands != 0 {
		t.Errorf("state = %+v", got)
	}
}

func TestObstacleClearsWithoutHysteresis(t *testing.T) {
	r := newRig(t)
	r.rng.Readings = []uint16{24, 25}

	if res := r.ctrl.Step(1); !res.Obstacle {
		t.Fatal("24cm should be an obstacle")
	}
	if res := r.ctrl.Step(2); res.Obstacle {
		t.Fatal("25cm should clear the obstacle")
	}
	if r.board.Alarm {
		t.Error("alarm still on after clearing")
	}
}

func TestNoEchoIsNotAnObstacle(t *testing.T) {
	r := newRig(t)
	r.rng.Set(0)
	if res := r.ctrl.Step(1); res.Obstacle {
		t.Error("distance 0 treated as obstacle")
	}
}

func TestDigitCommandSetsSpeed(t *testing.T) {
	r := newRig(t)
	r.port.Inject('7')

	res := r.ctrl.Step(1)

	want := logic.Action{Kind: logic.ActionSpeed, Source: logic.SourceSerial, Speed: 205}
	if diff := cmp.Diff(want, res.Command); diff != "" {
		t.Errorf("command (-want +got):\n%s", diff)
	}
	if r.pwm.Value != 51 {
		t.Errorf("pwm = %d, want 205>>2 = 51", r.pwm.Value)
	}
	if r.ctrl.State().Speed != 205 {
		t.Errorf("speed = %d", r.ctrl.State().Speed)
	}
}

func TestJoystickForward(t *testing.T) {
	r := newRig(t)
	r.adc.Set(adc.ChannelJoystickY, 100)

	r.ctrl.Step(1)

	if r.board.Bridge != forward {
		t.Errorf("bridge = %v, want %v", r.board.Bridge, forward)
	}
	if r.ctrl.State().Direction != motion.Forward {
		t.Errorf("direction = %s", r.ctrl.State().Direction)
	}
}

func TestJoystickButtonStopsAndSettles(t *testing.T) {
	r := newRig(t)
	r.adc.Set(adc.ChannelJoystickY, 100)
	r.ctrl.Step(1)

	r.adc.Set(adc.ChannelJoystickY, 512)
	r.board.Switch = []bool{true}
	r.ctrl.Step(2)

	if diff := cmp.Diff([]gpio.BridgeLevels{forward, stopped}, r.board.BridgeWrites); diff != "" {
		t.Errorf("bridge writes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Duration{SettleDelay}, r.sleeps); diff != "" {
		t.Errorf("sleeps (-want +got):\n%s", diff)
	}
}

func TestCenteredJoystickKeepsMotion(t *testing.T) {
	r := newRig(t)
	r.port.Inject('F')
	r.ctrl.Step(1)
	r.ctrl.Step(2)

	if diff := cmp.Diff([]gpio.BridgeLevels{forward}, r.board.BridgeWrites); diff != "" {
		t.Errorf("bridge writes (-want +got):\n%s", diff)
	}
}

func TestSerialOverridesJoystickInSamePass(t *testing.T) {
	r := newRig(t)
	r.adc.Set(adc.ChannelJoystickY, 100)
	r.port.Inject('B')

	res := r.ctrl.Step(1)

	if res.Joystick.Direction != motion.Forward || res.Command.Direction != motion.Backward {
		t.Errorf("result = %+v", res)
	}
	if diff := cmp.Diff([]gpio.BridgeLevels{forward, backward}, r.board.BridgeWrites); diff != "" {
		t.Errorf("bridge writes (-want +got):\n%s", diff)
	}
	if r.ctrl.State().Direction != motion.Backward {
		t.Errorf("direction = %s", r.ctrl.State().Direction)
	}
}

func TestUnknownCommandIgnored(t *testing.T) {
	r := newRig(t)
	r.port.Inject('x')

	res := r.ctrl.Step(1)

	if !res.Received || res.Command.Kind != logic.ActionNone {
		t.Errorf("result = %+v", res)
	}
	if len(r.board.BridgeWrites) != 0 {
		t.Errorf("bridge writes = %v, want none", r.board.BridgeWrites)
	}
	if got := r.ctrl.State(); got.Ignored != 1 || got.Commands != 1 {
		t.Errorf("state = %+v", got)
	}
}

func TestOverrunDoesNotHang(t *testing.T) {
	r := newRig(t)
	r.port.OverrunFlag = true

	done := make(chan Result, 1)
	go func() { done <- r.ctrl.Step(1) }()

	select {
	case res := <-done:
		if res.Received {
			t.Error("reported a byte that never arrived")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Step did not return after overrun")
	}
	if r.port.Resets != 1 {
		t.Errorf("resets = %d, want 1", r.port.Resets)
	}
	if r.ctrl.State().Overruns != 1 {
		t.Errorf("overruns = %d, want 1", r.ctrl.State().Overruns)
	}
}

func TestOverrunThenByte(t *testing.T) {
	r := newRig(t)
	r.port.OverrunFlag = true
	r.port.Inject('L')

	res := r.ctrl.Step(1)

	if res.Command.Direction != motion.Left {
		t.Errorf("command = %+v", res.Command)
	}
}

func TestPulseBeatBlinksIndicator(t *testing.T) {
	r := newRig(t)
	r.adc.Set(adc.ChannelPulse, 200, 800)

	if res := r.ctrl.Step(0); res.Beat {
		t.Fatal("beat on first sample")
	}
	res := r.ctrl.Step(50)
	if !res.Beat {
		t.Fatal("no beat on rising edge 50 ticks after start")
	}
	if r.board.IndicatorPulses != 1 || r.board.Indicator {
		t.Errorf("indicator pulses = %d on = %v", r.board.IndicatorPulses, r.board.Indicator)
	}
	if diff := cmp.Diff([]time.Duration{BlinkDuration}, r.sleeps); diff != "" {
		t.Errorf("sleeps (-want +got):\n%s", diff)
	}
}

func TestDisplayCycle(t *testing.T) {
	r := newRig(t)
	r.rng.Set(80)

	r.ctrl.Step(10)
	if r.disp.Line(1) != "80 cm" {
		t.Errorf("line 1 = %q", r.disp.Line(1))
	}
	r.ctrl.Step(200)
	if r.disp.Line(0) != "Heart Rate:" || r.disp.Line(1) != "0 BPM" {
		t.Errorf("display = %q / %q", r.disp.Line(0), r.disp.Line(1))
	}
	r.ctrl.Step(400)
	if r.disp.Line(0) != "Direction:" || r.disp.Line(1) != "Stopped" {
		t.Errorf("display = %q / %q", r.disp.Line(0), r.disp.Line(1))
	}
	if r.ctrl.State().View != display.ViewDirection {
		t.Errorf("view = %v", r.ctrl.State().View)
	}
}

func TestTelemetryCadence(t *testing.T) {
	r := newRig(t)
	r.rng.Set(120)

	var frames []string
	for _, tick := range []logic.Tick{10, 50, 100, 150, 200} {
		if res := r.ctrl.Step(tick); res.Telemetry != nil {
			frames = append(frames, res.Telemetry.Format())
		}
	}

	want := []string{
		"DIST:120cm,BPM:0,DIR:Stopped,SPD:150\r\n",
		"DIST:120cm,BPM:0,DIR:Stopped,SPD:150\r\n",
	}
	if diff := cmp.Diff(want, frames); diff != "" {
		t.Errorf("frames (-want +got):\n%s", diff)
	}
	if got := r.port.Written.String(); got != strings.Join(want, "") {
		t.Errorf("written = %q", got)
	}
}

func TestSensorFaultsDegradeSafely(t *testing.T) {
	r := newRig(t)
	r.rng.ReadError = errors.New("no echo line")
	r.adc.ReadError = errors.New("spi timeout")

	res := r.ctrl.Step(1)

	if res.Distance != 0 || res.Obstacle {
		t.Errorf("result = %+v", res)
	}
	if res.Joystick.Kind != logic.ActionNone {
		t.Errorf("joystick = %+v, want none on read failure", res.Joystick)
	}
	if r.ctrl.State().Faults < 2 {
		t.Errorf("faults = %d, want at least 2", r.ctrl.State().Faults)
	}
}

func TestShutdown(t *testing.T) {
	r := newRig(t)
	r.port.Inject('F')
	r.ctrl.Step(1)
	r.rng.Set(5)
	r.ctrl.Step(2)
	if !r.board.Alarm {
		t.Fatal("alarm not on")
	}

	if err := r.ctrl.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if r.board.Bridge != stopped || r.board.Alarm || r.board.Indicator {
		t.Errorf("board = %+v", r.board)
	}
	if r.disp.Line(0) != "" {
		t.Errorf("display not cleared: %q", r.disp.Line(0))
	}
}
