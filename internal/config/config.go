// Package config holds the runtime configuration of the wheelchair daemon.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/wheelchair/internal/adc"
	"github.com/sweeney/wheelchair/internal/display"
	"github.com/sweeney/wheelchair/internal/gpio"
	"github.com/sweeney/wheelchair/internal/logic"
	"github.com/sweeney/wheelchair/internal/motion"
	"github.com/sweeney/wheelchair/internal/serial"
	"github.com/sweeney/wheelchair/internal/telemetry"
)

// Default range sensor wiring (BCM numbering).
const (
	DefaultRangeTrigger = 6
	DefaultRangeEcho    = 13
)

// Default timing.
const (
	DefaultTick      = 10 * time.Millisecond
	DefaultLoop      = 100 * time.Millisecond
	DefaultHeartbeat = 15 * time.Minute
)

// Config is the complete daemon configuration.
type Config struct {
	// Digital I/O
	Chip         string
	Pins         gpio.Pins
	RangeTrigger int
	RangeEcho    int
	LCD          display.HD44780Pins
	LCDEnabled   bool

	// Analog input
	IIODevice string
	ADCBits   int

	// Motor drive
	PWMChip     string
	PWMChannelA int
	PWMChannelB int
	PWMPeriod   time.Duration

	// Command link
	SerialDevice string
	Serial       serial.PortOptions

	// Timing
	Tick              time.Duration
	Loop              time.Duration
	DisplayCycleTicks uint16
	TelemetryTicks    uint16
	MinDistance       uint16

	// Mirrors
	Broker    string
	Heartbeat time.Duration
	HTTPAddr  string
}

// Default returns the configuration of the reference harness.
func Default() Config {
	return Config{
		Chip:              gpio.DefaultChip,
		Pins:              gpio.DefaultPins(),
		RangeTrigger:      DefaultRangeTrigger,
		RangeEcho:         DefaultRangeEcho,
		LCD:               display.DefaultHD44780Pins(),
		LCDEnabled:        true,
		IIODevice:         adc.DefaultIIODevice,
		ADCBits:           10,
		PWMChip:           motion.DefaultPWMChip,
		PWMChannelA:       0,
		PWMChannelB:       1,
		PWMPeriod:         motion.DefaultPWMPeriod,
		SerialDevice:      "/dev/serial0",
		Serial:            serial.PortOptions{BaudRate: serial.DefaultBaudRate},
		Tick:              DefaultTick,
		Loop:              DefaultLoop,
		DisplayCycleTicks: display.DefaultCycleTicks,
		TelemetryTicks:    telemetry.DefaultIntervalTicks,
		MinDistance:       logic.MinDistance,
		Broker:            "tcp://192.168.1.200:1883",
		Heartbeat:         DefaultHeartbeat,
		HTTPAddr:          ":80",
	}
}

// Validate checks the configuration for values the hardware cannot honour.
func (c Config) Validate() error {
	var errs []error

	if c.Chip == "" {
		errs = append(errs, errors.New("gpio chip must be set"))
	}
	if c.Tick <= 0 {
		errs = append(errs, fmt.Errorf("tick %v must be positive", c.Tick))
	}
	if c.Loop <= 0 {
		errs = append(errs, fmt.Errorf("loop period %v must be positive", c.Loop))
	}
	if c.DisplayCycleTicks == 0 {
		errs = append(errs, errors.New("display cycle must be at least one tick"))
	}
	if c.TelemetryTicks == 0 {
		errs = append(errs, errors.New("telemetry interval must be at least one tick"))
	}
	if c.MinDistance == 0 {
		errs = append(errs, errors.New("minimum distance must be positive"))
	}
	if c.PWMChannelA == c.PWMChannelB {
		errs = append(errs, fmt.Errorf("pwm channels must differ (both %d)", c.PWMChannelA))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat %v must not be negative", c.Heartbeat))
	}
	if _, err := c.Serial.Normalize(); err != nil {
		errs = append(errs, fmt.Errorf("serial: %w", err))
	}
	if err := c.checkOffsets(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// checkOffsets rejects negative or shared line offsets.
func (c Config) checkOffsets() error {
	lines := []struct {
		name   string
		offset int
	}{
		{"in1", c.Pins.IN1},
		{"in2", c.Pins.IN2},
		{"in3", c.Pins.IN3},
		{"in4", c.Pins.IN4},
		{"alarm", c.Pins.Alarm},
		{"indicator", c.Pins.Indicator},
		{"switch", c.Pins.Switch},
		{"range-trigger", c.RangeTrigger},
		{"range-echo", c.RangeEcho},
	}
	if c.LCDEnabled {
		lines = append(lines, []struct {
			name   string
			offset int
		}{
			{"lcd-rs", c.LCD.RS},
			{"lcd-en", c.LCD.EN},
			{"lcd-d4", c.LCD.D4},
			{"lcd-d5", c.LCD.D5},
			{"lcd-d6", c.LCD.D6},
			{"lcd-d7", c.LCD.D7},
		}...)
	}

	used := make(map[int]string, len(lines))
	for _, l := range lines {
		if l.offset < 0 {
			return fmt.Errorf("pin %s: offset %d must not be negative", l.name, l.offset)
		}
		if prev, ok := used[l.offset]; ok {
			return fmt.Errorf("pin %s: offset %d already used by %s", l.name, l.offset, prev)
		}
		used[l.offset] = l.name
	}
	return nil
}

// TickAt converts elapsed time since boot to a timer reading.
func (c Config) TickAt(elapsed time.Duration) logic.Tick {
	return logic.Tick(uint64(elapsed/c.Tick) & 0xFFFF)
}
