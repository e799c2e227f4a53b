//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealBoard drives GPIO on actual hardware using the Linux GPIO character device.
type RealBoard struct {
	chip      *gpiocdev.Chip
	bridge    *gpiocdev.Lines
	alarm     *gpiocdev.Line
	indicator *gpiocdev.Line
	sw        *gpiocdev.Line
}

// NewRealBoard requests the board lines on the named chip.
// All outputs start low, so the bridge starts in the stopped pattern.
func NewRealBoard(chipName string, pins Pins) (*RealBoard, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	b := &RealBoard{chip: chip}

	// The four bridge inputs are one request so SetValues changes them atomically.
	b.bridge, err = chip.RequestLines([]int{pins.IN1, pins.IN2, pins.IN3, pins.IN4}, gpiocdev.AsOutput(0, 0, 0, 0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request bridge pins: %w", err)
	}

	b.alarm, err = chip.RequestLine(pins.Alarm, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request alarm pin %d: %w", pins.Alarm, err)
	}

	b.indicator, err = chip.RequestLine(pins.Indicator, gpiocdev.AsOutput(0))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request indicator pin %d: %w", pins.Indicator, err)
	}

	b.sw, err = chip.RequestLine(pins.Switch, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("request switch pin %d: %w", pins.Switch, err)
	}

	return b, nil
}

// SetBridge writes IN1..IN4 in a single request.
func (b *RealBoard) SetBridge(levels BridgeLevels) error {
	values := []int{level(levels[0]), level(levels[1]), level(levels[2]), level(levels[3])}
	if err := b.bridge.SetValues(values); err != nil {
		return fmt.Errorf("set bridge: %w", err)
	}
	return nil
}

// SetAlarm switches the buzzer line.
func (b *RealBoard) SetAlarm(on bool) error {
	if err := b.alarm.SetValue(level(on)); err != nil {
		return fmt.Errorf("set alarm: %w", err)
	}
	return nil
}

// SetIndicator switches the pulse LED line.
func (b *RealBoard) SetIndicator(on bool) error {
	if err := b.indicator.SetValue(level(on)); err != nil {
		return fmt.Errorf("set indicator: %w", err)
	}
	return nil
}

// SwitchPressed reads the joystick button. Raw 0 = pressed.
func (b *RealBoard) SwitchPressed() (bool, error) {
	raw, err := b.sw.Value()
	if err != nil {
		return false, fmt.Errorf("read switch pin: %w", err)
	}
	return raw == 0, nil
}

// Close drives every output low, then releases the lines and the chip.
func (b *RealBoard) Close() error {
	var errs []error

	if b.bridge != nil {
		if err := b.bridge.SetValues([]int{0, 0, 0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("stop bridge: %w", err))
		}
		if err := b.bridge.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bridge: %w", err))
		}
	}
	for name, l := range map[string]*gpiocdev.Line{"alarm": b.alarm, "indicator": b.indicator} {
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", name, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	if b.sw != nil {
		if err := b.sw.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
