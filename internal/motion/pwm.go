package motion

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultPWMChip is the sysfs directory of the first PWM controller.
const DefaultPWMChip = "/sys/class/pwm/pwmchip0"

// DefaultPWMPeriod matches the ~4.9kHz carrier the motor driver expects.
const DefaultPWMPeriod = 204800 * time.Nanosecond

// compareSteps is the compare register span: duty = period * value / 256.
const compareSteps = 256

// SysfsPWM drives two channels of a Linux PWM controller through sysfs.
type SysfsPWM struct {
	chip     string
	channels [2]int
	period   time.Duration
}

// NewSysfsPWM exports and enables channels chA and chB on chip.
func NewSysfsPWM(chip string, chA, chB int, period time.Duration) (*SysfsPWM, error) {
	if period <= 0 {
		period = DefaultPWMPeriod
	}
	p := &SysfsPWM{chip: chip, channels: [2]int{chA, chB}, period: period}
	for _, ch := range p.channels {
		if err := p.setup(ch); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *SysfsPWM) channelDir(ch int) string {
	return filepath.Join(p.chip, fmt.Sprintf("pwm%d", ch))
}

func (p *SysfsPWM) setup(ch int) error {
	dir := p.channelDir(ch)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := writeAttr(filepath.Join(p.chip, "export"), strconv.Itoa(ch)); err != nil {
			return fmt.Errorf("pwm: export channel %d: %w", ch, err)
		}
	}
	if err := writeAttr(filepath.Join(dir, "period"), strconv.FormatInt(p.period.Nanoseconds(), 10)); err != nil {
		return fmt.Errorf("pwm: set period on channel %d: %w", ch, err)
	}
	if err := writeAttr(filepath.Join(dir, "duty_cycle"), "0"); err != nil {
		return fmt.Errorf("pwm: clear duty on channel %d: %w", ch, err)
	}
	if err := writeAttr(filepath.Join(dir, "enable"), "1"); err != nil {
		return fmt.Errorf("pwm: enable channel %d: %w", ch, err)
	}
	return nil
}

// DutyNanos converts a compare value to a duty cycle in nanoseconds.
func (p *SysfsPWM) DutyNanos(value uint8) int64 {
	return p.period.Nanoseconds() * int64(value) / compareSteps
}

// SetCompare writes the same compare value to both channels.
func (p *SysfsPWM) SetCompare(value uint8) error {
	duty := strconv.FormatInt(p.DutyNanos(value), 10)
	for _, ch := range p.channels {
		if err := writeAttr(filepath.Join(p.channelDir(ch), "duty_cycle"), duty); err != nil {
			return fmt.Errorf("pwm: set duty on channel %d: %w", ch, err)
		}
	}
	return nil
}

// Close disables both channels.
func (p *SysfsPWM) Close() error {
	var errs []error
	for _, ch := range p.channels {
		if err := writeAttr(filepath.Join(p.channelDir(ch), "enable"), "0"); err != nil {
			errs = append(errs, fmt.Errorf("disable channel %d: %w", ch, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func writeAttr(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}

// FakePWM records compare values.
type FakePWM struct {
	Value  uint8
	Writes []uint8
	Err    error
}

// SetCompare records value.
func (f *FakePWM) SetCompare(value uint8) error {
	if f.Err != nil {
		return f.Err
	}
	f.Value = value
	f.Writes = append(f.Writes, value)
	return nil
}
