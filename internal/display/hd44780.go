//go:build linux

package display

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// HD44780Pins holds the line offsets of a 4-bit HD44780 interface.
type HD44780Pins struct {
	RS int
	EN int
	D4 int
	D5 int
	D6 int
	D7 int
}

// DefaultHD44780Pins returns the wiring of the reference harness.
func DefaultHD44780Pins() HD44780Pins {
	return HD44780Pins{RS: 16, EN: 20, D4: 21, D5: 19, D6: 26, D7: 12}
}

const (
	cmdClear     = 0x01
	cmdHome4Bit  = 0x02
	cmdEntryMode = 0x06
	cmdDisplayOn = 0x0C
	cmdFunction  = 0x28 // 4-bit, 2 lines, 5x8 font
	cmdLine0     = 0x80
	cmdLine1     = 0xC0

	enablePulse = 100 * time.Microsecond
	clearDelay  = 2 * time.Millisecond
	powerOnWait = 20 * time.Millisecond
)

// HD44780 drives a character LCD in 4-bit mode over GPIO lines.
type HD44780 struct {
	lines *gpiocdev.Lines // RS, EN, D4, D5, D6, D7
	sleep func(time.Duration)
}

// NewHD44780 requests the lines on chipName and initializes the controller.
func NewHD44780(chipName string, pins HD44780Pins) (*HD44780, error) {
	offsets := []int{pins.RS, pins.EN, pins.D4, pins.D5, pins.D6, pins.D7}
	lines, err := gpiocdev.RequestLines(chipName, offsets, gpiocdev.AsOutput(0, 0, 0, 0, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("request lcd pins: %w", err)
	}
	d := &HD44780{lines: lines, sleep: time.Sleep}

	d.sleep(powerOnWait)
	for _, cmd := range []byte{cmdHome4Bit, cmdFunction, cmdDisplayOn, cmdEntryMode, cmdClear, cmdLine0} {
		if err := d.command(cmd); err != nil {
			lines.Close()
			return nil, fmt.Errorf("init lcd: %w", err)
		}
	}
	d.sleep(clearDelay)
	return d, nil
}

// nibble latches the low four bits of n with the given register select.
func (d *HD44780) nibble(rs int, n byte) error {
	values := []int{rs, 1, int(n & 1), int(n>>1) & 1, int(n>>2) & 1, int(n>>3) & 1}
	if err := d.lines.SetValues(values); err != nil {
		return err
	}
	d.sleep(enablePulse)
	values[1] = 0
	return d.lines.SetValues(values)
}

func (d *HD44780) send(rs int, b byte) error {
	if err := d.nibble(rs, b>>4); err != nil {
		return err
	}
	return d.nibble(rs, b&0x0F)
}

func (d *HD44780) command(cmd byte) error {
	return d.send(0, cmd)
}

// Clear blanks the display and homes the cursor.
func (d *HD44780) Clear() error {
	if err := d.command(cmdClear); err != nil {
		return err
	}
	d.sleep(clearDelay)
	return d.command(cmdLine0)
}

// SetCursor moves to column 0 of line.
func (d *HD44780) SetCursor(line int) error {
	if line == 1 {
		return d.command(cmdLine1)
	}
	return d.command(cmdLine0)
}

// WriteString writes s as character data.
func (d *HD44780) WriteString(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.send(1, s[i]); err != nil {
			return err
		}
	}
	return nil
}

// Close blanks the display and releases the lines.
func (d *HD44780) Close() error {
	clearErr := d.Clear()
	if err := d.lines.Close(); err != nil {
		return fmt.Errorf("close lcd pins: %w", err)
	}
	return clearErr
}
