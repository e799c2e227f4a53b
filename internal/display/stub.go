//go:build !linux

package display

import "errors"

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

// HD44780 is not available on non-Linux platforms.
type HD44780 struct{}

// NewHD44780 returns an error on non-Linux platforms.
func NewHD44780(chipName string, pins HD44780Pins) (*HD44780, error) {
	return nil, errors.New("display: lcd not supported on this platform (requires Linux)")
}

// Clear is not implemented on non-Linux platforms.
func (d *HD44780) Clear() error { return errors.New("display: not supported") }

// SetCursor is not implemented on non-Linux platforms.
func (d *HD44780) SetCursor(line int) error { return errors.New("display: not supported") }

// WriteString is not implemented on non-Linux platforms.
func (d *HD44780) WriteString(s string) error { return errors.New("display: not supported") }

// Close is not implemented on non-Linux platforms.
func (d *HD44780) Close() error { return nil }
