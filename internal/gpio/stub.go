//go:build !linux

package gpio

import "errors"

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(chipName string, pins Pins) (*RealBoard, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetBridge is not implemented on non-Linux platforms.
func (b *RealBoard) SetBridge(levels BridgeLevels) error {
	return errors.New("gpio: not supported")
}

// SetAlarm is not implemented on non-Linux platforms.
func (b *RealBoard) SetAlarm(on bool) error {
	return errors.New("gpio: not supported")
}

// SetIndicator is not implemented on non-Linux platforms.
func (b *RealBoard) SetIndicator(on bool) error {
	return errors.New("gpio: not supported")
}

// SwitchPressed is not implemented on non-Linux platforms.
func (b *RealBoard) SwitchPressed() (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}
