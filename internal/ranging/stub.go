//go:build !linux

package ranging

import "errors"

// HCSR04 is not available on non-Linux platforms.
type HCSR04 struct{}

// NewHCSR04 returns an error on non-Linux platforms.
func NewHCSR04(chipName string, trigPin, echoPin int, timing Timing) (*HCSR04, error) {
	return nil, errors.New("ranging: not supported on this platform (requires Linux)")
}

// Distance is not implemented on non-Linux platforms.
func (s *HCSR04) Distance() (uint16, error) {
	return 0, errors.New("ranging: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *HCSR04) Close() error {
	return nil
}
