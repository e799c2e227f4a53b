// Package ranging measures obstacle distance with an ultrasonic echo sensor.
package ranging

import (
	"fmt"
	"time"
)

// Sensor returns the distance to the nearest obstacle in centimeters.
// A reading of 0 means no echo was received; it is not an error.
type Sensor interface {
	Distance() (uint16, error)
}

// Default timing bounds for an HC-SR04 style sensor.
const (
	DefaultStartTimeout = 5 * time.Millisecond
	// DefaultEchoTimeout caps the echo pulse at roughly 4m of range.
	DefaultEchoTimeout = 23200 * time.Microsecond
	TriggerPulse       = 10 * time.Microsecond
)

// echoPerCM is the round-trip echo time for one centimeter.
const echoPerCM = 58 * time.Microsecond

// Centimeters converts an echo pulse width to a distance.
func Centimeters(width time.Duration) uint16 {
	if width <= 0 {
		return 0
	}
	cm := width / echoPerCM
	if cm > 0xFFFF {
		cm = 0xFFFF
	}
	return uint16(cm)
}

// Edge is one transition seen on the echo line.
type Edge struct {
	Rising bool
	At     time.Duration // monotonic timestamp of the transition
}

// Timing holds the bounded waits of one measurement.
type Timing struct {
	Start time.Duration // wait for the echo to begin
	Echo  time.Duration // maximum echo width
}

// DefaultTiming returns the bounds used by the reference sensor.
func DefaultTiming() Timing {
	return Timing{Start: DefaultStartTimeout, Echo: DefaultEchoTimeout}
}

// measure fires trigger and times the echo from edges.
// No rising edge within t.Start yields 0. An echo that outlasts t.Echo is
// reported at the capped width.
func measure(trigger func() error, edges <-chan Edge, t Timing) (uint16, error) {
	// Discard edges left over from an earlier, timed-out measurement.
	for drained := false; !drained; {
		select {
		case <-edges:
		default:
			drained = true
		}
	}

	if err := trigger(); err != nil {
		return 0, fmt.Errorf("ranging: trigger: %w", err)
	}

	startTimer := time.NewTimer(t.Start)
	defer startTimer.Stop()

	var rise Edge
	for waiting := true; waiting; {
		select {
		case e := <-edges:
			if e.Rising {
				rise = e
				waiting = false
			}
		case <-startTimer.C:
			return 0, nil
		}
	}

	echoTimer := time.NewTimer(t.Echo)
	defer echoTimer.Stop()

	for {
		select {
		case e := <-edges:
			if !e.Rising {
				return Centimeters(e.At - rise.At), nil
			}
		case <-echoTimer.C:
			return Centimeters(t.Echo), nil
		}
	}
}
