//go:build linux

package ranging

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// HCSR04 drives an ultrasonic sensor on two GPIO lines.
// Echo transitions are timestamped by the kernel and delivered as edge events.
type HCSR04 struct {
	trigger *gpiocdev.Line
	echo    *gpiocdev.Line
	edges   chan Edge
	timing  Timing
}

// NewHCSR04 requests the trigger and echo lines on the named chip.
func NewHCSR04(chipName string, trigPin, echoPin int, timing Timing) (*HCSR04, error) {
	s := &HCSR04{
		edges:  make(chan Edge, 8),
		timing: timing,
	}

	var err error
	s.trigger, err = gpiocdev.RequestLine(chipName, trigPin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request trigger pin %d: %w", trigPin, err)
	}

	s.echo, err = gpiocdev.RequestLine(chipName, echoPin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handleEvent))
	if err != nil {
		s.trigger.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", echoPin, err)
	}

	return s, nil
}

func (s *HCSR04) handleEvent(evt gpiocdev.LineEvent) {
	e := Edge{
		Rising: evt.Type == gpiocdev.LineEventRisingEdge,
		At:     evt.Timestamp,
	}
	select {
	case s.edges <- e:
	default:
		// Reader is not waiting; the next measurement drains stale edges anyway.
	}
}

func (s *HCSR04) pulseTrigger() error {
	if err := s.trigger.SetValue(1); err != nil {
		return err
	}
	time.Sleep(TriggerPulse)
	return s.trigger.SetValue(0)
}

// Distance fires one measurement.
func (s *HCSR04) Distance() (uint16, error) {
	return measure(s.pulseTrigger, s.edges, s.timing)
}

// Close releases both lines.
func (s *HCSR04) Close() error {
	var errs []error
	if err := s.echo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close echo: %w", err))
	}
	if err := s.trigger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close trigger: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
