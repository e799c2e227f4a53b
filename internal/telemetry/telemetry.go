// Package telemetry formats and paces the status lines sent over the
// command link.
package telemetry

import (
	"fmt"

	"github.com/sweeney/wheelchair/internal/logic"
)

// ReadyLine is sent once after boot.
const ReadyLine = "SYSTEM:READY\r\n"

// MaxLineLength bounds a formatted telemetry line, terminator included.
const MaxLineLength = 50

// DefaultIntervalTicks is the minimum spacing between two reports.
const DefaultIntervalTicks = 100

// Frame is one telemetry record.
type Frame struct {
	Distance  uint16 `json:"distance_cm"`
	BPM       uint16 `json:"bpm"`
	Direction string `json:"direction"`
	Speed     uint8  `json:"speed"`
}

// Format renders f as a CRLF terminated line of at most MaxLineLength bytes.
// An oversized direction label is truncated; the terminator is kept.
func (f Frame) Format() string {
	line := fmt.Sprintf("DIST:%dcm,BPM:%d,DIR:%s,SPD:%d", f.Distance, f.BPM, f.Direction, f.Speed)
	if len(line) > MaxLineLength-2 {
		line = line[:MaxLineLength-2]
	}
	return line + "\r\n"
}

// Sender accepts outgoing text. serial.Transport implements it.
type Sender interface {
	WriteString(s string) error
}

// Reporter sends a Frame at most once per interval.
type Reporter struct {
	out           Sender
	intervalTicks uint16
	lastSent      logic.Tick
	sent          int
}

// NewReporter creates a Reporter writing to out.
// intervalTicks of 0 selects DefaultIntervalTicks.
func NewReporter(out Sender, intervalTicks uint16) *Reporter {
	if intervalTicks == 0 {
		intervalTicks = DefaultIntervalTicks
	}
	return &Reporter{out: out, intervalTicks: intervalTicks}
}

// Due reports whether a frame would be sent at now.
func (r *Reporter) Due(now logic.Tick) bool {
	return now.Since(r.lastSent) >= r.intervalTicks
}

// Report sends f if the interval has elapsed. It returns whether the frame
// was due. The interval restarts even when the write fails.
func (r *Reporter) Report(now logic.Tick, f Frame) (bool, error) {
	if !r.Due(now) {
		return false, nil
	}
	r.lastSent = now
	if err := r.out.WriteString(f.Format()); err != nil {
		return true, fmt.Errorf("telemetry: send: %w", err)
	}
	r.sent++
	return true, nil
}

// Ready sends the boot announcement.
func (r *Reporter) Ready() error {
	if err := r.out.WriteString(ReadyLine); err != nil {
		return fmt.Errorf("telemetry: send ready: %w", err)
	}
	return nil
}

// Sent returns the number of frames written successfully.
func (r *Reporter) Sent() int {
	return r.sent
}
