package display

import (
	"fmt"
	"time"

	"github.com/sweeney/wheelchair/internal/logic"
)

// View selects what the display shows.
type View int

const (
	ViewDistance View = iota
	ViewHeartRate
	ViewDirection

	viewCount = 3
)

func (v View) String() string {
	switch v {
	case ViewDistance:
		return "distance"
	case ViewHeartRate:
		return "heart-rate"
	case ViewDirection:
		return "direction"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// DefaultCycleTicks is the time each view stays up.
const DefaultCycleTicks = 200

// Splash text shown while the controller boots.
const (
	SplashTitle  = "Smart Wheelchair"
	SplashStatus = "Initializing..."
	SplashHold   = 500 * time.Millisecond
)

// Status holds the already-computed values a view can show.
type Status struct {
	Distance  uint16
	Obstacle  bool
	BPM       uint16
	Direction string
}

// Render returns the two lines of v for st.
func Render(v View, st Status) (label, value string) {
	switch v {
	case ViewDistance:
		if st.Obstacle {
			return "Distance:", fmt.Sprintf("%dcm STOP!", st.Distance)
		}
		return "Distance:", fmt.Sprintf("%d cm", st.Distance)
	case ViewHeartRate:
		return "Heart Rate:", fmt.Sprintf("%d BPM", st.BPM)
	case ViewDirection:
		return "Direction:", st.Direction
	}
	return "", ""
}

// Scheduler rotates the views round-robin on a fixed tick cadence.
type Scheduler struct {
	disp        TextDisplay
	cycleTicks  uint16
	view        View
	lastChange  logic.Tick
	transitions int
}

// NewScheduler creates a Scheduler starting on the distance view.
// cycleTicks of 0 selects DefaultCycleTicks.
func NewScheduler(disp TextDisplay, cycleTicks uint16) *Scheduler {
	if cycleTicks == 0 {
		cycleTicks = DefaultCycleTicks
	}
	return &Scheduler{disp: disp, cycleTicks: cycleTicks}
}

// Splash shows the boot banner, waits via hold, then clears.
func (s *Scheduler) Splash(hold func(time.Duration)) error {
	if err := s.disp.Clear(); err != nil {
		return err
	}
	if err := s.write(0, SplashTitle); err != nil {
		return err
	}
	if err := s.write(1, SplashStatus); err != nil {
		return err
	}
	hold(SplashHold)
	return s.disp.Clear()
}

// Update advances the view if the cycle elapsed, clearing the display on
// every transition, then redraws the current view from st.
func (s *Scheduler) Update(now logic.Tick, st Status) error {
	if now.Since(s.lastChange) >= s.cycleTicks {
		s.view = (s.view + 1) % viewCount
		s.lastChange = now
		s.transitions++
		if err := s.disp.Clear(); err != nil {
			return fmt.Errorf("display: clear: %w", err)
		}
	}

	label, value := Render(s.view, st)
	if err := s.write(0, label); err != nil {
		return err
	}
	return s.write(1, value)
}

func (s *Scheduler) write(line int, text string) error {
	if err := s.disp.SetCursor(line); err != nil {
		return fmt.Errorf("display: cursor line %d: %w", line, err)
	}
	if err := s.disp.WriteString(fit(text)); err != nil {
		return fmt.Errorf("display: write line %d: %w", line, err)
	}
	return nil
}

// View returns the view currently shown.
func (s *Scheduler) View() View {
	return s.view
}

// Transitions returns the number of view changes so far.
func (s *Scheduler) Transitions() int {
	return s.transitions
}
