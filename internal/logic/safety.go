package logic

// MinDistance is the obstacle threshold in centimeters.
const MinDistance = 25

// SafetyMonitor derives the obstacle state from the latest range reading.
// No hysteresis: every reading decides on its own.
type SafetyMonitor struct {
	minDistance uint16
	obstacle    bool
	distance    uint16
	trips       int
}

// NewSafetyMonitor creates a monitor with the given threshold.
// A threshold of 0 selects MinDistance.
func NewSafetyMonitor(minDistance uint16) *SafetyMonitor {
	if minDistance == 0 {
		minDistance = MinDistance
	}
	return &SafetyMonitor{minDistance: minDistance}
}

// Update records a reading (0 = no echo) and returns the obstacle state.
func (s *SafetyMonitor) Update(distance uint16) bool {
	was := s.obstacle
	s.distance = distance
	s.obstacle = distance > 0 && distance < s.minDistance
	if s.obstacle && !was {
		s.trips++
	}
	return s.obstacle
}

// Obstacle reports whether motion sources are suppressed.
func (s *SafetyMonitor) Obstacle() bool {
	return s.obstacle
}

// Distance returns the last recorded reading.
func (s *SafetyMonitor) Distance() uint16 {
	return s.distance
}

// Trips returns how many times the obstacle state has been entered.
func (s *SafetyMonitor) Trips() int {
	return s.trips
}
