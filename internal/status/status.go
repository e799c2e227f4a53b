// Package status provides a thread-safe status tracker for the wheelchair daemon.
// The control loop writes it once per iteration; HTTP handlers and MQTT
// lifecycle events read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/wheelchair/internal/controller"
)

// NetworkInfo contains network state as reported by the host helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs            int64
	LoopMs            int64
	HeartbeatMs       int64
	DisplayCycleTicks uint16
	TelemetryTicks    uint16
	MinDistance       uint16
	SerialDevice      string
	Broker            string
	HTTPPort          string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Session       string
	Ready         bool
	Vehicle       controller.State
	LastTelemetry string
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker for the boot session with the given start time and config.
func NewTracker(startTime time.Time, session string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Session:   session,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the controller state. Called from the loop on every tick.
func (t *Tracker) Update(state controller.State) {
	t.mu.Lock()
	t.snap.Vehicle = state
	t.mu.Unlock()
}

// SetReady marks the controller as booted.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// SetLastTelemetry records the most recent telemetry line, without terminator.
func (t *Tracker) SetLastTelemetry(line string) {
	t.mu.Lock()
	t.snap.LastTelemetry = line
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
