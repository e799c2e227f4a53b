// Package mqtt mirrors controller telemetry and lifecycle events to a broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/wheelchair/internal/telemetry"
)

// TopicTelemetry is the MQTT topic for periodic telemetry frames.
const TopicTelemetry = "mobility/wheelchair/telemetry"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "mobility/wheelchair/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// PublishTelemetry sends a telemetry frame to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishTelemetry(event TelemetryEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// TelemetryEvent is one telemetry frame stamped with wall time.
type TelemetryEvent struct {
	Timestamp time.Time
	Session   string
	Frame     telemetry.Frame
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// TelemetryPayload represents the MQTT message payload for telemetry.
type TelemetryPayload struct {
	Telemetry TelemetryPayloadInner `json:"telemetry"`
}

// TelemetryPayloadInner contains the telemetry details.
type TelemetryPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Session   string `json:"session,omitempty"`
	telemetry.Frame
}

// FormatTelemetryPayload creates the JSON payload for a telemetry frame.
func FormatTelemetryPayload(event TelemetryEvent) ([]byte, error) {
	payload := TelemetryPayload{
		Telemetry: TelemetryPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Session:   event.Session,
			Frame:     event.Frame,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
