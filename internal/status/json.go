package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Session       string       `json:"session"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Vehicle       VehicleJSON  `json:"vehicle"`
	Counters      CountersJSON `json:"counters"`
	LastTelemetry string       `json:"last_telemetry,omitempty"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// VehicleJSON is the JSON representation of the controller outputs.
type VehicleJSON struct {
	DistanceCM uint16 `json:"distance_cm"`
	Obstacle   bool   `json:"obstacle"`
	BPM        uint16 `json:"bpm"`
	Direction  string `json:"direction"`
	Speed      uint8  `json:"speed"`
	View       string `json:"view"`
}

// CountersJSON is the JSON representation of the loop counters.
type CountersJSON struct {
	Iterations     int `json:"iterations"`
	ObstacleTrips  int `json:"obstacle_trips"`
	Beats          int `json:"beats"`
	RejectedBeats  int `json:"rejected_beats"`
	Commands       int `json:"commands"`
	IgnoredCmds    int `json:"ignored_commands"`
	SerialOverruns int `json:"serial_overruns"`
	TelemetrySent  int `json:"telemetry_sent"`
	Faults         int `json:"faults"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs            int64  `json:"tick_ms"`
	LoopMs            int64  `json:"loop_ms"`
	HeartbeatMs       int64  `json:"heartbeat_ms"`
	DisplayCycleTicks uint16 `json:"display_cycle_ticks"`
	TelemetryTicks    uint16 `json:"telemetry_ticks"`
	MinDistance       uint16 `json:"min_distance_cm"`
	SerialDevice      string `json:"serial_device"`
	Broker            string `json:"broker"`
	HTTPPort          string `json:"http_port"`
}

func buildInner(snap Snapshot) StatusInner {
	v := snap.Vehicle
	direction := string(v.Direction)
	if direction == "" {
		direction = "UNKNOWN"
	}

	return StatusInner{
		Session:       snap.Session,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Vehicle: VehicleJSON{
			DistanceCM: v.Distance,
			Obstacle:   v.Obstacle,
			BPM:        v.BPM,
			Direction:  direction,
			Speed:      v.Speed,
			View:       v.View.String(),
		},
		Counters: CountersJSON{
			Iterations:     v.Iterations,
			ObstacleTrips:  v.Trips,
			Beats:          v.Beats,
			RejectedBeats:  v.RejectedBeats,
			Commands:       v.Commands,
			IgnoredCmds:    v.Ignored,
			SerialOverruns: v.Overruns,
			TelemetrySent:  v.TelemetrySent,
			Faults:         v.Faults,
		},
		LastTelemetry: snap.LastTelemetry,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			TickMs:            snap.Config.TickMs,
			LoopMs:            snap.Config.LoopMs,
			HeartbeatMs:       snap.Config.HeartbeatMs,
			DisplayCycleTicks: snap.Config.DisplayCycleTicks,
			TelemetryTicks:    snap.Config.TelemetryTicks,
			MinDistance:       snap.Config.MinDistance,
			SerialDevice:      snap.Config.SerialDevice,
			Broker:            snap.Config.Broker,
			HTTPPort:          snap.Config.HTTPPort,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
