package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/wheelchair/internal/telemetry"
)

func testFrame() telemetry.Frame {
	return telemetry.Frame{Distance: 120, BPM: 72, Direction: "Forward", Speed: 150}
}

func TestFormatTelemetryPayload(t *testing.T) {
	event := TelemetryEvent{
		Timestamp: time.Date(2026, 3, 4, 10, 15, 0, 0, time.UTC),
		Session:   "6f1c",
		Frame:     testFrame(),
	}

	payload, err := FormatTelemetryPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"telemetry":{"timestamp":"2026-03-04T10:15:00Z","session":"6f1c","distance_cm":120,"bpm":72,"direction":"Forward","speed":150}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatTelemetryPayloadOmitsEmptySession(t *testing.T) {
	payload, err := FormatTelemetryPayload(TelemetryEvent{Timestamp: time.Now(), Frame: testFrame()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(payload), "session") {
		t.Errorf("session should be omitted: %s", payload)
	}

	var parsed TelemetryPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Telemetry.Frame != testFrame() {
		t.Errorf("frame: got %+v, want %+v", parsed.Telemetry.Frame, testFrame())
	}
}

func TestFormatTelemetryPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := TelemetryEvent{Timestamp: time.Date(2026, 3, 4, 12, 0, 0, 0, loc)}

	payload, _ := FormatTelemetryPayload(event)
	var parsed TelemetryPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Telemetry.Timestamp != "2026-03-04T10:00:00Z" {
		t.Errorf("timestamp: got %s, want UTC", parsed.Telemetry.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if TopicTelemetry != "mobility/wheelchair/telemetry" {
		t.Errorf("unexpected telemetry topic: %s", TopicTelemetry)
	}
	if TopicSystem != "mobility/wheelchair/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadReconnected(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishTelemetry(TelemetryEvent{Timestamp: time.Now(), Frame: testFrame()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Telemetry) != 1 || len(f.TelemetryPayloads) != 1 {
		t.Fatalf("expected 1 telemetry event, got %d", len(f.Telemetry))
	}
	if len(f.SystemEvents) != 1 || !f.SystemEvents[0].Retained {
		t.Fatalf("unexpected system events: %+v", f.SystemEvents)
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.PublishTelemetry(TelemetryEvent{}); err == nil {
		t.Error("expected telemetry error")
	}
	if err := f.PublishSystem(SystemEvent{}); err == nil {
		t.Error("expected system error")
	}
	if len(f.Telemetry) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.PublishTelemetry(TelemetryEvent{})
	f.PublishSystem(SystemEvent{})
	f.Close()
	f.Connected = true

	f.Reset()

	if f.Telemetry != nil || f.SystemEvents != nil || f.Closed || f.Connected {
		t.Errorf("reset incomplete: %+v", f)
	}
}

// fakeToken is a completed paho token.
type fakeToken struct {
	err      error
	timedOut bool

	// gate, if set, holds Wait and WaitTimeout until closed and then
	// reports a timeout, like a broker that stopped reading.
	gate chan struct{}
}

func (t *fakeToken) Wait() bool {
	if t.gate != nil {
		<-t.gate
		return false
	}
	return !t.timedOut
}

func (t *fakeToken) WaitTimeout(time.Duration) bool {
	return t.Wait()
}
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient records publishes and simulates the connection state.
type fakeClient struct {
	mu           sync.Mutex
	open         bool
	publishErr   error
	sent         []published
	disconnected bool
	stall        chan struct{}
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return &fakeToken{err: c.publishErr}
	}
	c.sent = append(c.sent, published{topic: topic, qos: qos, retained: retained, payload: string(payload.([]byte))})
	return &fakeToken{gate: c.stall}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func connectedPublisher(t *testing.T) (*RealPublisher, *fakeClient) {
	t.Helper()
	c := &fakeClient{open: true}
	p := newPublisher(c, 10)
	p.onConnect()
	return p, c
}

func TestRealPublisherTelemetryQoS(t *testing.T) {
	p, c := connectedPublisher(t)

	if err := p.PublishTelemetry(TelemetryEvent{Timestamp: time.Now(), Frame: testFrame()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(c.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(c.sent))
	}
	if c.sent[0].topic != TopicTelemetry || c.sent[0].qos != 0 || c.sent[0].retained {
		t.Errorf("telemetry message: %+v", c.sent[0])
	}
	if c.sent[1].topic != TopicSystem || c.sent[1].qos != 1 || !c.sent[1].retained {
		t.Errorf("system message: %+v", c.sent[1])
	}
	if !p.IsConnected() {
		t.Error("expected connected")
	}
}

func TestRealPublisherBuffersWhileDisconnected(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, 10)

	for i := 0; i < 3; i++ {
		if err := p.PublishTelemetry(TelemetryEvent{Frame: telemetry.Frame{Distance: uint16(i)}}); err != nil {
			t.Fatalf("buffered publish returned error: %v", err)
		}
	}
	if p.Buffered() != 3 {
		t.Fatalf("expected 3 buffered, got %d", p.Buffered())
	}
	if len(c.sent) != 0 {
		t.Fatalf("nothing should be sent while disconnected, got %d", len(c.sent))
	}

	c.open = true
	p.onConnect()

	if p.Buffered() != 0 {
		t.Errorf("expected empty buffer after replay, got %d", p.Buffered())
	}
	if len(c.sent) != 3 {
		t.Fatalf("expected 3 replayed, got %d", len(c.sent))
	}
	for i, m := range c.sent {
		var parsed TelemetryPayload
		if err := json.Unmarshal([]byte(m.payload), &parsed); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if parsed.Telemetry.Distance != uint16(i) {
			t.Errorf("replay %d out of order: distance %d", i, parsed.Telemetry.Distance)
		}
	}
}

func TestRealPublisherReconnectedEvent(t *testing.T) {
	p, c := connectedPublisher(t)

	p.onConnectionLost(errors.New("network down"))
	c.open = false
	if p.IsConnected() {
		t.Fatal("expected disconnected after connection lost")
	}
	p.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT"})

	c.open = true
	p.onConnect()

	if len(c.sent) != 2 {
		t.Fatalf("expected heartbeat replay and RECONNECTED, got %d", len(c.sent))
	}
	if !strings.Contains(c.sent[0].payload, "HEARTBEAT") {
		t.Errorf("first message should be the buffered heartbeat: %s", c.sent[0].payload)
	}
	if !strings.Contains(c.sent[1].payload, `"event":"RECONNECTED"`) {
		t.Errorf("second message should be RECONNECTED: %s", c.sent[1].payload)
	}
}

func TestRealPublisherFailedSendIsBuffered(t *testing.T) {
	p, c := connectedPublisher(t)
	c.publishErr = errors.New("not acknowledged")

	if err := p.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err == nil {
		t.Fatal("expected publish error")
	}
	if p.Buffered() != 1 {
		t.Errorf("expected failed message to be buffered, got %d", p.Buffered())
	}
}

func TestRealPublisherReplayFailureKeepsRemainder(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, 10)
	p.PublishTelemetry(TelemetryEvent{})
	p.PublishTelemetry(TelemetryEvent{})

	c.open = true
	c.publishErr = errors.New("not acknowledged")
	p.onConnect()

	if p.Buffered() != 2 {
		t.Errorf("expected 2 messages kept for the next replay, got %d", p.Buffered())
	}
}

func TestRealPublisherClose(t *testing.T) {
	p, c := connectedPublisher(t)
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.disconnected {
		t.Error("expected Disconnect to be called")
	}
}

func TestClientIDPrefix(t *testing.T) {
	id := ClientID("wheelchair")
	if !strings.HasPrefix(id, "wheelchair-") {
		t.Errorf("client id %q missing prefix", id)
	}
	if len(id) != len("wheelchair-")+12 {
		t.Errorf("client id %q has unexpected length", id)
	}
}
