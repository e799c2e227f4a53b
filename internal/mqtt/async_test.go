package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// gatedPublisher blocks every publish until release is closed.
type gatedPublisher struct {
	started chan struct{}
	release chan struct{}

	mu        sync.Mutex
	telemetry []TelemetryEvent
	system    []SystemEvent
	err       error
	closed    bool
}

func newGatedPublisher() *gatedPublisher {
	return &gatedPublisher{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *gatedPublisher) wait() {
	select {
	case g.started <- struct{}{}:
	default:
	}
	<-g.release
}

func (g *gatedPublisher) PublishTelemetry(event TelemetryEvent) error {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.telemetry = append(g.telemetry, event)
	return g.err
}

func (g *gatedPublisher) PublishSystem(event SystemEvent) error {
	g.wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.system = append(g.system, event)
	return g.err
}

func (g *gatedPublisher) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func (g *gatedPublisher) IsConnected() bool { return true }

func telemetryAt(distance uint16) TelemetryEvent {
	f := testFrame()
	f.Distance = distance
	return TelemetryEvent{Timestamp: time.Now(), Frame: f}
}

func TestAsyncPublisherDoesNotBlockOnStalledInner(t *testing.T) {
	g := newGatedPublisher()
	a := NewAsyncPublisher(g, 4)

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := a.PublishTelemetry(telemetryAt(uint16(i))); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if err := a.PublishSystem(SystemEvent{Event: "HEARTBEAT"}); err != nil {
		t.Fatalf("publish system: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("publishing took %v with a stalled broker", elapsed)
	}

	close(g.release)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !g.closed {
		t.Error("inner publisher not closed")
	}
}

func TestAsyncPublisherDropsOldestWhenFull(t *testing.T) {
	g := newGatedPublisher()
	a := NewAsyncPublisher(g, 3)

	// The worker takes the first event and blocks on it.
	a.PublishTelemetry(telemetryAt(0))
	<-g.started

	for i := 1; i <= 5; i++ {
		a.PublishTelemetry(telemetryAt(uint16(i)))
	}
	if got := a.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}

	close(g.release)
	a.Close()

	var got []uint16
	for _, ev := range g.telemetry {
		got = append(got, ev.Frame.Distance)
	}
	want := []uint16{0, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("delivered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivered %v, want %v", got, want)
			break
		}
	}
}

func TestAsyncPublisherCloseDeliversQueued(t *testing.T) {
	g := newGatedPublisher()
	close(g.release)
	a := NewAsyncPublisher(g, 0)

	a.PublishTelemetry(telemetryAt(50))
	a.PublishSystem(SystemEvent{Event: "SHUTDOWN", Reason: "SIGTERM", Retained: true})
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(g.telemetry) != 1 || len(g.system) != 1 {
		t.Fatalf("delivered %d telemetry, %d system", len(g.telemetry), len(g.system))
	}
	if g.system[0].Event != "SHUTDOWN" || !g.system[0].Retained {
		t.Errorf("system event: %+v", g.system[0])
	}
}

func TestAsyncPublisherCloseGivesUpOnStuckInner(t *testing.T) {
	g := newGatedPublisher()
	a := NewAsyncPublisher(g, 2)
	a.drainTimeout = 20 * time.Millisecond

	a.PublishSystem(SystemEvent{Event: "SHUTDOWN"})
	<-g.started

	start := time.Now()
	a.Close()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close took %v", elapsed)
	}
	if !g.closed {
		t.Error("inner publisher not closed after drain timeout")
	}
	close(g.release)
}

func TestAsyncPublisherAfterClose(t *testing.T) {
	g := newGatedPublisher()
	close(g.release)
	a := NewAsyncPublisher(g, 2)
	a.Close()

	if err := a.PublishTelemetry(telemetryAt(1)); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestAsyncPublisherCountsFailures(t *testing.T) {
	g := newGatedPublisher()
	g.err = errors.New("broker rejected")
	close(g.release)
	a := NewAsyncPublisher(g, 2)

	a.PublishTelemetry(telemetryAt(1))
	a.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	a.Close()

	if a.Failed() != 2 {
		t.Errorf("failed = %d, want 2", a.Failed())
	}
	if !a.IsConnected() {
		t.Error("IsConnected should follow the inner publisher")
	}
}

func TestAsyncPublisherOverStalledBroker(t *testing.T) {
	c := &fakeClient{open: true, stall: make(chan struct{})}
	p := newPublisher(c, 10)
	p.onConnect()
	a := NewAsyncPublisher(p, 4)
	a.drainTimeout = 20 * time.Millisecond

	start := time.Now()
	if err := a.PublishTelemetry(TelemetryEvent{Timestamp: time.Now(), Frame: testFrame()}); err != nil {
		t.Fatalf("PublishTelemetry: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("PublishTelemetry held the caller for %v", elapsed)
	}

	close(c.stall)
	a.Close()
}
