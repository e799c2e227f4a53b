package mqtt

import (
	"errors"
	"log"
	"sync"
	"time"
)

// DefaultQueueSize is the number of events an AsyncPublisher holds while
// the underlying publisher is busy.
const DefaultQueueSize = 32

// DefaultDrainTimeout bounds how long Close waits for queued events.
const DefaultDrainTimeout = 3 * time.Second

// ErrClosed is returned when publishing after Close.
var ErrClosed = errors.New("mqtt: publisher closed")

type job struct {
	telemetry *TelemetryEvent
	system    *SystemEvent
}

// AsyncPublisher hands events to a background goroutine so callers never
// wait on the broker. When the queue is full the oldest event is dropped.
type AsyncPublisher struct {
	inner        Publisher
	queue        chan job
	done         chan struct{}
	drainTimeout time.Duration

	mu      sync.Mutex
	closed  bool
	dropped int
	failed  int
}

// NewAsyncPublisher starts a worker publishing through inner. size < 1
// selects DefaultQueueSize.
func NewAsyncPublisher(inner Publisher, size int) *AsyncPublisher {
	if size < 1 {
		size = DefaultQueueSize
	}
	a := &AsyncPublisher{
		inner:        inner,
		queue:        make(chan job, size),
		done:         make(chan struct{}),
		drainTimeout: DefaultDrainTimeout,
	}
	go a.run()
	return a
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for j := range a.queue {
		var err error
		if j.telemetry != nil {
			err = a.inner.PublishTelemetry(*j.telemetry)
		} else {
			err = a.inner.PublishSystem(*j.system)
		}
		if err != nil {
			a.mu.Lock()
			a.failed++
			a.mu.Unlock()
			log.Printf("mqtt: publish error: %v", err)
		}
	}
}

func (a *AsyncPublisher) enqueue(j job) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	for {
		select {
		case a.queue <- j:
			return nil
		default:
		}
		select {
		case <-a.queue:
			a.dropped++
		default:
		}
	}
}

// PublishTelemetry queues a telemetry frame. It never blocks.
func (a *AsyncPublisher) PublishTelemetry(event TelemetryEvent) error {
	return a.enqueue(job{telemetry: &event})
}

// PublishSystem queues a system event. It never blocks.
func (a *AsyncPublisher) PublishSystem(event SystemEvent) error {
	return a.enqueue(job{system: &event})
}

// IsConnected reports the inner publisher's connection state, or false if
// it does not track one.
func (a *AsyncPublisher) IsConnected() bool {
	if cs, ok := a.inner.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Dropped returns the number of events discarded because the queue was full.
func (a *AsyncPublisher) Dropped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

// Failed returns the number of events the inner publisher rejected.
func (a *AsyncPublisher) Failed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failed
}

// Close stops accepting events, waits up to the drain timeout for queued
// ones to go out, then closes the inner publisher.
func (a *AsyncPublisher) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-time.After(a.drainTimeout):
		log.Printf("mqtt: gave up draining after %v", a.drainTimeout)
	}
	return a.inner.Close()
}
