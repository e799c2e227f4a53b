// Package serial provides the byte-oriented command/telemetry link.
// A Port exposes receiver status flags the way a UART does; Transport adds
// overrun recovery and bounded waits on top of it.
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sweeney/wheelchair/internal/bounded"
)

// ErrNoData is returned when no byte arrives within the read timeout.
var ErrNoData = errors.New("serial: no data")

// ErrTxBusy is returned when the transmitter never becomes ready.
var ErrTxBusy = errors.New("serial: transmitter busy")

// Port is the UART capability used by Transport.
type Port interface {
	io.Writer
	io.Closer

	// Ready reports whether a received byte is waiting.
	Ready() bool
	// Overrun reports whether the receiver dropped a byte.
	Overrun() bool
	// ResetReceiver re-enables the receiver and clears the overrun flag.
	// The byte that caused the overrun is lost.
	ResetReceiver() error
	// ReceiveByte pops the oldest received byte.
	ReceiveByte() (byte, error)
	// TxReady reports whether the transmitter accepts data.
	TxReady() bool
}

// Bounds for the waits.
const (
	// DefaultReadTimeout bounds ReadByte. A single Ready check on a UART may
	// block for up to pollTimeout itself, so the worst case is
	// DefaultReadTimeout plus one pollTimeout (about 6ms).
	DefaultReadTimeout = 5 * time.Millisecond
	DefaultWritePolls  = 10000

	readPollInterval = 100 * time.Microsecond
)

// Transport wraps a Port with the recovery and timeout rules of the link.
type Transport struct {
	port        Port
	wait        *bounded.Waiter
	readTimeout time.Duration
	writePolls  int

	// Overruns counts receiver resets.
	Overruns int
}

// NewTransport creates a Transport with the default bounds.
func NewTransport(port Port) *Transport {
	return &Transport{
		port:        port,
		wait:        bounded.NewWaiter(readPollInterval),
		readTimeout: DefaultReadTimeout,
		writePolls:  DefaultWritePolls,
	}
}

// Pending reports whether a command byte is waiting. It never blocks.
func (t *Transport) Pending() bool {
	return t.port.Ready() || t.port.Overrun()
}

// ReadByte returns the next received byte. A pending overrun is cleared
// first by resetting the receiver. If nothing arrives within the read
// timeout ErrNoData is returned.
func (t *Transport) ReadByte() (byte, error) {
	if t.port.Overrun() {
		t.Overruns++
		if err := t.port.ResetReceiver(); err != nil {
			return 0, fmt.Errorf("serial: reset receiver: %w", err)
		}
	}
	if err := t.wait.Until(t.readTimeout, t.port.Ready); err != nil {
		if errors.Is(err, bounded.ErrTimeout) {
			return 0, ErrNoData
		}
		return 0, err
	}
	return t.port.ReceiveByte()
}

// WriteString sends s once the transmitter is ready.
func (t *Transport) WriteString(s string) error {
	if !bounded.Spin(t.writePolls, t.port.TxReady) {
		return ErrTxBusy
	}
	if _, err := io.WriteString(t.port, s); err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	return nil
}

// Close closes the underlying port.
func (t *Transport) Close() error {
	return t.port.Close()
}
