package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	bugst "go.bug.st/serial"
)

// DefaultFIFODepth is the receive FIFO size of the host UART adapter.
const DefaultFIFODepth = 16

// pollTimeout bounds each read attempt on the OS device.
const pollTimeout = time.Millisecond

// UART adapts a byte stream (an OS serial device) to the Port contract.
// Received bytes are held in a fixed FIFO; a byte arriving while the FIFO
// is full is dropped and flags an overrun.
// Not safe for concurrent use.
type UART struct {
	rw       io.ReadWriteCloser
	fifo     []byte
	head     int
	count    int
	overrun  bool
	scratch  [32]byte
	readErrs int
}

// NewUART wraps rw. rw.Read must return promptly when no data is available.
func NewUART(rw io.ReadWriteCloser, depth int) *UART {
	if depth <= 0 {
		depth = DefaultFIFODepth
	}
	return &UART{rw: rw, fifo: make([]byte, depth)}
}

// OpenUART opens the serial device at path with the given options.
func OpenUART(path string, opts PortOptions) (*UART, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := bugst.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(pollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return NewUART(port, DefaultFIFODepth), nil
}

func (u *UART) push(b byte) {
	if u.count == len(u.fifo) {
		u.overrun = true
		return
	}
	u.fifo[(u.head+u.count)%len(u.fifo)] = b
	u.count++
}

// fill moves whatever the device has into the FIFO.
func (u *UART) fill() {
	n, err := u.rw.Read(u.scratch[:])
	for i := 0; i < n; i++ {
		u.push(u.scratch[i])
	}
	if err != nil && !errors.Is(err, io.EOF) {
		u.readErrs++
	}
}

// Ready reports whether a byte is waiting, polling the device if needed.
// With an empty FIFO it blocks for up to pollTimeout.
func (u *UART) Ready() bool {
	if u.count == 0 {
		u.fill()
	}
	return u.count > 0
}

// Overrun reports whether a byte was dropped since the last reset.
func (u *UART) Overrun() bool {
	return u.overrun
}

// ResetReceiver clears the overrun flag. Bytes already in the FIFO are kept.
func (u *UART) ResetReceiver() error {
	u.overrun = false
	return nil
}

// ReceiveByte pops the oldest byte from the FIFO.
func (u *UART) ReceiveByte() (byte, error) {
	if u.count == 0 {
		return 0, ErrNoData
	}
	b := u.fifo[u.head]
	u.head = (u.head + 1) % len(u.fifo)
	u.count--
	return b, nil
}

// TxReady is always true: the OS driver buffers transmit data.
func (u *UART) TxReady() bool {
	return true
}

// Write sends p to the device.
func (u *UART) Write(p []byte) (int, error) {
	return u.rw.Write(p)
}

// ReadErrors returns the number of failed device reads.
func (u *UART) ReadErrors() int {
	return u.readErrs
}

// Close closes the device.
func (u *UART) Close() error {
	return u.rw.Close()
}
