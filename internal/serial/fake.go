package serial

import "bytes"

// FakePort is a scripted Port for tests.
type FakePort struct {
	// Incoming holds bytes waiting to be received, oldest first.
	Incoming []byte

	// OverrunFlag simulates a receiver overrun.
	OverrunFlag bool

	// Resets counts ResetReceiver calls.
	Resets int

	// TxBusy makes TxReady report false.
	TxBusy bool

	// Written captures transmitted data.
	Written bytes.Buffer

	// WriteError, if set, is returned by Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePort creates an idle FakePort.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Inject queues bytes as if received from the remote end.
func (f *FakePort) Inject(b ...byte) {
	f.Incoming = append(f.Incoming, b...)
}

// Ready reports whether Incoming is non-empty.
func (f *FakePort) Ready() bool {
	return len(f.Incoming) > 0
}

// Overrun returns OverrunFlag.
func (f *FakePort) Overrun() bool {
	return f.OverrunFlag
}

// ResetReceiver clears the overrun flag.
func (f *FakePort) ResetReceiver() error {
	f.Resets++
	f.OverrunFlag = false
	return nil
}

// ReceiveByte pops the oldest incoming byte.
func (f *FakePort) ReceiveByte() (byte, error) {
	if len(f.Incoming) == 0 {
		return 0, ErrNoData
	}
	b := f.Incoming[0]
	f.Incoming = f.Incoming[1:]
	return b, nil
}

// TxReady reports !TxBusy.
func (f *FakePort) TxReady() bool {
	return !f.TxBusy
}

// Write records p.
func (f *FakePort) Write(p []byte) (int, error) {
	if f.WriteError != nil {
		return 0, f.WriteError
	}
	return f.Written.Write(p)
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}
