package gpio

// FakeBoard is a test double that records outputs and returns scripted
// switch samples.
type FakeBoard struct {
	// Bridge is the pattern currently asserted.
	Bridge BridgeLevels

	// BridgeWrites records every pattern passed to SetBridge.
	BridgeWrites []BridgeLevels

	// Alarm and Indicator hold the current output levels.
	Alarm     bool
	Indicator bool

	// IndicatorPulses counts rising edges on the indicator.
	IndicatorPulses int

	// Switch contains scripted button samples (true = pressed).
	// Each call to SwitchPressed consumes the next sample; the last repeats.
	Switch []bool

	index int

	// Closed tracks if Close was called.
	Closed bool

	// WriteError, if set, is returned by every output method.
	WriteError error

	// ReadError, if set, is returned by SwitchPressed.
	ReadError error
}

// NewFakeBoard creates a FakeBoard with the switch released.
func NewFakeBoard() *FakeBoard {
	return &FakeBoard{}
}

// SetBridge records the pattern.
func (f *FakeBoard) SetBridge(levels BridgeLevels) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Bridge = levels
	f.BridgeWrites = append(f.BridgeWrites, levels)
	return nil
}

// SetAlarm records the alarm level.
func (f *FakeBoard) SetAlarm(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Alarm = on
	return nil
}

// SetIndicator records the indicator level and counts pulses.
func (f *FakeBoard) SetIndicator(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if on && !f.Indicator {
		f.IndicatorPulses++
	}
	f.Indicator = on
	return nil
}

// SwitchPressed returns the next scripted sample, or false if none.
func (f *FakeBoard) SwitchPressed() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Switch) == 0 {
		return false, nil
	}
	v := f.Switch[f.index]
	if f.index < len(f.Switch)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the board as closed.
func (f *FakeBoard) Close() error {
	f.Closed = true
	return nil
}
