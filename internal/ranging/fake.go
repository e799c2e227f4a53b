package ranging

// FakeSensor returns scripted distances.
type FakeSensor struct {
	// Readings are consumed one per call; the last repeats.
	Readings []uint16

	// ReadError, if set, is returned by Distance.
	ReadError error

	index int
}

// NewFakeSensor creates a FakeSensor with the given readings.
func NewFakeSensor(readings ...uint16) *FakeSensor {
	return &FakeSensor{Readings: readings}
}

// Set replaces the script with a single constant reading.
func (f *FakeSensor) Set(cm uint16) {
	f.Readings = []uint16{cm}
	f.index = 0
}

// Distance returns the next scripted reading, or 0 if none.
func (f *FakeSensor) Distance() (uint16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Readings) == 0 {
		return 0, nil
	}
	v := f.Readings[f.index]
	if f.index < len(f.Readings)-1 {
		f.index++
	}
	return v, nil
}
