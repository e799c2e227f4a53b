package adc

// FakeSampler returns scripted samples per channel.
type FakeSampler struct {
	// Samples maps a channel to its scripted values. Each read consumes the
	// next value; the last value repeats. Unscripted channels read 0.
	Samples map[uint8][]uint16

	// Reads counts reads per channel, including rejected ones.
	Reads map[uint8]int

	// ReadError, if set, is returned for every valid channel.
	ReadError error

	index map[uint8]int
}

// NewFakeSampler creates an empty FakeSampler.
func NewFakeSampler() *FakeSampler {
	return &FakeSampler{
		Samples: make(map[uint8][]uint16),
		Reads:   make(map[uint8]int),
		index:   make(map[uint8]int),
	}
}

// Set replaces the script for a channel and rewinds it.
func (f *FakeSampler) Set(ch uint8, samples ...uint16) {
	f.Samples[ch] = samples
	f.index[ch] = 0
}

// ReadChannel returns the next scripted sample for ch.
func (f *FakeSampler) ReadChannel(ch uint8) (uint16, error) {
	f.Reads[ch]++
	if !Valid(ch) {
		return 0, nil
	}
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	s := f.Samples[ch]
	if len(s) == 0 {
		return 0, nil
	}
	i := f.index[ch]
	v := s[i]
	if i < len(s)-1 {
		f.index[ch] = i + 1
	}
	return v, nil
}
