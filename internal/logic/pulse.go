package logic

// Pulse estimator constants.
const (
	// bpmNumerator converts an average interval in timer ticks to beats per minute.
	bpmNumerator = 1171875

	MinInterval = 20  // exclusive
	MaxInterval = 200 // exclusive
	MinBPM      = 50
	MaxBPM      = 180

	// MinBeatsForBPM is the number of accepted intervals before a rate is reported.
	MinBeatsForBPM = 3

	// RecenterEvery is the number of samples between min/max resets.
	RecenterEvery = 100

	pulseMidscale = 512
)

// PulseResult describes what one sample did to the estimator.
type PulseResult struct {
	Edge     bool   // rising threshold crossing seen
	Beat     bool   // edge accepted as a beat
	Interval uint16 // ticks since the previous beat, valid when Edge
	Updated  bool   // BPM recomputed
}

// PulseEstimator turns raw optical pulse samples into a smoothed rate.
type PulseEstimator struct {
	history   IntervalRing
	max       uint16
	min       uint16
	threshold uint16
	previous  uint16
	lastBeat  Tick
	samples   int
	bpm       uint16
	rejected  int
}

// NewPulseEstimator creates an estimator centered at mid-scale with no rate.
func NewPulseEstimator() *PulseEstimator {
	return &PulseEstimator{
		max:       pulseMidscale,
		min:       pulseMidscale,
		threshold: pulseMidscale,
	}
}

// Process consumes one sample taken at now.
func (p *PulseEstimator) Process(sample uint16, now Tick) PulseResult {
	var res PulseResult

	if sample > p.max {
		p.max = sample
	}
	if sample < p.min {
		p.min = sample
	}
	p.threshold = p.min + (p.max-p.min)/2

	if sample > p.threshold && p.previous <= p.threshold {
		res.Edge = true
		res.Interval = now.Since(p.lastBeat)

		if res.Interval > MinInterval && res.Interval < MaxInterval {
			res.Beat = true
			p.history.Push(res.Interval)
			if p.history.Len() >= MinBeatsForBPM {
				p.bpm = ratePerMinute(p.history.Sum() / uint32(p.history.Len()))
				res.Updated = true
			}
			p.lastBeat = now
		} else {
			p.rejected++
		}
	}

	p.previous = sample

	p.samples++
	if p.samples >= RecenterEvery {
		p.samples = 0
		p.max = sample
		p.min = sample
	}

	return res
}

func ratePerMinute(avg uint32) uint16 {
	bpm := uint32(bpmNumerator) / avg
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return uint16(bpm)
}

// BPM returns the last computed rate, 0 until MinBeatsForBPM beats are seen.
func (p *PulseEstimator) BPM() uint16 {
	return p.bpm
}

// Threshold returns the current adaptive threshold.
func (p *PulseEstimator) Threshold() uint16 {
	return p.threshold
}

// Range returns the running min and max of the raw signal.
func (p *PulseEstimator) Range() (min, max uint16) {
	return p.min, p.max
}

// Intervals returns the recorded beat intervals, oldest first.
func (p *PulseEstimator) Intervals() []uint16 {
	return p.history.Values()
}

// Beats returns the number of intervals held (saturates at HistorySize).
func (p *PulseEstimator) Beats() int {
	return p.history.Len()
}

// Rejected returns how many edges were discarded as implausible.
func (p *PulseEstimator) Rejected() int {
	return p.rejected
}
