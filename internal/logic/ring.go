package logic

// HistorySize is the number of beat intervals kept for averaging.
const HistorySize = 10

// IntervalRing is a fixed arena of beat intervals with a write index and a
// saturating length. Pushing into a full ring overwrites the oldest entry.
type IntervalRing struct {
	arena [HistorySize]uint16
	next  int
	count int
}

// Push stores an interval.
func (r *IntervalRing) Push(v uint16) {
	r.arena[r.next] = v
	r.next = (r.next + 1) % HistorySize
	if r.count < HistorySize {
		r.count++
	}
}

// Len returns the number of valid entries.
func (r *IntervalRing) Len() int {
	return r.count
}

// Sum returns the total of all valid entries.
func (r *IntervalRing) Sum() uint32 {
	var total uint32
	for i := 0; i < r.count; i++ {
		total += uint32(r.arena[i])
	}
	return total
}

// Values returns the valid entries, oldest first.
func (r *IntervalRing) Values() []uint16 {
	out := make([]uint16, r.count)
	start := (r.next - r.count + HistorySize) % HistorySize
	for i := 0; i < r.count; i++ {
		out[i] = r.arena[(start+i)%HistorySize]
	}
	return out
}
