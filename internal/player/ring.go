package player

import "sync"

// SampleRing keeps the most recent mono samples of a stream. Samples are
// addressed by their absolute index in the stream, so a reader can ask for
// "everything between frame a and frame b" without tracking wraparound.
type SampleRing struct {
	mu   sync.Mutex
	buf  []int16
	base int64 // first index written since the last Reset
	end  int64 // one past the newest sample
}

// NewSampleRing returns a ring holding at most capacity samples.
func NewSampleRing(capacity int) *SampleRing {
	return &SampleRing{buf: make([]int16, max(1, capacity))}
}

// Write appends samples, overwriting the oldest ones once the ring is full.
func (r *SampleRing) Write(samples []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := int64(len(r.buf))
	if int64(len(samples)) > size {
		r.end += int64(len(samples)) - size
		samples = samples[int64(len(samples))-size:]
	}
	for _, s := range samples {
		r.buf[r.end%size] = s
		r.end++
	}
}

// Range returns a copy of the retained samples with absolute indices in
// [from, to). Indices that were overwritten or never written are skipped.
func (r *SampleRing) Range(from, to int64) []int16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := int64(len(r.buf))
	from = max(from, r.base, r.end-size)
	to = min(to, r.end)
	if to <= from {
		return nil
	}
	out := make([]int16, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, r.buf[i%size])
	}
	return out
}

// End returns the index one past the newest sample.
func (r *SampleRing) End() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.end
}

// Reset discards the retained samples and continues numbering at index at.
func (r *SampleRing) Reset(at int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base = max(0, at)
	r.end = r.base
}
