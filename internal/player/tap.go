package player

import (
	"errors"
	"io"
	"sync"
)

// monoTap downmixes the interleaved bytes flowing to the audio device and
// appends them to a SampleRing. Partial frames are carried to the next
// write.
type monoTap struct {
	channels int
	ring     *SampleRing
	carry    []byte
	scratch  []int16
}

func newMonoTap(channels int, ring *SampleRing) *monoTap {
	return &monoTap{channels: channels, ring: ring}
}

func (t *monoTap) write(p []byte) {
	if len(t.carry) > 0 {
		t.carry = append(t.carry, p...)
		p = t.carry
	}
	frameSize := t.channels * bytesPerSample
	whole := len(p) - len(p)%frameSize
	t.scratch = downmix(t.scratch[:0], p[:whole], t.channels)
	if len(t.scratch) > 0 {
		t.ring.Write(t.scratch)
	}
	t.carry = append(t.carry[:0], p[whole:]...)
}

func (t *monoTap) reset() {
	t.carry = t.carry[:0]
}

// countingReader wraps the decoder handed to oto, tracking the byte offset
// of everything read and feeding it through the tap.
type countingReader struct {
	reader io.ReadSeeker
	tap    *monoTap
	pos    int64
	eof    bool
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	if cr.tap != nil && n > 0 {
		cr.tap.write(p[:n])
	}
	if errors.Is(err, io.EOF) {
		cr.eof = true
	}
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

// EOF reports whether the wrapped reader has been read to its end.
func (cr *countingReader) EOF() bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.eof
}

// SetPos moves the counter after a seek and drops any partial frame held
// by the tap.
func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.eof = false
	if cr.tap != nil {
		cr.tap.reset()
	}
	cr.mu.Unlock()
}
