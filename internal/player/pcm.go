package player

import (
	"encoding/binary"
	"io"
)

const bytesPerSample = 2 // s16le

// pcmCursor is the bookkeeping shared by decoders that convert their source
// into s16le: leftover bytes from the last conversion, the output position,
// and the output length.
type pcmCursor struct {
	pending []byte
	pos     int64
	total   int64
}

// drain copies pending bytes into p.
func (c *pcmCursor) drain(p []byte) int {
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	c.pos += int64(n)
	return n
}

// emit copies raw into p and keeps whatever did not fit for the next read.
func (c *pcmCursor) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		c.pending = append(c.pending[:0], raw[n:]...)
	}
	c.pos += int64(n)
	return n
}

// target resolves a Seek request to an output byte offset clamped to
// [0, total] and aligned down to frameSize.
func (c *pcmCursor) target(offset int64, whence int, frameSize int64) int64 {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = c.pos + offset
	case io.SeekEnd:
		pos = c.total + offset
	}
	pos = max(0, min(pos, c.total))
	return pos - pos%frameSize
}

func (c *pcmCursor) moveTo(pos int64) {
	c.pending = c.pending[:0]
	c.pos = pos
}

// putSample clamps v to the int16 range and writes it little-endian.
func putSample(dst []byte, v int) {
	v = max(-32768, min(v, 32767))
	binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
}

// downmix averages interleaved s16le frames into mono samples appended to
// dst. Trailing bytes that do not form a whole frame are ignored.
func downmix(dst []int16, pcm []byte, channels int) []int16 {
	frameSize := channels * bytesPerSample
	for off := 0; off+frameSize <= len(pcm); off += frameSize {
		if channels == 1 {
			dst = append(dst, int16(binary.LittleEndian.Uint16(pcm[off:])))
			continue
		}
		sum := 0
		for ch := range channels {
			sum += int(int16(binary.LittleEndian.Uint16(pcm[off+ch*bytesPerSample:])))
		}
		dst = append(dst, int16(sum/channels))
	}
	return dst
}
