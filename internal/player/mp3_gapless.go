package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// mp3DecoderDelaySamples is the fixed decoder delay of an MPEG-1 Layer III
// synthesis filterbank, added on top of the encoder delay LAME records.
const mp3DecoderDelaySamples = 529

// gaplessTrim is the number of priming and padding samples per channel to
// drop from the start and end of a decoded MP3.
type gaplessTrim struct {
	start int64
	end   int64
}

var errNoFrameHeader = errors.New("no mp3 frame header")

// readGaplessTrim looks for a LAME tag in the first frame. Files without
// one yield a zero trim. The reader position is restored before returning.
func readGaplessTrim(r io.ReadSeeker) (gaplessTrim, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return gaplessTrim{}, err
	}
	defer r.Seek(pos, io.SeekStart)

	frameOffset, err := firstFrameOffset(r)
	if err != nil {
		return gaplessTrim{}, nil
	}
	if _, err := r.Seek(frameOffset, io.SeekStart); err != nil {
		return gaplessTrim{}, err
	}

	// frame header, optional CRC, side info, then at most ~150 bytes of tag
	buf := make([]byte, 4+2+32+256)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return gaplessTrim{}, nil
	}
	buf = buf[:n]

	tagOffset, err := xingOffset(buf)
	if err != nil || tagOffset > len(buf) {
		return gaplessTrim{}, nil
	}
	trim, _ := parseLAMETrim(buf[tagOffset:])
	return trim, nil
}

// firstFrameOffset skips a leading ID3v2 tag.
func firstFrameOffset(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	header := make([]byte, 10)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, err
	}
	if !bytes.Equal(header[:3], []byte("ID3")) {
		return 0, nil
	}
	size := synchsafeUint32(header[6:10])
	if header[5]&0x10 != 0 {
		size += 10 // footer
	}
	return int64(10 + size), nil
}

func synchsafeUint32(b []byte) int {
	return int(b[0]&0x7f)<<21 | int(b[1]&0x7f)<<14 | int(b[2]&0x7f)<<7 | int(b[3]&0x7f)
}

// xingOffset returns where the Xing/Info tag starts relative to the frame
// header in b: after the header, the CRC if present, and the side info.
func xingOffset(b []byte) (int, error) {
	if len(b) < 4 {
		return 0, errNoFrameHeader
	}
	h := binary.BigEndian.Uint32(b)
	if h>>21 != 0x7ff {
		return 0, errNoFrameHeader
	}

	version := (h >> 19) & 0x3
	layer := (h >> 17) & 0x3
	noCRC := (h>>16)&0x1 == 1
	mono := (h>>6)&0x3 == 0x3
	if layer != 0x1 || version == 0x1 {
		return 0, errNoFrameHeader
	}

	var sideInfo int
	switch mpeg1 := version == 0x3; {
	case mpeg1 && mono:
		sideInfo = 17
	case mpeg1:
		sideInfo = 32
	case mono:
		sideInfo = 9
	default:
		sideInfo = 17
	}
	offset := 4 + sideInfo
	if !noCRC {
		offset += 2
	}
	return offset, nil
}

// parseLAMETrim reads the encoder delay and padding stored 21 bytes into
// the LAME extension that follows the Xing fields.
func parseLAMETrim(b []byte) (gaplessTrim, bool) {
	if len(b) < 8 {
		return gaplessTrim{}, false
	}
	if tag := string(b[:4]); tag != "Xing" && tag != "Info" {
		return gaplessTrim{}, false
	}

	flags := binary.BigEndian.Uint32(b[4:8])
	offset := 8
	for _, field := range []struct {
		bit  uint32
		size int
	}{{0x1, 4}, {0x2, 4}, {0x4, 100}, {0x8, 4}} {
		if flags&field.bit != 0 {
			offset += field.size
		}
	}
	if len(b) < offset+24 {
		return gaplessTrim{}, false
	}

	dp := b[offset+21 : offset+24]
	delay := int64(dp[0])<<4 | int64(dp[1]>>4)
	padding := int64(dp[1]&0x0f)<<8 | int64(dp[2])
	if delay == 0 && padding == 0 {
		return gaplessTrim{}, false
	}
	return gaplessTrim{
		start: delay + mp3DecoderDelaySamples,
		end:   max(0, padding-mp3DecoderDelaySamples),
	}, true
}
