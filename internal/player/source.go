package player

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Source decodes a file to mono s16 samples without playing it. It backs
// the non-interactive dump and levels modes.
type Source struct {
	decoder  audioDecoder
	closer   io.Closer
	channels int
	raw      []byte
}

// Open opens path with the same decoders the Player uses.
func Open(path string) (*Source, error) {
	dec, closer, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	s, err := newSource(dec, closer)
	if err != nil {
		closer.Close()
		return nil, err
	}
	return s, nil
}

func newSource(dec audioDecoder, closer io.Closer) (*Source, error) {
	channels := dec.ChannelCount()
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	return &Source{decoder: dec, closer: closer, channels: channels}, nil
}

// ReadFrame returns up to n mono samples. A short final frame is returned
// with a nil error; io.EOF is only returned once no samples are left.
func (s *Source) ReadFrame(n int) ([]int16, error) {
	if n <= 0 {
		return nil, fmt.Errorf("frame size must be positive, got %d", n)
	}
	frameSize := s.channels * bytesPerSample
	need := n * frameSize
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	buf := s.raw[:need]

	got, err := io.ReadFull(s.decoder, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if got < frameSize {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return downmix(make([]int16, 0, got/frameSize), buf[:got], s.channels), nil
}

// ReadAll decodes the rest of the stream.
func (s *Source) ReadAll() ([]int16, error) {
	out := make([]int16, 0, s.decoder.Length()/int64(s.channels*bytesPerSample))
	chunk := max(1, s.decoder.SampleRate())
	for {
		frame, err := s.ReadFrame(chunk)
		out = append(out, frame...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

// SampleRate returns the sample rate of the decoded stream.
func (s *Source) SampleRate() int { return s.decoder.SampleRate() }

// Duration returns the total length of the stream.
func (s *Source) Duration() time.Duration {
	bytesPerSec := int64(s.decoder.SampleRate()) * int64(s.channels*bytesPerSample)
	if bytesPerSec == 0 {
		return 0
	}
	return time.Duration(float64(s.decoder.Length()) / float64(bytesPerSec) * float64(time.Second))
}

// Close releases the underlying file or ffmpeg process.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
