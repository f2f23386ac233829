package player

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/olivier-w/barscope/internal/media"
)

// ErrUnsupportedFormat is returned for files no decoder can open.
var ErrUnsupportedFormat = errors.New("unsupported format")

// audioDecoder is implemented by all format-specific decoders. Read yields
// interleaved s16le; Length and Seek are in bytes of that stream.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// openDecoder picks a decoder by extension, falling back to ffmpeg for
// containers without a native Go decoder. The returned closer releases the
// file or the ffmpeg process.
func openDecoder(path string) (audioDecoder, io.Closer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !media.IsNativeExt(ext) {
		if !hasFFmpeg() {
			return nil, nil, fmt.Errorf("%w: %s (install ffmpeg for non-native formats)", ErrUnsupportedFormat, ext)
		}
		d, err := newFFmpegDecoder(path)
		if err != nil {
			return nil, nil, err
		}
		return d, d, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	var dec audioDecoder
	switch ext {
	case ".mp3":
		dec, err = newMP3Decoder(f)
	case ".wav":
		dec, err = newWAVDecoder(f)
	case ".flac":
		dec, err = newFLACDecoder(f)
	case ".ogg":
		dec, err = newOGGDecoder(f)
	}
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return dec, f, nil
}

// --- MP3 ---

// go-mp3 always decodes to 16-bit stereo. Encoder priming and padding
// recorded in a LAME tag are cut so the stream starts on real audio.
type mp3Decoder struct {
	pcmCursor
	dec  *mp3.Decoder
	skip int64 // bytes of priming before position 0
}

const mp3FrameSize = 2 * bytesPerSample

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	trim, err := readGaplessTrim(f)
	if err != nil {
		return nil, fmt.Errorf("reading MP3 header: %w", err)
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}

	d := &mp3Decoder{dec: dec, skip: trim.start * mp3FrameSize}
	d.total = max(0, dec.Length()-(trim.start+trim.end)*mp3FrameSize)
	if d.skip > 0 {
		if _, err := dec.Seek(d.skip, io.SeekStart); err != nil {
			return nil, fmt.Errorf("skipping MP3 priming: %w", err)
		}
	}
	return d, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) {
	if d.pos >= d.total {
		return 0, io.EOF
	}
	p = p[:min(int64(len(p)), d.total-d.pos)]
	n, err := d.dec.Read(p)
	d.pos += int64(n)
	return n, err
}

func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	pos := d.target(offset, whence, mp3FrameSize)
	if _, err := d.dec.Seek(d.skip+pos, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moveTo(pos)
	return pos, nil
}

func (d *mp3Decoder) Length() int64     { return d.total }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV ---

const wavFormatFloat = 3

type wavDecoder struct {
	pcmCursor
	file        *os.File
	pcmStart    int64 // file offset of the first PCM byte
	sampleRate  int
	channels    int
	srcBits     int
	float       bool
	srcFrame    int64
	scratch     []byte
	conversions []byte
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	bits := int(dec.BitDepth)
	isFloat := dec.WavAudioFormat == wavFormatFloat
	switch {
	case channels < 1:
		return nil, fmt.Errorf("WAV has no channels")
	case isFloat && bits != 32:
		return nil, fmt.Errorf("unsupported WAV float depth: %d", bits)
	case bits != 8 && bits != 16 && bits != 24 && bits != 32:
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", bits)
	}

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	srcFrame := int64(channels * bits / 8)
	frames := dec.PCMLen() / srcFrame
	return &wavDecoder{
		pcmCursor:  pcmCursor{total: frames * int64(channels) * bytesPerSample},
		file:       f,
		pcmStart:   pcmStart,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		srcBits:    bits,
		float:      isFloat,
		srcFrame:   srcFrame,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}
	if d.pos >= d.total {
		return 0, io.EOF
	}

	// chunks after data (LIST, id3) are not audio
	srcBytes := d.srcBits / 8
	want := max(len(p)/bytesPerSample, 1)
	want = int(min(int64(want), (d.total-d.pos)/bytesPerSample))
	if cap(d.scratch) < want*srcBytes {
		d.scratch = make([]byte, want*srcBytes)
	}
	src := d.scratch[:want*srcBytes]
	n, err := io.ReadFull(d.file, src)
	samples := n / srcBytes
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	if cap(d.conversions) < samples*bytesPerSample {
		d.conversions = make([]byte, samples*bytesPerSample)
	}
	raw := d.conversions[:samples*bytesPerSample]
	for i := range samples {
		putSample(raw[i*bytesPerSample:], d.sample(src[i*srcBytes:]))
	}

	written := d.emit(p, raw)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == io.EOF && len(d.pending) > 0 {
		err = nil
	}
	return written, err
}

// sample converts one source sample to the 16-bit range.
func (d *wavDecoder) sample(b []byte) int {
	switch d.srcBits {
	case 8:
		// 8-bit WAV is unsigned
		return (int(b[0]) - 128) << 8
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if s&0x800000 != 0 {
			s |= ^0xFFFFFF
		}
		return int(s >> 8)
	default:
		if d.float {
			f := math.Float32frombits(binary.LittleEndian.Uint32(b))
			return int(max(-1, min(f, 1)) * 32767)
		}
		return int(int32(binary.LittleEndian.Uint32(b)) >> 16)
	}
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	outFrame := int64(d.channels) * bytesPerSample
	pos := d.target(offset, whence, outFrame)
	src := d.pcmStart + pos/outFrame*d.srcFrame
	if _, err := d.file.Seek(src, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moveTo(pos)
	return pos, nil
}

func (d *wavDecoder) Length() int64     { return d.total }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

// --- FLAC ---

type flacDecoder struct {
	pcmCursor
	stream     *flac.Stream
	sampleRate int
	channels   int
	bps        int
	raw        []byte
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcmCursor:  pcmCursor{total: int64(info.NSamples) * int64(channels) * bytesPerSample},
		stream:     stream,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	n := int(frame.Subframes[0].NSamples)
	size := n * d.channels * bytesPerSample
	if cap(d.raw) < size {
		d.raw = make([]byte, size)
	}
	raw := d.raw[:size]
	for i := range n {
		for ch := range d.channels {
			s := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				s >>= d.bps - 16
			case d.bps < 16:
				s <<= 16 - d.bps
			}
			putSample(raw[(i*d.channels+ch)*bytesPerSample:], s)
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	frameSize := int64(d.channels) * bytesPerSample
	pos := d.target(offset, whence, frameSize)
	if _, err := d.stream.Seek(uint64(pos / frameSize)); err != nil {
		return d.pos, err
	}
	d.moveTo(pos)
	return pos, nil
}

func (d *flacDecoder) Length() int64     { return d.total }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

// --- Ogg Vorbis ---

type oggDecoder struct {
	pcmCursor
	reader  *oggvorbis.Reader
	samples []float32
	raw     []byte
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	total := reader.Length() * int64(reader.Channels()) * bytesPerSample
	return &oggDecoder{
		pcmCursor: pcmCursor{total: total},
		reader:    reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.pending) > 0 {
		return d.drain(p), nil
	}

	want := max(len(p)/bytesPerSample, d.reader.Channels())
	if cap(d.samples) < want {
		d.samples = make([]float32, want)
	}
	n, err := d.reader.Read(d.samples[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	if cap(d.raw) < n*bytesPerSample {
		d.raw = make([]byte, n*bytesPerSample)
	}
	raw := d.raw[:n*bytesPerSample]
	for i, s := range d.samples[:n] {
		putSample(raw[i*bytesPerSample:], int(max(-1, min(s, 1))*32767))
	}
	written := d.emit(p, raw)
	if err == io.EOF && len(d.pending) > 0 {
		err = nil
	}
	return written, err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	frameSize := int64(d.reader.Channels()) * bytesPerSample
	pos := d.target(offset, whence, frameSize)
	if err := d.reader.SetPosition(pos / frameSize); err != nil {
		return d.pos, err
	}
	d.moveTo(pos)
	return pos, nil
}

func (d *oggDecoder) Length() int64     { return d.total }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.reader.Channels() }
