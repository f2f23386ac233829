package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var errFFmpegNotFound = errors.New("ffmpeg not found (required for non-native formats)")

// ffmpegDecoder pipes s16le PCM out of an ffmpeg subprocess at the source
// rate and channel count. Seeking restarts the process with -ss.
type ffmpegDecoder struct {
	path       string
	sampleRate int
	channels   int
	totalBytes int64

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
	pos    int64
	closed bool
}

type audioProbe struct {
	sampleRate int
	channels   int
	duration   time.Duration
}

// ffprobeResult holds the fields of ffprobe's JSON output we use.
type ffprobeResult struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func newFFmpegDecoder(path string) (*ffmpegDecoder, error) {
	probe, err := probeAudio(path)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", path, err)
	}

	bytesPerSec := probe.sampleRate * probe.channels * bytesPerSample
	d := &ffmpegDecoder{
		path:       path,
		sampleRate: probe.sampleRate,
		channels:   probe.channels,
		totalBytes: int64(probe.duration.Seconds() * float64(bytesPerSec)),
	}

	logrus.WithFields(logrus.Fields{
		"function":    "newFFmpegDecoder",
		"path":        path,
		"sample_rate": d.sampleRate,
		"channels":    d.channels,
		"duration":    probe.duration,
	}).Debug("Decoding through ffmpeg")

	if err := d.startProcess(0); err != nil {
		return nil, err
	}
	return d, nil
}

func probeAudio(path string) (*audioProbe, error) {
	ffprobe, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, errors.New("ffprobe not found (required for non-native formats)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "a:0",
		path,
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (*audioProbe, error) {
	var result ffprobeResult
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return nil, errors.New("no audio stream found")
	}

	stream := result.Streams[0]
	probe := &audioProbe{sampleRate: 44100, channels: 2}
	if sr, err := strconv.Atoi(stream.SampleRate); err == nil && sr > 0 {
		probe.sampleRate = sr
	}
	if stream.Channels > 0 {
		probe.channels = min(stream.Channels, 2)
	}
	if sec, err := strconv.ParseFloat(result.Format.Duration, 64); err == nil && sec > 0 {
		probe.duration = time.Duration(sec * float64(time.Second))
	}
	return probe, nil
}

// startProcess launches ffmpeg decoding from the given output byte offset.
// The caller holds d.mu or owns d exclusively.
func (d *ffmpegDecoder) startProcess(from int64) error {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return errFFmpegNotFound
	}
	d.stopProcess()

	args := []string{"-v", "quiet"}
	if from > 0 {
		bytesPerSec := float64(d.sampleRate * d.channels * bytesPerSample)
		args = append(args, "-ss", formatSeekTime(float64(from)/bytesPerSec))
	}
	args = append(args,
		"-i", d.path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(d.sampleRate),
		"-ac", strconv.Itoa(d.channels),
		"pipe:1",
	)

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("setting up ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	d.cmd = cmd
	d.stdout = stdout
	d.cancel = cancel
	d.pos = from
	return nil
}

func (d *ffmpegDecoder) stopProcess() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.cmd != nil {
		// Wait reports the kill we just caused.
		_ = d.cmd.Wait()
		d.cmd = nil
	}
	d.stdout = nil
}

func (d *ffmpegDecoder) Read(p []byte) (int, error) {
	d.mu.Lock()
	if d.closed || d.stdout == nil {
		d.mu.Unlock()
		return 0, io.EOF
	}
	stdout := d.stdout
	d.mu.Unlock()

	n, err := stdout.Read(p)

	d.mu.Lock()
	d.pos += int64(n)
	d.mu.Unlock()
	return n, err
}

func (d *ffmpegDecoder) Seek(offset int64, whence int) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c := pcmCursor{pos: d.pos, total: d.totalBytes}
	pos := c.target(offset, whence, int64(d.channels)*bytesPerSample)
	if err := d.startProcess(pos); err != nil {
		return d.pos, err
	}
	return pos, nil
}

func (d *ffmpegDecoder) Length() int64     { return d.totalBytes }
func (d *ffmpegDecoder) SampleRate() int   { return d.sampleRate }
func (d *ffmpegDecoder) ChannelCount() int { return d.channels }

// Close stops the subprocess.
func (d *ffmpegDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.stopProcess()
	return nil
}

// formatSeekTime formats seconds as HH:MM:SS.mmm for ffmpeg -ss.
func formatSeekTime(seconds float64) string {
	seconds = max(seconds, 0)
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

func hasFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
