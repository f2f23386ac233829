package player

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/olivier-w/barscope/internal/analyser"
	"github.com/sirupsen/logrus"
)

// ringSeconds is how much played audio the tap keeps for the analyser.
const ringSeconds = 2

// Options controls how a Player is started.
type Options struct {
	// Mute skips the audio device entirely; Drain then advances the
	// stream by one animation frame per call.
	Mute   bool
	Volume float64
	FPS    int
}

// Player plays a file through oto and exposes the mono samples that have
// actually reached the device since the last Drain.
type Player struct {
	decoder     audioDecoder
	counter     *countingReader
	ring        *SampleRing
	otoCtx      *oto.Context
	otoPlayer   *oto.Player
	frameSize   int64
	bytesPerSec int64
	perTick     int
	duration    time.Duration
	volume      float64
	muted       bool
	paused      bool
	heard       int64 // absolute frame index already handed out by Drain
	done        chan struct{}
	stopMon     chan struct{}
	cleanup     func()
	mu          sync.Mutex
	closed      bool
}

var (
	globalOtoCtx *oto.Context
	otoFormat    [2]int
	otoOnce      sync.Once
	otoInitErr   error
)

// initOto creates the process-wide oto context. oto allows only one, so the
// first caller fixes its rate and channel count.
func initOto(rate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
			otoFormat = [2]int{rate, channels}
		}
	})
	if otoInitErr != nil {
		return nil, fmt.Errorf("audio device: %w", otoInitErr)
	}
	if otoFormat != [2]int{rate, channels} {
		return nil, fmt.Errorf("audio device already opened at %d Hz/%d ch", otoFormat[0], otoFormat[1])
	}
	return globalOtoCtx, nil
}

// New opens path and starts playback, or prepares muted stepping when
// opts.Mute is set.
func New(path string, opts Options) (*Player, error) {
	dec, closer, err := openDecoder(path)
	if err != nil {
		return nil, err
	}

	p, err := newPlayer(dec, opts)
	if err != nil {
		closer.Close()
		return nil, err
	}
	p.cleanup = func() {
		if err := closer.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Player.Close",
				"path":     path,
			}).WithError(err).Warn("closing decoder")
		}
	}

	if !p.muted {
		if ch := dec.ChannelCount(); ch < 1 || ch > 2 {
			closer.Close()
			return nil, fmt.Errorf("%w: %d channels (use -mute to analyse without playback)", ErrUnsupportedFormat, ch)
		}
		ctx, err := initOto(dec.SampleRate(), dec.ChannelCount())
		if err != nil {
			closer.Close()
			return nil, err
		}
		p.otoCtx = ctx
		p.startOutput(true)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "player.New",
		"path":        path,
		"sample_rate": dec.SampleRate(),
		"channels":    dec.ChannelCount(),
		"duration":    p.duration,
		"muted":       p.muted,
	}).Info("player ready")

	go p.monitor()
	return p, nil
}

// newPlayer wires the bookkeeping around dec without touching the audio
// device.
func newPlayer(dec audioDecoder, opts Options) (*Player, error) {
	rate, channels := dec.SampleRate(), dec.ChannelCount()
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, channels)
	}
	perTick, err := analyser.SamplesPerFrame(rate, opts.FPS)
	if err != nil {
		return nil, err
	}

	frameSize := int64(channels * bytesPerSample)
	bytesPerSec := int64(rate) * frameSize
	ring := NewSampleRing(rate * ringSeconds)

	return &Player{
		decoder:     dec,
		counter:     &countingReader{reader: dec, tap: newMonoTap(channels, ring)},
		ring:        ring,
		frameSize:   frameSize,
		bytesPerSec: bytesPerSec,
		perTick:     perTick,
		duration:    time.Duration(float64(dec.Length()) / float64(bytesPerSec) * float64(time.Second)),
		volume:      clampVolume(opts.Volume),
		muted:       opts.Mute,
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
	}, nil
}

// startOutput replaces the oto player so nothing buffered before a seek
// keeps playing. Caller holds p.mu, or is New.
func (p *Player) startOutput(play bool) {
	if p.otoCtx == nil {
		return
	}
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	p.otoPlayer = p.otoCtx.NewPlayer(p.counter)
	p.otoPlayer.SetVolume(p.volume)
	if play {
		p.otoPlayer.Play()
	}
}

func (p *Player) monitor() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopMon:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		finished, done := p.finishedLocked(), p.done
		p.mu.Unlock()
		if finished {
			close(done)
			return
		}
	}
}

// finishedLocked reports whether the decoder is exhausted and everything
// read from it has been played.
func (p *Player) finishedLocked() bool {
	if p.closed || p.paused {
		return false
	}
	if !p.counter.EOF() && p.counter.Pos() < p.decoder.Length() {
		return false
	}
	if p.otoPlayer != nil {
		if err := p.otoPlayer.Err(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Player.monitor",
			}).WithError(err).Error("audio output failed")
			return true
		}
		return p.otoPlayer.BufferedSize() == 0
	}
	return true
}

// Drain returns the mono samples played since the previous call. Muted
// players first pull one animation frame's worth from the decoder.
func (p *Player) Drain() []int16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	if p.muted && !p.paused {
		p.pullLocked(p.perTick)
	}
	from := p.heard
	p.heard = max(p.heard, p.playedBytesLocked()/p.frameSize)
	return p.ring.Range(from, p.heard)
}

// SetFPS changes how far a muted player advances per Drain.
func (p *Player) SetFPS(fps int) error {
	perTick, err := analyser.SamplesPerFrame(p.decoder.SampleRate(), fps)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.perTick = perTick
	p.mu.Unlock()
	return nil
}

func (p *Player) pullLocked(frames int) {
	buf := make([]byte, int64(frames)*p.frameSize)
	_, err := io.ReadFull(p.counter, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		logrus.WithFields(logrus.Fields{
			"function": "Player.Drain",
		}).WithError(err).Warn("decoder read failed")
	}
}

// playedBytesLocked is the stream offset that has reached the speakers:
// bytes read by oto minus what is still queued in it.
func (p *Player) playedBytesLocked() int64 {
	pos := p.counter.Pos()
	if p.otoPlayer != nil {
		pos -= int64(p.otoPlayer.BufferedSize())
	}
	return max(0, pos)
}

// Done returns a channel that closes when playback finishes.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		p.resumeLocked()
	} else {
		p.pauseLocked()
	}
}

// Pause pauses playback. It is a no-op when already paused.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauseLocked()
}

func (p *Player) pauseLocked() {
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	p.paused = true
}

func (p *Player) resumeLocked() {
	if p.otoPlayer != nil {
		p.otoPlayer.Play()
	}
	p.paused = false
}

// Paused returns whether playback is paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Muted reports whether the player runs without an audio device.
func (p *Player) Muted() bool { return p.muted }

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bytesToDuration(p.playedBytesLocked())
}

func (p *Player) bytesToDuration(n int64) time.Duration {
	return time.Duration(float64(n) / float64(p.bytesPerSec) * float64(time.Second))
}

// Duration returns the total duration of the track.
func (p *Player) Duration() time.Duration {
	return p.duration
}

// SampleRate returns the rate of the samples handed out by Drain.
func (p *Player) SampleRate() int {
	return p.decoder.SampleRate()
}

// clampSeekByteOffset converts a target time to a byte offset in
// [0, total], aligned down to a whole frame.
func clampSeekByteOffset(target time.Duration, bytesPerSec, total, frameSize int64) int64 {
	pos := int64(target.Seconds() * float64(bytesPerSec))
	pos = max(0, min(pos, total))
	return pos - pos%frameSize
}

// Seek moves playback by delta from the current position.
func (p *Player) Seek(delta time.Duration) error {
	return p.SeekTo(p.Position() + delta)
}

// SeekTo moves playback to target. The sample ring restarts at the new
// position, so the next Drain only returns audio from after the jump.
func (p *Player) SeekTo(target time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	newPos := clampSeekByteOffset(target, p.bytesPerSec, p.decoder.Length(), p.frameSize)
	if _, err := p.decoder.Seek(newPos, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %s: %w", target, err)
	}
	p.counter.SetPos(newPos)
	p.ring.Reset(newPos / p.frameSize)
	p.heard = newPos / p.frameSize

	p.startOutput(!p.paused)
	return nil
}

// Restart seeks to the beginning, resumes playback and re-arms Done.
func (p *Player) Restart() error {
	if err := p.SeekTo(0); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case <-p.done:
		p.done = make(chan struct{})
		go p.monitor()
	default:
	}
	p.resumeLocked()
	return nil
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func clampVolume(v float64) float64 {
	return max(0, min(v, 1))
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(v)
	if p.otoPlayer != nil {
		p.otoPlayer.SetVolume(p.volume)
	}
}

// AdjustVolume adjusts volume by delta.
func (p *Player) AdjustVolume(delta float64) {
	p.mu.Lock()
	v := p.volume + delta
	p.mu.Unlock()
	p.SetVolume(v)
}

// Close stops playback and releases the decoder. It is safe to call more
// than once.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.stopMon)
	if p.otoPlayer != nil {
		p.otoPlayer.Pause()
	}
	if p.cleanup != nil {
		p.cleanup()
	}
}
