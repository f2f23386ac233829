package visualizer

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

type colorProfile uint8

const (
	colorNone colorProfile = iota
	colorANSI16
	colorANSI256
	colorTrueColor
)

// RGB is a 24-bit colour.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Hex returns the colour as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ErrBadColor is returned for colours that are not #RRGGBB.
var ErrBadColor = errors.New("colour must be #RRGGBB")

// ParseHex parses a #RRGGBB colour.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Palette is the gradient bars are painted with: Low at silence, High at
// full scale.
type Palette struct {
	Low  RGB
	High RGB
}

// DefaultPalette runs from cyan to red.
var DefaultPalette = Palette{
	Low:  RGB{R: 0, G: 174, B: 255},
	High: RGB{R: 255, G: 80, B: 60},
}

// NewPalette parses the two gradient ends.
func NewPalette(low, high string) (Palette, error) {
	l, err := ParseHex(low)
	if err != nil {
		return Palette{}, fmt.Errorf("palette low: %w", err)
	}
	h, err := ParseHex(high)
	if err != nil {
		return Palette{}, fmt.Errorf("palette high: %w", err)
	}
	return Palette{Low: l, High: h}, nil
}

// At returns the gradient colour for t in [0,1]. The midpoint is lifted
// towards white so mid-level bars stay readable on dark terminals.
func (p Palette) At(t float64) RGB {
	t = clamp01(t)
	mid := lerpColor(lerpColor(p.Low, p.High, 0.5), RGB{R: 255, G: 255, B: 255}, 0.35)
	if t < 0.5 {
		return lerpColor(p.Low, mid, t/0.5)
	}
	return lerpColor(mid, p.High, (t-0.5)/0.5)
}

// fade darkens c towards the terminal background by amount in [0,1].
func fade(c RGB, amount float64) RGB {
	return lerpColor(c, RGB{R: 18, G: 22, B: 32}, amount)
}

var (
	profileOnce sync.Once
	profile     colorProfile
	seqCache    sync.Map
)

func currentColorProfile() colorProfile {
	profileOnce.Do(func() {
		profile = detectColorProfile(os.LookupEnv)
	})
	return profile
}

// detectColorProfile inspects NO_COLOR, COLORTERM and TERM.
func detectColorProfile(lookup func(string) (string, bool)) colorProfile {
	if _, disabled := lookup("NO_COLOR"); disabled {
		return colorNone
	}
	term, _ := lookup("TERM")
	colorTerm, _ := lookup("COLORTERM")
	term, colorTerm = strings.ToLower(term), strings.ToLower(colorTerm)
	switch {
	case strings.Contains(colorTerm, "truecolor"), strings.Contains(colorTerm, "24bit"):
		return colorTrueColor
	case strings.Contains(term, "256color"):
		return colorANSI256
	case term == "", term == "dumb":
		return colorNone
	default:
		return colorANSI16
	}
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

func lerpColor(a, b RGB, t float64) RGB {
	t = clamp01(t)
	return RGB{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
	}
}

// ansiState emits colour escapes only when the colour changes.
type ansiState struct {
	profile colorProfile
	current uint32
}

func newANSIState(p colorProfile) ansiState {
	return ansiState{profile: p, current: ^uint32(0)}
}

func (s *ansiState) set(sb *strings.Builder, c RGB) {
	if s.profile == colorNone {
		return
	}
	key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if key == s.current {
		return
	}
	sb.WriteString(colorSequence(s.profile, c))
	s.current = key
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.profile == colorNone || s.current == ^uint32(0) {
		return
	}
	sb.WriteString("\x1b[0m")
	s.current = ^uint32(0)
}

var ansi16 = []RGB{
	{R: 0, G: 0, B: 0},
	{R: 205, G: 49, B: 49},
	{R: 13, G: 188, B: 121},
	{R: 229, G: 229, B: 16},
	{R: 36, G: 114, B: 200},
	{R: 188, G: 63, B: 188},
	{R: 17, G: 168, B: 205},
	{R: 229, G: 229, B: 229},
}

func colorSequence(p colorProfile, c RGB) string {
	key := uint32(p)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}

	var seq string
	switch p {
	case colorTrueColor:
		seq = fmt.Sprintf("\x1b[38;2;%d;%d;%dm", c.R, c.G, c.B)
	case colorANSI256:
		r := int(c.R) * 5 / 255
		g := int(c.G) * 5 / 255
		b := int(c.B) * 5 / 255
		seq = fmt.Sprintf("\x1b[38;5;%dm", 16+36*r+6*g+b)
	case colorANSI16:
		best, bestDist := 0, math.MaxFloat64
		for i, q := range ansi16 {
			dr := float64(c.R) - float64(q.R)
			dg := float64(c.G) - float64(q.G)
			db := float64(c.B) - float64(q.B)
			if d := dr*dr + dg*dg + db*db; d < bestDist {
				best, bestDist = i, d
			}
		}
		seq = fmt.Sprintf("\x1b[%dm", 30+best)
	}

	seqCache.Store(key, seq)
	return seq
}
