package visualizer

import "github.com/charmbracelet/harmonica"

// springField eases a row of levels towards their targets with a damped
// spring each, so bars rise and fall instead of jumping.
type springField struct {
	spring harmonica.Spring
	pos    []float64
	vel    []float64
}

func newSpringField(fps int, frequency, damping float64) springField {
	return springField{spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), frequency, damping)}
}

// resize drops all motion state when the number of columns changes.
func (s *springField) resize(n int) {
	if len(s.pos) == n {
		return
	}
	s.pos = make([]float64, n)
	s.vel = make([]float64, n)
}

// stepAll advances every spring towards targets, writing clamped positions
// back into targets.
func (s *springField) stepAll(targets []float64) {
	s.resize(len(targets))
	for i, target := range targets {
		s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], target)
		targets[i] = clamp01(s.pos[i])
	}
}
