package analyser

import "math"

// Blackman coefficients as used by the Web Audio AnalyserNode.
const (
	blackmanA0 = 0.42
	blackmanA1 = 0.5
	blackmanA2 = 0.08
)

// blackman returns the symmetric Blackman window of length n. The phase
// denominator is n-1 so that both ends reach zero.
func blackman(n int) []float64 {
	w := make([]float64, n)
	den := float64(n - 1)
	for i := range w {
		arg := 2 * math.Pi * float64(i) / den
		w[i] = blackmanA0 - blackmanA1*math.Cos(arg) + blackmanA2*math.Cos(2*arg)
	}
	return w
}
