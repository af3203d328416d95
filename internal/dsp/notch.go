package dsp

import "math"

// FilterState carries the notch filter delay lines between chunk updates,
// one two-element line per channel. Threading the state through successive
// Apply calls keeps chunk boundaries free of filter transients; it is
// discarded only on a full pipeline reset.
type FilterState struct {
	z [][2]float64
}

func (s *FilterState) clone() *FilterState {
	c := &FilterState{z: make([][2]float64, len(s.z))}
	copy(c.z, s.z)
	return c
}

// Notch is a second-order IIR notch filter (RBJ cookbook design) that
// removes a narrow band around the line-noise frequency. Coefficients are
// computed once and never mutated; all mutable state lives in FilterState.
type Notch struct {
	b0, b1, b2 float64
	a1, a2     float64
	channels   int
}

// NewNotch designs a notch at freq Hz with quality factor q for signals
// sampled at sampleRate, filtering channels columns independently.
func NewNotch(freq, q, sampleRate float64, channels int) *Notch {
	w0 := 2 * math.Pi * freq / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)
	a0 := 1 + alpha

	return &Notch{
		b0:       1 / a0,
		b1:       -2 * cosw0 / a0,
		b2:       1 / a0,
		a1:       -2 * cosw0 / a0,
		a2:       (1 - alpha) / a0,
		channels: channels,
	}
}

// Apply filters rows (samples x channels) using the carried-in state and
// returns the filtered rows plus the state for the next chunk. A nil state
// starts from a zero delay line. The input rows are not modified and the
// passed-in state is not mutated; a fresh state value is returned each call.
//
// Direct Form II Transposed, per channel:
//
//	y  = b0*x + z0
//	z0 = b1*x - a1*y + z1
//	z1 = b2*x - a2*y
func (n *Notch) Apply(state *FilterState, rows [][]float64) ([][]float64, *FilterState) {
	if state == nil {
		state = &FilterState{z: make([][2]float64, n.channels)}
	}
	next := state.clone()

	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for c, x := range row {
			z := &next.z[c]
			y := n.b0*x + z[0]
			z[0] = n.b1*x - n.a1*y + z[1]
			z[1] = n.b2*x - n.a2*y
			out[i][c] = y
		}
	}
	return out, next
}
