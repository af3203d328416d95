// Package metrics derives neurofeedback protocol values from smoothed
// band powers.
package metrics

import "github.com/austinkregel/neuro-monitor/eegd/internal/dsp"

// Values holds the per-cycle neurofeedback metrics. A near-zero denominator
// band produces an infinite or NaN value; that is a real signal condition
// and is propagated rather than clamped, so consumers must handle
// non-finite values explicitly.
type Values struct {
	// Alpha is the relaxation protocol value, alpha / delta.
	Alpha float64
	// Beta is the concentration protocol value, beta power alone.
	Beta float64
	// Theta is the drowsiness protocol value, theta / alpha.
	Theta float64
}

// Compute derives the protocol values from a smoothed band-power vector.
func Compute(bp [dsp.NumBands]float64) Values {
	return Values{
		Alpha: bp[dsp.BandAlpha] / bp[dsp.BandDelta],
		Beta:  bp[dsp.BandBeta],
		Theta: bp[dsp.BandTheta] / bp[dsp.BandAlpha],
	}
}
