package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Band indexes a band-power vector. The order is a global invariant; every
// consumer indexes by these positions.
type Band int

const (
	BandDelta Band = iota
	BandTheta
	BandAlpha
	BandBeta
	NumBands
)

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandDelta:
		return "delta"
	case BandTheta:
		return "theta"
	case BandAlpha:
		return "alpha"
	case BandBeta:
		return "beta"
	}
	return fmt.Sprintf("Band(%d)", int(b))
}

// BandRange is a half-open frequency interval [Low, High) in Hz.
type BandRange struct {
	Low  float64
	High float64
}

// DefaultBandRanges returns the canonical EEG band cut points.
func DefaultBandRanges() [NumBands]BandRange {
	return [NumBands]BandRange{
		BandDelta: {Low: 0.5, High: 4},
		BandTheta: {Low: 4, High: 8},
		BandAlpha: {Low: 8, High: 12},
		BandBeta:  {Low: 12, High: 30},
	}
}

// BandPowerEstimator converts fixed-length epochs into band-power vectors.
// The FFT plan and window are built once for the configured epoch length;
// band powers from epochs of the same length are directly comparable.
type BandPowerEstimator struct {
	fft        *fourier.FFT
	window     []float64
	winEnergy  float64
	epochLen   int
	sampleRate float64
	bands      [NumBands]BandRange
}

// NewBandPowerEstimator creates an estimator for epochs of epochLen samples
// at sampleRate Hz.
func NewBandPowerEstimator(epochLen int, sampleRate float64, bands [NumBands]BandRange) *BandPowerEstimator {
	// Hamming window to reduce spectral leakage
	window := make([]float64, epochLen)
	var energy float64
	for i := range window {
		window[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(epochLen-1))
		energy += window[i] * window[i]
	}

	return &BandPowerEstimator{
		fft:        fourier.NewFFT(epochLen),
		window:     window,
		winEnergy:  energy,
		epochLen:   epochLen,
		sampleRate: sampleRate,
		bands:      bands,
	}
}

// Compute returns the [delta, theta, alpha, beta] power vector for one epoch.
// All values are non-negative. An epoch of the wrong length is a programming
// error upstream and is rejected here rather than silently mis-binned.
func (e *BandPowerEstimator) Compute(epoch []float64) ([NumBands]float64, error) {
	var powers [NumBands]float64
	if len(epoch) != e.epochLen {
		return powers, fmt.Errorf("dsp: epoch of %d samples, estimator expects %d", len(epoch), e.epochLen)
	}

	// Remove the DC offset before windowing so it doesn't leak into delta.
	mean := floats.Sum(epoch) / float64(len(epoch))
	windowed := make([]float64, e.epochLen)
	for i, x := range epoch {
		windowed[i] = (x - mean) * e.window[i]
	}

	coeffs := e.fft.Coefficients(nil, windowed)

	// One-sided periodogram, normalized by window energy and sample rate so
	// same-length epochs are comparable across the session.
	freqPerBin := e.sampleRate / float64(e.epochLen)
	scale := 2 / (e.sampleRate * e.winEnergy)

	var sums [NumBands]float64
	var counts [NumBands]int
	for bin := 1; bin < len(coeffs); bin++ {
		mag := cmplx.Abs(coeffs[bin])
		psd := scale * mag * mag
		freq := float64(bin) * freqPerBin
		for b := Band(0); b < NumBands; b++ {
			if freq >= e.bands[b].Low && freq < e.bands[b].High {
				sums[b] += psd
				counts[b]++
				break
			}
		}
	}

	for b := Band(0); b < NumBands; b++ {
		if counts[b] > 0 {
			powers[b] = sums[b] / float64(counts[b])
		}
	}
	return powers, nil
}

// EpochLen returns the configured epoch length in samples.
func (e *BandPowerEstimator) EpochLen() int {
	return e.epochLen
}
