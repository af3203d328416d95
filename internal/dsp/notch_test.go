package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func rmsOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func TestNotchStateThreading(t *testing.T) {
	const fs = 256.0
	n := NewNotch(50, 30, fs, 1)

	rng := rand.New(rand.NewSource(42))
	signal := make([][]float64, 1024)
	for i := range signal {
		signal[i] = []float64{rng.NormFloat64()}
	}

	// Whole signal in one shot.
	whole, _ := n.Apply(nil, signal)

	// Same signal in uneven chunks with the state threaded between calls.
	var state *FilterState
	var chunked [][]float64
	for i := 0; i < len(signal); {
		end := i + 7
		if end > len(signal) {
			end = len(signal)
		}
		var out [][]float64
		out, state = n.Apply(state, signal[i:end])
		chunked = append(chunked, out...)
		i = end
	}

	require.Len(t, chunked, len(whole))
	for i := range whole {
		require.InDelta(t, whole[i][0], chunked[i][0], 1e-9, "sample %d", i)
	}
}

func TestNotchAttenuatesLineFrequency(t *testing.T) {
	const fs = 256.0
	n := NewNotch(50, 30, fs, 1)

	signal := make([][]float64, 2048)
	for i := range signal {
		signal[i] = []float64{math.Sin(2 * math.Pi * 50 * float64(i) / fs)}
	}
	out, _ := n.Apply(nil, signal)

	// Steady state after the startup transient has decayed.
	tail := make([]float64, 512)
	for i := range tail {
		tail[i] = out[len(out)-512+i][0]
	}
	require.Less(t, rmsOf(tail), 0.05)
}

func TestNotchPassesAlphaBand(t *testing.T) {
	const fs = 256.0
	n := NewNotch(50, 30, fs, 1)

	signal := make([][]float64, 2048)
	for i := range signal {
		signal[i] = []float64{math.Sin(2 * math.Pi * 10 * float64(i) / fs)}
	}
	out, _ := n.Apply(nil, signal)

	tail := make([]float64, 512)
	for i := range tail {
		tail[i] = out[len(out)-512+i][0]
	}
	// A 10 Hz tone is far from the notch and should pass nearly unchanged.
	require.InDelta(t, 1/math.Sqrt2, rmsOf(tail), 0.05)
}

func TestNotchDoesNotMutateInputOrState(t *testing.T) {
	n := NewNotch(50, 30, 256, 1)

	signal := [][]float64{{1}, {2}, {3}}
	_, st1 := n.Apply(nil, signal)
	require.Equal(t, [][]float64{{1}, {2}, {3}}, signal)

	saved := st1.z[0]
	_, st2 := n.Apply(st1, signal)
	require.Equal(t, saved, st1.z[0], "carried-in state must not be mutated")
	require.NotEqual(t, st1.z[0], st2.z[0])
}
