package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpochWindow(t *testing.T) {
	// 15 s buffer, 2 s epochs shifted by 1 s: 14 overlapping epochs.
	require.Equal(t, 14, EpochWindow(15, 2, 1))
	require.Equal(t, 1, EpochWindow(2, 2, 1))
	require.Equal(t, 7, EpochWindow(15, 2, 2))
}

func TestSmoothingConvergence(t *testing.T) {
	s := NewSmoother(8)
	v := [NumBands]float64{1.5, 2.5, 3.5, 4.5}

	for i := 0; i < s.Window(); i++ {
		require.NoError(t, s.Push(v))
	}

	mean := s.Mean()
	for b := Band(0); b < NumBands; b++ {
		require.InDelta(t, v[b], mean[b], 1e-12)
	}
}

func TestSmootherWarmupBias(t *testing.T) {
	const window = 10
	s := NewSmoother(window)
	v := [NumBands]float64{4, 8, 12, 16}

	// With zero padding, k pushes of a constant V yield V*k/window.
	for k := 1; k <= window; k++ {
		require.NoError(t, s.Push(v))
		mean := s.Mean()
		for b := Band(0); b < NumBands; b++ {
			want := v[b] * float64(k) / float64(window)
			require.InDelta(t, want, mean[b], 1e-12, "cycle %d band %s", k, b)
		}
	}
}

func TestSmootherReset(t *testing.T) {
	s := NewSmoother(4)
	require.NoError(t, s.Push([NumBands]float64{1, 1, 1, 1}))
	s.Reset()

	mean := s.Mean()
	for b := Band(0); b < NumBands; b++ {
		require.Zero(t, mean[b])
	}
}
