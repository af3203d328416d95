package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBandPowerShapeAndSign(t *testing.T) {
	const fs = 256.0
	est := NewBandPowerEstimator(512, fs, DefaultBandRanges())

	rng := rand.New(rand.NewSource(7))
	epoch := make([]float64, 512)
	for i := range epoch {
		epoch[i] = rng.NormFloat64()
	}

	powers, err := est.Compute(epoch)
	require.NoError(t, err)
	require.Len(t, powers[:], int(NumBands))
	for b := Band(0); b < NumBands; b++ {
		require.GreaterOrEqual(t, powers[b], 0.0, "band %s", b)
	}
}

func TestBandPowerAlphaSineDominates(t *testing.T) {
	const fs = 256.0
	est := NewBandPowerEstimator(512, fs, DefaultBandRanges())

	// 10 Hz sits in the middle of the alpha band.
	epoch := make([]float64, 512)
	for i := range epoch {
		epoch[i] = 40 * math.Sin(2*math.Pi*10*float64(i)/fs)
	}

	powers, err := est.Compute(epoch)
	require.NoError(t, err)
	for _, b := range []Band{BandDelta, BandTheta, BandBeta} {
		require.Greater(t, powers[BandAlpha], powers[b], "alpha must dominate %s", b)
	}
}

func TestBandPowerIgnoresDCOffset(t *testing.T) {
	const fs = 256.0
	est := NewBandPowerEstimator(512, fs, DefaultBandRanges())

	epoch := make([]float64, 512)
	for i := range epoch {
		epoch[i] = 100 + math.Sin(2*math.Pi*10*float64(i)/fs)
	}

	powers, err := est.Compute(epoch)
	require.NoError(t, err)
	require.Greater(t, powers[BandAlpha], powers[BandDelta],
		"a constant offset must not register as delta power")
}

func TestBandPowerWrongEpochLength(t *testing.T) {
	est := NewBandPowerEstimator(512, 256, DefaultBandRanges())
	_, err := est.Compute(make([]float64, 100))
	require.Error(t, err)
}

func TestBandString(t *testing.T) {
	require.Equal(t, "delta", BandDelta.String())
	require.Equal(t, "theta", BandTheta.String())
	require.Equal(t, "alpha", BandAlpha.String())
	require.Equal(t, "beta", BandBeta.String())
}
