package metrics

import (
	"math"
	"testing"

	"github.com/austinkregel/neuro-monitor/eegd/internal/dsp"
)

func TestCompute(t *testing.T) {
	v := Compute([dsp.NumBands]float64{2, 3, 6, 5})

	if v.Alpha != 3 {
		t.Errorf("Alpha = %v, want 3", v.Alpha)
	}
	if v.Beta != 5 {
		t.Errorf("Beta = %v, want 5", v.Beta)
	}
	if v.Theta != 0.5 {
		t.Errorf("Theta = %v, want 0.5", v.Theta)
	}
}

func TestComputeZeroDeltaPropagatesInf(t *testing.T) {
	v := Compute([dsp.NumBands]float64{0, 1, 2, 3})

	if !math.IsInf(v.Alpha, 1) {
		t.Errorf("Alpha with zero delta = %v, want +Inf", v.Alpha)
	}
}

func TestComputeZeroAlphaPropagatesInf(t *testing.T) {
	v := Compute([dsp.NumBands]float64{1, 1, 0, 1})

	if !math.IsInf(v.Theta, 1) {
		t.Errorf("Theta with zero alpha = %v, want +Inf", v.Theta)
	}
}

func TestComputeAllZeroIsNaN(t *testing.T) {
	v := Compute([dsp.NumBands]float64{})

	if !math.IsNaN(v.Alpha) || !math.IsNaN(v.Theta) {
		t.Errorf("0/0 metrics = %v/%v, want NaN", v.Alpha, v.Theta)
	}
}
