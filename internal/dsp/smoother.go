package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EpochWindow returns how many overlapping epochs fit in the main buffer:
// floor((buffer - epoch) / shift) + 1. This is the smoothing window size.
func EpochWindow(bufferSeconds, epochSeconds, shiftSeconds float64) int {
	return int(math.Floor((bufferSeconds-epochSeconds)/shiftSeconds)) + 1
}

// Smoother holds the most recent window of per-epoch band-power vectors and
// exposes their column-wise arithmetic mean. It reuses the ring buffer
// discipline of Buffer, unfiltered. The buffer starts zero-filled, so the
// first window-many cycles are a warm-up period biased toward zero.
type Smoother struct {
	buf *Buffer
}

// NewSmoother creates a smoother over the last window band-power vectors.
func NewSmoother(window int) *Smoother {
	return &Smoother{buf: NewBuffer(window, int(NumBands))}
}

// Push appends one band-power vector, evicting the oldest.
func (s *Smoother) Push(v [NumBands]float64) error {
	row := make([]float64, NumBands)
	for i, p := range v {
		row[i] = p
	}
	_, err := s.buf.Update([][]float64{row}, nil, nil)
	return err
}

// Mean returns the column-wise mean over all vectors currently held.
func (s *Smoother) Mean() [NumBands]float64 {
	acc := make([]float64, NumBands)
	rows := s.buf.Tail(s.buf.Capacity())
	for _, row := range rows {
		floats.Add(acc, row)
	}
	floats.Scale(1/float64(len(rows)), acc)

	var out [NumBands]float64
	copy(out[:], acc)
	return out
}

// Window returns the number of epochs the smoother averages over.
func (s *Smoother) Window() int {
	return s.buf.Capacity()
}

// Reset zero-fills the smoothing window.
func (s *Smoother) Reset() {
	s.buf.Reset()
}
