// Package dsp implements the acquisition signal chain: a fixed-capacity
// multi-channel ring buffer, a stateful line-noise notch filter, the epoch
// band-power estimator, and the band-power smoother.
package dsp

import (
	"errors"
	"fmt"
)

// ErrEmptyUpdate is returned when Update is called with an empty chunk.
// Zero-length chunks must be handled by the caller before reaching the buffer.
var ErrEmptyUpdate = errors.New("dsp: update with empty chunk")

// FilterFunc filters a chunk of new rows using the carried-in state and
// returns the filtered rows along with the state to thread into the next
// call. A nil state means cold start.
type FilterFunc func(state *FilterState, rows [][]float64) ([][]float64, *FilterState)

// Buffer is a fixed-capacity multi-channel ring buffer holding the most
// recent samples in chronological order. It starts zero-filled at capacity
// and always holds exactly capacity rows; appending evicts the oldest rows.
type Buffer struct {
	rows     [][]float64
	channels int
	w        int // next write position
}

// NewBuffer creates a zero-filled buffer of capacity rows by channels columns.
func NewBuffer(capacity, channels int) *Buffer {
	if capacity < 1 || channels < 1 {
		panic("dsp: buffer capacity and channels must be positive")
	}
	rows := make([][]float64, capacity)
	for i := range rows {
		rows[i] = make([]float64, channels)
	}
	return &Buffer{rows: rows, channels: channels}
}

// Capacity returns the number of rows the buffer holds.
func (b *Buffer) Capacity() int {
	return len(b.rows)
}

// Channels returns the number of columns per row.
func (b *Buffer) Channels() int {
	return b.channels
}

// Update appends new rows, evicting the oldest. When filter is non-nil it is
// applied to the new rows only, with state carried in from the previous
// update; the returned state must be threaded into the next call. The buffer
// never reorders rows and always retains exactly Capacity rows.
func (b *Buffer) Update(rows [][]float64, filter FilterFunc, state *FilterState) (*FilterState, error) {
	if len(rows) == 0 {
		return state, ErrEmptyUpdate
	}
	for _, row := range rows {
		if len(row) != b.channels {
			return state, fmt.Errorf("dsp: row has %d channels, buffer has %d", len(row), b.channels)
		}
	}

	if filter != nil {
		rows, state = filter(state, rows)
	}

	// Only the trailing capacity rows of an oversized chunk can survive.
	if len(rows) > len(b.rows) {
		rows = rows[len(rows)-len(b.rows):]
	}

	for _, row := range rows {
		copy(b.rows[b.w], row)
		b.w = (b.w + 1) % len(b.rows)
	}
	return state, nil
}

// Tail returns a copy of the trailing n rows in chronological order. Callers
// must ensure n does not exceed Capacity; the epoch-length-vs-buffer-length
// invariant is validated once at startup.
func (b *Buffer) Tail(n int) [][]float64 {
	if n < 0 || n > len(b.rows) {
		panic(fmt.Sprintf("dsp: tail of %d rows from buffer of %d", n, len(b.rows)))
	}
	out := make([][]float64, n)
	start := b.w - n
	if start < 0 {
		start += len(b.rows)
	}
	for i := 0; i < n; i++ {
		src := b.rows[(start+i)%len(b.rows)]
		out[i] = make([]float64, b.channels)
		copy(out[i], src)
	}
	return out
}

// Column returns a copy of one channel of the trailing n rows, oldest first.
func (b *Buffer) Column(channel, n int) []float64 {
	rows := b.Tail(n)
	out := make([]float64, n)
	for i, row := range rows {
		out[i] = row[channel]
	}
	return out
}

// Reset zero-fills the buffer.
func (b *Buffer) Reset() {
	for _, row := range b.rows {
		for i := range row {
			row[i] = 0
		}
	}
	b.w = 0
}
