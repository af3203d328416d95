// Package stream defines the transport collaborator that delivers
// timestamped multi-channel sample chunks, plus the sources the daemon
// ships with: a paced synthetic signal generator and a TCP bridge client.
package stream

import (
	"context"
	"errors"
	"time"
)

// ErrNoStreams is returned by Resolve when no stream matches the type filter
// within the timeout. Callers retry; it is not fatal.
var ErrNoStreams = errors.New("stream: no matching streams found")

// Desc describes one discoverable stream.
type Desc struct {
	Name       string
	Type       string
	SampleRate float64
	Channels   int
}

// Chunk is an ordered sequence of timestamped multi-channel samples,
// delivered atomically. Samples is samples x channels; Timestamps holds one
// source timestamp in seconds per sample.
type Chunk struct {
	Samples    [][]float64
	Timestamps []float64
}

// Len returns the number of samples in the chunk.
func (c Chunk) Len() int {
	return len(c.Samples)
}

// Resolver discovers and opens streams.
type Resolver interface {
	// Resolve returns the streams of the given type visible within timeout.
	// It returns ErrNoStreams when none are found.
	Resolve(ctx context.Context, streamType string, timeout time.Duration) ([]Desc, error)

	// Open connects to a resolved stream.
	Open(ctx context.Context, desc Desc) (Inlet, error)
}

// Inlet is an open connection handle. It is replaced wholesale on
// reconnection, never partially mutated.
type Inlet interface {
	// Pull returns up to maxSamples samples, waiting at most timeout. An
	// empty chunk with a nil error means no data arrived in time; that is
	// a normal condition, not an error.
	Pull(ctx context.Context, timeout time.Duration, maxSamples int) (Chunk, error)

	// Desc returns the stream description this inlet was opened against.
	Desc() Desc

	// TimeCorrection returns the clock offset in seconds to add to source
	// timestamps to map them onto the local clock.
	TimeCorrection(ctx context.Context) (float64, error)

	Close() error
}
