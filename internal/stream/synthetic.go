package stream

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"
)

// SyntheticConfig controls the generated test signal.
type SyntheticConfig struct {
	SampleRate float64
	Channels   int
	// ToneHz is the frequency of the embedded sine. The default of 10 Hz
	// sits in the alpha band, which makes the expected pipeline output easy
	// to reason about.
	ToneHz         float64
	ToneAmplitude  float64
	NoiseAmplitude float64
	// Paced makes Pull deliver samples at wall-clock rate. Unpaced inlets
	// return maxSamples immediately, which tests use to run fast.
	Paced bool
}

// DefaultSyntheticConfig returns a 256 Hz single-channel alpha tone source.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		SampleRate:     256,
		Channels:       1,
		ToneHz:         10,
		ToneAmplitude:  40,
		NoiseAmplitude: 2,
		Paced:          true,
	}
}

// SyntheticResolver resolves a single generated stream. It backs the
// -test-mode flag and the pipeline tests.
type SyntheticResolver struct {
	cfg SyntheticConfig
}

// NewSyntheticResolver creates a resolver for one synthetic stream.
func NewSyntheticResolver(cfg SyntheticConfig) *SyntheticResolver {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 256
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &SyntheticResolver{cfg: cfg}
}

// Resolve always finds exactly one stream.
func (r *SyntheticResolver) Resolve(ctx context.Context, streamType string, timeout time.Duration) ([]Desc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []Desc{{
		Name:       "synthetic",
		Type:       streamType,
		SampleRate: r.cfg.SampleRate,
		Channels:   r.cfg.Channels,
	}}, nil
}

// Open creates a new inlet generating the configured signal.
func (r *SyntheticResolver) Open(ctx context.Context, desc Desc) (Inlet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &syntheticInlet{
		cfg:  r.cfg,
		desc: desc,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		last: time.Now(),
	}, nil
}

type syntheticInlet struct {
	mu   sync.Mutex
	cfg  SyntheticConfig
	desc Desc
	rng  *rand.Rand
	n    int64 // samples generated so far
	last time.Time
}

func (s *syntheticInlet) Desc() Desc {
	return s.desc
}

func (s *syntheticInlet) TimeCorrection(ctx context.Context) (float64, error) {
	return 0, ctx.Err()
}

func (s *syntheticInlet) Pull(ctx context.Context, timeout time.Duration, maxSamples int) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := maxSamples
	if s.cfg.Paced {
		now := time.Now()
		count = int(now.Sub(s.last).Seconds() * s.cfg.SampleRate)
		if count > maxSamples {
			count = maxSamples
		}
		if count == 0 {
			// Wait for at least one sample period, bounded by the timeout.
			wait := time.Duration(float64(time.Second) / s.cfg.SampleRate)
			if wait > timeout {
				wait = timeout
			}
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				s.mu.Lock()
				return Chunk{}, ctx.Err()
			case <-time.After(wait):
			}
			s.mu.Lock()
			count = int(time.Since(s.last).Seconds() * s.cfg.SampleRate)
			if count > maxSamples {
				count = maxSamples
			}
		}
		s.last = s.last.Add(time.Duration(float64(count) / s.cfg.SampleRate * float64(time.Second)))
	}

	chunk := Chunk{
		Samples:    make([][]float64, count),
		Timestamps: make([]float64, count),
	}
	for i := 0; i < count; i++ {
		tSec := float64(s.n) / s.cfg.SampleRate
		row := make([]float64, s.cfg.Channels)
		for c := range row {
			row[c] = s.cfg.ToneAmplitude*math.Sin(2*math.Pi*s.cfg.ToneHz*tSec) +
				s.cfg.NoiseAmplitude*s.rng.NormFloat64()
		}
		chunk.Samples[i] = row
		chunk.Timestamps[i] = tSec
		s.n++
	}
	return chunk, nil
}

func (s *syntheticInlet) Close() error {
	return nil
}
