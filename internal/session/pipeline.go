// Package session drives the acquisition pipeline against a stream source:
// a single-threaded poll-process-persist loop with stall detection and
// unbounded reconnection.
package session

import (
	"fmt"

	"github.com/austinkregel/neuro-monitor/eegd/internal/config"
	"github.com/austinkregel/neuro-monitor/eegd/internal/dsp"
	"github.com/austinkregel/neuro-monitor/eegd/internal/metrics"
	"github.com/austinkregel/neuro-monitor/eegd/internal/stream"
)

// Pipeline owns the signal chain state for one acquisition session: the raw
// ring buffer, the notch filter state, the band-power estimator and the
// smoother. It has no concurrency of its own; the supervisor invokes it from
// a single loop, so nothing here is locked.
type Pipeline struct {
	channels   []int
	sampleRate float64
	epochLen   int

	raw         *dsp.Buffer
	notch       *dsp.Notch
	filterState *dsp.FilterState
	estimator   *dsp.BandPowerEstimator
	smoother    *dsp.Smoother
}

// CycleResult is the output of one pipeline-advancing cycle.
type CycleResult struct {
	// LatestSample is the last raw sample of the cycle's chunk, all
	// channels as delivered by the stream.
	LatestSample []float64

	// Selected holds the cycle's analysis-channel rows, for raw-signal
	// recording.
	Selected [][]float64

	// Smoothed is the smoothed band-power vector after this cycle.
	Smoothed [dsp.NumBands]float64

	// Metrics are the neurofeedback values derived from Smoothed.
	Metrics metrics.Values
}

// NewPipeline builds the signal chain for a stream at sampleRate Hz using
// the validated configuration.
func NewPipeline(cfg *config.Config, sampleRate float64) (*Pipeline, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("session: non-positive sample rate %v", sampleRate)
	}
	a := cfg.Acquisition

	capacity := int(a.BufferSeconds * sampleRate)
	epochLen := int(a.EpochSeconds * sampleRate)
	window := dsp.EpochWindow(a.BufferSeconds, a.EpochSeconds, a.ShiftSeconds())
	channels := make([]int, len(a.Channels))
	copy(channels, a.Channels)

	// filterState stays nil for a cold start; the first Update initializes it.
	return &Pipeline{
		channels:   channels,
		sampleRate: sampleRate,
		epochLen:   epochLen,
		raw:        dsp.NewBuffer(capacity, len(channels)),
		notch:      dsp.NewNotch(cfg.Filter.NotchHz, cfg.Filter.NotchQ, sampleRate, len(channels)),
		estimator:  dsp.NewBandPowerEstimator(epochLen, sampleRate, cfg.Bands.Ranges()),
		smoother:   dsp.NewSmoother(window),
	}, nil
}

// Process advances the pipeline by one chunk: notch filter, ring buffer
// update, epoch extraction, band-power estimation, smoothing and metric
// derivation. The caller must skip empty chunks.
func (p *Pipeline) Process(chunk stream.Chunk) (CycleResult, error) {
	var res CycleResult
	if chunk.Len() == 0 {
		return res, fmt.Errorf("session: process called with empty chunk")
	}

	// Pick the analysis channels out of each delivered sample.
	rows := make([][]float64, chunk.Len())
	for i, sample := range chunk.Samples {
		row := make([]float64, len(p.channels))
		for j, ch := range p.channels {
			if ch >= len(sample) {
				return res, fmt.Errorf("session: channel %d out of range for %d-channel sample", ch, len(sample))
			}
			row[j] = sample[ch]
		}
		rows[i] = row
	}
	res.Selected = rows
	res.LatestSample = chunk.Samples[chunk.Len()-1]

	state, err := p.raw.Update(rows, p.notch.Apply, p.filterState)
	if err != nil {
		return res, err
	}
	p.filterState = state

	epoch := p.raw.Column(0, p.epochLen)
	powers, err := p.estimator.Compute(epoch)
	if err != nil {
		return res, err
	}
	if err := p.smoother.Push(powers); err != nil {
		return res, err
	}

	res.Smoothed = p.smoother.Mean()
	res.Metrics = metrics.Compute(res.Smoothed)
	return res, nil
}

// SmoothingWindow returns the number of epochs averaged by the smoother.
// The first SmoothingWindow cycles are a warm-up period with zero-biased
// output.
func (p *Pipeline) SmoothingWindow() int {
	return p.smoother.Window()
}

// Reset clears the ring buffers and discards the filter state, for the
// reset-on-reconnect policy.
func (p *Pipeline) Reset() {
	p.raw.Reset()
	p.smoother.Reset()
	p.filterState = nil
}
