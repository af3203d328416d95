package session

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/austinkregel/neuro-monitor/eegd/internal/config"
	"github.com/austinkregel/neuro-monitor/eegd/internal/dsp"
	"github.com/austinkregel/neuro-monitor/eegd/internal/stream"
)

func TestPipelineAlphaSineEndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	const fs = 256.0
	p, err := NewPipeline(cfg, fs)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	// 10 Hz tone inside the alpha band, unpaced so the test runs fast.
	synth := stream.NewSyntheticResolver(stream.SyntheticConfig{
		SampleRate:     fs,
		Channels:       1,
		ToneHz:         10,
		ToneAmplitude:  40,
		NoiseAmplitude: 1,
		Paced:          false,
	})
	inlet, err := synth.Open(context.Background(), stream.Desc{Type: "EEG", SampleRate: fs, Channels: 1})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	shiftSamples := int(cfg.Acquisition.ShiftSeconds() * fs)
	var res CycleResult

	// Run well past the smoothing warm-up so the mean has converged.
	cycles := 2 * p.SmoothingWindow()
	for i := 0; i < cycles; i++ {
		chunk, err := inlet.Pull(context.Background(), time.Second, shiftSamples)
		if err != nil {
			t.Fatalf("Pull failed: %v", err)
		}
		res, err = p.Process(chunk)
		if err != nil {
			t.Fatalf("Process failed on cycle %d: %v", i, err)
		}
	}

	for _, b := range []dsp.Band{dsp.BandDelta, dsp.BandTheta, dsp.BandBeta} {
		if res.Smoothed[dsp.BandAlpha] <= res.Smoothed[b] {
			t.Errorf("alpha power %v not dominant over %s power %v",
				res.Smoothed[dsp.BandAlpha], b, res.Smoothed[b])
		}
	}
	if !(res.Metrics.Alpha > 1) {
		t.Errorf("alpha metric = %v, want > 1 for an alpha-dominant signal", res.Metrics.Alpha)
	}
	if math.IsNaN(res.Metrics.Theta) {
		t.Errorf("theta metric is NaN for a live signal")
	}
}

func TestPipelineRejectsEmptyChunk(t *testing.T) {
	p, err := NewPipeline(config.DefaultConfig(), 256)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	if _, err := p.Process(stream.Chunk{}); err == nil {
		t.Fatal("Process accepted an empty chunk")
	}
}

func TestPipelineChannelOutOfRange(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Acquisition.Channels = []int{3}

	p, err := NewPipeline(cfg, 256)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	_, err = p.Process(stream.Chunk{
		Samples:    [][]float64{{1, 2}},
		Timestamps: []float64{0},
	})
	if err == nil {
		t.Fatal("Process accepted a sample without the analysis channel")
	}
}

func TestPipelineResetClearsState(t *testing.T) {
	cfg := config.DefaultConfig()
	p, err := NewPipeline(cfg, 256)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	rows := make([][]float64, 256)
	ts := make([]float64, 256)
	for i := range rows {
		rows[i] = []float64{float64(i % 7)}
	}
	if _, err := p.Process(stream.Chunk{Samples: rows, Timestamps: ts}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	p.Reset()
	if p.filterState != nil {
		t.Error("Reset did not discard the filter state")
	}
	mean := p.smoother.Mean()
	for b := dsp.Band(0); b < dsp.NumBands; b++ {
		if mean[b] != 0 {
			t.Errorf("smoother %s mean = %v after reset, want 0", b, mean[b])
		}
	}
}
