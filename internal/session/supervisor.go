package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/austinkregel/neuro-monitor/eegd/internal/config"
	"github.com/austinkregel/neuro-monitor/eegd/internal/dsp"
	"github.com/austinkregel/neuro-monitor/eegd/internal/record"
	"github.com/austinkregel/neuro-monitor/eegd/internal/stream"
)

// State is the acquisition loop state.
type State int

const (
	StateConnecting State = iota
	StateStreaming
	StateStalled
	StateErrored
	StateReconnecting
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateStalled:
		return "stalled"
	case StateErrored:
		return "errored"
	case StateReconnecting:
		return "reconnecting"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrMaxAttempts is returned when MaxConnectAttempts is set and exhausted.
var ErrMaxAttempts = errors.New("session: connect attempts exhausted")

// Supervisor runs the acquisition loop: it connects the stream, pulls one
// chunk per cycle, advances the pipeline and persists the result, detects
// stalls and transport errors, and reconnects with a fixed backoff,
// indefinitely unless a retry ceiling is configured. Everything runs on the
// caller's goroutine; cancellation is observed between cycles.
type Supervisor struct {
	cfg      *config.Config
	resolver stream.Resolver

	state    State
	inlet    stream.Inlet
	pipeline *Pipeline
	lastData time.Time

	csv *record.CSVRecorder
	edf *record.EDFRecorder

	// Clock injection for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSupervisor creates a supervisor for the given configuration and
// transport. The configuration must already be validated.
func NewSupervisor(cfg *config.Config, resolver stream.Resolver) *Supervisor {
	return &Supervisor{
		cfg:      cfg,
		resolver: resolver,
		state:    StateConnecting,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State returns the current loop state.
func (s *Supervisor) State() State {
	return s.state
}

func (s *Supervisor) setState(next State) {
	if s.state != next {
		log.Printf("[SESSION] %s -> %s", s.state, next)
		s.state = next
	}
}

// Run executes the acquisition loop until ctx is cancelled or the retry
// ceiling is exhausted. On termination all buffered rows are flushed and the
// final session file location is reported.
func (s *Supervisor) Run(ctx context.Context) error {
	a := s.cfg.Acquisition

	log.Printf("[SESSION] looking for a %s stream...", a.StreamType)
	inlet, err := s.connect(ctx)
	if err != nil {
		return err
	}
	s.inlet = inlet
	desc := inlet.Desc()
	log.Printf("[SESSION] acquiring from %q (%.0f Hz, %d channels)", desc.Name, desc.SampleRate, desc.Channels)

	s.pipeline, err = NewPipeline(s.cfg, desc.SampleRate)
	if err != nil {
		inlet.Close()
		return err
	}

	start := s.now()
	s.csv, err = record.NewCSVRecorder(s.cfg.Recording.DataDir, start)
	if err != nil {
		inlet.Close()
		return err
	}
	if s.cfg.Recording.EDF {
		s.edf, err = record.NewEDFRecorder(s.cfg.Recording.DataDir, start,
			len(a.Channels), int(desc.SampleRate))
		if err != nil {
			s.csv.Close()
			inlet.Close()
			return err
		}
		log.Printf("[RECORD] raw signal -> %s", s.edf.Path())
	}
	log.Printf("[RECORD] session log -> %s", s.csv.Path())

	s.setState(StateStreaming)
	s.lastData = s.now()
	err = s.loop(ctx)

	s.setState(StateTerminated)
	if closeErr := s.closeRecorders(); closeErr != nil && err == nil {
		err = closeErr
	}
	s.inlet.Close()
	log.Printf("[SESSION] data saved to: %s", s.csv.Path())
	return err
}

func (s *Supervisor) loop(ctx context.Context) error {
	a := s.cfg.Acquisition
	pullTimeout := secs(a.PullTimeoutSec)
	stallTimeout := secs(a.StallTimeoutSec)

	for {
		if ctx.Err() != nil {
			return nil
		}

		// Recomputed per cycle: the sample rate can change across reconnects.
		maxSamples := int(a.ShiftSeconds() * s.inlet.Desc().SampleRate)
		chunk, err := s.inlet.Pull(ctx, pullTimeout, maxSamples)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[SESSION] lost connection to stream: %v", err)
			s.setState(StateErrored)
			if err := s.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		if chunk.Len() > 0 {
			s.lastData = s.now()
		} else {
			// Silence alone only matters once it outlasts the stall window.
			if s.now().Sub(s.lastData) > stallTimeout {
				log.Printf("[SESSION] no data received for %v, reconnecting...", stallTimeout)
				s.setState(StateStalled)
				if err := s.reconnect(ctx); err != nil {
					return err
				}
				s.lastData = s.now()
			}
			continue
		}

		res, err := s.pipeline.Process(chunk)
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		if err := s.persist(res); err != nil {
			return err
		}
	}
}

func (s *Supervisor) persist(res CycleResult) error {
	log.Printf("[SESSION] relaxation=%.3f concentration=%.3f drowsiness=%.3f",
		res.Metrics.Alpha, res.Metrics.Beta, res.Metrics.Theta)

	if err := s.csv.WriteRow(record.Row{
		Timestamp: s.now(),
		Channels:  record.ChannelValues(res.LatestSample),
		Alpha:     res.Smoothed[dsp.BandAlpha],
		Beta:      res.Smoothed[dsp.BandBeta],
		Theta:     res.Smoothed[dsp.BandTheta],
		Delta:     res.Smoothed[dsp.BandDelta],
	}); err != nil {
		return err
	}
	if s.edf != nil {
		if err := s.edf.Append(res.Selected); err != nil {
			return err
		}
	}
	return nil
}

// connect resolves and opens the stream, retrying with a fixed backoff.
// With MaxConnectAttempts of zero it never gives up; only cancellation or
// the configured ceiling stop it.
func (s *Supervisor) connect(ctx context.Context) (stream.Inlet, error) {
	a := s.cfg.Acquisition
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inlet, err := s.tryConnect(ctx)
		if err == nil {
			return inlet, nil
		}

		attempts++
		if a.MaxConnectAttempts > 0 && attempts >= a.MaxConnectAttempts {
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrMaxAttempts, attempts, err)
		}
		log.Printf("[SESSION] can't find %s stream (%v), retrying in %v...",
			a.StreamType, err, secs(a.ReconnectBackoffSec))
		if err := s.sleep(ctx, secs(a.ReconnectBackoffSec)); err != nil {
			return nil, err
		}
	}
}

func (s *Supervisor) tryConnect(ctx context.Context) (stream.Inlet, error) {
	a := s.cfg.Acquisition

	streams, err := s.resolver.Resolve(ctx, a.StreamType, secs(a.ResolveTimeoutSec))
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return nil, stream.ErrNoStreams
	}

	inlet, err := s.resolver.Open(ctx, streams[0])
	if err != nil {
		return nil, err
	}

	if tc, err := inlet.TimeCorrection(ctx); err == nil {
		log.Printf("[STREAM] time correction: %.6fs", tc)
	}
	return inlet, nil
}

// reconnect replaces the connection handle and resumes streaming. The ring
// buffers and filter state survive unless ResetOnReconnect is set, so short
// outages don't cost session continuity.
func (s *Supervisor) reconnect(ctx context.Context) error {
	s.setState(StateReconnecting)
	s.inlet.Close()

	inlet, err := s.connect(ctx)
	if err != nil {
		return err
	}

	old := s.inlet.Desc()
	s.inlet = inlet
	desc := inlet.Desc()
	if desc.SampleRate != old.SampleRate {
		log.Printf("[SESSION] sample rate changed %.0f -> %.0f Hz, rebuilding pipeline",
			old.SampleRate, desc.SampleRate)
		s.pipeline, err = NewPipeline(s.cfg, desc.SampleRate)
		if err != nil {
			return err
		}
	} else if s.cfg.Acquisition.ResetOnReconnect {
		s.pipeline.Reset()
	}

	log.Printf("[SESSION] reconnected, resuming data acquisition")
	s.setState(StateStreaming)
	s.lastData = s.now()
	return nil
}

func (s *Supervisor) closeRecorders() error {
	var err error
	if s.csv != nil {
		err = s.csv.Close()
	}
	if s.edf != nil {
		if e := s.edf.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

func secs(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
