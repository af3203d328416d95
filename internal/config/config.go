// Package config handles daemon configuration file management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/austinkregel/neuro-monitor/eegd/internal/dsp"
)

// Config represents the daemon configuration.
type Config struct {
	// Acquisition settings for the stream and the rolling buffers
	Acquisition AcquisitionConfig `yaml:"acquisition"`

	// Filter settings for line-noise removal
	Filter FilterConfig `yaml:"filter"`

	// Bands are the frequency band cut points in Hz
	Bands BandsConfig `yaml:"bands"`

	// Recording settings for the persistence sinks
	Recording RecordingConfig `yaml:"recording"`
}

// AcquisitionConfig contains stream and buffer settings.
type AcquisitionConfig struct {
	// Source selects the transport: "tcp" or "synthetic"
	Source string `yaml:"source"`

	// Addr is the bridge address for the tcp source
	Addr string `yaml:"addr"`

	// StreamType filters stream discovery (default: EEG)
	StreamType string `yaml:"streamType"`

	// BufferSeconds of signal held for analysis (default: 15)
	BufferSeconds float64 `yaml:"bufferSeconds"`

	// EpochSeconds per FFT window (default: 2)
	EpochSeconds float64 `yaml:"epochSeconds"`

	// OverlapSeconds between consecutive epochs (default: 1)
	OverlapSeconds float64 `yaml:"overlapSeconds"`

	// Channels to analyze, as indices into the stream's channels
	Channels []int `yaml:"channels"`

	// ResolveTimeoutSec bounds stream discovery (default: 5)
	ResolveTimeoutSec float64 `yaml:"resolveTimeoutSec"`

	// PullTimeoutSec bounds one chunk pull (default: 1)
	PullTimeoutSec float64 `yaml:"pullTimeoutSec"`

	// StallTimeoutSec of silence before reconnecting (default: 10)
	StallTimeoutSec float64 `yaml:"stallTimeoutSec"`

	// ReconnectBackoffSec between connect attempts (default: 5)
	ReconnectBackoffSec float64 `yaml:"reconnectBackoffSec"`

	// MaxConnectAttempts caps reconnection; 0 retries forever
	MaxConnectAttempts int `yaml:"maxConnectAttempts"`

	// ResetOnReconnect clears the buffers and filter state after a
	// reconnect instead of carrying pre-outage data into the smoothing
	// window
	ResetOnReconnect bool `yaml:"resetOnReconnect"`
}

// ShiftSeconds returns how far each consecutive epoch advances.
func (a AcquisitionConfig) ShiftSeconds() float64 {
	return a.EpochSeconds - a.OverlapSeconds
}

// FilterConfig contains notch filter settings.
type FilterConfig struct {
	// NotchHz is the line-noise frequency to remove (default: 50)
	NotchHz float64 `yaml:"notchHz"`

	// NotchQ is the filter quality factor (default: 30)
	NotchQ float64 `yaml:"notchQ"`
}

// BandRange is a frequency interval in Hz.
type BandRange struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// BandsConfig contains the four canonical band ranges.
type BandsConfig struct {
	Delta BandRange `yaml:"delta"`
	Theta BandRange `yaml:"theta"`
	Alpha BandRange `yaml:"alpha"`
	Beta  BandRange `yaml:"beta"`
}

// Ranges converts the configuration into the estimator's band table.
func (b BandsConfig) Ranges() [dsp.NumBands]dsp.BandRange {
	return [dsp.NumBands]dsp.BandRange{
		dsp.BandDelta: {Low: b.Delta.Low, High: b.Delta.High},
		dsp.BandTheta: {Low: b.Theta.Low, High: b.Theta.High},
		dsp.BandAlpha: {Low: b.Alpha.Low, High: b.Alpha.High},
		dsp.BandBeta:  {Low: b.Beta.Low, High: b.Beta.High},
	}
}

// RecordingConfig contains persistence settings.
type RecordingConfig struct {
	// DataDir is where session files are written (default: eeg_data)
	DataDir string `yaml:"dataDir"`

	// EDF additionally records the raw signal as an EDF file
	EDF bool `yaml:"edf"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Acquisition: AcquisitionConfig{
			Source:              "tcp",
			Addr:                "127.0.0.1:9350",
			StreamType:          "EEG",
			BufferSeconds:       15,
			EpochSeconds:        2,
			OverlapSeconds:      1,
			Channels:            []int{0},
			ResolveTimeoutSec:   5,
			PullTimeoutSec:      1,
			StallTimeoutSec:     10,
			ReconnectBackoffSec: 5,
		},
		Filter: FilterConfig{
			NotchHz: 50,
			NotchQ:  30,
		},
		Bands: BandsConfig{
			Delta: BandRange{Low: 0.5, High: 4},
			Theta: BandRange{Low: 4, High: 8},
			Alpha: BandRange{Low: 8, High: 12},
			Beta:  BandRange{Low: 12, High: 30},
		},
		Recording: RecordingConfig{
			DataDir: "eeg_data",
		},
	}
}

// Validate checks the configuration invariants once at startup, so the
// pipeline never has to re-check them per cycle.
func (c *Config) Validate() error {
	a := c.Acquisition
	if a.EpochSeconds <= 0 {
		return fmt.Errorf("epochSeconds must be positive, got %v", a.EpochSeconds)
	}
	if a.EpochSeconds > a.BufferSeconds {
		return fmt.Errorf("epochSeconds (%v) cannot exceed bufferSeconds (%v)", a.EpochSeconds, a.BufferSeconds)
	}
	if a.OverlapSeconds < 0 || a.OverlapSeconds >= a.EpochSeconds {
		return fmt.Errorf("overlapSeconds (%v) must be in [0, epochSeconds)", a.OverlapSeconds)
	}
	if len(a.Channels) == 0 {
		return fmt.Errorf("at least one analysis channel is required")
	}
	for _, ch := range a.Channels {
		if ch < 0 {
			return fmt.Errorf("channel index %d is negative", ch)
		}
	}
	if a.PullTimeoutSec <= 0 || a.ResolveTimeoutSec <= 0 || a.StallTimeoutSec <= 0 || a.ReconnectBackoffSec <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Filter.NotchHz <= 0 || c.Filter.NotchQ <= 0 {
		return fmt.Errorf("notch frequency and Q must be positive")
	}
	switch a.Source {
	case "tcp", "synthetic":
	default:
		return fmt.Errorf("unknown source %q", a.Source)
	}
	return nil
}

// Manager handles loading and saving configuration.
type Manager struct {
	configDir  string
	configPath string
	config     *Config
}

// NewManager creates a config manager rooted at configDir.
func NewManager(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configPath: filepath.Join(configDir, "config.yaml"),
		config:     DefaultConfig(),
	}
}

// Load reads the configuration from disk.
func (m *Manager) Load() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// First run: persist the defaults so the file is there to edit.
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		m.config = DefaultConfig()
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig() // Start with defaults
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.config = config
	return nil
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// GetPath returns the config file path.
func (m *Manager) GetPath() string {
	return m.configPath
}
