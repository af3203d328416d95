package record

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/OpenPSG/edf"
)

// EDFRecorder writes the raw selected-channel signal to an EDF file in
// one-second data records. Samples accumulate until a full record per
// channel is available; a trailing partial record is dropped on close, as
// EDF records have a fixed sample count.
type EDFRecorder struct {
	f       *os.File
	w       *edf.Writer
	path    string
	rate    int
	pending [][]float64 // per-channel sample backlog
}

// NewEDFRecorder creates eeg_data_<timestamp>.edf under dir with one EEG
// signal per channel at sampleRate samples per record.
func NewEDFRecorder(dir string, start time.Time, channels, sampleRate int) (*EDFRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("eeg_data_%s.edf", start.Format("20060102_150405")))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create edf file: %w", err)
	}

	signals := make([]edf.SignalHeader, channels)
	for i := range signals {
		signals[i] = edf.SignalHeader{
			Label:             fmt.Sprintf("EEG ch%d", i),
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       -500,
			PhysicalMax:       500,
			DigitalMin:        -32768,
			DigitalMax:        32767,
			Prefiltering:      "notch 50Hz",
			SamplesPerRecord:  sampleRate,
		}
	}

	w, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		PatientID:          "X",
		RecordingID:        fmt.Sprintf("Startdate %s eegd", start.Format("02-Jan-2006")),
		StartTime:          start,
		DataRecordDuration: time.Second,
		SignalCount:        channels,
		Signals:            signals,
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create edf writer: %w", err)
	}

	return &EDFRecorder{
		f:       f,
		w:       w,
		path:    path,
		rate:    sampleRate,
		pending: make([][]float64, channels),
	}, nil
}

// Append buffers rows (samples x channels) and writes full data records as
// they become available.
func (r *EDFRecorder) Append(rows [][]float64) error {
	for _, row := range rows {
		for c := range r.pending {
			var v float64
			if c < len(row) {
				v = row[c]
			}
			r.pending[c] = append(r.pending[c], v)
		}
	}

	for len(r.pending[0]) >= r.rate {
		record := make([][]float64, len(r.pending))
		for c := range r.pending {
			record[c] = r.pending[c][:r.rate]
		}
		if err := r.w.WriteRecord(record); err != nil {
			return fmt.Errorf("write edf record: %w", err)
		}
		for c := range r.pending {
			r.pending[c] = r.pending[c][r.rate:]
		}
	}
	return nil
}

// Close finalizes the EDF header and closes the file.
func (r *EDFRecorder) Close() error {
	if err := r.w.Close(); err != nil {
		r.f.Close()
		return fmt.Errorf("finalize edf header: %w", err)
	}
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("close edf file: %w", err)
	}
	return nil
}

// Path returns the EDF file location.
func (r *EDFRecorder) Path() string {
	return r.path
}
