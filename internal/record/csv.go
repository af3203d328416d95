// Package record persists session output: the per-cycle CSV metric log and
// an optional EDF recording of the raw selected-channel signal.
package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ChannelColumns is the fixed number of raw channel columns in the CSV
// schema. Chunks with fewer channels are zero-padded, wider ones truncated.
const ChannelColumns = 5

// Row is one acquisition cycle's persisted output.
type Row struct {
	Timestamp time.Time
	Channels  [ChannelColumns]float64
	Alpha     float64
	Beta      float64
	Theta     float64
	Delta     float64
}

// ChannelValues pads or truncates the last raw sample of a cycle into the
// fixed CSV channel columns.
func ChannelValues(sample []float64) [ChannelColumns]float64 {
	var out [ChannelColumns]float64
	copy(out[:], sample)
	return out
}

// CSVRecorder appends rows to a session CSV file. The header is written once
// at creation; rows are buffered and flushed explicitly so I/O failures
// surface to the caller instead of being silently dropped.
type CSVRecorder struct {
	f    *os.File
	w    *csv.Writer
	path string
}

// NewCSVRecorder creates the session file eeg_data_<timestamp>.csv under
// dir, creating dir if absent, and writes the header row.
func NewCSVRecorder(dir string, start time.Time) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("eeg_data_%s.csv", start.Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create session file: %w", err)
	}

	r := &CSVRecorder{f: f, w: csv.NewWriter(f), path: path}

	header := []string{"Timestamp"}
	for i := 0; i < ChannelColumns; i++ {
		header = append(header, fmt.Sprintf("Channel%d", i))
	}
	header = append(header, "Alpha", "Beta", "Theta", "Delta")
	if err := r.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return r, nil
}

// WriteRow appends one cycle's row. Non-finite metric values are written
// as-is (+Inf, -Inf, NaN); clamping them would hide a real signal condition.
func (r *CSVRecorder) WriteRow(row Row) error {
	fields := make([]string, 0, 1+ChannelColumns+4)
	fields = append(fields, row.Timestamp.Format(time.RFC3339Nano))
	for _, v := range row.Channels {
		fields = append(fields, formatValue(v))
	}
	fields = append(fields,
		formatValue(row.Alpha),
		formatValue(row.Beta),
		formatValue(row.Theta),
		formatValue(row.Delta))

	if err := r.w.Write(fields); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// Flush forces buffered rows to disk and reports any pending write error.
func (r *CSVRecorder) Flush() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("flush session file: %w", err)
	}
	return nil
}

// Close flushes and closes the session file.
func (r *CSVRecorder) Close() error {
	flushErr := r.Flush()
	if err := r.f.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return flushErr
}

// Path returns the session file location.
func (r *CSVRecorder) Path() string {
	return r.path
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
