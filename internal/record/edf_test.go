package record

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/OpenPSG/edf"
	"github.com/stretchr/testify/require"
)

func TestEDFRecorderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	const rate = 16

	r, err := NewEDFRecorder(dir, start, 2, rate)
	require.NoError(t, err)

	// Feed 1.5 records worth of samples in uneven chunks; only the full
	// record should land on disk, the partial tail is dropped on close.
	total := rate + rate/2
	for i := 0; i < total; i += 5 {
		end := i + 5
		if end > total {
			end = total
		}
		rows := make([][]float64, end-i)
		for j := range rows {
			rows[j] = []float64{float64(i + j), -float64(i + j)}
		}
		require.NoError(t, r.Append(rows))
	}
	require.NoError(t, r.Close())

	f, err := os.Open(r.Path())
	require.NoError(t, err)
	defer f.Close()

	er, err := edf.Open(f)
	require.NoError(t, err)

	sig0, err := er.Signal(0)
	require.NoError(t, err)
	ch0 := make([]float64, rate+1)
	n, err := sig0.Read(ch0)
	require.ErrorIs(t, err, io.EOF, "only one full data record should exist")
	require.Equal(t, rate, n)

	sig1, err := er.Signal(1)
	require.NoError(t, err)
	ch1 := make([]float64, rate)
	n, err = sig1.Read(ch1)
	require.NoError(t, err)
	require.Equal(t, rate, n)

	// 16-bit quantization over a 1000 uV physical range.
	require.InDelta(t, 0.0, ch0[0], 0.05)
	require.InDelta(t, 15.0, ch0[rate-1], 0.05)
	require.InDelta(t, -15.0, ch1[rate-1], 0.05)
}
