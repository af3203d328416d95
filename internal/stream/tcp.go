package stream

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// TCPResolver is a client for an EEG bridge that forwards device samples
// over a plain TCP socket. The bridge sends one header line on connect:
//
//	name=<name> type=<type> rate=<hz> channels=<n>
//
// followed by one line per sample:
//
//	<timestamp> <ch0> <ch1> ...
//
// with whitespace-separated decimal fields and timestamps in seconds.
type TCPResolver struct {
	addr string
}

// NewTCPResolver creates a resolver for the bridge at addr.
func NewTCPResolver(addr string) *TCPResolver {
	return &TCPResolver{addr: addr}
}

// Resolve probes the bridge and returns its stream description if the type
// matches. A refused or silent bridge resolves to ErrNoStreams.
func (r *TCPResolver) Resolve(ctx context.Context, streamType string, timeout time.Duration) ([]Desc, error) {
	conn, err := net.DialTimeout("tcp", r.addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoStreams, r.addr, err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %s: no header: %v", ErrNoStreams, r.addr, err)
	}

	desc, err := parseHeader(line)
	if err != nil {
		return nil, err
	}
	if desc.Type != streamType {
		return nil, fmt.Errorf("%w: bridge serves type %q, want %q", ErrNoStreams, desc.Type, streamType)
	}
	return []Desc{desc}, nil
}

// Open connects to the bridge and consumes the header line.
func (r *TCPResolver) Open(ctx context.Context, desc Desc) (Inlet, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", r.addr)
	if err != nil {
		return nil, fmt.Errorf("connect bridge: %w", err)
	}

	reader := bufio.NewReader(conn)
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		conn.Close()
		return nil, err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read bridge header: %w", err)
	}
	got, err := parseHeader(line)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &tcpInlet{conn: conn, reader: reader, desc: got}, nil
}

type tcpInlet struct {
	conn    net.Conn
	reader  *bufio.Reader
	desc    Desc
	partial string // line fragment cut off by a read deadline
}

func (t *tcpInlet) Desc() Desc {
	return t.desc
}

func (t *tcpInlet) TimeCorrection(ctx context.Context) (float64, error) {
	// Bridge timestamps are already on the local clock.
	return 0, ctx.Err()
}

// Pull reads sample lines until maxSamples are collected or the deadline
// passes. A deadline with no complete line is an empty chunk, not an error.
func (t *tcpInlet) Pull(ctx context.Context, timeout time.Duration, maxSamples int) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Chunk{}, err
	}

	var chunk Chunk
	for chunk.Len() < maxSamples {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// Keep the fragment so the next pull can complete the line.
				t.partial += line
				return chunk, nil
			}
			return chunk, fmt.Errorf("bridge read: %w", err)
		}
		line = t.partial + line
		t.partial = ""

		ts, row, err := parseSample(line, t.desc.Channels)
		if err != nil {
			return chunk, err
		}
		chunk.Timestamps = append(chunk.Timestamps, ts)
		chunk.Samples = append(chunk.Samples, row)
	}
	return chunk, nil
}

func (t *tcpInlet) Close() error {
	return t.conn.Close()
}

func parseHeader(line string) (Desc, error) {
	var desc Desc
	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return desc, fmt.Errorf("malformed bridge header field %q", field)
		}
		switch key {
		case "name":
			desc.Name = value
		case "type":
			desc.Type = value
		case "rate":
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return desc, fmt.Errorf("malformed bridge rate %q", value)
			}
			desc.SampleRate = rate
		case "channels":
			n, err := strconv.Atoi(value)
			if err != nil {
				return desc, fmt.Errorf("malformed bridge channel count %q", value)
			}
			desc.Channels = n
		}
	}
	if desc.SampleRate <= 0 || desc.Channels <= 0 {
		return desc, fmt.Errorf("incomplete bridge header %q", strings.TrimSpace(line))
	}
	return desc, nil
}

func parseSample(line string, channels int) (float64, []float64, error) {
	fields := strings.Fields(line)
	if len(fields) != channels+1 {
		return 0, nil, fmt.Errorf("sample line has %d fields, want %d", len(fields), channels+1)
	}
	ts, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, nil, fmt.Errorf("malformed sample timestamp %q", fields[0])
	}
	row := make([]float64, channels)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("malformed sample value %q", f)
		}
		row[i] = v
	}
	return ts, row, nil
}
