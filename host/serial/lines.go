package serial

import (
	"bufio"
	"errors"
	"io"

	"adsbridge/protocol"
)

// LineReader splits the telemetry stream into banner and sample lines
type LineReader struct {
	sc      *bufio.Scanner
	skipped int
}

// NewLineReader reads telemetry lines from r
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64), 256)
	return &LineReader{sc: sc}
}

// Next returns the next recognised line. Blank lines and noise, such as a
// partial line received while the firmware restarts, are counted and skipped.
// It returns io.EOF when the stream ends.
func (r *LineReader) Next() (protocol.Line, error) {
	for r.sc.Scan() {
		text := r.sc.Text()
		if text == "" || text == "\r" {
			continue
		}
		line, err := protocol.ParseLine(text)
		if errors.Is(err, protocol.ErrUnknownLine) {
			r.skipped++
			continue
		}
		return line, err
	}
	if err := r.sc.Err(); err != nil {
		return protocol.Line{}, err
	}
	return protocol.Line{}, io.EOF
}

// Skipped returns how many unrecognised lines were dropped
func (r *LineReader) Skipped() int {
	return r.skipped
}
