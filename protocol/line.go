package protocol

import (
	"errors"
	"strconv"
	"strings"

	"adsbridge/core"
)

// Startup banners written once to the telemetry link
const (
	BannerSuccess = "Connection successful"
	BannerFailure = "Connection unsuccessful, stopping here"
)

// LineKind classifies a telemetry line
type LineKind uint8

const (
	LineSample LineKind = iota + 1
	LineBannerSuccess
	LineBannerFailure
)

// Line is one parsed telemetry line
type Line struct {
	Kind  LineKind
	Value uint32 // Set for LineSample
}

// ErrUnknownLine is returned by ParseLine for text that is neither a banner
// nor a decimal sample
var ErrUnknownLine = errors.New("protocol: unrecognised telemetry line")

// AppendLine appends the telemetry line for a sample value: unsigned decimal
// followed by a newline.
func AppendLine(dst []byte, value uint32) []byte {
	dst = core.AppendUint(dst, value)
	return append(dst, '\n')
}

// ParseLine classifies one telemetry line. Trailing CR/LF is ignored.
func ParseLine(s string) (Line, error) {
	s = strings.TrimRight(s, "\r\n")
	switch strings.TrimSpace(s) {
	case BannerSuccess:
		return Line{Kind: LineBannerSuccess}, nil
	case BannerFailure:
		return Line{Kind: LineBannerFailure}, nil
	}

	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v > SampleMax {
		return Line{}, ErrUnknownLine
	}
	return Line{Kind: LineSample, Value: uint32(v)}, nil
}
