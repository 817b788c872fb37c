// Package telemetry writes the human-readable sample stream to the serial link.
package telemetry

import (
	"io"

	"adsbridge/core"
	"adsbridge/protocol"
)

// Reporter writes banners and sample lines to a blocking byte link
type Reporter struct {
	w   io.Writer
	buf [16]byte // Longest line: 10 digits and a newline
}

// New returns a Reporter writing to w
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Banner writes the startup result line
func (r *Reporter) Banner(ok bool) error {
	line := protocol.BannerFailure
	if ok {
		line = protocol.BannerSuccess
	}
	return r.write([]byte(line + "\n"))
}

// Report writes one sample as unsigned decimal followed by a newline
func (r *Reporter) Report(s protocol.Sample) error {
	return r.write(protocol.AppendLine(r.buf[:0], s.Value))
}

func (r *Reporter) write(b []byte) error {
	n, err := r.w.Write(b)
	if err != nil {
		return core.Wrap("telemetry: write", err)
	}
	if n != len(b) {
		return core.Wrap("telemetry: write", io.ErrShortWrite)
	}
	return nil
}
