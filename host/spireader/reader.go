// Package spireader is the host side of the responder bus: it waits for the
// firmware to pull the select line low and clocks the 3-byte frame out as
// SPI controller.
package spireader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"

	"adsbridge/protocol"
)

// ErrNoFrame is returned by Next when no frame was loaded within the timeout
var ErrNoFrame = errors.New("spireader: no frame")

// Conn is the part of a periph SPI connection the reader uses
type Conn interface {
	Tx(w, r []byte) error
}

// Select is the select line input, configured for edge detection on both edges
type Select interface {
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// Reader clocks frames out of the firmware
type Reader struct {
	conn      Conn
	sel       Select
	timeout   time.Duration
	loadDelay time.Duration
	sleep     func(time.Duration)

	armed   bool // select was seen released since the last frame
	tx      [protocol.SampleSize]byte
	rx      [protocol.SampleSize]byte
	frames  uint64
	dropped uint64
}

// New returns a reader. timeout bounds every wait for the select line.
// The firmware asserts select before it loads the frame into its responder,
// so each transfer starts loadDelay after select is seen low.
func New(conn Conn, sel Select, timeout, loadDelay time.Duration) *Reader {
	return &Reader{
		conn:      conn,
		sel:       sel,
		timeout:   timeout,
		loadDelay: loadDelay,
		sleep:     time.Sleep,
		armed:     true,
	}
}

// Next waits for a loaded frame and reads it. A frame is read once: the
// select line has to be released before the next one is accepted.
func (r *Reader) Next() (uint32, error) {
	for {
		level := r.sel.Read()
		if level == gpio.High {
			r.armed = true
		} else if r.armed {
			break
		}
		if !r.sel.WaitForEdge(r.timeout) {
			return 0, ErrNoFrame
		}
	}
	r.armed = false
	if r.loadDelay > 0 {
		r.sleep(r.loadDelay)
	}

	if err := r.conn.Tx(r.tx[:], r.rx[:]); err != nil {
		return 0, fmt.Errorf("spireader: transfer: %w", err)
	}
	r.frames++
	return protocol.DecodeFrame(r.rx[:])
}

// Run reads frames until ctx is cancelled and offers each to out. Frames that
// find out full are dropped and counted.
func (r *Reader) Run(ctx context.Context, out chan<- protocol.Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		v, err := r.Next()
		if errors.Is(err, ErrNoFrame) {
			glog.V(2).Info("no frame within timeout")
			continue
		}
		if err != nil {
			return err
		}

		select {
		case out <- protocol.Sample{Value: v}:
		default:
			r.dropped++
			glog.Warningf("sample buffer full, dropped %d (total %d)", v, r.dropped)
		}
	}
}

// Stats returns the frames read and the frames dropped on a full buffer
func (r *Reader) Stats() (frames, dropped uint64) {
	return r.frames, r.dropped
}
