package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbridge/core"
	"adsbridge/protocol"
	"adsbridge/sim"
)

const pinSelect core.GPIOPin = 12

func newForwarder(t *testing.T) (*Forwarder, *sim.Board, *sim.Responder, *sim.Clock) {
	t.Helper()
	board := sim.NewBoard()
	bus := sim.NewResponder()
	clock := sim.NewClock()
	cfg := DefaultConfig()
	cfg.Transfer.Timeout = 100 * time.Millisecond
	cfg.Transfer.Interval = time.Millisecond

	f, err := New(board, pinSelect, bus, clock, cfg)
	require.NoError(t, err)
	return f, board, bus, clock
}

func TestForwardSendsMostSignificantFirst(t *testing.T) {
	f, board, bus, _ := newForwarder(t)
	bus.SetMode(sim.CompleteOnPoll, 3)

	for _, v := range []uint32{0x123456, 0, protocol.SampleMax, 0x00FF00} {
		require.NoError(t, f.Forward(protocol.Sample{Value: v}))
	}
	bus.Wait()

	frames := bus.Frames()
	require.Len(t, frames, 4)
	assert.Equal(t, []byte{0x12, 0x34, 0x56}, frames[0])
	assert.Equal(t, []byte{0x00, 0x00, 0x00}, frames[1])
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, frames[2])
	assert.Equal(t, []byte{0x00, 0xFF, 0x00}, frames[3])
	assert.Equal(t, core.High, board.Level(pinSelect))
}

func TestForwardFramesWithSelect(t *testing.T) {
	f, board, bus, clock := newForwarder(t)
	bus.SetMode(sim.CompleteOnPoll, 2)

	require.NoError(t, f.Forward(protocol.Sample{Value: 1}))
	bus.Wait()

	history := board.History(pinSelect)
	require.GreaterOrEqual(t, len(history), 3)
	assert.Equal(t, core.Low, history[1], "select asserted before the frame is loaded")
	assert.Equal(t, core.High, board.Level(pinSelect))
	assert.Equal(t, time.Millisecond+2*time.Millisecond, clock.Slept(), "select setup and two busy polls")
}

func TestForwardInlineCompletion(t *testing.T) {
	f, board, bus, _ := newForwarder(t)
	bus.SetMode(sim.CompleteInline, 0)

	require.NoError(t, f.Forward(protocol.Sample{Value: 7}))

	assert.Equal(t, core.High, board.Level(pinSelect))
	assert.Zero(t, f.Completions(), "completion before the token is published is left to the poll path")
}

func TestForwardManualCompletionReleasesOnce(t *testing.T) {
	f, board, bus, _ := newForwarder(t)
	bus.SetMode(sim.CompleteManual, 0)

	// Load a frame the way Forward does, then let the completion arrive first
	require.NoError(t, board.SetPin(pinSelect, core.Low))
	tok, err := bus.Start([]byte{1, 2, 3}, f.Complete)
	require.NoError(t, err)
	f.inflight.Store(uint32(tok))

	bus.Finish(tok)
	assert.Equal(t, core.High, board.Level(pinSelect))
	assert.Equal(t, uint32(1), f.Completions())

	// The poll path releasing again is harmless
	require.NoError(t, f.Release())
	assert.Equal(t, core.High, board.Level(pinSelect))
}

func TestReleaseIsIdempotent(t *testing.T) {
	f, board, _, _ := newForwarder(t)

	require.NoError(t, f.Release())
	require.NoError(t, f.Release())

	assert.Equal(t, core.High, board.Level(pinSelect))
	assert.Equal(t, []bool{core.High, core.High, core.High}, board.History(pinSelect))
}

func TestStaleCompletionIsIgnored(t *testing.T) {
	f, board, _, _ := newForwarder(t)

	require.NoError(t, board.SetPin(pinSelect, core.Low))
	f.inflight.Store(5)

	f.Complete(4)
	f.Complete(0)
	assert.Equal(t, core.Low, board.Level(pinSelect), "stale tokens must not end the current frame")

	f.Complete(5)
	assert.Equal(t, core.High, board.Level(pinSelect))

	f.Complete(5)
	assert.Equal(t, uint32(1), f.Completions(), "a token completes at most once")
}

func TestForwardTimesOut(t *testing.T) {
	f, board, bus, _ := newForwarder(t)
	bus.SetMode(sim.CompleteNever, 0)

	err := f.Forward(protocol.Sample{Value: 9})
	require.ErrorIs(t, err, ErrBusy)
	require.ErrorIs(t, err, core.ErrUnresponsive)
	assert.Equal(t, core.High, board.Level(pinSelect))
	assert.Zero(t, f.inflight.Load())
}

func TestForwardStartFailure(t *testing.T) {
	f, board, bus, _ := newForwarder(t)
	startErr := errors.New("fifo full")
	bus.FailStart(startErr)

	err := f.Forward(protocol.Sample{Value: 9})
	require.ErrorIs(t, err, startErr)
	assert.Equal(t, core.High, board.Level(pinSelect))
}

func TestForwardTransferFailure(t *testing.T) {
	f, board, bus, _ := newForwarder(t)
	bus.SetMode(sim.CompleteFailed, 0)

	require.Error(t, f.Forward(protocol.Sample{Value: 9}))
	assert.Equal(t, core.High, board.Level(pinSelect))
}
