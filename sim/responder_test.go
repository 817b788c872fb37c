package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbridge/core"
)

func TestResponderHistoryIsBounded(t *testing.T) {
	r := NewResponder()
	for i := 0; i < FrameHistory+10; i++ {
		tok, err := r.Start([]byte{0, byte(i >> 8), byte(i)}, nil)
		require.NoError(t, err)
		assert.Equal(t, core.TransferIdle, r.State(tok))
	}

	frames := r.Frames()
	require.Len(t, frames, FrameHistory)
	assert.Equal(t, []byte{0, 0, 10}, frames[0], "oldest frames dropped first")
	assert.Equal(t, uint64(FrameHistory+10), r.Loaded())
	assert.Zero(t, r.Pending())
}

func TestResponderStartAbandonsEarlierTransfer(t *testing.T) {
	r := NewResponder()
	r.SetMode(CompleteNever, 0)

	var fired []core.Token
	first, err := r.Start([]byte{1, 2, 3}, func(tok core.Token) { fired = append(fired, tok) })
	require.NoError(t, err)
	assert.Equal(t, core.TransferBusy, r.State(first))

	r.SetMode(CompleteManual, 0)
	second, err := r.Start([]byte{4, 5, 6}, func(tok core.Token) { fired = append(fired, tok) })
	require.NoError(t, err)
	assert.Equal(t, 1, r.Pending())

	r.Finish(first)
	assert.Empty(t, fired, "abandoned transfer never completes")

	r.Finish(second)
	assert.Equal(t, []core.Token{second}, fired)
	assert.Equal(t, core.TransferIdle, r.State(second))
	assert.Zero(t, r.Pending())
}
