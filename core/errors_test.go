package core

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapFormatsWithoutFmt(t *testing.T) {
	err := Wrap("ads1256: read register "+Hex8(0x01), io.ErrUnexpectedEOF)
	assert.Equal(t, "ads1256: read register 0x01: unexpected EOF", err.Error())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, "channel 9 out of range", Wrap("channel "+Itoa(9)+" out of range").Error())
}

func TestWrapKeepsEveryCause(t *testing.T) {
	busy := errors.New("busy")
	err := Wrap("bridge: token 3", busy, nil, ErrUnresponsive)

	assert.ErrorIs(t, err, busy)
	assert.ErrorIs(t, err, ErrUnresponsive)
	assert.Equal(t, "bridge: token 3: busy: device unresponsive", err.Error())

	var wrapped *Error
	assert.ErrorAs(t, Wrap("outer", err), &wrapped)
	assert.Equal(t, "outer", wrapped.Msg)
}
