package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConversionIsLeastSignificantFirst(t *testing.T) {
	testCases := []struct {
		in   []byte
		want uint32
	}{
		{[]byte{0x00, 0x00, 0x00}, 0},
		{[]byte{0x01, 0x00, 0x00}, 1},
		{[]byte{0x00, 0x00, 0x01}, 65536},
		{[]byte{0x56, 0x34, 0x12}, 0x123456},
		{[]byte{0xFF, 0xFF, 0xFF}, SampleMax},
	}

	for _, tc := range testCases {
		got, err := DecodeConversion(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "bytes %v", tc.in)
		assert.Equal(t, uint32(tc.in[2])*65536+uint32(tc.in[1])*256+uint32(tc.in[0]), got)
	}
}

func TestDecodeConversionByteOrderMatters(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03}
	swapped := []byte{0x03, 0x02, 0x01}

	a, err := DecodeConversion(in)
	require.NoError(t, err)
	b, err := DecodeConversion(swapped)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, uint32(0x030201), a)
}

func TestEncodeFrameIsMostSignificantFirst(t *testing.T) {
	for _, s := range []uint32{0, 1, 0x00FF00, 0x123456, SampleMax} {
		frame := EncodeFrame(s)
		assert.Equal(t, [SampleSize]byte{byte((s >> 16) & 0xFF), byte((s >> 8) & 0xFF), byte(s & 0xFF)}, frame)

		back, err := DecodeFrame(frame[:])
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}
}

func TestShortSample(t *testing.T) {
	_, err := DecodeConversion([]byte{1, 2})
	assert.ErrorIs(t, err, ErrShortSample)
	_, err = DecodeFrame(nil)
	assert.ErrorIs(t, err, ErrShortSample)
}
