package protocol

import "errors"

// ErrShortSample is returned when fewer than SampleSize bytes are available
var ErrShortSample = errors.New("protocol: short sample")

// DecodeConversion decodes the bytes received from the ADC after a read-data
// command. The first byte received is the least significant.
func DecodeConversion(data []byte) (uint32, error) {
	if len(data) < SampleSize {
		return 0, ErrShortSample
	}
	return uint32(data[2])<<16 | uint32(data[1])<<8 | uint32(data[0]), nil
}

// EncodeFrame splits a sample into the responder-bus frame, most significant
// byte first. Bits above 24 are discarded.
func EncodeFrame(value uint32) [SampleSize]byte {
	return [SampleSize]byte{
		byte(value >> 16),
		byte(value >> 8),
		byte(value),
	}
}

// DecodeFrame reassembles a responder-bus frame read by the remote controller
func DecodeFrame(frame []byte) (uint32, error) {
	if len(frame) < SampleSize {
		return 0, ErrShortSample
	}
	return uint32(frame[0])<<16 | uint32(frame[1])<<8 | uint32(frame[2]), nil
}
