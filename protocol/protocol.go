// Package protocol implements the wire formats shared by the firmware and the
// host: the ADC conversion result, the 3-byte frame pushed over the responder
// bus and the telemetry text lines.
package protocol

// Version represents the adsbridge firmware version
const Version = "0.1.0"

// Protocol constants
const (
	SampleSize = 3        // Bytes per sample on both buses
	SampleMax  = 0xFFFFFF // Largest 24-bit sample value
)

// Sample is one 24-bit conversion result and the channel it was taken from
type Sample struct {
	Channel uint8
	Value   uint32
}
