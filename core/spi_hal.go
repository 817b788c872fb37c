package core

// SPIMode represents SPI clock polarity and phase (0-3)
// Mode 0: CPOL=0, CPHA=0 (clock idle low, sample on rising edge)
// Mode 1: CPOL=0, CPHA=1 (clock idle low, sample on falling edge)
// Mode 2: CPOL=1, CPHA=0 (clock idle high, sample on falling edge)
// Mode 3: CPOL=1, CPHA=1 (clock idle high, sample on rising edge)
type SPIMode uint8

// SPIConfig holds the configuration for an SPI bus
type SPIConfig struct {
	Mode SPIMode // SPI mode (0-3)
	Rate uint32  // Clock rate in Hz
}

// Token identifies one responder transfer. Zero is never a valid token.
type Token uint32

// TransferState is the progress of a responder transfer
type TransferState uint8

const (
	TransferIdle   TransferState = iota // Complete, the responder can be loaded again
	TransferBusy                        // Bytes still waiting to be clocked out by the remote controller
	TransferFailed                      // The transport reported an error for this transfer
)

func (s TransferState) String() string {
	switch s {
	case TransferIdle:
		return "idle"
	case TransferBusy:
		return "busy"
	case TransferFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Responder is the abstract interface for an SPI bus on which this firmware
// answers a remote controller. Platform-specific implementations shift the
// loaded bytes out when the remote side clocks the bus.
type Responder interface {
	// Start loads data for transmission and returns immediately.
	// done is invoked with the returned token once the last byte has been
	// clocked out; it may run on an interrupt or another goroutine.
	Start(data []byte, done func(Token)) (Token, error)

	// State reports the progress of the transfer identified by tok
	State(tok Token) TransferState
}
