package firmware

import "adsbridge/ads1256"

// State is the position of the runner in its acquisition cycle
type State uint8

const (
	StateIdle State = iota + 1
	StateStartup
	StateConfigureMux
	StateSync
	StateWakeup
	StateWaitReady
	StateTransfer
	StateDecode
	StateForward
	StateReport
	StateRecover
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStartup:
		return "STARTUP"
	case StateConfigureMux:
		return "CONFIGURE_MUX"
	case StateSync:
		return "SYNC"
	case StateWakeup:
		return "WAKEUP"
	case StateWaitReady:
		return "WAIT_READY"
	case StateTransfer:
		return "TRANSFER"
	case StateDecode:
		return "DECODE"
	case StateForward:
		return "FORWARD"
	case StateReport:
		return "REPORT"
	case StateRecover:
		return "RECOVER"
	case StateHalted:
		return "HALTED"
	default:
		return "UNKNOWN"
	}
}

// stateForPhase maps a driver phase onto the cycle state it represents
func stateForPhase(p ads1256.Phase) State {
	switch p {
	case ads1256.PhaseConfigureMux:
		return StateConfigureMux
	case ads1256.PhaseSync:
		return StateSync
	case ads1256.PhaseWakeup:
		return StateWakeup
	case ads1256.PhaseWaitReady:
		return StateWaitReady
	case ads1256.PhaseTransfer:
		return StateTransfer
	case ads1256.PhaseDecode:
		return StateDecode
	default:
		return StateIdle
	}
}
