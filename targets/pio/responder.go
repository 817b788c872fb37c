//go:build rp2040

package pio

// SPI responder on a PIO state machine. The remote controller clocks the
// frame out; this side only shifts bits onto the data line.

import (
	"errors"
	"machine"
	"sync"
	"time"

	"adsbridge/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// FrameSize is the number of bytes shifted out per transfer
const FrameSize = 3

// ErrFrameSize is returned by Start for data that is not FrameSize bytes
var ErrFrameSize = errors.New("pio responder: frame must be 3 bytes")

// buildResponderProgram returns an SPI mode 0 responder for one 24-bit frame,
// most significant bit first. The clock is IN pin 0.
//
// Program flow:
//  1. Pull the frame, left aligned, from the TX FIFO
//  2. For each of 24 bits: present the bit while SCK is low, hold it until
//     the controller samples on the rising edge
//  3. Push a marker word so the CPU sees completion in the RX FIFO
func buildResponderProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),        // 0: pull block
		asm.Set(rp2pio.SetDestX, 23).Encode(), // 1: set x, 23
		// bit:
		asm.WaitPin(false, 0).Encode(),           // 2: wait 0 pin 0 (sck low)
		asm.Out(rp2pio.OutDestPins, 1).Encode(),  // 3: out pins, 1
		asm.WaitPin(true, 0).Encode(),            // 4: wait 1 pin 0 (sck high)
		asm.Jmp(2, rp2pio.JmpXNZeroDec).Encode(), // 5: jmp x--, bit
		asm.Push(false, false).Encode(),          // 6: push noblock
		// .wrap
	}
}

const responderPIOOrigin = 0

// Responder implements core.Responder on one PIO state machine
type Responder struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	cfg    rp2pio.StateMachineConfig
	offset uint8
	sck    machine.Pin
	miso   machine.Pin

	mu    sync.Mutex
	last  core.Token
	cur   core.Token
	state core.TransferState
	done  func(core.Token)
}

// NewResponder creates a responder on PIO block pioNum, state machine smNum
func NewResponder(pioNum, smNum uint8) *Responder {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}
	return &Responder{
		pio:   pioHW,
		sm:    pioHW.StateMachine(smNum),
		state: core.TransferIdle,
	}
}

// Init loads the program, claims the pins and starts the completion watcher.
// sck is the controller's clock input, miso the data output.
func (r *Responder) Init(sck, miso machine.Pin) error {
	r.sck = sck
	r.miso = miso

	// Claim the state machine before touching it
	r.sm.TryClaim()

	program := buildResponderProgram()
	offset, err := r.pio.AddProgram(program, responderPIOOrigin)
	if err != nil {
		return err
	}
	r.offset = offset

	r.sck.Configure(machine.PinConfig{Mode: r.pio.PinMode()})
	r.miso.Configure(machine.PinConfig{Mode: r.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetInPins(r.sck, 1)
	cfg.SetOutPins(r.miso, 1)
	// Shift left: the frame leaves MSB first from bit 31
	cfg.SetOutShift(false, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// Full speed, the controller's clock paces the program
	cfg.SetClkDivIntFrac(1, 0)
	r.cfg = cfg

	r.restart()
	go r.watch()
	return nil
}

// restart puts the state machine back at the top of the program with empty FIFOs
func (r *Responder) restart() {
	r.sm.SetEnabled(false)
	r.sm.ClearFIFOs()
	r.sm.Init(r.offset, r.cfg)
	r.sm.SetPindirsConsecutive(r.sck, 1, false)
	r.sm.SetPindirsConsecutive(r.miso, 1, true)
	r.sm.SetPinsConsecutive(r.miso, 1, false)
	r.sm.SetEnabled(true)
}

// Start implements core.Responder. A frame still pending from an abandoned
// transfer is discarded.
func (r *Responder) Start(data []byte, done func(core.Token)) (core.Token, error) {
	if len(data) != FrameSize {
		return 0, ErrFrameSize
	}

	r.mu.Lock()
	if r.state == core.TransferBusy {
		r.restart()
	}
	r.last++
	if r.last == 0 {
		r.last++
	}
	tok := r.last
	r.cur = tok
	r.state = core.TransferBusy
	r.done = done
	r.sm.TxPut(uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8)
	r.mu.Unlock()

	return tok, nil
}

// State implements core.Responder. Tokens other than the current one are
// long finished.
func (r *Responder) State(tok core.Token) core.TransferState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tok != r.cur {
		return core.TransferIdle
	}
	r.collect()
	return r.state
}

// collect consumes the completion marker. Called with r.mu held.
func (r *Responder) collect() bool {
	if r.state != core.TransferBusy || r.sm.IsRxFIFOEmpty() {
		return false
	}
	r.sm.RxGet()
	r.state = core.TransferIdle
	return true
}

// watch fires the completion handler of a transfer finished between polls
func (r *Responder) watch() {
	for {
		r.mu.Lock()
		var done func(core.Token)
		tok := r.cur
		if r.collect() {
			done = r.done
		}
		r.mu.Unlock()

		if done != nil {
			done(tok)
		}
		time.Sleep(20 * time.Microsecond)
	}
}
