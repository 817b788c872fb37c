package sim

import (
	"sync"

	"adsbridge/core"
)

// Completion selects how the simulated remote controller consumes a frame
type Completion uint8

const (
	// CompleteOnPoll reports busy for BusyPolls state queries, then idle,
	// and fires the completion handler from a separate goroutine.
	CompleteOnPoll Completion = iota
	// CompleteInline fires the completion handler before Start returns
	CompleteInline
	// CompleteManual leaves the frame busy until Finish is called
	CompleteManual
	// CompleteNever never clocks the frame out
	CompleteNever
	// CompleteFailed reports the transfer as failed
	CompleteFailed
)

// FrameHistory is how many loaded frames Frames keeps
const FrameHistory = 1024

type transfer struct {
	data  []byte
	polls int
	state core.TransferState
	done  func(core.Token)
}

// Responder is the responder-side SPI bus with a scripted remote controller.
// It implements core.Responder. Like the hardware it holds one frame: Start
// abandons any earlier transfer.
type Responder struct {
	mu        sync.Mutex
	mode      Completion
	busyPolls int
	startErr  error
	last      core.Token
	transfers map[core.Token]*transfer
	frames    [][]byte
	loaded    uint64
	wg        sync.WaitGroup
}

// NewResponder returns a responder in CompleteOnPoll mode
func NewResponder() *Responder {
	return &Responder{transfers: make(map[core.Token]*transfer)}
}

// SetMode changes how subsequent frames complete
func (r *Responder) SetMode(mode Completion, busyPolls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mode = mode
	r.busyPolls = busyPolls
}

// FailStart makes Start return err until cleared with nil
func (r *Responder) FailStart(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

// Start implements core.Responder
func (r *Responder) Start(data []byte, done func(core.Token)) (core.Token, error) {
	r.mu.Lock()
	if r.startErr != nil {
		err := r.startErr
		r.mu.Unlock()
		return 0, err
	}
	r.last++
	tok := r.last
	t := &transfer{
		data:  append([]byte(nil), data...),
		polls: r.busyPolls,
		state: core.TransferBusy,
		done:  done,
	}
	clear(r.transfers)
	r.record(t.data)
	mode := r.mode
	switch mode {
	case CompleteInline:
		t.state = core.TransferIdle
	case CompleteFailed:
		t.state = core.TransferFailed
		r.transfers[tok] = t
	default:
		r.transfers[tok] = t
	}
	r.mu.Unlock()

	if mode == CompleteInline && done != nil {
		done(tok)
	}
	return tok, nil
}

// State implements core.Responder
func (r *Responder) State(tok core.Token) core.TransferState {
	r.mu.Lock()
	t, ok := r.transfers[tok]
	if !ok {
		r.mu.Unlock()
		return core.TransferIdle
	}
	if t.state != core.TransferBusy || r.mode != CompleteOnPoll {
		state := t.state
		r.mu.Unlock()
		return state
	}
	if t.polls > 0 {
		t.polls--
		r.mu.Unlock()
		return core.TransferBusy
	}
	delete(r.transfers, tok)
	done := t.done
	r.mu.Unlock()

	if done != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			done(tok)
		}()
	}
	return core.TransferIdle
}

// Finish completes a frame held by CompleteManual and fires its handler
func (r *Responder) Finish(tok core.Token) {
	r.mu.Lock()
	t, ok := r.transfers[tok]
	if !ok || t.state != core.TransferBusy {
		r.mu.Unlock()
		return
	}
	delete(r.transfers, tok)
	done := t.done
	r.mu.Unlock()

	if done != nil {
		done(tok)
	}
}

func (r *Responder) record(frame []byte) {
	r.loaded++
	if len(r.frames) == FrameHistory {
		copy(r.frames, r.frames[1:])
		r.frames = r.frames[:FrameHistory-1]
	}
	r.frames = append(r.frames, frame)
}

// Wait blocks until completion handlers started by State have returned
func (r *Responder) Wait() {
	r.wg.Wait()
}

// Loaded returns how many frames were loaded in total
func (r *Responder) Loaded() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Pending returns how many transfers the responder still tracks
func (r *Responder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transfers)
}

// Frames returns the last FrameHistory frames loaded, oldest first
func (r *Responder) Frames() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames...)
}

// Last returns the most recently issued token
func (r *Responder) Last() core.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
