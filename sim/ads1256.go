package sim

import (
	"errors"
	"sync"

	"adsbridge/core"
)

// Device opcodes as the model decodes them
const (
	opWakeup  = 0x00
	opRDATA   = 0x01
	opRREG    = 0x10
	opWREG    = 0x50
	opSYNC    = 0xFC
	opRESET   = 0xFE
	opWakeup2 = 0xFF

	numRegisters = 0x0B
)

// Register reset values from the datasheet, ID excluded
var registerDefaults = [numRegisters]byte{0x01, 0x01, 0x20, 0xF0, 0xE0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// ErrChipSelect is returned by Tx when the chip select line is not asserted
var ErrChipSelect = errors.New("sim: transfer without chip select")

// OpKind classifies a decoded command
type OpKind uint8

const (
	OpReadRegister OpKind = iota + 1
	OpWriteRegister
	OpSync
	OpWakeup
	OpReadData
	OpReset
	OpOther
)

func (k OpKind) String() string {
	switch k {
	case OpReadRegister:
		return "RREG"
	case OpWriteRegister:
		return "WREG"
	case OpSync:
		return "SYNC"
	case OpWakeup:
		return "WAKEUP"
	case OpReadData:
		return "RDATA"
	case OpReset:
		return "RESET"
	default:
		return "OTHER"
	}
}

// Op is one command received by the model
type Op struct {
	Kind OpKind
	Addr byte   // First register for RREG/WREG, opcode for OpOther
	Data []byte // Register values written by WREG
}

// ADS1256 models the converter's command interface. It implements
// drivers.SPI for the bus and drives the DRDY line of a Board.
type ADS1256 struct {
	mu    sync.Mutex
	board *Board
	cs    core.GPIOPin

	id        uint8
	regs      [numRegisters]byte
	pending   []byte // Bytes the device clocks out on the next read phase
	wrAddr    byte   // Continuation of a WREG split across transfers
	wrLeft    int
	ops       []Op
	samples   []uint32
	next      int
	busyReads int // DRDY reads reporting busy before each ready
	busyLeft  int
	stuck     bool
	txErr     error
	csFaults  int
	resets    int
}

// NewADS1256 attaches a device model to board. cs is the chip select output,
// ready the DRDY input and reset the active-low reset output.
func NewADS1256(board *Board, id uint8, cs, ready, reset core.GPIOPin) *ADS1256 {
	d := &ADS1256{
		board: board,
		cs:    cs,
		id:    id & 0x0F,
	}
	d.resetRegisters()

	board.Drive(ready, d.drdy)
	board.Watch(cs, func(level bool) {
		if level == core.High {
			d.mu.Lock()
			d.wrLeft = 0
			d.mu.Unlock()
		}
	})
	board.Watch(reset, func(level bool) {
		if level == core.Low {
			d.mu.Lock()
			d.resets++
			d.resetRegisters()
			d.mu.Unlock()
		}
	})
	return d
}

func (d *ADS1256) resetRegisters() {
	d.regs = registerDefaults
	d.regs[0] = d.id<<4 | registerDefaults[0]&0x0F
	d.pending = nil
	d.wrLeft = 0
}

// drdy supplies the DRDY level: high while busy, low when ready
func (d *ADS1256) drdy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stuck {
		return core.High
	}
	if d.busyLeft > 0 {
		d.busyLeft--
		return core.High
	}
	d.busyLeft = d.busyReads
	return core.Low
}

// Tx implements drivers.SPI. A call with r == nil is a command phase; a call
// with r set clocks out whatever the last command left pending.
func (d *ADS1256) Tx(w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.txErr != nil {
		return d.txErr
	}
	if d.board.Level(d.cs) != core.Low {
		d.csFaults++
		return ErrChipSelect
	}

	if r != nil {
		for i := range r {
			r[i] = 0
			if len(d.pending) > 0 {
				r[i] = d.pending[0]
				d.pending = d.pending[1:]
			}
		}
		return nil
	}

	d.command(w)
	return nil
}

// Transfer implements drivers.SPI for single-byte exchanges
func (d *ADS1256) Transfer(b byte) (byte, error) {
	d.mu.Lock()
	hasPending := len(d.pending) > 0
	d.mu.Unlock()

	if hasPending {
		var r [1]byte
		err := d.Tx([]byte{b}, r[:])
		return r[0], err
	}
	return 0, d.Tx([]byte{b}, nil)
}

// command decodes one command phase
func (d *ADS1256) command(w []byte) {
	if d.wrLeft > 0 {
		w = d.writeRegisters(w)
	}
	if len(w) == 0 {
		return
	}

	op := w[0]
	switch {
	case op&0xF0 == opRREG:
		addr := op & 0x0F
		count := 1
		if len(w) > 1 {
			count = int(w[1]) + 1
		}
		d.pending = nil
		for i := 0; i < count && int(addr)+i < numRegisters; i++ {
			d.pending = append(d.pending, d.regs[int(addr)+i])
		}
		// Remaining bytes (the dummy fill) are ignored while the device prepares its answer
		d.ops = append(d.ops, Op{Kind: OpReadRegister, Addr: addr})
	case op&0xF0 == opWREG:
		d.wrAddr = op & 0x0F
		d.wrLeft = 1
		if len(w) > 1 {
			d.wrLeft = int(w[1]) + 1
		}
		d.ops = append(d.ops, Op{Kind: OpWriteRegister, Addr: d.wrAddr})
		if len(w) > 2 {
			d.writeRegisters(w[2:])
		}
	case op == opSYNC:
		d.ops = append(d.ops, Op{Kind: OpSync})
	case op == opWakeup || op == opWakeup2:
		d.ops = append(d.ops, Op{Kind: OpWakeup})
	case op == opRDATA:
		v := d.nextSample()
		// Least significant byte first on this wire
		d.pending = []byte{byte(v), byte(v >> 8), byte(v >> 16)}
		d.ops = append(d.ops, Op{Kind: OpReadData})
	case op == opRESET:
		d.resetRegisters()
		d.ops = append(d.ops, Op{Kind: OpReset})
	default:
		d.ops = append(d.ops, Op{Kind: OpOther, Addr: op})
	}
}

// writeRegisters stores WREG payload bytes and returns any bytes left over
func (d *ADS1256) writeRegisters(data []byte) []byte {
	var last *Op
	if n := len(d.ops); n > 0 && d.ops[n-1].Kind == OpWriteRegister {
		last = &d.ops[n-1]
	}
	for len(data) > 0 && d.wrLeft > 0 {
		addr := d.wrAddr
		if int(addr) < numRegisters {
			v := data[0]
			if addr == 0 {
				// ID and DRDY bits are read-only
				v = d.regs[0]&0xF1 | v&0x0E
			}
			d.regs[addr] = v
		}
		if last != nil {
			last.Data = append(last.Data, data[0])
		}
		d.wrAddr++
		d.wrLeft--
		data = data[1:]
	}
	return data
}

func (d *ADS1256) nextSample() uint32 {
	if len(d.samples) == 0 {
		return 0
	}
	v := d.samples[d.next%len(d.samples)]
	d.next++
	return v & 0xFFFFFF
}

// SetSamples sets the conversion results returned in order, cycling at the end
func (d *ADS1256) SetSamples(values ...uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.samples = append([]uint32(nil), values...)
	d.next = 0
}

// SetBusyReads makes DRDY report busy n times before every ready
func (d *ADS1256) SetBusyReads(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busyReads = n
	d.busyLeft = n
}

// SetStuck holds DRDY high until cleared
func (d *ADS1256) SetStuck(stuck bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stuck = stuck
}

// FailTransfers makes every Tx return err until cleared with nil
func (d *ADS1256) FailTransfers(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txErr = err
}

// Register returns the current value of a register
func (d *ADS1256) Register(addr byte) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regs[addr]
}

// Ops returns the commands received so far
func (d *ADS1256) Ops() []Op {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Op(nil), d.ops...)
}

// Kinds returns the kinds of the commands received so far
func (d *ADS1256) Kinds() []OpKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	kinds := make([]OpKind, len(d.ops))
	for i, op := range d.ops {
		kinds[i] = op.Kind
	}
	return kinds
}

// ClearOps forgets the recorded commands
func (d *ADS1256) ClearOps() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = nil
}

// ChipSelectFaults returns how many transfers arrived with chip select released
func (d *ADS1256) ChipSelectFaults() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.csFaults
}

// Resets returns how many reset pulses the device has seen
func (d *ADS1256) Resets() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resets
}
