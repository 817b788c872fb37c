package ads1256

import (
	"errors"

	"adsbridge/core"
)

// ErrInvalidRegister is returned for addresses outside the register map
var ErrInvalidRegister = errors.New("ads1256: invalid register address")

// WaitReady blocks until DRDY is low or the ready deadline passes
func (d *Device) WaitReady() error {
	if err := core.WaitForLevel(d.gpio, d.pins.Ready, core.Low, d.timing.Ready, d.clock); err != nil {
		return core.Wrap("ads1256: drdy", err)
	}
	return nil
}

// ReadRegister reads one register. It waits for DRDY first and holds off for
// the register settle time afterwards.
func (d *Device) ReadRegister(addr byte) (byte, error) {
	if addr >= NumRegisters {
		return 0, core.Wrap("ads1256: register "+core.Hex8(addr), ErrInvalidRegister)
	}
	if err := d.WaitReady(); err != nil {
		return 0, err
	}

	var rx [1]byte
	tx := [3]byte{CmdRREG | addr, 0x00, DummyByte}
	if err := d.spi.Transaction(tx[:], rx[:]); err != nil {
		return 0, core.Wrap("ads1256: read register "+core.Hex8(addr), err)
	}

	d.clock.Sleep(d.timing.RegisterSettle)
	return rx[0], nil
}

// WriteRegister writes one register
func (d *Device) WriteRegister(addr, value byte) error {
	if addr >= NumRegisters {
		return core.Wrap("ads1256: register "+core.Hex8(addr), ErrInvalidRegister)
	}

	tx := [3]byte{CmdWREG | addr, 0x00, value}
	if err := d.spi.Transaction(tx[:], nil); err != nil {
		return core.Wrap("ads1256: write register "+core.Hex8(addr), err)
	}
	return nil
}

// WriteRegisters writes consecutive registers starting at start in one
// transaction.
func (d *Device) WriteRegisters(start byte, values ...byte) error {
	if len(values) == 0 {
		return nil
	}
	if int(start)+len(values) > NumRegisters {
		return core.Wrap("ads1256: registers "+core.Hex8(start)+"+"+core.Itoa(len(values)), ErrInvalidRegister)
	}

	tx := make([]byte, 0, 2+len(values))
	tx = append(tx, CmdWREG|start, byte(len(values)-1))
	tx = append(tx, values...)
	if err := d.spi.Transaction(tx, nil); err != nil {
		return core.Wrap("ads1256: write "+core.Itoa(len(values))+" registers at "+core.Hex8(start), err)
	}
	return nil
}

// Command sends a single-byte command opcode
func (d *Device) Command(op byte) error {
	tx := [1]byte{op}
	if err := d.spi.Transaction(tx[:], nil); err != nil {
		return core.Wrap("ads1256: command "+core.Hex8(op), err)
	}
	return nil
}
