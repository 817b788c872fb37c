package ads1256

import (
	"adsbridge/core"
	"adsbridge/protocol"
)

// Reset pulses the reset line high, low, high. It is a no-op when the board
// has no reset line wired.
func (d *Device) Reset() error {
	if !d.pins.HasReset {
		return nil
	}
	for i, level := range [...]bool{core.High, core.Low, core.High} {
		if err := d.gpio.SetPin(d.pins.Reset, level); err != nil {
			return core.Wrap("ads1256: reset pin "+core.Utoa(uint32(d.pins.Reset)), err)
		}
		if i < 2 {
			d.clock.Sleep(d.timing.ResetPulse)
		}
	}
	return nil
}

// Configure writes the STATUS, MUX, ADCON and DRATE block in one transaction
func (d *Device) Configure() error {
	if err := d.WaitReady(); err != nil {
		return err
	}
	c := d.config
	if err := d.WriteRegisters(RegStatus, c.Status, c.Mux, c.ADCON, c.DRate); err != nil {
		return err
	}
	d.clock.Sleep(d.timing.ConfigureSettle)
	return nil
}

// SelectChannel routes AINn against AINCOM to the converter
func (d *Device) SelectChannel(channel uint8) error {
	if channel > 7 {
		return core.Wrap("ads1256: channel "+core.Itoa(int(channel))+" out of range")
	}
	return d.WriteRegister(RegMux, channel<<MuxPSELShift|MuxAINCOM)
}

// TriggerAndRead waits for DRDY, issues RDATA and decodes the 3-byte result
func (d *Device) TriggerAndRead() (uint32, error) {
	d.clock.Sleep(d.timing.PreTrigger)

	d.phase(PhaseWaitReady)
	if err := d.WaitReady(); err != nil {
		return 0, err
	}

	d.phase(PhaseTransfer)
	var rx [protocol.SampleSize]byte
	tx := [1]byte{CmdRDATA}
	if err := d.spi.Transaction(tx[:], rx[:]); err != nil {
		return 0, core.Wrap("ads1256: read data", err)
	}

	d.phase(PhaseDecode)
	value, err := protocol.DecodeConversion(rx[:])
	if err != nil {
		return 0, err
	}

	d.clock.Sleep(d.timing.PostTrigger)
	return value, nil
}

// Acquire runs one single-shot conversion on channel: select the input,
// SYNC, WAKEUP, then the triggered read.
func (d *Device) Acquire(channel uint8) (protocol.Sample, error) {
	s := protocol.Sample{Channel: channel}

	d.phase(PhaseConfigureMux)
	if err := d.SelectChannel(channel); err != nil {
		return s, err
	}

	d.phase(PhaseSync)
	if err := d.Command(CmdSYNC); err != nil {
		return s, err
	}

	d.phase(PhaseWakeup)
	if err := d.Command(CmdWakeup); err != nil {
		return s, err
	}

	value, err := d.TriggerAndRead()
	if err != nil {
		return s, err
	}
	s.Value = value
	return s, nil
}
