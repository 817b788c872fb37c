package ads1256_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adsbridge/ads1256"
	"adsbridge/core"
	"adsbridge/sim"
)

const (
	pinCS    core.GPIOPin = 6
	pinReady core.GPIOPin = 9
	pinReset core.GPIOPin = 7
)

type rig struct {
	board *sim.Board
	clock *sim.Clock
	adc   *sim.ADS1256
	dev   *ads1256.Device
}

func newRig(t *testing.T, id uint8) *rig {
	t.Helper()
	board := sim.NewBoard()
	clock := sim.NewClock()
	model := sim.NewADS1256(board, id, pinCS, pinReady, pinReset)

	spi, err := core.NewSPIDevice("ads1256", model, board, pinCS, false)
	require.NoError(t, err)
	dev, err := ads1256.New(spi, board, clock, ads1256.Pins{Ready: pinReady, Reset: pinReset, HasReset: true})
	require.NoError(t, err)

	return &rig{board: board, clock: clock, adc: model, dev: dev}
}

func TestRegisterRoundTrip(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)

	writable := []byte{ads1256.RegMux, ads1256.RegADCON, ads1256.RegDRATE, ads1256.RegIO,
		ads1256.RegOFC0, ads1256.RegOFC1, ads1256.RegOFC2, ads1256.RegFSC0, ads1256.RegFSC1, ads1256.RegFSC2}
	values := []byte{0x00, 0x01, 0x5A, 0x80, 0xA5, 0xFF}

	for _, addr := range writable {
		for _, v := range values {
			require.NoError(t, r.dev.WriteRegister(addr, v))
			got, err := r.dev.ReadRegister(addr)
			require.NoError(t, err)
			assert.Equal(t, v, got, "register 0x%02X", addr)
		}
	}
	assert.Zero(t, r.adc.ChipSelectFaults())
	assert.Equal(t, core.High, r.board.Level(pinCS))
}

func TestReadRegisterFraming(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)

	_, err := r.dev.ReadRegister(ads1256.RegDRATE)
	require.NoError(t, err)

	ops := r.adc.Ops()
	require.Len(t, ops, 1)
	assert.Equal(t, sim.OpReadRegister, ops[0].Kind)
	assert.Equal(t, byte(ads1256.RegDRATE), ops[0].Addr)
	assert.Equal(t, 100*time.Millisecond, r.clock.Slept(), "register settle delay")
}

func TestInvalidRegister(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)

	_, err := r.dev.ReadRegister(ads1256.NumRegisters)
	assert.ErrorIs(t, err, ads1256.ErrInvalidRegister)
	assert.ErrorIs(t, r.dev.WriteRegister(0x20, 1), ads1256.ErrInvalidRegister)
	assert.ErrorIs(t, r.dev.WriteRegisters(ads1256.RegFSC1, 1, 2, 3), ads1256.ErrInvalidRegister)
	assert.Empty(t, r.adc.Ops())
}

func TestReadIDAndIdentify(t *testing.T) {
	for id := uint8(0); id < 16; id++ {
		r := newRig(t, id)

		got, err := r.dev.ReadID()
		require.NoError(t, err)
		assert.Equal(t, id, got)

		_, err = r.dev.Identify()
		if id == ads1256.ExpectedID {
			assert.NoError(t, err)
			continue
		}
		require.ErrorIs(t, err, ads1256.ErrIdentityMismatch)
		var idErr *ads1256.IdentityError
		require.True(t, errors.As(err, &idErr))
		assert.Equal(t, id, idErr.Got)
	}
}

func TestConfigureWritesRegisterBlock(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)

	require.NoError(t, r.dev.Configure())

	ops := r.adc.Ops()
	require.Len(t, ops, 1)
	assert.Equal(t, sim.OpWriteRegister, ops[0].Kind)
	assert.Equal(t, byte(ads1256.RegStatus), ops[0].Addr)
	assert.Equal(t, []byte{0x04, 0x08, 0x00, 0xE0}, ops[0].Data)

	assert.Equal(t, byte(0x08), r.adc.Register(ads1256.RegMux))
	assert.Equal(t, byte(ads1256.DRate15000SPS), r.adc.Register(ads1256.RegDRATE))
	assert.Equal(t, byte(ads1256.ExpectedID<<4|ads1256.StatusACAL|ads1256.StatusDRDY), r.adc.Register(ads1256.RegStatus),
		"id and drdy bits stay read-only")
	assert.Equal(t, time.Millisecond, r.clock.Slept())
}

func TestAcquireSequence(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)
	r.adc.SetSamples(0x123456)

	var phases []ads1256.Phase
	r.dev.SetTracer(func(p ads1256.Phase) { phases = append(phases, p) })

	s, err := r.dev.Acquire(2)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), s.Channel)
	assert.Equal(t, uint32(0x123456), s.Value)

	assert.Equal(t, []sim.OpKind{sim.OpWriteRegister, sim.OpSync, sim.OpWakeup, sim.OpReadData}, r.adc.Kinds())
	assert.Equal(t, byte(2<<4|ads1256.MuxAINCOM), r.adc.Register(ads1256.RegMux))
	assert.Equal(t, []ads1256.Phase{
		ads1256.PhaseConfigureMux, ads1256.PhaseSync, ads1256.PhaseWakeup,
		ads1256.PhaseWaitReady, ads1256.PhaseTransfer, ads1256.PhaseDecode,
	}, phases)
	assert.Equal(t, 11*time.Millisecond, r.clock.Slept(), "pre-trigger and recovery delays")
}

func TestTriggerAndReadWaitsForReady(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)
	r.adc.SetSamples(42)
	r.adc.SetBusyReads(5)

	timing := ads1256.DefaultTiming()
	timing.Ready.Interval = time.Millisecond
	r.dev.SetTiming(timing)

	v, err := r.dev.TriggerAndRead()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
	assert.Equal(t, 16*time.Millisecond, r.clock.Slept())
}

func TestStuckReadyTimesOut(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)
	r.adc.SetStuck(true)

	_, err := r.dev.TriggerAndRead()
	require.ErrorIs(t, err, core.ErrUnresponsive)
	_, err = r.dev.ReadID()
	require.ErrorIs(t, err, core.ErrUnresponsive)
	require.ErrorIs(t, r.dev.Configure(), core.ErrUnresponsive)

	assert.Empty(t, r.adc.Ops(), "no command is issued while the device is busy")
}

func TestTransferErrorReleasesChipSelect(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)
	busErr := errors.New("spi fault")
	r.adc.FailTransfers(busErr)

	_, err := r.dev.TriggerAndRead()
	require.ErrorIs(t, err, busErr)
	assert.Equal(t, core.High, r.board.Level(pinCS))

	require.ErrorIs(t, r.dev.Command(ads1256.CmdSYNC), busErr)
	assert.Equal(t, core.High, r.board.Level(pinCS))
}

func TestResetPulse(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)
	require.NoError(t, r.dev.WriteRegister(ads1256.RegDRATE, 0x23))

	require.NoError(t, r.dev.Reset())

	assert.Equal(t, 1, r.adc.Resets())
	assert.Equal(t, []bool{core.High, core.High, core.Low, core.High}, r.board.History(pinReset))
	assert.Equal(t, 400*time.Millisecond, r.clock.Slept())
	assert.Equal(t, byte(0xF0), r.adc.Register(ads1256.RegDRATE), "registers return to defaults")
}

func TestSelectChannelRange(t *testing.T) {
	r := newRig(t, ads1256.ExpectedID)
	assert.Error(t, r.dev.SelectChannel(8))
	assert.Empty(t, r.adc.Ops())
}
