package ads1256

// Source: https://www.ti.com/lit/ds/symlink/ads1256.pdf

// Register addresses
const (
	RegStatus = 0x00 // STATUS: ID[7:4], ORDER, ACAL, BUFEN, DRDY
	RegMux    = 0x01 // Input multiplexer: PSEL[7:4], NSEL[3:0]
	RegADCON  = 0x02 // Clock out, sensor detect, PGA
	RegDRATE  = 0x03 // Data rate
	RegIO     = 0x04 // GPIO control
	RegOFC0   = 0x05 // Offset calibration, low byte
	RegOFC1   = 0x06
	RegOFC2   = 0x07
	RegFSC0   = 0x08 // Full-scale calibration, low byte
	RegFSC1   = 0x09
	RegFSC2   = 0x0A

	NumRegisters = 0x0B
)

// Command opcodes
const (
	CmdWakeup   = 0x00 // Complete SYNC and exit standby
	CmdRDATA    = 0x01 // Read data
	CmdRDATAC   = 0x03 // Read data continuously
	CmdSDATAC   = 0x0F // Stop read data continuously
	CmdRREG     = 0x10 // Read register: 0x10 | addr, then count-1
	CmdWREG     = 0x50 // Write register: 0x50 | addr, then count-1
	CmdSELFCAL  = 0xF0 // Offset and gain self-calibration
	CmdSELFOCAL = 0xF1
	CmdSELFGCAL = 0xF2
	CmdSYSOCAL  = 0xF3
	CmdSYSGCAL  = 0xF4
	CmdSYNC     = 0xFC // Synchronise the conversion
	CmdSTANDBY  = 0xFD
	CmdRESET    = 0xFE
)

// STATUS register bits
const (
	StatusIDShift = 4
	StatusORDER   = 0x08
	StatusACAL    = 0x04
	StatusBUFEN   = 0x02
	StatusDRDY    = 0x01
)

// MUX register fields
const (
	MuxPSELShift = 4
	MuxAINCOM    = 0x08 // Negative input on AINCOM
)

// ExpectedID is the device ID this firmware is built for
const ExpectedID = 3

// DummyByte is clocked after a read-register command while the device
// prepares its answer.
const DummyByte = 0xFF

// DRATE register values for the 7.68 MHz reference clock
const (
	DRate30000SPS = 0xF0
	DRate15000SPS = 0xE0
	DRate7500SPS  = 0xD0
	DRate3750SPS  = 0xC0
	DRate2000SPS  = 0xB0
	DRate1000SPS  = 0xA1
	DRate500SPS   = 0x92
	DRate100SPS   = 0x82
	DRate60SPS    = 0x72
	DRate50SPS    = 0x63
	DRate30SPS    = 0x53
	DRate25SPS    = 0x43
	DRate15SPS    = 0x33
	DRate10SPS    = 0x23
	DRate5SPS     = 0x13
	DRate2_5SPS   = 0x03
)

// ADCON programmable gain settings
const (
	GainPGA1  = 0x00
	GainPGA2  = 0x01
	GainPGA4  = 0x02
	GainPGA8  = 0x03
	GainPGA16 = 0x04
	GainPGA32 = 0x05
	GainPGA64 = 0x06
)
