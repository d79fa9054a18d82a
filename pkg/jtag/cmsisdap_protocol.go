package jtag

import (
	"encoding/binary"
	"fmt"
)

// CMSIS-DAP Command IDs
const (
	CmdInfo         = 0x00
	CmdConnect      = 0x02
	CmdDisconnect   = 0x03
	CmdSWJPins      = 0x10
	CmdSWJClock     = 0x11
	CmdJTAGSequence = 0x14
)

// DAP_Info Info IDs
const (
	InfoVendorID     = 0x01
	InfoProductID    = 0x02
	InfoSerialNum    = 0x03
	InfoFirmwareVer  = 0x04
	InfoCapabilities = 0xF0
	InfoPacketSize   = 0xFF
)

// DAP_Info capabilities bits
const (
	CapSWD  = 0x01
	CapJTAG = 0x02
)

// Connection ports
const (
	PortJTAG = 2
)

// Status codes
const (
	StatusOK    = 0x00
	StatusError = 0xFF
)

// DAP_SWJ_Pins bit assignments, shared by the output, select and input bytes.
const (
	PinTCK    = 0x01 // SWCLK/TCK
	PinTMS    = 0x02 // SWDIO/TMS
	PinTDI    = 0x04
	PinTDO    = 0x08
	PinNTRST  = 0x20
	PinNRESET = 0x80
)

// JTAG Sequence info flags
const (
	JTAGSeqTCKMask = 0x3F // Bits [5:0] = TCK count (0-63, where 0 means 64)
	JTAGSeqTMS     = 0x40 // Bit [6] = TMS value
	JTAGSeqTDO     = 0x80 // Bit [7] = Capture TDO

	MaxSequenceClocks = 64
)

// CMSISDAPProtocol handles encoding/decoding of CMSIS-DAP commands
type CMSISDAPProtocol struct {
	PacketSize int
}

// NewCMSISDAPProtocol creates a new protocol handler
func NewCMSISDAPProtocol(packetSize int) *CMSISDAPProtocol {
	return &CMSISDAPProtocol{
		PacketSize: packetSize,
	}
}

func checkHeader(resp []byte, cmd byte, min int) error {
	if len(resp) < min {
		return fmt.Errorf("response too short")
	}
	if resp[0] != cmd {
		return fmt.Errorf("invalid command ID: 0x%02X", resp[0])
	}
	return nil
}

func checkStatus(resp []byte, cmd byte, what string) error {
	if err := checkHeader(resp, cmd, 2); err != nil {
		return err
	}
	if resp[1] != StatusOK {
		return fmt.Errorf("%s failed", what)
	}
	return nil
}

// EncodeInfo builds a DAP_Info command
func (p *CMSISDAPProtocol) EncodeInfo(infoID byte) []byte {
	return []byte{CmdInfo, infoID}
}

// DecodeInfo parses a DAP_Info response
func (p *CMSISDAPProtocol) DecodeInfo(resp []byte) (string, error) {
	if err := checkHeader(resp, CmdInfo, 2); err != nil {
		return "", err
	}

	length := int(resp[1])
	if len(resp) < 2+length {
		return "", fmt.Errorf("incomplete info string")
	}

	// Strings are NUL terminated on most firmware.
	s := resp[2 : 2+length]
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return string(s), nil
}

// DecodeCapabilities parses the DAP_Info capabilities response.
func (p *CMSISDAPProtocol) DecodeCapabilities(resp []byte) (byte, error) {
	if err := checkHeader(resp, CmdInfo, 3); err != nil {
		return 0, err
	}
	if resp[1] < 1 {
		return 0, fmt.Errorf("empty capabilities")
	}
	return resp[2], nil
}

// EncodeConnect builds a DAP_Connect command
func (p *CMSISDAPProtocol) EncodeConnect(port byte) []byte {
	return []byte{CmdConnect, port}
}

// DecodeConnect parses a DAP_Connect response
func (p *CMSISDAPProtocol) DecodeConnect(resp []byte) (byte, error) {
	if err := checkHeader(resp, CmdConnect, 2); err != nil {
		return 0, err
	}
	if resp[1] == 0 {
		return 0, fmt.Errorf("connection failed")
	}
	return resp[1], nil
}

// EncodeDisconnect builds a DAP_Disconnect command
func (p *CMSISDAPProtocol) EncodeDisconnect() []byte {
	return []byte{CmdDisconnect}
}

// DecodeDisconnect parses a DAP_Disconnect response
func (p *CMSISDAPProtocol) DecodeDisconnect(resp []byte) error {
	return checkStatus(resp, CmdDisconnect, "disconnect")
}

// EncodeSWJPins builds a DAP_SWJ_Pins command. Pins set in sel are driven to
// their level in out; wait is how long, in microseconds, the probe waits for
// selected pins to settle.
func (p *CMSISDAPProtocol) EncodeSWJPins(out, sel byte, wait uint32) []byte {
	cmd := make([]byte, 7)
	cmd[0] = CmdSWJPins
	cmd[1] = out
	cmd[2] = sel
	binary.LittleEndian.PutUint32(cmd[3:], wait)
	return cmd
}

// DecodeSWJPins parses a DAP_SWJ_Pins response and returns the pin inputs.
func (p *CMSISDAPProtocol) DecodeSWJPins(resp []byte) (byte, error) {
	if err := checkHeader(resp, CmdSWJPins, 2); err != nil {
		return 0, err
	}
	return resp[1], nil
}

// JTAGSequence represents one JTAG shift operation
type JTAGSequence struct {
	Info byte   // Sequence info byte (TCK count, TMS, TDO capture)
	TDI  []byte // TDI data to shift
}

// NewJTAGSequence creates a sequence descriptor. tckCount must be 1..64.
func NewJTAGSequence(tckCount int, tms bool, captureTDO bool, tdi []byte) JTAGSequence {
	info := byte(tckCount & JTAGSeqTCKMask)
	if tms {
		info |= JTAGSeqTMS
	}
	if captureTDO {
		info |= JTAGSeqTDO
	}

	return JTAGSequence{
		Info: info,
		TDI:  tdi,
	}
}

// TCKCount returns the number of TCK clocks in this sequence
func (seq *JTAGSequence) TCKCount() int {
	count := int(seq.Info & JTAGSeqTCKMask)
	if count == 0 {
		return MaxSequenceClocks
	}
	return count
}

// TMS returns the TMS value for this sequence
func (seq *JTAGSequence) TMS() bool {
	return (seq.Info & JTAGSeqTMS) != 0
}

// CaptureTDO returns whether TDO should be captured
func (seq *JTAGSequence) CaptureTDO() bool {
	return (seq.Info & JTAGSeqTDO) != 0
}

// EncodeJTAGSequence builds a DAP_JTAG_Sequence command
// Each sequence is: [info_byte][tdi_data...]
func (p *CMSISDAPProtocol) EncodeJTAGSequence(sequences []JTAGSequence) []byte {
	size := 2 // cmd + count
	for _, seq := range sequences {
		size += 1 + len(seq.TDI)
	}

	cmd := make([]byte, size)
	cmd[0] = CmdJTAGSequence
	cmd[1] = byte(len(sequences))

	offset := 2
	for _, seq := range sequences {
		cmd[offset] = seq.Info
		offset++
		copy(cmd[offset:], seq.TDI)
		offset += len(seq.TDI)
	}

	return cmd
}

// SequencesPerPacket reports how many full 64-clock sequences fit in one
// command packet.
func (p *CMSISDAPProtocol) SequencesPerPacket() int {
	n := (p.PacketSize - 2) / (1 + MaxSequenceClocks/8)
	if n < 1 {
		return 1
	}
	return min(n, 255)
}

// DecodeJTAGSequence parses response and extracts TDO data
func (p *CMSISDAPProtocol) DecodeJTAGSequence(resp []byte, sequences []JTAGSequence) ([][]byte, error) {
	if err := checkStatus(resp, CmdJTAGSequence, "sequence"); err != nil {
		return nil, err
	}

	var result [][]byte
	offset := 2
	for _, seq := range sequences {
		if !seq.CaptureTDO() {
			continue
		}
		tdo := make([]byte, (seq.TCKCount()+7)/8)
		if offset+len(tdo) > len(resp) {
			return nil, fmt.Errorf("incomplete TDO data")
		}
		copy(tdo, resp[offset:offset+len(tdo)])
		result = append(result, tdo)
		offset += len(tdo)
	}

	return result, nil
}

// EncodeSetClock builds a DAP_SWJ_Clock command
func (p *CMSISDAPProtocol) EncodeSetClock(hz uint32) []byte {
	cmd := make([]byte, 5)
	cmd[0] = CmdSWJClock
	binary.LittleEndian.PutUint32(cmd[1:], hz)
	return cmd
}

// DecodeSetClock parses response
func (p *CMSISDAPProtocol) DecodeSetClock(resp []byte) error {
	return checkStatus(resp, CmdSWJClock, "set clock")
}
