package player

import (
	"encoding/binary"
	"fmt"

	"github.com/OpenTraceLab/csvfplay/pkg/tap"
)

// ReadIDCode resets the TAP and scans 32 bits out of the data register, which
// Test-Logic-Reset loads with the IDCODE instruction on compliant devices.
// Only a single device on the port is supported.
func ReadIDCode(pins Pins) (uint32, error) {
	if pins == nil {
		return 0, fmt.Errorf("%w: no pin driver", ErrUsage)
	}
	p := newPort(pins)

	var tdi, tdo [4]byte
	p.clockFSM(tap.ResetToIdle)
	p.clockFSM(tap.IdleToShiftDR)
	p.shiftInOut(32, tdi[:], tdo[:])
	p.clockFSM(tap.ExitToIdle)

	raw := binary.LittleEndian.Uint32(tdo[:])
	if raw == 0 || raw == 0xFFFFFFFF {
		return raw, fmt.Errorf("%w: read 0x%08X", ErrNoDevice, raw)
	}
	return raw, nil
}
