package player

import "github.com/OpenTraceLab/csvfplay/pkg/tap"

// port wraps a Pins with the bit-level primitives the interpreter is built
// from. Bits are always taken least-significant first within each byte.
type port struct {
	pins    Pins
	clocker Clocker
}

func newPort(pins Pins) port {
	p := port{pins: pins}
	if c, ok := pins.(Clocker); ok {
		p.clocker = c
	}
	return p
}

func (p port) pulse() {
	p.pins.SetTCK(true)
	p.pins.SetTCK(false)
}

// clockFSM clocks a fixed TMS pattern into the TAP.
func (p port) clockFSM(pat tap.Pattern) {
	bits := pat.Bits
	n := pat.Count
	if n > tap.MaxPatternLength {
		n = tap.MaxPatternLength
	}
	for ; n > 0; n-- {
		p.pins.SetTMS(bits&1 != 0)
		p.pulse()
		bits >>= 1
	}
}

// idle pulses TCK n times without touching TMS.
func (p port) idle(n uint32) {
	if p.clocker != nil {
		p.clocker.Clocks(n)
		return
	}
	for ; n > 0; n-- {
		p.pulse()
	}
}

// shiftIn drives numBits bits of in onto TDI. TMS is raised before the last
// bit so the TAP leaves the shift state on the same edge. A zero-length shift
// touches no pins; callers must not enter a shift state for one.
func (p port) shiftIn(numBits uint32, in []byte) {
	if numBits == 0 {
		return
	}
	last := numBits - 1
	for i := uint32(0); i < numBits; i++ {
		if i == last {
			p.pins.SetTMS(true)
		}
		p.pins.SetTDI(in[i>>3]&(1<<(i&7)) != 0)
		p.pulse()
	}
}

// shiftInOut is shiftIn that also samples TDO after setting each TDI bit and
// before the clock edge. out receives BitsToBytes(numBits) bytes; unused high
// bits of a partial final byte are zero.
func (p port) shiftInOut(numBits uint32, in, out []byte) {
	clear(out)
	if numBits == 0 {
		return
	}
	last := numBits - 1
	for i := uint32(0); i < numBits; i++ {
		if i == last {
			p.pins.SetTMS(true)
		}
		p.pins.SetTDI(in[i>>3]&(1<<(i&7)) != 0)
		if p.pins.GetTDO() {
			out[i>>3] |= 1 << (i & 7)
		}
		p.pulse()
	}
}
