package csvf

import (
	"encoding/binary"
	"fmt"
)

// Builder assembles a program record by record. It remembers the current
// XSDRSIZE so DR operands can be length-checked, and tracks the widest shift
// so callers can report it as a buffer-size hint.
type Builder struct {
	buf      []byte
	sdrBits  uint32
	maxBytes uint32
	done     bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) op(op Opcode) error {
	if b.done {
		return fmt.Errorf("csvf: record %s after XCOMPLETE", op)
	}
	b.buf = append(b.buf, byte(op))
	return nil
}

func (b *Builder) track(n uint32) {
	if n > b.maxBytes {
		b.maxBytes = n
	}
}

func (b *Builder) checkDR(what string, data []byte) error {
	if want := BitsToBytes(b.sdrBits); uint32(len(data)) != want {
		return fmt.Errorf("csvf: %s operand is %d byte(s), XSDRSIZE %d needs %d", what, len(data), b.sdrBits, want)
	}
	return nil
}

// SDRSize emits XSDRSIZE.
func (b *Builder) SDRSize(bits uint32) error {
	if err := b.op(XSDRSIZE); err != nil {
		return err
	}
	b.buf = binary.BigEndian.AppendUint32(b.buf, bits)
	b.sdrBits = bits
	b.track(BitsToBytes(bits))
	return nil
}

// DRBits reports the XSDRSIZE currently in effect.
func (b *Builder) DRBits() uint32 {
	return b.sdrBits
}

// TDOMask emits XTDOMASK.
func (b *Builder) TDOMask(mask []byte) error {
	if err := b.checkDR("XTDOMASK", mask); err != nil {
		return err
	}
	if err := b.op(XTDOMASK); err != nil {
		return err
	}
	b.buf = append(b.buf, mask...)
	return nil
}

// RunTest emits XRUNTEST.
func (b *Builder) RunTest(clocks uint32) error {
	if err := b.op(XRUNTEST); err != nil {
		return err
	}
	b.buf = binary.BigEndian.AppendUint32(b.buf, clocks)
	return nil
}

// SIR emits XSIR with an instruction of bits bits.
func (b *Builder) SIR(bits uint8, tdi []byte) error {
	if want := BitsToBytes(uint32(bits)); uint32(len(tdi)) != want {
		return fmt.Errorf("csvf: XSIR operand is %d byte(s), %d bits need %d", len(tdi), bits, want)
	}
	if err := b.op(XSIR); err != nil {
		return err
	}
	b.buf = append(b.buf, bits)
	b.buf = append(b.buf, tdi...)
	b.track(uint32(len(tdi)))
	return nil
}

// SDR emits XSDR.
func (b *Builder) SDR(tdi []byte) error {
	if err := b.checkDR("XSDR", tdi); err != nil {
		return err
	}
	if err := b.op(XSDR); err != nil {
		return err
	}
	b.buf = append(b.buf, tdi...)
	return nil
}

// SDRTDO emits XSDRTDO, interleaving scan data with the expected response.
func (b *Builder) SDRTDO(tdi, expected []byte) error {
	if err := b.checkDR("XSDRTDO", tdi); err != nil {
		return err
	}
	if len(expected) != len(tdi) {
		return fmt.Errorf("csvf: XSDRTDO expected data is %d byte(s), want %d", len(expected), len(tdi))
	}
	if err := b.op(XSDRTDO); err != nil {
		return err
	}
	for i := range tdi {
		b.buf = append(b.buf, tdi[i], expected[i])
	}
	return nil
}

// Raw appends an arbitrary opcode and operand. Intended for tests and for
// records the player does not execute.
func (b *Builder) Raw(op Opcode, operand ...byte) error {
	if err := b.op(op); err != nil {
		return err
	}
	b.buf = append(b.buf, operand...)
	return nil
}

// Complete terminates the program. Further records are rejected.
func (b *Builder) Complete() {
	if !b.done {
		b.buf = append(b.buf, byte(XCOMPLETE))
		b.done = true
	}
}

// Bytes returns the program assembled so far.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// MaxShiftBytes is the widest scan operand emitted, in bytes.
func (b *Builder) MaxShiftBytes() uint32 {
	return b.maxBytes
}
