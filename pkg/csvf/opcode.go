// Package csvf describes the compact SVF byte-code (CSVF) played by the
// GPIO JTAG player: opcode values, a bounds-checked reader, a program builder
// and a human-readable dump.
//
// A program is a flat sequence of records, each one opcode byte followed by
// its operand, terminated by XCOMPLETE. Multi-byte integers are big-endian.
// Scan vectors are stored least-significant byte first, so bit k of a vector
// lives at bit k%8 of byte k/8.
package csvf

import "fmt"

// Opcode identifies a CSVF record. Values follow the XSVF numbering.
type Opcode uint8

const (
	XCOMPLETE Opcode = 0x00
	XTDOMASK  Opcode = 0x01
	XSIR      Opcode = 0x02
	XSDR      Opcode = 0x03
	XRUNTEST  Opcode = 0x04
	XREPEAT   Opcode = 0x07
	XSDRSIZE  Opcode = 0x08
	XSDRTDO   Opcode = 0x09
	XSDRB     Opcode = 0x0C
	XSDRC     Opcode = 0x0D
	XSDRE     Opcode = 0x0E
	XSTATE    Opcode = 0x12
	XENDIR    Opcode = 0x13
	XENDDR    Opcode = 0x14
)

var opcodeNames = map[Opcode]string{
	XCOMPLETE: "XCOMPLETE",
	XTDOMASK:  "XTDOMASK",
	XSIR:      "XSIR",
	XSDR:      "XSDR",
	XRUNTEST:  "XRUNTEST",
	XREPEAT:   "XREPEAT",
	XSDRSIZE:  "XSDRSIZE",
	XSDRTDO:   "XSDRTDO",
	XSDRB:     "XSDRB",
	XSDRC:     "XSDRC",
	XSDRE:     "XSDRE",
	XSTATE:    "XSTATE",
	XENDIR:    "XENDIR",
	XENDDR:    "XENDDR",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(0x%02X)", uint8(op))
}

// Known reports whether op has a defined record layout.
func (op Opcode) Known() bool {
	_, ok := opcodeNames[op]
	return ok
}

// BitsToBytes returns the number of bytes needed to hold bits bits.
func BitsToBytes(bits uint32) uint32 {
	n := bits >> 3
	if bits&7 != 0 {
		n++
	}
	return n
}
