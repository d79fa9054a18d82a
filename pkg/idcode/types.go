// Package idcode decodes IEEE 1149.1 IDCODE values and names the programmable
// logic devices the player is typically pointed at.
package idcode

// IDCode represents a parsed IEEE 1149.1 JTAG IDCODE
type IDCode struct {
	Raw              uint32 // full IDCODE
	Version          uint8  // [31:28]
	PartNumber       uint16 // [27:12]
	ManufacturerCode uint16 // [11:1] JEP106 bank<<7 | id
	HasIDCode        bool   // bit 0 == 1
}

// Manufacturer represents a JEP106 manufacturer entry
type Manufacturer struct {
	Code         uint16
	Name         string
	Abbreviation string
}

// Device describes a known part.
type Device struct {
	Name   string
	Family string
	Kind   Kind
	// IRLength is the instruction register width, for checking SIR lengths
	// in a program against the part.
	IRLength int
}

// Kind classifies a device.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindFPGA
	KindCPLD
	KindMCU
	KindDebugPort
)

func (k Kind) String() string {
	switch k {
	case KindFPGA:
		return "FPGA"
	case KindCPLD:
		return "CPLD"
	case KindMCU:
		return "MCU"
	case KindDebugPort:
		return "debug port"
	}
	return "unknown"
}
