package idcode

import "fmt"

// Parse splits a raw 32-bit IDCODE into its fields.
func Parse(raw uint32) IDCode {
	return IDCode{
		Raw:              raw,
		Version:          uint8((raw >> 28) & 0xF),
		PartNumber:       uint16((raw >> 12) & 0xFFFF),
		ManufacturerCode: uint16((raw >> 1) & 0x7FF),
		HasIDCode:        (raw & 0x1) == 0x1,
	}
}

// Bank is the JEP106 continuation count, Code the 7-bit identity.
func (id IDCode) Bank() int { return int(id.ManufacturerCode >> 7) }

// Valid reports whether the value could have come from an IDCODE register:
// bit 0 set, and not the 0x7F manufacturer reserved for the continuation byte.
func (id IDCode) Valid() bool {
	return id.HasIDCode && id.ManufacturerCode&0x7F != 0x7F
}

func (id IDCode) String() string {
	return fmt.Sprintf("0x%08X (ver %d, part 0x%04X, mfr 0x%03X)",
		id.Raw, id.Version, id.PartNumber, id.ManufacturerCode)
}
