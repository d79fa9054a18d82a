package idcode

import "fmt"

type key struct {
	ManufacturerCode uint16
	PartNumber       uint16
}

var devices = map[key]Device{}

func register(mfr, part uint16, d Device) {
	devices[key{mfr, part}] = d
}

func init() {
	const xilinx = 0x049
	register(xilinx, 0x6E5E, Device{Name: "XC2C64A", Family: "CoolRunner-II", Kind: KindCPLD, IRLength: 8})
	register(xilinx, 0x6E1C, Device{Name: "XC2C32A", Family: "CoolRunner-II", Kind: KindCPLD, IRLength: 8})
	register(xilinx, 0x9604, Device{Name: "XC9572XL", Family: "XC9500XL", Kind: KindCPLD, IRLength: 8})
	register(xilinx, 0x9602, Device{Name: "XC9536XL", Family: "XC9500XL", Kind: KindCPLD, IRLength: 8})
	register(xilinx, 0x1414, Device{Name: "XC3S200", Family: "Spartan-3", Kind: KindFPGA, IRLength: 6})
	register(xilinx, 0x4001, Device{Name: "XC6SLX9", Family: "Spartan-6", Kind: KindFPGA, IRLength: 6})
	register(xilinx, 0x362D, Device{Name: "XC7A35T", Family: "Artix-7", Kind: KindFPGA, IRLength: 6})
	register(xilinx, 0x362C, Device{Name: "XC7A50T", Family: "Artix-7", Kind: KindFPGA, IRLength: 6})

	const altera = 0x06E
	register(altera, 0x20A1, Device{Name: "EPM240", Family: "MAX II", Kind: KindCPLD, IRLength: 10})
	register(altera, 0x20A2, Device{Name: "EPM570", Family: "MAX II", Kind: KindCPLD, IRLength: 10})
	register(altera, 0x20F1, Device{Name: "EP4CE6/EP4CE10", Family: "Cyclone IV E", Kind: KindFPGA, IRLength: 10})
	register(altera, 0x20F3, Device{Name: "EP4CE22", Family: "Cyclone IV E", Kind: KindFPGA, IRLength: 10})
	register(altera, 0x20B1, Device{Name: "EP2C5", Family: "Cyclone II", Kind: KindFPGA, IRLength: 10})

	const lattice = 0x021
	register(lattice, 0x12B9, Device{Name: "LCMXO2-640HC", Family: "MachXO2", Kind: KindFPGA, IRLength: 8})
	register(lattice, 0x12BA, Device{Name: "LCMXO2-1200HC", Family: "MachXO2", Kind: KindFPGA, IRLength: 8})
	register(lattice, 0x1111, Device{Name: "LFE5U-25F", Family: "ECP5", Kind: KindFPGA, IRLength: 8})
	register(lattice, 0x1112, Device{Name: "LFE5U-45F", Family: "ECP5", Kind: KindFPGA, IRLength: 8})
	register(lattice, 0x1113, Device{Name: "LFE5U-85F", Family: "ECP5", Kind: KindFPGA, IRLength: 8})

	const arm = 0x23B
	register(arm, 0xBA00, Device{Name: "JTAG-DP", Family: "CoreSight", Kind: KindDebugPort, IRLength: 4})
}

// Lookup returns the parsed IDCODE, its manufacturer and, when the part is
// known, its description.
func Lookup(raw uint32) (IDCode, Manufacturer, Device, bool) {
	id := Parse(raw)
	m, _ := LookupManufacturer(id.ManufacturerCode)
	d, ok := devices[key{id.ManufacturerCode, id.PartNumber}]
	return id, m, d, ok
}

// Describe renders raw on one line for command output.
func Describe(raw uint32) string {
	id, m, d, ok := Lookup(raw)
	if !ok {
		return fmt.Sprintf("0x%08X %s, part 0x%04X rev %d", id.Raw, m.Name, id.PartNumber, id.Version)
	}
	return fmt.Sprintf("0x%08X %s %s (%s %s) rev %d", id.Raw, m.Abbreviation, d.Name, d.Family, d.Kind, id.Version)
}
