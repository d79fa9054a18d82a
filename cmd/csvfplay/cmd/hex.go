package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// hexUint16 is a pflag.Value for USB IDs written as 2e8a or 0x2E8A.
type hexUint16 uint16

func (h *hexUint16) String() string { return fmt.Sprintf("%04X", uint16(*h)) }
func (h *hexUint16) Type() string   { return "hex" }

func (h *hexUint16) Set(s string) error {
	v, err := parseHex(s, 16)
	if err != nil {
		return err
	}
	*h = hexUint16(v)
	return nil
}

// hexUint32 is a pflag.Value for IDCODEs.
type hexUint32 uint32

func (h *hexUint32) String() string { return fmt.Sprintf("%08X", uint32(*h)) }
func (h *hexUint32) Type() string   { return "hex" }

func (h *hexUint32) Set(s string) error {
	v, err := parseHex(s, 32)
	if err != nil {
		return err
	}
	*h = hexUint32(v)
	return nil
}

func parseHex(s string, bits int) (uint64, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(t, 16, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q", s)
	}
	return v, nil
}
