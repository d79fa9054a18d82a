package player

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/OpenTraceLab/csvfplay/pkg/tap"
)

func TestReadIDCode(t *testing.T) {
	var id [4]byte
	binary.LittleEndian.PutUint32(id[:], 0x41111043)
	m := &mockPins{tdo: func(n int) bool { return bitOf(id[:], n) }}

	got, err := ReadIDCode(m)
	if err != nil {
		t.Fatalf("ReadIDCode: %v", err)
	}
	if got != 0x41111043 {
		t.Fatalf("IDCODE = 0x%08X, want 0x41111043", got)
	}

	shift := resetEdges + int(tap.IdleToShiftDR.Count)
	if len(m.edges) != shift+32+int(tap.ExitToIdle.Count) {
		t.Fatalf("TCK edges = %d", len(m.edges))
	}
	if !m.edges[shift+31].tms || m.edges[shift+30].tms {
		t.Fatal("TMS should rise on the 32nd data bit only")
	}
}

func TestReadIDCodeStuckLine(t *testing.T) {
	for _, level := range []bool{false, true} {
		m := &mockPins{tdo: func(int) bool { return level }}
		if _, err := ReadIDCode(m); !errors.Is(err, ErrNoDevice) {
			t.Errorf("TDO stuck at %v: error = %v, want ErrNoDevice", level, err)
		}
	}
}

func TestReadIDCodeNilPins(t *testing.T) {
	if _, err := ReadIDCode(nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("error = %v, want ErrUsage", err)
	}
}
