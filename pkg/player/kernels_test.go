package player

import (
	"bytes"
	"testing"
)

func TestShiftInOutPartialByte(t *testing.T) {
	m := &mockPins{tdo: func(int) bool { return true }}
	p := newPort(m)

	out := []byte{0xEE, 0xEE}
	p.shiftInOut(11, []byte{0x00, 0x00}, out)

	if want := []byte{0xFF, 0x07}; !bytes.Equal(out, want) {
		t.Fatalf("out = %X, want %X", out, want)
	}
	if m.samples != 11 {
		t.Fatalf("samples = %d, want 11", m.samples)
	}
}

func TestShiftInSetsTDIBeforeClock(t *testing.T) {
	m := &mockPins{}
	p := newPort(m)
	p.shiftIn(2, []byte{0x01})

	want := []string{"TDI", "TCK", "TCK", "TMS", "TDI", "TCK", "TCK"}
	if len(m.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", m.calls, want)
	}
	for i := range want {
		if m.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", m.calls, want)
		}
	}
	if !m.edges[0].tdi || m.edges[1].tdi {
		t.Fatalf("edges = %+v, want TDI 1 then 0", m.edges)
	}
}

func TestShiftInOutSamplesBeforeClock(t *testing.T) {
	m := &mockPins{}
	p := newPort(m)
	p.shiftInOut(1, []byte{0x00}, make([]byte, 1))

	want := []string{"TMS", "TDI", "TDO", "TCK", "TCK"}
	for i := range want {
		if m.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", m.calls, want)
		}
	}
}

func TestIdleWithoutClocker(t *testing.T) {
	m := &mockPins{}
	newPort(m).idle(7)
	if len(m.edges) != 7 || m.count("TMS") != 0 {
		t.Fatalf("edges = %d, TMS writes = %d", len(m.edges), m.count("TMS"))
	}
}
