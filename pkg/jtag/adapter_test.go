package jtag

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want InterfaceKind
	}{
		{"sim", InterfaceKindSim},
		{"Simulator", InterfaceKindSim},
		{"cmsis-dap", InterfaceKindCMSISDAP},
		{"dap", InterfaceKindCMSISDAP},
		{"rpi", InterfaceKindRPi},
		{"gpio", InterfaceKindRPi},
		{"periph", InterfaceKindPeriph},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseKind("ftdi"); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("ParseKind(ftdi) error = %v, want ErrUnknownDriver", err)
	}
}

func TestOpenSimulator(t *testing.T) {
	d, err := Open(Options{Kind: InterfaceKindSim})
	if err != nil {
		t.Fatalf("Open(sim): %v", err)
	}
	if _, ok := d.(*SimPins); !ok {
		t.Fatalf("Open(sim) returned %T", d)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open(Options{Kind: "bogus"}); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("Open(bogus) error = %v, want ErrUnknownDriver", err)
	}
}
