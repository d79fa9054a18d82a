// Package jtag provides the pin-level drivers the player clocks JTAG through:
// an in-memory simulator, CMSIS-DAP USB probes and host GPIO lines.
package jtag

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// PinDriver drives the four JTAG signals of one port. Pin methods cannot
// fail individually; transport faults are latched and reported by Err.
type PinDriver interface {
	SetTCK(high bool)
	SetTMS(high bool)
	SetTDI(high bool)
	GetTDO() bool

	Info() DriverInfo
	// Err returns the first I/O error seen since the driver was opened.
	Err() error
	Close() error
}

// DriverInfo describes an opened driver.
type DriverInfo struct {
	Kind         InterfaceKind
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	Firmware     string
	Notes        string
}

// GPIOPins names the host lines wired to the TAP. Numbers are BCM GPIO
// numbers for the rpio driver; the periph driver resolves them by name.
type GPIOPins struct {
	TCK string `yaml:"tck"`
	TMS string `yaml:"tms"`
	TDI string `yaml:"tdi"`
	TDO string `yaml:"tdo"`
}

// DefaultGPIOPins is the Raspberry Pi header wiring: BCM 4, 2, 3 and 17.
var DefaultGPIOPins = GPIOPins{TCK: "4", TMS: "2", TDI: "3", TDO: "17"}

// Options select and configure a driver for Open.
type Options struct {
	Kind    InterfaceKind
	VID     uint16
	PID     uint16
	ClockHz uint32
	Pins    GPIOPins
}

// ErrUnknownDriver is returned by Open for an unrecognised driver kind.
var ErrUnknownDriver = errors.New("jtag: unknown driver")

// ParseKind maps a driver name as typed on the command line to its kind.
func ParseKind(name string) (InterfaceKind, error) {
	switch k := InterfaceKind(strings.ToLower(name)); k {
	case InterfaceKindSim, InterfaceKindCMSISDAP, InterfaceKindRPi, InterfaceKindPeriph:
		return k, nil
	case "sim":
		return InterfaceKindSim, nil
	case "cmsisdap", "dap":
		return InterfaceKindCMSISDAP, nil
	case "gpio":
		return InterfaceKindRPi, nil
	}
	return InterfaceKindUnknown, fmt.Errorf("%w: %q", ErrUnknownDriver, name)
}

// Open returns a ready driver of the requested kind.
func Open(opts Options) (PinDriver, error) {
	switch opts.Kind {
	case InterfaceKindSim:
		return NewSimPins(), nil
	case InterfaceKindCMSISDAP:
		d, err := OpenCMSISDAP(opts.VID, opts.PID, opts.ClockHz)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return d, nil
	case InterfaceKindRPi:
		d, err := OpenRPi(opts.Pins)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return d, nil
	case InterfaceKindPeriph:
		d, err := OpenPeriph(opts.Pins)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return d, nil
	}
	return nil, errors.Annotatef(ErrUnknownDriver, "driver %q", opts.Kind)
}
