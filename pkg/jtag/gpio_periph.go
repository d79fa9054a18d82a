package jtag

import (
	"github.com/golang/glog"
	"github.com/juju/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphPins bit-bangs the TAP on any GPIO lines known to periph.io, looked
// up by name ("GPIO4", "P1_7", or a plain number).
type PeriphPins struct {
	tck, tms, tdi, tdo gpio.PinIO
	err                error
}

// OpenPeriph initialises the periph host drivers and claims the named pins.
func OpenPeriph(pins GPIOPins) (*PeriphPins, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "initialising periph host drivers")
	}
	var resolved [4]gpio.PinIO
	for i, name := range []string{pins.TCK, pins.TMS, pins.TDI, pins.TDO} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.NotFoundf("GPIO %q", name)
		}
		resolved[i] = p
	}
	p, err := NewPeriphPins(resolved[0], resolved[1], resolved[2], resolved[3])
	if err != nil {
		return nil, errors.Trace(err)
	}
	glog.V(1).Infof("periph: TCK=%s TMS=%s TDI=%s TDO=%s", resolved[0], resolved[1], resolved[2], resolved[3])
	return p, nil
}

// NewPeriphPins configures already resolved pins: outputs low, TDO floating.
func NewPeriphPins(tck, tms, tdi, tdo gpio.PinIO) (*PeriphPins, error) {
	p := &PeriphPins{tck: tck, tms: tms, tdi: tdi, tdo: tdo}
	for _, out := range []gpio.PinIO{tck, tms, tdi} {
		if err := out.Out(gpio.Low); err != nil {
			return nil, errors.Annotatef(err, "configuring %s as output", out)
		}
	}
	if err := tdo.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, errors.Annotatef(err, "configuring %s as input", tdo)
	}
	return p, nil
}

func (p *PeriphPins) out(pin gpio.PinIO, high bool) {
	if p.err != nil {
		return
	}
	if err := pin.Out(gpio.Level(high)); err != nil {
		p.err = errors.Annotatef(err, "writing %s", pin)
		glog.Errorf("periph: %v", p.err)
	}
}

func (p *PeriphPins) SetTCK(high bool) { p.out(p.tck, high) }
func (p *PeriphPins) SetTMS(high bool) { p.out(p.tms, high) }
func (p *PeriphPins) SetTDI(high bool) { p.out(p.tdi, high) }
func (p *PeriphPins) GetTDO() bool     { return bool(p.tdo.Read()) }

func (p *PeriphPins) Err() error { return p.err }

// Info describes the driver.
func (p *PeriphPins) Info() DriverInfo {
	return DriverInfo{Kind: InterfaceKindPeriph, Name: "periph.io GPIO"}
}

// Close releases the outputs by switching them to inputs.
func (p *PeriphPins) Close() error {
	var first error
	for _, pin := range []gpio.PinIO{p.tck, p.tms, p.tdi} {
		if err := pin.In(gpio.Float, gpio.NoEdge); err != nil && first == nil {
			first = errors.Annotatef(err, "releasing %s", pin)
		}
	}
	return first
}
