package jtag

import (
	"strconv"

	"github.com/golang/glog"
	"github.com/juju/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// maxBCM is the highest GPIO number on the BCM283x/BCM2711 header bank.
const maxBCM = 53

// BCM parses the pin names as BCM GPIO numbers, in TCK, TMS, TDI, TDO order.
func (g GPIOPins) BCM() ([4]int, error) {
	var nums [4]int
	seen := make(map[int]string)
	for i, f := range []struct{ name, value string }{
		{"tck", g.TCK}, {"tms", g.TMS}, {"tdi", g.TDI}, {"tdo", g.TDO},
	} {
		n, err := strconv.Atoi(f.value)
		if err != nil || n < 0 || n > maxBCM {
			return nums, errors.NotValidf("%s pin %q", f.name, f.value)
		}
		if other, dup := seen[n]; dup {
			return nums, errors.NotValidf("%s pin %d, already used for %s", f.name, n, other)
		}
		seen[n] = f.name
		nums[i] = n
	}
	return nums, nil
}

// RPiPins bit-bangs the TAP on Raspberry Pi GPIO through /dev/gpiomem.
type RPiPins struct {
	tck, tms, tdi, tdo rpio.Pin
}

// OpenRPi maps the GPIO block and configures the pins: TCK, TMS and TDI as
// outputs driven low, TDO as an input.
func OpenRPi(pins GPIOPins) (*RPiPins, error) {
	nums, err := pins.BCM()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := rpio.Open(); err != nil {
		return nil, errors.Annotate(err, "opening GPIO memory")
	}

	p := &RPiPins{
		tck: rpio.Pin(nums[0]),
		tms: rpio.Pin(nums[1]),
		tdi: rpio.Pin(nums[2]),
		tdo: rpio.Pin(nums[3]),
	}
	for _, out := range []rpio.Pin{p.tck, p.tms, p.tdi} {
		out.Output()
		out.Low()
	}
	p.tdo.Input()
	p.tdo.PullOff()
	glog.V(1).Infof("rpio: TCK=%d TMS=%d TDI=%d TDO=%d", nums[0], nums[1], nums[2], nums[3])
	return p, nil
}

func write(pin rpio.Pin, high bool) {
	if high {
		pin.High()
	} else {
		pin.Low()
	}
}

func (p *RPiPins) SetTCK(high bool) { write(p.tck, high) }
func (p *RPiPins) SetTMS(high bool) { write(p.tms, high) }
func (p *RPiPins) SetTDI(high bool) { write(p.tdi, high) }
func (p *RPiPins) GetTDO() bool     { return p.tdo.Read() == rpio.High }

func (p *RPiPins) Err() error { return nil }

// Info describes the driver.
func (p *RPiPins) Info() DriverInfo {
	return DriverInfo{Kind: InterfaceKindRPi, Name: "Raspberry Pi GPIO"}
}

// Close returns every JTAG pin to input so the target is left undriven.
func (p *RPiPins) Close() error {
	for _, pin := range []rpio.Pin{p.tck, p.tms, p.tdi, p.tdo} {
		pin.Input()
	}
	return errors.Trace(rpio.Close())
}
