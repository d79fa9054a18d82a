package cmd

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/csvfplay/pkg/jtag"
	"github.com/OpenTraceLab/csvfplay/pkg/player"
)

// openDriver opens the configured pin driver. Failing to reach the hardware
// is reported as a missing device.
func openDriver() (jtag.PinDriver, error) {
	opts, err := cfg.DriverOptions()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", player.ErrUsage, err)
	}
	drv, err := jtag.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", player.ErrNoDevice, err)
	}
	if sim, ok := drv.(*jtag.SimPins); ok && simIDCode != 0 {
		sim.OnTDO = jtag.IDCodeDevice(uint32(simIDCode))
	}

	info := drv.Info()
	glog.V(1).Infof("opened %s driver %q %s %s %s", info.Kind, info.Name, info.Vendor, info.Model, info.SerialNumber)
	return drv, nil
}

// closeDriver closes drv and folds any latched I/O error into err.
func closeDriver(drv jtag.PinDriver, err *error) {
	if ioErr := drv.Err(); ioErr != nil && *err == nil {
		*err = fmt.Errorf("%w: %v", player.ErrNoDevice, ioErr)
	}
	if cerr := drv.Close(); cerr != nil {
		glog.Warningf("closing driver: %v", cerr)
	}
}
