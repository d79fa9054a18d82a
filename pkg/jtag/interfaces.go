package jtag

import (
	"context"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/juju/errors"
)

// InterfaceKind categorizes driver families.
type InterfaceKind string

const (
	InterfaceKindCMSISDAP InterfaceKind = "cmsis-dap"
	InterfaceKindRPi      InterfaceKind = "rpi"
	InterfaceKindPeriph   InterfaceKind = "periph"
	InterfaceKindSim      InterfaceKind = "simulator"
	InterfaceKindUnknown  InterfaceKind = "unknown"
)

// InterfaceInfo describes a detected driver target.
type InterfaceInfo struct {
	Kind        InterfaceKind
	Description string
	VendorID    uint16
	ProductID   uint16
	Serial      string
	Path        string
}

// Label returns a user-friendly description for the interface.
func (i InterfaceInfo) Label() string {
	if i.Description != "" {
		return i.Description
	}
	if i.Kind != "" {
		return fmt.Sprintf("%s (%04X:%04X)", string(i.Kind), i.VendorID, i.ProductID)
	}
	return fmt.Sprintf("Interface %04X:%04X", i.VendorID, i.ProductID)
}

// gpioMemPath is where the Raspberry Pi kernel exposes the GPIO block.
var gpioMemPath = "/dev/gpiomem"

// DiscoverInterfaces lists known CMSIS-DAP probes on the USB bus, the
// Raspberry Pi GPIO block when present, and the simulator, which is always
// available.
func DiscoverInterfaces(ctx context.Context) ([]InterfaceInfo, error) {
	results, err := discoverUSB(ctx)
	if err != nil {
		return results, errors.Trace(err)
	}

	if _, err := os.Stat(gpioMemPath); err == nil {
		results = append(results, InterfaceInfo{
			Kind:        InterfaceKindRPi,
			Description: "Raspberry Pi GPIO",
			Path:        gpioMemPath,
		})
	}

	results = append(results, InterfaceInfo{
		Kind:        InterfaceKindSim,
		Description: "Simulator (no hardware)",
	})
	return results, nil
}

func discoverUSB(ctx context.Context) ([]InterfaceInfo, error) {
	usb := gousb.NewContext()
	defer usb.Close()

	var results []InterfaceInfo
	devs, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		_, ok := classifyUSBDevice(desc)
		return ok
	})
	// Devices we may not open are still reported by the kernel; an access
	// error only means some serial numbers stay unknown.
	if err != nil && err != gousb.ErrorAccess {
		for _, d := range devs {
			d.Close()
		}
		return nil, errors.Annotate(err, "enumerating USB devices")
	}

	for _, dev := range devs {
		info, _ := classifyUSBDevice(dev.Desc)
		if serial, err := dev.SerialNumber(); err == nil {
			info.Serial = serial
		}
		info.Path = fmt.Sprintf("usb:%d:%d", dev.Desc.Bus, dev.Desc.Address)
		glog.V(1).Infof("found %s at %s", info.Label(), info.Path)
		results = append(results, info)
		dev.Close()
	}
	return results, ctx.Err()
}

func classifyUSBDevice(desc *gousb.DeviceDesc) (InterfaceInfo, bool) {
	for _, known := range knownCMSISDAPVIDPIDs {
		if uint16(desc.Vendor) == known.VendorID && uint16(desc.Product) == known.ProductID {
			return InterfaceInfo{
				Kind:        InterfaceKindCMSISDAP,
				Description: known.Description,
				VendorID:    known.VendorID,
				ProductID:   known.ProductID,
			}, true
		}
	}
	return InterfaceInfo{}, false
}

type knownUSBDevice struct {
	VendorID    uint16
	ProductID   uint16
	Description string
}

var knownCMSISDAPVIDPIDs = []knownUSBDevice{
	{VendorID: VendorIDRaspberryPi, ProductID: ProductIDCMSISDAP, Description: "Raspberry Pi Debug Probe (CMSIS-DAP)"},
	{VendorID: 0x0d28, ProductID: 0x0204, Description: "DAPLink CMSIS-DAP"},
	{VendorID: 0x1366, ProductID: 0x0101, Description: "SEGGER J-Link CMSIS-DAP"},
	{VendorID: 0xc251, ProductID: 0xf001, Description: "Keil ULINK-ME CMSIS-DAP"},
}
