package jtag

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/juju/errors"
)

const (
	// Default probe USB identifiers (Raspberry Pi Debug Probe / picoprobe).
	VendorIDRaspberryPi = 0x2E8A
	ProductIDCMSISDAP   = 0x000C

	// Default packet size for CMSIS-DAP v1/v2
	DefaultPacketSize = 64
	DefaultTimeout    = 5 * time.Second
)

// Transport carries CMSIS-DAP command packets to a probe and returns the
// response packet.
type Transport interface {
	WriteRead(cmd []byte) ([]byte, error)
	PacketSize() int
	Close() error
}

// USBTransport handles USB communication with CMSIS-DAP probe
type USBTransport struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	packetSize int
	timeout    time.Duration
}

// NewUSBTransport opens the first probe matching vid:pid and claims its
// vendor-class interface.
func NewUSBTransport(vid, pid uint16) (*USBTransport, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, errors.Annotate(err, "USB error")
	}
	if dev == nil {
		ctx.Close()
		return nil, errors.NotFoundf("device %04X:%04X", vid, pid)
	}

	// Not supported on every platform.
	if err := dev.SetAutoDetach(true); err != nil {
		glog.V(1).Infof("auto-detach unavailable: %v", err)
	}

	t := &USBTransport{
		ctx:        ctx,
		dev:        dev,
		packetSize: DefaultPacketSize,
		timeout:    DefaultTimeout,
	}
	if err := t.claimInterface(); err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}
	return t, nil
}

// claimInterface finds and claims the CMSIS-DAP vendor interface
func (t *USBTransport) claimInterface() error {
	cfg, err := t.dev.Config(1)
	if err != nil {
		return errors.Annotate(err, "failed to get config")
	}
	t.cfg = cfg

	// CMSIS-DAP v2 uses a vendor-specific class; fall back to interface 0.
	vendorIntfNum := 0
	for _, intf := range cfg.Desc.Interfaces {
		if len(intf.AltSettings) > 0 && intf.AltSettings[0].Class == gousb.ClassVendorSpec {
			vendorIntfNum = intf.Number
			break
		}
	}

	intf, err := cfg.Interface(vendorIntfNum, 0)
	if err != nil {
		return errors.Annotatef(err, "failed to claim interface %d", vendorIntfNum)
	}
	t.intf = intf

	return errors.Trace(t.findEndpoints())
}

// findEndpoints discovers the bulk IN and OUT endpoints
func (t *USBTransport) findEndpoints() error {
	var outAddr, inAddr int
	for _, ep := range t.intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch {
		case ep.Direction == gousb.EndpointDirectionOut && outAddr == 0:
			outAddr = ep.Number
		case ep.Direction == gousb.EndpointDirectionIn && inAddr == 0:
			inAddr = ep.Number
			t.packetSize = ep.MaxPacketSize
		}
	}
	if outAddr == 0 {
		return errors.NotFoundf("bulk OUT endpoint")
	}
	if inAddr == 0 {
		return errors.NotFoundf("bulk IN endpoint")
	}

	epOut, err := t.intf.OutEndpoint(outAddr)
	if err != nil {
		return errors.Annotate(err, "failed to open OUT endpoint")
	}
	t.epOut = epOut

	epIn, err := t.intf.InEndpoint(inAddr)
	if err != nil {
		return errors.Annotate(err, "failed to open IN endpoint")
	}
	t.epIn = epIn
	return nil
}

// WriteRead performs a command/response transaction. Commands are padded
// to the packet size.
func (t *USBTransport) WriteRead(cmd []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	packet := make([]byte, t.packetSize)
	copy(packet, cmd)
	if _, err := t.epOut.WriteContext(ctx, packet); err != nil {
		return nil, errors.Annotate(err, "USB write failed")
	}

	resp := make([]byte, t.packetSize)
	n, err := t.epIn.ReadContext(ctx, resp)
	if err != nil {
		return nil, errors.Annotate(err, "USB read failed")
	}
	return resp[:n], nil
}

// PacketSize returns the negotiated packet size.
func (t *USBTransport) PacketSize() int {
	return t.packetSize
}

// Close releases USB resources
func (t *USBTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	var err error
	if t.cfg != nil {
		err = t.cfg.Close()
		t.cfg = nil
	}
	if t.dev != nil {
		if cerr := t.dev.Close(); err == nil {
			err = cerr
		}
		t.dev = nil
	}
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	return errors.Trace(err)
}
