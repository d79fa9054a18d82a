package jtag

import (
	"github.com/golang/glog"
	"github.com/juju/errors"
)

// DefaultClockHz is the SWJ clock programmed when none is configured.
const DefaultClockHz = 1_000_000

// CMSISDAPPins drives TAP pins through a CMSIS-DAP probe. Every TCK write and
// TDO read is one DAP_SWJ_Pins transaction. TMS and TDI changes are held
// until then and written with TCK low ahead of a rising edge. Runs of idle
// clocks use DAP_JTAG_Sequence.
type CMSISDAPPins struct {
	transport Transport
	protocol  *CMSISDAPProtocol

	info      DriverInfo
	caps      byte
	connected bool

	out   byte // requested output levels
	dirty byte // outputs changed since the last transaction
	err   error
}

// OpenCMSISDAP opens the probe at vid:pid and connects it in JTAG mode.
func OpenCMSISDAP(vid, pid uint16, clockHz uint32) (*CMSISDAPPins, error) {
	t, err := NewUSBTransport(vid, pid)
	if err != nil {
		return nil, errors.Annotatef(err, "opening CMSIS-DAP probe %04X:%04X", vid, pid)
	}
	p, err := NewCMSISDAPPins(t, clockHz)
	if err != nil {
		t.Close()
		return nil, errors.Trace(err)
	}
	return p, nil
}

// NewCMSISDAPPins sets up a probe reachable over t.
func NewCMSISDAPPins(t Transport, clockHz uint32) (*CMSISDAPPins, error) {
	if clockHz == 0 {
		clockHz = DefaultClockHz
	}
	p := &CMSISDAPPins{
		transport: t,
		protocol:  NewCMSISDAPProtocol(t.PacketSize()),
	}

	p.queryInfo()
	if err := p.connect(); err != nil {
		return nil, errors.Annotate(err, "failed to connect to JTAG")
	}
	if err := p.setClock(clockHz); err != nil {
		return nil, errors.Annotate(err, "failed to set clock")
	}

	// Park TCK, TMS and TDI low with both resets released.
	p.out = PinNTRST | PinNRESET
	p.dirty = PinTCK | PinTMS | PinTDI | PinNTRST | PinNRESET
	p.sync()
	if p.err != nil {
		return nil, errors.Trace(p.err)
	}
	glog.V(1).Infof("CMSIS-DAP %s %s (fw %s) at %d Hz", p.info.Vendor, p.info.Model, p.info.Firmware, clockHz)
	return p, nil
}

// queryInfo reads the probe identification strings. Firmware may leave any
// of them empty, so failures are not fatal.
func (p *CMSISDAPPins) queryInfo() {
	get := func(id byte) string {
		resp, err := p.transport.WriteRead(p.protocol.EncodeInfo(id))
		if err != nil {
			return ""
		}
		s, _ := p.protocol.DecodeInfo(resp)
		return s
	}
	p.info = DriverInfo{
		Kind:         InterfaceKindCMSISDAP,
		Name:         "CMSIS-DAP Probe",
		Vendor:       get(InfoVendorID),
		Model:        get(InfoProductID),
		SerialNumber: get(InfoSerialNum),
		Firmware:     get(InfoFirmwareVer),
	}

	resp, err := p.transport.WriteRead(p.protocol.EncodeInfo(InfoCapabilities))
	if err == nil {
		p.caps, err = p.protocol.DecodeCapabilities(resp)
	}
	if err != nil {
		glog.V(1).Infof("CMSIS-DAP capabilities unknown: %v", err)
		p.caps = CapJTAG
	}
	if p.caps&CapJTAG == 0 {
		p.info.Notes = "firmware reports no JTAG support"
	}
}

func (p *CMSISDAPPins) connect() error {
	if p.caps&CapJTAG == 0 {
		return errors.NotSupportedf("JTAG on probe %s %s", p.info.Vendor, p.info.Model)
	}
	resp, err := p.transport.WriteRead(p.protocol.EncodeConnect(PortJTAG))
	if err != nil {
		return errors.Trace(err)
	}
	port, err := p.protocol.DecodeConnect(resp)
	if err != nil {
		return errors.Trace(err)
	}
	if port != PortJTAG {
		return errors.Errorf("probe connected port %d, not JTAG", port)
	}
	p.connected = true
	return nil
}

func (p *CMSISDAPPins) setClock(hz uint32) error {
	resp, err := p.transport.WriteRead(p.protocol.EncodeSetClock(hz))
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(p.protocol.DecodeSetClock(resp))
}

// Info returns the probe identification.
func (p *CMSISDAPPins) Info() DriverInfo {
	return p.info
}

func (p *CMSISDAPPins) set(pin byte, high bool) {
	if high {
		p.out |= pin
	} else {
		p.out &^= pin
	}
	p.dirty |= pin
}

// sync writes pending outputs and returns the pin inputs.
func (p *CMSISDAPPins) sync() byte {
	if p.err != nil {
		return 0
	}
	resp, err := p.transport.WriteRead(p.protocol.EncodeSWJPins(p.out, p.dirty, 0))
	var in byte
	if err == nil {
		in, err = p.protocol.DecodeSWJPins(resp)
	}
	if err != nil {
		p.fail(errors.Annotate(err, "DAP_SWJ_Pins"))
		return 0
	}
	p.dirty = 0
	return in
}

func (p *CMSISDAPPins) fail(err error) {
	glog.Errorf("CMSIS-DAP: %v", err)
	p.err = err
}

func (p *CMSISDAPPins) SetTMS(high bool) { p.set(PinTMS, high) }
func (p *CMSISDAPPins) SetTDI(high bool) { p.set(PinTDI, high) }

// SetTCK writes pending TMS/TDI changes with TCK still low before a rising
// edge, so the target never sees data change on the edge it samples.
func (p *CMSISDAPPins) SetTCK(high bool) {
	if high && p.dirty != 0 {
		p.sync()
	}
	p.set(PinTCK, high)
	p.sync()
}

func (p *CMSISDAPPins) GetTDO() bool {
	return p.sync()&PinTDO != 0
}

// Clocks pulses TCK n times with TMS and TDI held, batching up to 64 clocks
// per sequence and as many sequences per packet as fit.
func (p *CMSISDAPPins) Clocks(n uint32) {
	if p.dirty != 0 {
		p.sync()
	}
	tms := p.out&PinTMS != 0
	var fill byte
	if p.out&PinTDI != 0 {
		fill = 0xFF
	}
	perPacket := p.protocol.SequencesPerPacket()

	for n > 0 && p.err == nil {
		var seqs []JTAGSequence
		for len(seqs) < perPacket && n > 0 {
			k := min(n, MaxSequenceClocks)
			tdi := make([]byte, (k+7)/8)
			for i := range tdi {
				tdi[i] = fill
			}
			seqs = append(seqs, NewJTAGSequence(int(k), tms, false, tdi))
			n -= k
		}
		resp, err := p.transport.WriteRead(p.protocol.EncodeJTAGSequence(seqs))
		if err == nil {
			_, err = p.protocol.DecodeJTAGSequence(resp, seqs)
		}
		if err != nil {
			p.fail(errors.Annotate(err, "DAP_JTAG_Sequence"))
		}
	}
}

// Err returns the first transport error, after which pin calls are no-ops.
func (p *CMSISDAPPins) Err() error {
	return p.err
}

// Close disconnects the probe and releases the transport.
func (p *CMSISDAPPins) Close() error {
	if p.connected {
		if resp, err := p.transport.WriteRead(p.protocol.EncodeDisconnect()); err == nil {
			if err := p.protocol.DecodeDisconnect(resp); err != nil {
				glog.Warningf("CMSIS-DAP disconnect: %v", err)
			}
		}
		p.connected = false
	}
	return errors.Trace(p.transport.Close())
}
