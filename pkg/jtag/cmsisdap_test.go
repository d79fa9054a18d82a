package jtag

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/csvfplay/pkg/player"
	"github.com/OpenTraceLab/csvfplay/pkg/tap"
)

// fakeProbe answers CMSIS-DAP commands the way firmware would and models the
// target TAP on the pins it drives.
type fakeProbe struct {
	packetSize int
	caps       byte
	pins       byte
	fsm        *tap.StateMachine
	shiftBit   int
	tdo        TDOHook

	cmds     [][]byte
	clocked  int
	failNext bool
	closed   bool

	// setupViolations counts rising TCK edges written together with a
	// TMS or TDI change.
	setupViolations int
}

func newFakeProbe() *fakeProbe {
	return &fakeProbe{packetSize: 64, caps: CapSWD | CapJTAG, fsm: tap.NewStateMachine(), shiftBit: -1}
}

func (f *fakeProbe) PacketSize() int { return f.packetSize }

func (f *fakeProbe) Close() error {
	f.closed = true
	return nil
}

func (f *fakeProbe) count(cmd byte) int {
	n := 0
	for _, c := range f.cmds {
		if c[0] == cmd {
			n++
		}
	}
	return n
}

func (f *fakeProbe) WriteRead(cmd []byte) ([]byte, error) {
	f.cmds = append(f.cmds, append([]byte(nil), cmd...))
	if f.failNext {
		return nil, errors.New("usb: broken pipe")
	}

	switch cmd[0] {
	case CmdInfo:
		if cmd[1] == InfoCapabilities {
			return []byte{CmdInfo, 1, f.caps}, nil
		}
		return []byte{CmdInfo, 4, 'f', 'a', 'k', 'e'}, nil
	case CmdConnect:
		return []byte{CmdConnect, cmd[1]}, nil
	case CmdDisconnect, CmdSWJClock:
		return []byte{cmd[0], StatusOK}, nil
	case CmdSWJPins:
		out, sel := cmd[1], cmd[2]
		next := f.pins&^sel | out&sel
		if next&PinTCK != 0 && f.pins&PinTCK == 0 {
			if (next^f.pins)&(PinTMS|PinTDI) != 0 {
				f.setupViolations++
			}
			if f.fsm.Clock(next&PinTMS != 0) != tap.StateShiftDR {
				f.shiftBit = -1
			} else {
				f.shiftBit++
			}
		}
		f.pins = next
		in := f.pins &^ PinTDO
		if f.tdo != nil && f.tdo(f.fsm.State(), f.shiftBit) {
			in |= PinTDO
		}
		return []byte{CmdSWJPins, in}, nil
	case CmdJTAGSequence:
		off := 2
		for i := 0; i < int(cmd[1]); i++ {
			seq := JTAGSequence{Info: cmd[off]}
			for k := 0; k < seq.TCKCount(); k++ {
				f.fsm.Clock(seq.TMS())
			}
			f.clocked += seq.TCKCount()
			off += 1 + (seq.TCKCount()+7)/8
		}
		return []byte{CmdJTAGSequence, StatusOK}, nil
	}
	return []byte{cmd[0], StatusError}, nil
}

var (
	_ player.Pins    = (*CMSISDAPPins)(nil)
	_ player.Clocker = (*CMSISDAPPins)(nil)
	_ PinDriver      = (*CMSISDAPPins)(nil)
)

func TestCMSISDAPPinsSetup(t *testing.T) {
	probe := newFakeProbe()
	p, err := NewCMSISDAPPins(probe, 0)
	if err != nil {
		t.Fatalf("NewCMSISDAPPins: %v", err)
	}
	if p.Info().Vendor != "fake" {
		t.Errorf("vendor = %q", p.Info().Vendor)
	}
	if probe.count(CmdConnect) != 1 || probe.count(CmdSWJClock) != 1 {
		t.Fatalf("commands = %v", probe.cmds)
	}
	if probe.pins&(PinTCK|PinTMS|PinTDI) != 0 {
		t.Errorf("outputs not parked low: %02X", probe.pins)
	}
	if probe.pins&(PinNTRST|PinNRESET) != PinNTRST|PinNRESET {
		t.Errorf("resets not released: %02X", probe.pins)
	}

	if err := p.Close(); err != nil || !probe.closed || probe.count(CmdDisconnect) != 1 {
		t.Fatalf("Close() = %v, closed %v", err, probe.closed)
	}
}

func TestCMSISDAPPinsSetsDataBeforeClock(t *testing.T) {
	probe := newFakeProbe()
	p, err := NewCMSISDAPPins(probe, 0)
	if err != nil {
		t.Fatal(err)
	}
	before := len(probe.cmds)

	p.SetTMS(true)
	p.SetTDI(true)
	p.SetTCK(true)
	p.SetTCK(false)

	// TMS/TDI with TCK low, then TCK high, then TCK low.
	const data = PinTMS | PinTDI | PinNTRST | PinNRESET
	want := [][2]byte{
		{data, PinTMS | PinTDI},
		{data | PinTCK, PinTCK},
		{data, PinTCK},
	}
	got := probe.cmds[before:]
	if len(got) != len(want) {
		t.Fatalf("SWJ_Pins transactions = %d, want %d", len(got), len(want))
	}
	for i, cmd := range got {
		if cmd[0] != CmdSWJPins || cmd[1] != want[i][0] || cmd[2] != want[i][1] {
			t.Errorf("write %d = out %02X sel %02X, want out %02X sel %02X", i, cmd[1], cmd[2], want[i][0], want[i][1])
		}
	}
	if probe.setupViolations != 0 {
		t.Fatalf("%d rising edges changed TMS/TDI", probe.setupViolations)
	}
	if probe.fsm.State() != tap.StateTestLogicReset || probe.fsm.Clocks() != 1 {
		t.Fatalf("target saw %d clocks, state %s", probe.fsm.Clocks(), probe.fsm.State())
	}

	// An unchanged data line costs no extra write.
	before = len(probe.cmds)
	p.SetTCK(true)
	p.SetTCK(false)
	if got := len(probe.cmds) - before; got != 2 {
		t.Fatalf("bare pulse took %d transactions, want 2", got)
	}
}

func TestCMSISDAPPinsPlaysIDCode(t *testing.T) {
	const id = 0x4BA00477
	probe := newFakeProbe()
	probe.tdo = IDCodeDevice(id)
	p, err := NewCMSISDAPPins(probe, 0)
	if err != nil {
		t.Fatal(err)
	}

	got, err := player.ReadIDCode(p)
	if err != nil {
		t.Fatalf("ReadIDCode: %v", err)
	}
	if got != id {
		t.Fatalf("IDCODE = 0x%08X, want 0x%08X", got, id)
	}
	if probe.fsm.State() != tap.StateRunTestIdle {
		t.Fatalf("target left in %s", probe.fsm.State())
	}
	if probe.setupViolations != 0 {
		t.Fatalf("%d rising edges changed TMS/TDI", probe.setupViolations)
	}
}

func TestCMSISDAPPinsClocks(t *testing.T) {
	probe := newFakeProbe()
	p, err := NewCMSISDAPPins(probe, 0)
	if err != nil {
		t.Fatal(err)
	}
	before := probe.count(CmdJTAGSequence)

	p.Clocks(1000)

	if probe.clocked != 1000 {
		t.Fatalf("clocked %d, want 1000", probe.clocked)
	}
	// 1000 clocks = 16 sequences of up to 64, six per 64-byte packet.
	if got := probe.count(CmdJTAGSequence) - before; got != 3 {
		t.Fatalf("JTAG_Sequence commands = %d, want 3", got)
	}
	if probe.fsm.State() != tap.StateRunTestIdle {
		t.Fatalf("TMS not held low: state %s", probe.fsm.State())
	}
}

func TestCMSISDAPPinsLatchesErrors(t *testing.T) {
	probe := newFakeProbe()
	p, err := NewCMSISDAPPins(probe, 0)
	if err != nil {
		t.Fatal(err)
	}

	probe.failNext = true
	p.SetTCK(true)
	if p.Err() == nil {
		t.Fatal("transport failure not latched")
	}
	n := len(probe.cmds)
	p.SetTCK(false)
	_ = p.GetTDO()
	p.Clocks(10)
	if len(probe.cmds) != n {
		t.Fatalf("%d commands sent after a failure", len(probe.cmds)-n)
	}
}

func TestCMSISDAPPinsConnectFailure(t *testing.T) {
	probe := newFakeProbe()
	probe.failNext = true
	if _, err := NewCMSISDAPPins(probe, 0); err == nil {
		t.Fatal("NewCMSISDAPPins succeeded on a dead transport")
	}
}

func TestCMSISDAPPinsRequiresJTAG(t *testing.T) {
	probe := newFakeProbe()
	probe.caps = CapSWD
	if _, err := NewCMSISDAPPins(probe, 0); err == nil {
		t.Fatal("NewCMSISDAPPins accepted an SWD-only probe")
	}
	if probe.count(CmdConnect) != 0 {
		t.Fatal("DAP_Connect sent to an SWD-only probe")
	}
}
