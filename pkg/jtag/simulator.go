package jtag

import (
	"github.com/OpenTraceLab/csvfplay/pkg/tap"
)

// OpKind identifies a recorded pin operation.
type OpKind uint8

const (
	OpTCK OpKind = iota
	OpTMS
	OpTDI
	OpTDO
	OpClocks
)

func (k OpKind) String() string {
	switch k {
	case OpTCK:
		return "TCK"
	case OpTMS:
		return "TMS"
	case OpTDI:
		return "TDI"
	case OpTDO:
		return "TDO"
	case OpClocks:
		return "CLOCKS"
	}
	return "?"
}

// Op captures one pin call for inspection within tests. Count is set for
// OpClocks only.
type Op struct {
	Kind  OpKind
	Level bool
	Count uint32
}

// TDOHook supplies TDO for the simulator. bit is the number of rising edges
// taken in the current Shift-DR or Shift-IR visit, or -1 outside them.
type TDOHook func(state tap.State, bit int) bool

// SimPins is an in-memory pin driver useful for unit tests and dry runs. It
// follows the TAP state on every rising TCK edge and answers TDO from OnTDO,
// then from queued bits, then low.
type SimPins struct {
	OnTDO TDOHook

	// RecordOps enables the operation log. Playback of large programs
	// leaves it off.
	RecordOps bool

	fsm           *tap.StateMachine
	tck, tms, tdi bool
	shiftBit      int

	ops      []Op
	tdiEdges []bool
	queue    []bool
	closed   bool
	tdoReads int
}

// NewSimPins constructs a simulator with the TAP in Test-Logic-Reset.
func NewSimPins() *SimPins {
	return &SimPins{fsm: tap.NewStateMachine(), shiftBit: -1, RecordOps: true}
}

func (s *SimPins) record(op Op) {
	if s.RecordOps {
		s.ops = append(s.ops, op)
	}
}

func (s *SimPins) SetTCK(high bool) {
	s.record(Op{Kind: OpTCK, Level: high})
	if high && !s.tck {
		s.edge()
	}
	s.tck = high
}

func (s *SimPins) edge() {
	if s.RecordOps {
		s.tdiEdges = append(s.tdiEdges, s.tdi)
	}
	st := s.fsm.Clock(s.tms)
	switch {
	case st != tap.StateShiftDR && st != tap.StateShiftIR:
		s.shiftBit = -1
	case s.shiftBit < 0:
		s.shiftBit = 0
	default:
		s.shiftBit++
	}
}

func (s *SimPins) SetTMS(high bool) {
	s.record(Op{Kind: OpTMS, Level: high})
	s.tms = high
}

func (s *SimPins) SetTDI(high bool) {
	s.record(Op{Kind: OpTDI, Level: high})
	s.tdi = high
}

func (s *SimPins) GetTDO() bool {
	level := false
	switch {
	case s.OnTDO != nil:
		level = s.OnTDO(s.fsm.State(), s.shiftBit)
	case len(s.queue) > 0:
		level = s.queue[0]
		s.queue = s.queue[1:]
	}
	s.tdoReads++
	s.record(Op{Kind: OpTDO, Level: level})
	return level
}

// Clocks implements the bulk idle path with TMS and TDI held.
func (s *SimPins) Clocks(n uint32) {
	s.record(Op{Kind: OpClocks, Count: n})
	for ; n > 0; n-- {
		s.edge()
	}
}

// QueueTDO appends bits to be returned by subsequent TDO reads.
func (s *SimPins) QueueTDO(bits ...bool) {
	s.queue = append(s.queue, bits...)
}

// QueueTDOBytes queues the first n bits of data, least-significant first.
func (s *SimPins) QueueTDOBytes(data []byte, n int) {
	for i := 0; i < n; i++ {
		s.queue = append(s.queue, data[i/8]&(1<<(i%8)) != 0)
	}
}

// State reports the simulated TAP state.
func (s *SimPins) State() tap.State {
	return s.fsm.State()
}

// Pulses reports the number of rising TCK edges seen.
func (s *SimPins) Pulses() uint64 {
	return s.fsm.Clocks()
}

// TDOReads reports how many times TDO was sampled.
func (s *SimPins) TDOReads() int {
	return s.tdoReads
}

// TDIOnPulses returns the TDI level latched on every recorded rising edge.
func (s *SimPins) TDIOnPulses() []bool {
	return append([]bool(nil), s.tdiEdges...)
}

// Ops returns a copy of the operation log.
func (s *SimPins) Ops() []Op {
	return append([]Op(nil), s.ops...)
}

// Info describes the simulator.
func (s *SimPins) Info() DriverInfo {
	return DriverInfo{Kind: InterfaceKindSim, Name: "Simulator", Notes: "no hardware"}
}

func (s *SimPins) Err() error { return nil }

func (s *SimPins) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *SimPins) Closed() bool {
	return s.closed
}

// IDCodeDevice returns a TDO hook for a single device whose DR, selected by
// Test-Logic-Reset, shifts out id least-significant bit first.
func IDCodeDevice(id uint32) TDOHook {
	return func(state tap.State, bit int) bool {
		return state == tap.StateShiftDR && bit >= 0 && bit < 32 && id>>uint(bit)&1 != 0
	}
}
