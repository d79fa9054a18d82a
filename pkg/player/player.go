// Package player plays CSVF byte-code programs into a JTAG port through a
// pin-level Pins implementation.
//
// A playback always starts by resetting the TAP and settling in Run-Test/Idle,
// then executes records in order until XCOMPLETE or the first error. Between
// records the TAP is always back in Run-Test/Idle.
package player

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/csvfplay/pkg/csvf"
	"github.com/OpenTraceLab/csvfplay/pkg/tap"
)

const (
	// DefaultBufferCapacity is the per-buffer size in bytes used when none
	// is configured. It bounds XSDRSIZE to 8192 bits.
	DefaultBufferCapacity = 1024

	// MaxBufferCapacity is the largest per-buffer size accepted.
	MaxBufferCapacity = 16 << 20

	// DefaultMaxProgramSize caps the byte-code a single playback accepts.
	DefaultMaxProgramSize = 16 << 20

	// MaxAttempts is how many times an XSDRTDO is scanned before giving up.
	MaxAttempts = 32
)

// Config controls buffer sizing for a Player.
type Config struct {
	// BufferCapacity is the size in bytes of each of the four shift
	// buffers. Declared shift lengths beyond BufferCapacity*8 bits are
	// rejected with ErrShiftTooLong.
	BufferCapacity int

	// MaxProgramSize is the largest program, in bytes, Play accepts.
	MaxProgramSize int64
}

// DefaultConfig returns a Config with the default capacities.
func DefaultConfig() Config {
	return Config{
		BufferCapacity: DefaultBufferCapacity,
		MaxProgramSize: DefaultMaxProgramSize,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BufferCapacity <= 0 || c.BufferCapacity > MaxBufferCapacity {
		return fmt.Errorf("%w: buffer capacity %d outside (0, %d]", ErrAllocation, c.BufferCapacity, MaxBufferCapacity)
	}
	if c.MaxProgramSize <= 0 {
		return fmt.Errorf("%w: max program size must be positive, got %d", ErrAllocation, c.MaxProgramSize)
	}
	return nil
}

// Player executes programs against one Pins.
type Player struct {
	port port
	cfg  Config
}

// New creates a Player for pins.
func New(pins Pins, cfg Config) (*Player, error) {
	if pins == nil {
		return nil, fmt.Errorf("%w: no pin driver", ErrUsage)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Player{port: newPort(pins), cfg: cfg}, nil
}

// Config returns the player's configuration.
func (p *Player) Config() Config {
	return p.cfg
}

// session holds the interpreter state and shift buffers of one playback.
type session struct {
	port port
	r    *csvf.Reader

	capacity    uint32
	shiftLength uint32
	idleClocks  uint32

	mask     []byte
	tdi      []byte
	tdo      []byte
	expected []byte
}

// Play executes program. It returns nil once XCOMPLETE is reached.
func (p *Player) Play(program []byte) error {
	if int64(len(program)) > p.cfg.MaxProgramSize {
		return fmt.Errorf("%w: program is %d bytes, limit %d", ErrAllocation, len(program), p.cfg.MaxProgramSize)
	}

	capacity := p.cfg.BufferCapacity
	s := &session{
		port:     p.port,
		r:        csvf.NewReader(program),
		capacity: uint32(capacity),
		mask:     make([]byte, capacity),
		tdi:      make([]byte, capacity),
		tdo:      make([]byte, capacity),
		expected: make([]byte, capacity),
	}

	s.port.clockFSM(tap.ResetToIdle)

	for {
		offset := s.r.Offset()
		op, err := s.r.Opcode()
		if err != nil {
			return fmt.Errorf("reading opcode: %w", err)
		}
		if op == csvf.XCOMPLETE {
			glog.V(1).Infof("XCOMPLETE at offset %d", offset)
			return nil
		}
		glog.V(1).Infof("%s at offset %d", op, offset)
		if err := s.exec(op, offset); err != nil {
			return err
		}
	}
}

func (s *session) exec(op csvf.Opcode, offset int) error {
	switch op {
	case csvf.XTDOMASK:
		if err := s.r.Bytes(s.mask[:s.drBytes()]); err != nil {
			return fmt.Errorf("XTDOMASK at offset %d: %w", offset, err)
		}

	case csvf.XRUNTEST:
		n, err := s.r.Uint32()
		if err != nil {
			return fmt.Errorf("XRUNTEST at offset %d: %w", offset, err)
		}
		s.idleClocks = n

	case csvf.XSIR:
		bits, err := s.r.Byte()
		if err != nil {
			return fmt.Errorf("XSIR at offset %d: %w", offset, err)
		}
		n := csvf.BitsToBytes(uint32(bits))
		if n > s.capacity {
			return fmt.Errorf("%w: XSIR of %d bits at offset %d, capacity %d bits", ErrShiftTooLong, bits, offset, s.capacity*8)
		}
		if err := s.r.Bytes(s.tdi[:n]); err != nil {
			return fmt.Errorf("XSIR at offset %d: %w", offset, err)
		}
		s.scan(tap.IdleToShiftIR, uint32(bits))

	case csvf.XSDRSIZE:
		bits, err := s.r.Uint32()
		if err != nil {
			return fmt.Errorf("XSDRSIZE at offset %d: %w", offset, err)
		}
		if csvf.BitsToBytes(bits) > s.capacity {
			return fmt.Errorf("%w: XSDRSIZE %d bits at offset %d, capacity %d bits", ErrShiftTooLong, bits, offset, s.capacity*8)
		}
		s.shiftLength = bits

	case csvf.XSDRTDO:
		n := s.drBytes()
		if err := s.r.Interleaved(s.tdi[:n], s.expected[:n]); err != nil {
			return fmt.Errorf("XSDRTDO at offset %d: %w", offset, err)
		}
		return s.shiftCompare()

	case csvf.XSDR:
		if err := s.r.Bytes(s.tdi[:s.drBytes()]); err != nil {
			return fmt.Errorf("XSDR at offset %d: %w", offset, err)
		}
		s.scan(tap.IdleToShiftDR, s.shiftLength)

	default:
		return &BadCommandError{Opcode: op, Offset: offset}
	}
	return nil
}

// drBytes is the operand width of DR records under the current XSDRSIZE.
func (s *session) drBytes() uint32 {
	return csvf.BitsToBytes(s.shiftLength)
}

// scan shifts bits of s.tdi through the register that enter selects and
// returns to Run-Test/Idle. A zero-length scan leaves the TAP where it is,
// since ExitToIdle only reaches Run-Test/Idle after a final TMS-high shift.
func (s *session) scan(enter tap.Pattern, bits uint32) {
	if bits != 0 {
		s.port.clockFSM(enter)
		s.port.shiftIn(bits, s.tdi)
		s.port.clockFSM(tap.ExitToIdle)
	}
	s.runTest()
}

func (s *session) runTest() {
	if s.idleClocks != 0 {
		s.port.idle(s.idleClocks)
	}
}
