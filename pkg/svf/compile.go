package svf

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/csvfplay/pkg/csvf"
)

// DefaultFrequency is the TCK rate, in Hz, used to turn RUNTEST times into
// clock counts until a FREQUENCY statement says otherwise.
const DefaultFrequency = 1e6

// ErrUnsupported is returned for valid SVF the player cannot reproduce, such
// as multi-device headers or non-idle end states.
var ErrUnsupported = errors.New("svf: unsupported construct")

// Options tune compilation.
type Options struct {
	// Frequency is the assumed TCK rate in Hz. Zero means DefaultFrequency.
	Frequency float64
}

// register holds the sticky SIR or SDR operands. SVF reuses TDI and MASK
// while the length stays the same.
type register struct {
	bits uint32
	tdi  []byte
	mask []byte
}

// shift is a scan waiting for any RUNTEST that follows it.
type shift struct {
	ir   bool
	bits uint32
	tdi  []byte
	tdo  []byte
	mask []byte
	run  uint64
}

type compiler struct {
	freq    float64
	b       *csvf.Builder
	ir, dr  register
	pending *shift

	run   uint32 // last XRUNTEST emitted
	sized bool
	mask  []byte // last XTDOMASK emitted
}

// Compile translates f into a CSVF program using default options. It also
// returns the widest scan in bytes, for sizing player buffers.
func Compile(f *File) ([]byte, uint32, error) {
	return CompileWith(f, Options{})
}

// CompileWith is Compile with explicit options.
func CompileWith(f *File, opts Options) ([]byte, uint32, error) {
	c := &compiler{freq: opts.Frequency, b: csvf.NewBuilder()}
	if c.freq <= 0 {
		c.freq = DefaultFrequency
	}

	for _, st := range f.Statements {
		if err := c.statement(st); err != nil {
			return nil, 0, fmt.Errorf("%s: %s: %w", st.Pos, st.Keyword(), err)
		}
	}
	if err := c.flush(); err != nil {
		return nil, 0, err
	}
	c.b.Complete()
	return c.b.Bytes(), c.b.MaxShiftBytes(), nil
}

func (c *compiler) statement(st *Statement) error {
	switch kw := st.Keyword(); kw {
	case "SIR", "SDR":
		return c.scan(kw == "SIR", st.Args)
	case "RUNTEST":
		return c.runTest(st.Args)
	case "HDR", "HIR", "TDR", "TIR":
		if len(st.Args) == 0 || st.Args[0].Number == nil || *st.Args[0].Number != 0 {
			return fmt.Errorf("%w: only zero-length headers and trailers, the chain must hold a single device", ErrUnsupported)
		}
	case "ENDDR", "ENDIR":
		if len(st.Args) != 1 || !st.Args[0].IsWord("IDLE") {
			return fmt.Errorf("%w: scans always end in IDLE", ErrUnsupported)
		}
	case "STATE":
		if len(st.Args) == 0 {
			return fmt.Errorf("missing target state")
		}
		last := st.Args[len(st.Args)-1]
		if !last.IsWord("IDLE") && !last.IsWord("RESET") {
			return fmt.Errorf("%w: stable state must be IDLE or RESET", ErrUnsupported)
		}
		glog.V(1).Infof("%s: STATE ignored, player stays in Run-Test/Idle", st.Pos)
	case "FREQUENCY":
		c.freq = DefaultFrequency
		if len(st.Args) > 0 && st.Args[0].Number != nil && *st.Args[0].Number > 0 {
			c.freq = *st.Args[0].Number
		}
	case "TRST":
		glog.V(1).Infof("%s: TRST ignored", st.Pos)
	default:
		return fmt.Errorf("%w: command %s", ErrUnsupported, kw)
	}
	return nil
}

func (c *compiler) scan(ir bool, args []*Arg) error {
	if len(args) == 0 || args[0].Number == nil {
		return fmt.Errorf("missing length")
	}
	n, err := count(*args[0].Number)
	if err != nil {
		return err
	}
	if ir && n > math.MaxUint8 {
		return fmt.Errorf("%w: instruction length %d exceeds 255 bits", ErrUnsupported, n)
	}

	reg := &c.dr
	if ir {
		reg = &c.ir
	}
	if n != reg.bits || reg.mask == nil {
		reg.bits = n
		reg.tdi = nil
		reg.mask = ones(n)
	}

	var tdo []byte
	rest := args[1:]
	for len(rest) > 0 {
		if len(rest) < 2 || rest[0].Word == nil || rest[1].Hex == nil {
			return fmt.Errorf("expected TDI, TDO, MASK or SMASK followed by a hex value")
		}
		v, err := decodeHex(*rest[1].Hex, n)
		if err != nil {
			return fmt.Errorf("%s: %w", strings.ToUpper(*rest[0].Word), err)
		}
		switch strings.ToUpper(*rest[0].Word) {
		case "TDI":
			reg.tdi = v
		case "TDO":
			tdo = v
		case "MASK":
			reg.mask = v
		case "SMASK":
		default:
			return fmt.Errorf("unknown parameter %s", *rest[0].Word)
		}
		rest = rest[2:]
	}

	if reg.tdi == nil {
		if n != 0 {
			return fmt.Errorf("TDI is required when the scan length changes")
		}
		reg.tdi = []byte{}
	}
	if ir && tdo != nil {
		glog.Warningf("SIR TDO check dropped, instruction captures are not compared")
		tdo = nil
	}

	if err := c.flush(); err != nil {
		return err
	}
	c.pending = &shift{ir: ir, bits: n, tdi: reg.tdi, tdo: tdo, mask: reg.mask}
	return nil
}

// runTest attaches an idle wait to the preceding scan. The player idles after
// every scan for the current XRUNTEST count, so the wait is emitted as an
// XRUNTEST in front of that scan.
func (c *compiler) runTest(args []*Arg) error {
	i := 0
	if i < len(args) && args[i].Word != nil && !isUnit(*args[i].Word) && !args[i].IsWord("MAXIMUM") && !args[i].IsWord("ENDSTATE") {
		if !args[i].IsWord("IDLE") {
			return fmt.Errorf("%w: run state %s", ErrUnsupported, *args[i].Word)
		}
		i++
	}

	var clocks uint64
	have := false
	for i < len(args) {
		a := args[i]
		switch {
		case a.Number != nil:
			if i+1 >= len(args) || args[i+1].Word == nil {
				return fmt.Errorf("%g has no unit", *a.Number)
			}
			var n uint64
			switch unit := strings.ToUpper(*args[i+1].Word); unit {
			case "TCK":
				v, err := count(*a.Number)
				if err != nil {
					return err
				}
				n = uint64(v)
			case "SEC":
				n = secondsToClocks(*a.Number, c.freq)
			default:
				return fmt.Errorf("%w: unit %s", ErrUnsupported, unit)
			}
			clocks = max(clocks, n)
			have = true
			i += 2
		case a.IsWord("MAXIMUM"):
			i += 3
		case a.IsWord("ENDSTATE"):
			if i+1 >= len(args) || !args[i+1].IsWord("IDLE") {
				return fmt.Errorf("%w: end state must be IDLE", ErrUnsupported)
			}
			i += 2
		default:
			return fmt.Errorf("unexpected argument")
		}
	}
	if !have {
		return fmt.Errorf("missing run count or time")
	}

	if c.pending == nil {
		glog.Warningf("RUNTEST of %d clocks has no preceding scan, dropped", clocks)
		return nil
	}
	c.pending.run += clocks
	if c.pending.run > math.MaxUint32 {
		return fmt.Errorf("%w: %d idle clocks", ErrUnsupported, c.pending.run)
	}
	return nil
}

// flush emits the pending scan together with the state records it needs.
func (c *compiler) flush() error {
	s := c.pending
	if s == nil {
		return nil
	}
	c.pending = nil

	if run := uint32(s.run); run != c.run {
		if err := c.b.RunTest(run); err != nil {
			return err
		}
		c.run = run
	}
	if s.ir {
		return c.b.SIR(uint8(s.bits), s.tdi)
	}

	if !c.sized || c.b.DRBits() != s.bits {
		if err := c.b.SDRSize(s.bits); err != nil {
			return err
		}
		c.sized = true
		c.mask = nil
	}
	if s.tdo == nil {
		return c.b.SDR(s.tdi)
	}
	if c.mask == nil || !bytes.Equal(c.mask, s.mask) {
		if err := c.b.TDOMask(s.mask); err != nil {
			return err
		}
		c.mask = s.mask
	}
	return c.b.SDRTDO(s.tdi, s.tdo)
}

func isUnit(w string) bool {
	switch strings.ToUpper(w) {
	case "TCK", "SCK", "SEC":
		return true
	}
	return false
}

func count(v float64) (uint32, error) {
	if v < 0 || v != math.Trunc(v) || v > math.MaxUint32 {
		return 0, fmt.Errorf("%g is not a valid count", v)
	}
	return uint32(v), nil
}

// secondsToClocks rounds up, except that products within float error of a
// whole number are taken as that number.
func secondsToClocks(sec, freq float64) uint64 {
	x := sec * freq
	if r := math.Round(x); math.Abs(x-r) < 1e-6 {
		return uint64(r)
	}
	return uint64(math.Ceil(x))
}

// ones is the default MASK: every bit of an n-bit scan compared.
func ones(n uint32) []byte {
	out := bytes.Repeat([]byte{0xFF}, int(csvf.BitsToBytes(n)))
	if r := n % 8; r != 0 {
		out[len(out)-1] = 1<<r - 1
	}
	return out
}

// decodeHex converts a parenthesized SVF hex value, most significant digit
// first, into an n-bit operand with bits 0..7 in byte 0.
func decodeHex(tok string, n uint32) ([]byte, error) {
	digits := strings.Map(func(r rune) rune {
		switch r {
		case '(', ')', ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, tok)

	out := make([]byte, csvf.BitsToBytes(n))
	for i := 0; i < len(digits); i++ {
		v := nibble(digits[len(digits)-1-i])
		if v == 0 {
			continue
		}
		if top := uint32(i)*4 + uint32(bits.Len8(v)); top > n {
			return nil, fmt.Errorf("value (%s) does not fit in %d bits", digits, n)
		}
		out[i/2] |= v << (4 * (i % 2))
	}
	return out, nil
}

func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
