package csvf

import (
	"errors"
	"fmt"
)

// ErrUnknownOpcode is wrapped by errors for records with no defined layout.
var ErrUnknownOpcode = errors.New("csvf: unrecognised command")

// Record is one decoded CSVF record.
type Record struct {
	Offset   int
	Op       Opcode
	Value    uint32 // XSDRSIZE bit count, XRUNTEST clocks, XSIR bit count
	Arg      byte   // XREPEAT, XSTATE, XENDIR, XENDDR
	Data     []byte // scan or mask operand
	Expected []byte // XSDRTDO only
}

// Decode walks program calling fn for each record, ending with XCOMPLETE.
// Operands are checked against the remaining length before anything is
// allocated for them, and Data aliases program except for XSDRTDO.
// Unlike the player it understands every record in the table, including those
// the player rejects, so it is suitable for inspection tools.
func Decode(program []byte, fn func(Record) error) error {
	r := NewReader(program)
	var sdrBits uint32

	for {
		rec := Record{Offset: r.Offset()}
		op, err := r.Opcode()
		if err != nil {
			return err
		}
		rec.Op = op

		switch op {
		case XCOMPLETE:
			return fn(rec)

		case XTDOMASK, XSDR, XSDRB, XSDRC, XSDRE:
			rec.Data, err = r.Next(int(BitsToBytes(sdrBits)))

		case XSDRTDO:
			var pairs []byte
			if pairs, err = r.Next(2 * int(BitsToBytes(sdrBits))); err != nil {
				break
			}
			rec.Data = make([]byte, len(pairs)/2)
			rec.Expected = make([]byte, len(pairs)/2)
			for i := range rec.Data {
				rec.Data[i], rec.Expected[i] = pairs[2*i], pairs[2*i+1]
			}

		case XRUNTEST:
			rec.Value, err = r.Uint32()

		case XSDRSIZE:
			rec.Value, err = r.Uint32()
			sdrBits = rec.Value

		case XSIR:
			var bits byte
			if bits, err = r.Byte(); err != nil {
				break
			}
			rec.Value = uint32(bits)
			rec.Data, err = r.Next(int(BitsToBytes(rec.Value)))

		case XREPEAT, XSTATE, XENDIR, XENDDR:
			rec.Arg, err = r.Byte()

		default:
			return fmt.Errorf("%w %02X at offset %d", ErrUnknownOpcode, uint8(op), rec.Offset)
		}

		if err != nil {
			return fmt.Errorf("%s at offset %d: %w", op, rec.Offset, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Stats summarises a program.
type Stats struct {
	Records       int
	MaxShiftBytes uint32
	Opcodes       map[Opcode]int
}

// Scan decodes the whole program and reports its statistics. It is the
// buffer-size hint source for pre-compiled programs.
func Scan(program []byte) (Stats, error) {
	st := Stats{Opcodes: make(map[Opcode]int)}
	err := Decode(program, func(rec Record) error {
		st.Records++
		st.Opcodes[rec.Op]++
		if rec.Op == XSDRSIZE || rec.Op == XSIR {
			if n := BitsToBytes(rec.Value); n > st.MaxShiftBytes {
				st.MaxShiftBytes = n
			}
		}
		return nil
	})
	return st, err
}
