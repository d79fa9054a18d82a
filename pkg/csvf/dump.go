package csvf

import (
	"bufio"
	"fmt"
	"io"
)

const nibbles = "0123456789ABCDEF"

// HexString renders b as upper-case hex, two digits per byte, in buffer order.
func HexString(b []byte) string {
	out := make([]byte, 2*len(b))
	for i, v := range b {
		out[2*i] = nibbles[v>>4]
		out[2*i+1] = nibbles[v&15]
	}
	return string(out)
}

// Dump writes one line per record of program to w, for example
//
//	XSDRSIZE(00000008)
//	XSDR(A5)
//	XCOMPLETE
func Dump(w io.Writer, program []byte) error {
	bw := bufio.NewWriter(w)
	err := Decode(program, func(rec Record) error {
		_, err := fmt.Fprintln(bw, FormatRecord(rec))
		return err
	})
	if flushErr := bw.Flush(); err == nil {
		err = flushErr
	}
	return err
}

// FormatRecord renders a single decoded record.
func FormatRecord(rec Record) string {
	switch rec.Op {
	case XCOMPLETE:
		return "XCOMPLETE"
	case XTDOMASK, XSDR, XSDRB, XSDRC, XSDRE:
		return fmt.Sprintf("%s(%s)", rec.Op, HexString(rec.Data))
	case XSDRTDO:
		return fmt.Sprintf("XSDRTDO(%s, %s)", HexString(rec.Data), HexString(rec.Expected))
	case XRUNTEST, XSDRSIZE:
		return fmt.Sprintf("%s(%08X)", rec.Op, rec.Value)
	case XSIR:
		return fmt.Sprintf("XSIR(%02X, %s)", rec.Value, HexString(rec.Data))
	case XREPEAT, XSTATE, XENDIR, XENDDR:
		return fmt.Sprintf("%s(%02X)", rec.Op, rec.Arg)
	}
	return rec.Op.String()
}
