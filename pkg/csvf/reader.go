package csvf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned when a record's operand runs past the end of the
// program.
var ErrTruncated = errors.New("csvf: truncated program")

// Reader walks a program front to back. It never reads past the end of the
// buffer; instead every accessor reports ErrTruncated.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the first record of program.
func NewReader(program []byte) *Reader {
	return &Reader{buf: program}
}

// Offset is the index of the next unread byte.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining reports how many bytes are left.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) need(n int) error {
	if n < 0 || r.Remaining() < n {
		return fmt.Errorf("%w: need %d byte(s) at offset %d, have %d", ErrTruncated, n, r.pos, r.Remaining())
	}
	return nil
}

// Opcode reads the next opcode byte.
func (r *Reader) Opcode() (Opcode, error) {
	b, err := r.Byte()
	return Opcode(b), err
}

// Byte reads one byte.
func (r *Reader) Byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Uint32 reads a big-endian 32-bit value.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// Bytes copies the next len(dst) bytes into dst.
func (r *Reader) Bytes(dst []byte) error {
	if err := r.need(len(dst)); err != nil {
		return err
	}
	r.pos += copy(dst, r.buf[r.pos:])
	return nil
}

// Next returns the next n bytes without copying them. The slice aliases the
// program.
func (r *Reader) Next(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

// Interleaved reads len(a) byte pairs, the first of each pair into a and the
// second into b. a and b must be the same length.
func (r *Reader) Interleaved(a, b []byte) error {
	if len(a) != len(b) {
		return fmt.Errorf("csvf: interleaved buffers differ in length (%d vs %d)", len(a), len(b))
	}
	if err := r.need(2 * len(a)); err != nil {
		return err
	}
	for i := range a {
		a[i] = r.buf[r.pos]
		b[i] = r.buf[r.pos+1]
		r.pos += 2
	}
	return nil
}

// Skip advances past n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}
