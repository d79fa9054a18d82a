package player

import (
	"fmt"

	"github.com/golang/glog"
)

// Converter turns a test-vector file into a CSVF program. maxBufSize is the
// widest scan operand in the program, in bytes, or zero when unknown.
type Converter interface {
	Convert(path string) (program []byte, maxBufSize uint32, err error)
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(path string) ([]byte, uint32, error)

func (f ConverterFunc) Convert(path string) ([]byte, uint32, error) {
	return f(path)
}

// PlayFile converts path with conv and plays the result. Conversion failures
// are reported as ErrFile. A size hint larger than the configured buffers is
// rejected before any pin is touched.
func (p *Player) PlayFile(path string, conv Converter) error {
	if path == "" {
		return fmt.Errorf("%w: no program file given", ErrUsage)
	}
	if conv == nil {
		return fmt.Errorf("%w: no converter", ErrUsage)
	}

	program, maxBufSize, err := conv.Convert(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFile, path, err)
	}
	glog.V(1).Infof("%s: %d byte program, widest shift %d bytes", path, len(program), maxBufSize)

	if maxBufSize > uint32(p.cfg.BufferCapacity) {
		return fmt.Errorf("%w: %s needs %d byte buffers, capacity %d", ErrShiftTooLong, path, maxBufSize, p.cfg.BufferCapacity)
	}
	return p.Play(program)
}
