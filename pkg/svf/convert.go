package svf

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"github.com/OpenTraceLab/csvfplay/pkg/csvf"
)

// Converter loads a program file for the player. Files ending in .csvf or
// .bin are taken as pre-compiled programs; anything else is compiled as SVF.
type Converter struct {
	Options
	// MaxSize caps the input file size. Zero means no limit.
	MaxSize int64
}

// IsCompiled reports whether path names a pre-compiled program.
func IsCompiled(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csvf", ".bin":
		return true
	}
	return false
}

// Convert returns the program at path and the widest scan it contains in
// bytes. For pre-compiled programs that fail to decode the hint is zero and
// the error is left for the player to report at the offending record.
func (c Converter) Convert(path string) ([]byte, uint32, error) {
	data, err := csvf.ReadFile(path, c.MaxSize)
	if err != nil {
		return nil, 0, err
	}

	if IsCompiled(path) {
		st, err := csvf.Scan(data)
		if err != nil {
			glog.V(1).Infof("%s: %v; playing without a size hint", path, err)
			return data, 0, nil
		}
		return data, st.MaxShiftBytes, nil
	}

	f, err := Parse(path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	program, maxBytes, err := CompileWith(f, c.Options)
	if err != nil {
		return nil, 0, err
	}
	glog.V(1).Infof("%s: %d statements compiled to %d bytes", path, len(f.Statements), len(program))
	return program, maxBytes, nil
}
