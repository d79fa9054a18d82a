package svf

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[File](
	participle.Lexer(SVFLexer),
	participle.Elide("Comment", "Whitespace"),
)

// Parse reads an SVF file from r. name is used in error positions.
func Parse(name string, r io.Reader) (*File, error) {
	f, err := parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("svf: parse error: %w", err)
	}
	return f, nil
}

// ParseString parses SVF source held in memory.
func ParseString(name, src string) (*File, error) {
	f, err := parser.ParseString(name, src)
	if err != nil {
		return nil, fmt.Errorf("svf: parse error: %w", err)
	}
	return f, nil
}

// ParseFile opens and parses the SVF file at path.
func ParseFile(path string) (*File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(path, file)
}
