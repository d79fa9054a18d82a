// Package svf reads Serial Vector Format files and compiles the subset a
// single-device CSVF player can execute.
package svf

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// SVFLexer tokenizes SVF text. Scan values are parenthesized hex strings and
// may span lines, so they are lexed as a single token.
var SVFLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:!|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Hex", Pattern: `\([\s0-9A-Fa-f]*\)`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]*)?(?:[Ee][-+]?[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Semicolon", Pattern: `;`},
})

// File is a parsed SVF file: a flat list of statements.
type File struct {
	Statements []*Statement `@@*`
}

// Statement is one SVF command with its arguments. Keyword checking is left
// to Compile so that errors can name the command.
type Statement struct {
	Pos     lexer.Position
	Command string `@Ident`
	Args    []*Arg `@@* Semicolon`
}

// Arg is a single statement argument.
type Arg struct {
	Hex    *string  `  @Hex`
	Number *float64 `| @Number`
	Word   *string  `| @Ident`
}

// Keyword returns the upper-cased command name.
func (s *Statement) Keyword() string {
	return strings.ToUpper(s.Command)
}

// IsWord reports whether a is the keyword w, ignoring case.
func (a *Arg) IsWord(w string) bool {
	return a.Word != nil && strings.EqualFold(*a.Word, w)
}
