package netlist

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// NetlistLexer tokenizes SPICE-style element lines and dot commands.
var NetlistLexer = lexer.MustSimple([]lexer.SimpleRule{
	// "*" and ";" run to end of line
	{Name: "Comment", Pattern: `[*;][^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},

	// Dot commands (case-insensitive)
	{Name: "KwOp", Pattern: `(?i)\.op\b`},
	{Name: "KwDC", Pattern: `(?i)\.dc\b`},
	{Name: "KwEnd", Pattern: `(?i)\.end\b`},

	// Numbers with an optional scale suffix or unit: 220, 1.2, 1e3, 10meg, 5V
	{Name: "Number", Pattern: `[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?[a-zA-Z]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})
