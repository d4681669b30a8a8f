package netlist

import "github.com/alecthomas/participle/v2/lexer"

// File is a whole netlist: statements up to an optional .end.
type File struct {
	Statements []*Statement `@@*`
	End        bool         `( @KwEnd )?`
}

type Statement struct {
	Pos lexer.Position

	OP      bool         `  @KwOp`
	DC      *DCCommand   `| KwDC @@`
	Element *ElementLine `| @@`
}

// DCCommand is ".dc <source> <start> <stop> <step>".
type DCCommand struct {
	Source string `@Ident`
	Start  string `@Number`
	Stop   string `@Number`
	Step   string `@Number`
}

// ElementLine is "<name> <p> <q> <value>". The first letter of the name
// selects the component kind.
type ElementLine struct {
	Name  string `@Ident`
	P     string `@( Number | Ident )`
	Q     string `@( Number | Ident )`
	Value string `@Number`
}
