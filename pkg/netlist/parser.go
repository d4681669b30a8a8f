package netlist

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/edp1096/toy-dcop/pkg/circuit"
	"github.com/edp1096/toy-dcop/pkg/device"
)

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisDC
)

func (a AnalysisType) String() string {
	if a == AnalysisDC {
		return "DC"
	}
	return "OP"
}

type NetlistData struct {
	Title    string
	Elements []Element
	Analysis AnalysisType // last analysis command seen, OP by default
	DCParam  struct {
		Source    string
		Start     float64
		Stop      float64
		Increment float64
	}
}

type Element struct {
	Kind  device.Kind
	Name  string
	P, Q  int
	Value float64
}

func (e Element) Placed() device.Placed {
	var c device.Component
	switch e.Kind {
	case device.KindVoltage:
		c = device.Voltage{V: e.Value}
	case device.KindResistor:
		c = device.Resistor{R: e.Value}
	case device.KindDiode:
		c = device.Diode{Vd: e.Value}
	}
	return device.Placed{Name: e.Name, C: c, P: e.P, Q: e.Q}
}

// Circuit builds the circuit in element order.
func (nd *NetlistData) Circuit() *circuit.Circuit {
	ckt := circuit.New(nd.Title)
	for _, e := range nd.Elements {
		ckt.Add(e.Placed())
	}
	return ckt
}

var unitMap = map[string]float64{
	"t":   1e12,  // tera
	"g":   1e9,   // giga
	"meg": 1e6,   // mega
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var valuePattern = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)([a-zA-Z]*)$`)

// ParseValue reads a number with an optional SPICE scale suffix.
// Suffixes are case-insensitive ("M" is milli, "MEG" is mega); letters after
// the scale, or a bare unit such as "V", are ignored.
func ParseValue(val string) (float64, error) {
	matches := valuePattern.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("invalid value format: %q", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value format: %q: %w", val, err)
	}

	suffix := strings.ToLower(matches[2])
	switch {
	case strings.HasPrefix(suffix, "meg"):
		num *= unitMap["meg"]
	case suffix != "":
		if multiplier, ok := unitMap[suffix[:1]]; ok {
			num *= multiplier
		}
	}

	return num, nil
}

// ParseNode reads a node id: a non-negative integer, or "gnd" for node 0.
func ParseNode(s string) (int, error) {
	if strings.EqualFold(s, "gnd") {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid node %q: must be a non-negative integer or gnd", s)
	}
	return n, nil
}

func kindOf(name string) (device.Kind, error) {
	switch strings.ToUpper(name[:1]) {
	case "V":
		return device.KindVoltage, nil
	case "R":
		return device.KindResistor, nil
	case "D":
		return device.KindDiode, nil
	}
	return 0, fmt.Errorf("unsupported element %s", name)
}

// Parser reads netlists.
type Parser struct {
	parser *participle.Parser[File]
}

func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(NetlistLexer),
		participle.Elide("Comment", "Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// ParseString parses input. name is used in error positions.
func (p *Parser) ParseString(name, input string) (*NetlistData, error) {
	file, err := p.parser.ParseString(name, input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	nd, err := build(file)
	if err != nil {
		return nil, err
	}
	nd.Title = title(input)
	return nd, nil
}

func (p *Parser) Parse(name string, r io.Reader) (*NetlistData, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading netlist: %w", err)
	}
	return p.ParseString(name, string(content))
}

func (p *Parser) ParseFile(filename string) (*NetlistData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(filename, file)
}

// Parse parses a netlist held in a string.
func Parse(input string) (*NetlistData, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	return p.ParseString("", input)
}

// title is the text of a leading "*" comment line, if any.
func title(input string) string {
	first, _, _ := strings.Cut(strings.TrimLeft(input, " \t\r\n"), "\n")
	if !strings.HasPrefix(first, "*") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(first, "*"))
}

func build(file *File) (*NetlistData, error) {
	nd := &NetlistData{Analysis: AnalysisOP}
	seen := make(map[string]lexer.Position)

	for _, st := range file.Statements {
		switch {
		case st.OP:
			nd.Analysis = AnalysisOP

		case st.DC != nil:
			if err := buildDC(nd, st.DC); err != nil {
				return nil, fmt.Errorf("%s: %w", st.Pos, err)
			}
			nd.Analysis = AnalysisDC

		case st.Element != nil:
			elem, err := buildElement(st.Element)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", st.Pos, err)
			}
			key := strings.ToUpper(elem.Name)
			if prev, dup := seen[key]; dup {
				return nil, fmt.Errorf("%s: duplicate element %s (first defined at %s)", st.Pos, elem.Name, prev)
			}
			seen[key] = st.Pos
			nd.Elements = append(nd.Elements, elem)
		}
	}

	return nd, nil
}

func buildElement(line *ElementLine) (Element, error) {
	var err error
	elem := Element{Name: line.Name}

	if elem.Kind, err = kindOf(line.Name); err != nil {
		return elem, err
	}
	if elem.P, err = ParseNode(line.P); err != nil {
		return elem, fmt.Errorf("%s: %w", line.Name, err)
	}
	if elem.Q, err = ParseNode(line.Q); err != nil {
		return elem, fmt.Errorf("%s: %w", line.Name, err)
	}
	if elem.Value, err = ParseValue(line.Value); err != nil {
		return elem, fmt.Errorf("%s: %w", line.Name, err)
	}
	return elem, nil
}

func buildDC(nd *NetlistData, cmd *DCCommand) error {
	var err error

	nd.DCParam.Source = cmd.Source
	if nd.DCParam.Start, err = ParseValue(cmd.Start); err != nil {
		return fmt.Errorf("invalid dc start: %w", err)
	}
	if nd.DCParam.Stop, err = ParseValue(cmd.Stop); err != nil {
		return fmt.Errorf("invalid dc stop: %w", err)
	}
	if nd.DCParam.Increment, err = ParseValue(cmd.Step); err != nil {
		return fmt.Errorf("invalid dc step: %w", err)
	}
	return nil
}
