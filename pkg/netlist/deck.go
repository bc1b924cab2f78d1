package netlist

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DrCloy/web-spice-sub001/internal/consts"
	"github.com/DrCloy/web-spice-sub001/pkg/analysis"
	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/google/uuid"
)

// deckLexer tokenizes everything after the title line. A line starting
// with "+" continues the previous one; "*" and ";" start comments.
var deckLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Continuation", Pattern: `\r?\n[ \t]*\+`},
	{Name: "EOL", Pattern: `\r?\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Comment", Pattern: `[*;][^\r\n]*`},
	{Name: "Directive", Pattern: `\.[A-Za-z]+`},
	{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?[A-Za-z]*`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[=(),]`},
})

type deckFile struct {
	Lines []*deckLine `( @@ | EOL )*`
}

type deckLine struct {
	Pos lexer.Position

	Directive *deckDirective `  @@`
	Element   *deckElement   `| @@`
}

type deckDirective struct {
	Name string   `@Directive`
	Args []string `@( Ident | Number | Punct )*`
}

type deckElement struct {
	Name   string   `@Ident`
	Fields []string `@( Ident | Number | Punct )*`
}

var deckParser = participle.MustBuild[deckFile](
	participle.Lexer(deckLexer),
	participle.Elide("Comment", "Whitespace", "Continuation"),
	participle.UseLookahead(2),
)

type AnalysisType int

const (
	AnalysisOP AnalysisType = iota
	AnalysisDC
)

func (a AnalysisType) String() string {
	switch a {
	case AnalysisOP:
		return "op"
	case AnalysisDC:
		return "dc"
	}
	return fmt.Sprintf("AnalysisType(%d)", int(a))
}

// Command is one analysis requested by a deck, in deck order.
type Command struct {
	Type   AnalysisType
	Sweeps []analysis.Sweep // AnalysisDC only, first sweep outermost
}

type Deck struct {
	Title    string
	Circuit  *circuit.Circuit
	Commands []Command
}

// ParseDeck reads a SPICE deck. The first line is the title. Node "gnd" is
// an alias of "0"; a ground component is added when any element touches it.
func ParseDeck(r io.Reader) (*Deck, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading deck: %w", err)
	}
	return ParseDeckString(string(data))
}

func ParseDeckString(input string) (*Deck, error) {
	title, body, _ := strings.Cut(input, "\n")
	title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(title), "*"))

	ast, err := deckParser.ParseString("", body)
	if err != nil {
		var perr participle.Error
		if errors.As(err, &perr) {
			return nil, simerr.Wrap(simerr.ParseError, err, "line %d: %s", perr.Position().Line+1, perr.Message())
		}
		return nil, simerr.Wrap(simerr.ParseError, err, "invalid deck")
	}

	deck := &Deck{Title: title}
	var comps []device.Component
	usesGround := false

lines:
	for _, line := range ast.Lines {
		lineNo := line.Pos.Line + 1
		switch {
		case line.Directive != nil:
			name := strings.ToLower(line.Directive.Name)
			if name == ".end" {
				break lines
			}
			cmd, err := parseDirective(name, line.Directive.Args)
			if err != nil {
				return nil, lineError(lineNo, err)
			}
			deck.Commands = append(deck.Commands, cmd)

		case line.Element != nil:
			comp, err := parseElement(line.Element)
			if err != nil {
				return nil, lineError(lineNo, err)
			}
			for _, n := range comp.Nodes() {
				if n == consts.DefaultGroundNode {
					usesGround = true
				}
			}
			comps = append(comps, comp)
		}
	}

	if usesGround {
		gnd, err := device.NewGround(consts.GroundComponentID, "ground", consts.DefaultGroundNode)
		if err != nil {
			return nil, err
		}
		comps = append(comps, gnd)
	}

	ckt, err := circuit.New(uuid.NewString(), title, comps)
	if err != nil {
		return nil, err
	}
	deck.Circuit = ckt
	return deck, nil
}

func lineError(line int, err error) error {
	if e, ok := simerr.As(err); ok {
		c := *e
		c.Message = fmt.Sprintf("line %d: %s", line, e.Message)
		return &c
	}
	return simerr.Wrap(simerr.ParseError, err, "line %d", line)
}

func normalizeNode(n string) string {
	if strings.EqualFold(n, consts.GroundAlias) {
		return consts.DefaultGroundNode
	}
	return n
}

func parseElement(el *deckElement) (device.Component, error) {
	name := el.Name
	fields := el.Fields

	switch strings.ToUpper(name[:1]) {
	case "R":
		if len(fields) != 3 {
			return device.Component{}, simerr.New(simerr.ParseError, "resistor needs 2 nodes and a value").WithComponent(name)
		}
		value, err := ParseValue(fields[2])
		if err != nil {
			return device.Component{}, withComponent(err, name)
		}
		return device.NewResistor(name, name, normalizeNode(fields[0]), normalizeNode(fields[1]), value)

	case "V", "I":
		if len(fields) < 3 {
			return device.Component{}, simerr.New(simerr.ParseError, "source needs 2 nodes and a value").WithComponent(name)
		}
		value, err := parseSourceValue(name, fields[2:])
		if err != nil {
			return device.Component{}, err
		}
		pos, neg := normalizeNode(fields[0]), normalizeNode(fields[1])
		if strings.EqualFold(name[:1], "V") {
			return device.NewVoltageSource(name, name, pos, neg, value)
		}
		return device.NewCurrentSource(name, name, pos, neg, value)
	}

	return device.Component{}, simerr.New(simerr.InvalidComponent, "unsupported element type %q", name[:1]).WithComponent(name)
}

// parseSourceValue accepts "<value>" or "DC <value>".
func parseSourceValue(name string, words []string) (float64, error) {
	kind := strings.ToUpper(words[0])
	switch kind {
	case "DC":
		words = words[1:]
	case "SIN", "PULSE", "PWL", "AC", "EXP", "SFFM":
		return 0, simerr.New(simerr.InvalidComponent, "%s sources are not supported, only DC", kind).WithComponent(name)
	}
	if len(words) != 1 {
		return 0, simerr.New(simerr.ParseError, "expected a single DC value").WithComponent(name)
	}
	value, err := ParseValue(words[0])
	if err != nil {
		return 0, withComponent(err, name)
	}
	return value, nil
}

func withComponent(err error, id string) error {
	if e, ok := simerr.As(err); ok {
		return e.WithComponent(id)
	}
	return err
}

func parseDirective(name string, args []string) (Command, error) {
	switch name {
	case ".op":
		return Command{Type: AnalysisOP}, nil

	case ".dc":
		if len(args) != 4 && len(args) != 8 {
			return Command{}, simerr.New(simerr.ParseError, ".dc needs SRC START STOP STEP [SRC2 START2 STOP2 STEP2]")
		}
		cmd := Command{Type: AnalysisDC}
		for i := 0; i < len(args); i += 4 {
			sw := analysis.Sweep{Source: args[i]}
			vals := make([]float64, 3)
			for k := range vals {
				v, err := ParseValue(args[i+1+k])
				if err != nil {
					return Command{}, err
				}
				vals[k] = v
			}
			sw.Start, sw.Stop, sw.Step = vals[0], vals[1], vals[2]
			cmd.Sweeps = append(cmd.Sweeps, sw)
		}
		return cmd, nil
	}

	return Command{}, simerr.New(simerr.ParseError, "unsupported directive %s", name)
}
