// Package device defines the circuit elements a netlist can hold. Components
// are immutable values; constructors validate every field so downstream code
// never re-checks them.
package device

import (
	"fmt"
	"math"
	"strings"

	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

type Kind int

const (
	KindResistor Kind = iota + 1
	KindVoltageSource
	KindCurrentSource
	KindGround
)

var kindNames = map[Kind]string{
	KindResistor:      "resistor",
	KindVoltageSource: "voltage_source",
	KindCurrentSource: "current_source",
	KindGround:        "ground",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Symbol is the SPICE element letter.
func (k Kind) Symbol() string {
	switch k {
	case KindResistor:
		return "R"
	case KindVoltageSource:
		return "V"
	case KindCurrentSource:
		return "I"
	case KindGround:
		return "GND"
	}
	return "?"
}

// Unit of the component's value.
func (k Kind) Unit() string {
	switch k {
	case KindResistor:
		return "Ω"
	case KindVoltageSource:
		return "V"
	case KindCurrentSource:
		return "A"
	}
	return ""
}

func (k Kind) IsSource() bool {
	return k == KindVoltageSource || k == KindCurrentSource
}

// ParseKind maps a wire-format type name to its Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, simerr.New(simerr.InvalidComponent, "unknown component type %q", s)
}

const (
	RolePos  = "pos"
	RoleNeg  = "neg"
	RoleNode = "node"
)

type Terminal struct {
	Role string
	Node string
}

// Component is a tagged variant over Kind. The zero value is not a valid
// component; use the New* constructors.
type Component struct {
	id    string
	name  string
	kind  Kind
	value float64
	terms [2]Terminal
	nterm int
}

func (c Component) ID() string     { return c.id }
func (c Component) Name() string   { return c.name }
func (c Component) Kind() Kind     { return c.kind }
func (c Component) Value() float64 { return c.value }

// Pos returns the positive terminal node, or "" for a ground component.
func (c Component) Pos() string {
	if c.nterm != 2 {
		return ""
	}
	return c.terms[0].Node
}

func (c Component) Neg() string {
	if c.nterm != 2 {
		return ""
	}
	return c.terms[1].Node
}

// Node returns the node of a ground component.
func (c Component) Node() string {
	if c.kind != KindGround {
		return ""
	}
	return c.terms[0].Node
}

func (c Component) Terminals() []Terminal {
	out := make([]Terminal, c.nterm)
	copy(out, c.terms[:c.nterm])
	return out
}

// Nodes lists the terminal nodes in terminal order.
func (c Component) Nodes() []string {
	out := make([]string, c.nterm)
	for i := 0; i < c.nterm; i++ {
		out[i] = c.terms[i].Node
	}
	return out
}

// Linear reports whether the component's element equation is linear in the
// unknowns. All kinds defined here are.
func (c Component) Linear() bool {
	switch c.kind {
	case KindResistor, KindVoltageSource, KindCurrentSource, KindGround:
		return true
	}
	return false
}

// WithValue returns a copy of c carrying v, validated as the constructor
// would.
func (c Component) WithValue(v float64) (Component, error) {
	if c.kind == KindGround {
		return Component{}, simerr.New(simerr.InvalidComponent, "ground has no value").WithComponent(c.id)
	}
	if err := checkValue(c.kind, c.id, v); err != nil {
		return Component{}, err
	}
	c.value = v
	return c, nil
}

func (c Component) String() string {
	if c.kind == KindGround {
		return fmt.Sprintf("%s %s(%s)", c.id, c.kind, c.Node())
	}
	return fmt.Sprintf("%s %s(%s,%s)=%g", c.id, c.kind, c.Pos(), c.Neg(), c.value)
}

func newTwoTerminal(kind Kind, id, name, pos, neg string, value float64) (Component, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Component{}, simerr.New(simerr.InvalidComponent, "%s: empty id", kind)
	}
	pos, neg = strings.TrimSpace(pos), strings.TrimSpace(neg)
	if pos == "" || neg == "" {
		return Component{}, simerr.New(simerr.InvalidComponent, "%s needs two nodes", kind).WithComponent(id)
	}
	if pos == neg {
		return Component{}, simerr.New(simerr.InvalidComponent, "both terminals on node %q", pos).
			WithComponent(id).WithNode(pos)
	}
	if err := checkValue(kind, id, value); err != nil {
		return Component{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}
	return Component{
		id:    id,
		name:  name,
		kind:  kind,
		value: value,
		terms: [2]Terminal{{Role: RolePos, Node: pos}, {Role: RoleNeg, Node: neg}},
		nterm: 2,
	}, nil
}

func checkValue(kind Kind, id string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return simerr.New(simerr.InvalidComponent, "%s value %v is not finite", kind, v).WithComponent(id)
	}
	if kind == KindResistor && v <= 0 {
		return simerr.New(simerr.InvalidComponent, "resistance must be positive, got %g", v).WithComponent(id)
	}
	return nil
}
