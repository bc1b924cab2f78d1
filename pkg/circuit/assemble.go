package circuit

import (
	"fmt"

	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/matrix"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

// Assembly is the MNA system A·x = B for a circuit. Node-voltage unknowns
// come first in node order, followed by one branch current per voltage
// source in component order.
type Assembly struct {
	A           *matrix.Dense
	B           matrix.Vector
	NodeIndex   map[string]int
	BranchIndex map[string]int
	Nodes       []string
	Branches    []string
}

func (a *Assembly) Size() int { return len(a.B) }

// Unknowns labels every unknown as V(node) or I(source).
func (a *Assembly) Unknowns() []string {
	labels := make([]string, 0, len(a.Nodes)+len(a.Branches))
	for _, n := range a.Nodes {
		labels = append(labels, fmt.Sprintf("V(%s)", n))
	}
	for _, b := range a.Branches {
		labels = append(labels, fmt.Sprintf("I(%s)", b))
	}
	return labels
}

// System exposes the assembled matrix for printing. The returned value
// shares storage with the assembly.
func (a *Assembly) System() *matrix.System {
	return &matrix.System{A: a.A, B: a.B}
}

type stampContext struct {
	node   func(id string) int // -1 for ground
	branch int                 // branch unknown of a voltage source, -1 otherwise
}

type stampFunc func(s matrix.Stamper, c device.Component, ctx stampContext)

var stamps = map[device.Kind]stampFunc{
	device.KindResistor:      stampResistor,
	device.KindVoltageSource: stampVoltageSource,
	device.KindCurrentSource: stampCurrentSource,
	device.KindGround:        func(matrix.Stamper, device.Component, stampContext) {},
}

// Assemble builds the MNA system of c. Contributions to the same entry
// accumulate; rows and columns of the ground node do not exist.
func Assemble(c *Circuit) (*Assembly, error) {
	if !c.hasGroundComponent() {
		return nil, simerr.New(simerr.NoGround, "no ground component declares node %q", c.ground).WithNode(c.ground)
	}

	asm := &Assembly{
		NodeIndex:   make(map[string]int, len(c.unknowns)),
		BranchIndex: make(map[string]int),
		Nodes:       c.UnknownNodes(),
	}
	for id, i := range c.nodeIndex {
		asm.NodeIndex[id] = i
	}
	next := len(c.unknowns)
	for _, comp := range c.components {
		if comp.Kind() == device.KindVoltageSource {
			asm.BranchIndex[comp.ID()] = next
			asm.Branches = append(asm.Branches, comp.ID())
			next++
		}
	}

	sys := matrix.NewSystem(next)
	nodeOf := func(id string) int {
		if i, ok := c.nodeIndex[id]; ok {
			return i
		}
		return -1
	}
	for _, comp := range c.components {
		stamp, ok := stamps[comp.Kind()]
		if !ok {
			return nil, simerr.New(simerr.InvalidCircuit, "no stamp for component type %s", comp.Kind()).WithComponent(comp.ID())
		}
		ctx := stampContext{node: nodeOf, branch: -1}
		if b, ok := asm.BranchIndex[comp.ID()]; ok {
			ctx.branch = b
		}
		stamp(sys, comp, ctx)
	}

	asm.A, asm.B = sys.A, sys.B
	return asm, nil
}

func (c *Circuit) hasGroundComponent() bool {
	for _, comp := range c.components {
		if comp.Kind() == device.KindGround && comp.Node() == c.ground {
			return true
		}
	}
	return false
}

func stampResistor(s matrix.Stamper, r device.Component, ctx stampContext) {
	n1, n2 := ctx.node(r.Pos()), ctx.node(r.Neg())
	g := r.Conductance()

	if n1 >= 0 {
		s.AddElement(n1, n1, g)
		if n2 >= 0 {
			s.AddElement(n1, n2, -g)
		}
	}
	if n2 >= 0 {
		if n1 >= 0 {
			s.AddElement(n2, n1, -g)
		}
		s.AddElement(n2, n2, g)
	}
}

// Positive current enters pos from the circuit, so it leaves node pos and is
// injected into node neg.
func stampCurrentSource(s matrix.Stamper, i device.Component, ctx stampContext) {
	n1, n2 := ctx.node(i.Pos()), ctx.node(i.Neg())
	current := i.Value()

	if n1 >= 0 {
		s.AddRHS(n1, -current)
	}
	if n2 >= 0 {
		s.AddRHS(n2, current)
	}
}

// v(pos) - v(neg) = V
func stampVoltageSource(s matrix.Stamper, v device.Component, ctx stampContext) {
	n1, n2 := ctx.node(v.Pos()), ctx.node(v.Neg())
	b := ctx.branch

	if n1 >= 0 {
		s.AddElement(b, n1, 1)
		s.AddElement(n1, b, 1)
	}
	if n2 >= 0 {
		s.AddElement(b, n2, -1)
		s.AddElement(n2, b, -1)
	}
	s.AddRHS(b, v.Value())
}
