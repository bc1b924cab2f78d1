// Package circuit holds the immutable circuit graph and translates it into
// Modified Nodal Analysis equations.
package circuit

import (
	"strings"

	"github.com/DrCloy/web-spice-sub001/internal/consts"
	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

// Node is a junction in the circuit. Components lists the ids of every
// component with a terminal on it, in component order.
type Node struct {
	ID         string
	Ground     bool
	Components []string
}

// Circuit is built once by New and never modified afterwards, so it may be
// shared between concurrent solves.
type Circuit struct {
	id          string
	name        string
	description string
	ground      string
	components  []device.Component
	nodes       []Node
	nodeIndex   map[string]int // non-ground node id -> unknown index
	unknowns    []string
}

type Option func(*Circuit)

// WithGround overrides the designated ground node id (default "0").
func WithGround(id string) Option {
	return func(c *Circuit) {
		c.ground = strings.TrimSpace(id)
	}
}

func WithDescription(desc string) Option {
	return func(c *Circuit) {
		c.description = desc
	}
}

// New validates the component list and derives the node set. Nodes are
// ordered by first appearance across components, terminal order within a
// component; every node except ground gets the next unknown index.
func New(id, name string, components []device.Component, opts ...Option) (*Circuit, error) {
	c := &Circuit{
		id:     strings.TrimSpace(id),
		name:   strings.TrimSpace(name),
		ground: consts.DefaultGroundNode,
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(components) == 0 {
		return nil, simerr.New(simerr.InvalidCircuit, "circuit has no components")
	}
	if c.ground == "" {
		return nil, simerr.New(simerr.InvalidCircuit, "empty ground node id")
	}

	seen := make(map[string]bool, len(components))
	for i, comp := range components {
		if comp.Kind() == 0 || comp.ID() == "" {
			return nil, simerr.New(simerr.InvalidCircuit, "component %d was not built by a device constructor", i)
		}
		if seen[comp.ID()] {
			return nil, simerr.New(simerr.InvalidCircuit, "duplicate component id").WithComponent(comp.ID())
		}
		seen[comp.ID()] = true
	}

	c.components = make([]device.Component, len(components))
	copy(c.components, components)
	c.buildNodes()
	return c, nil
}

func (c *Circuit) buildNodes() {
	pos := make(map[string]int)
	c.nodeIndex = make(map[string]int)
	c.nodes = nil
	c.unknowns = nil

	for _, comp := range c.components {
		for _, n := range comp.Nodes() {
			i, ok := pos[n]
			if !ok {
				i = len(c.nodes)
				pos[n] = i
				c.nodes = append(c.nodes, Node{ID: n, Ground: n == c.ground})
				if n != c.ground {
					c.nodeIndex[n] = len(c.unknowns)
					c.unknowns = append(c.unknowns, n)
				}
			}
			node := &c.nodes[i]
			if k := len(node.Components); k == 0 || node.Components[k-1] != comp.ID() {
				node.Components = append(node.Components, comp.ID())
			}
		}
	}
}

func (c *Circuit) ID() string          { return c.id }
func (c *Circuit) Name() string        { return c.name }
func (c *Circuit) Description() string { return c.description }

// Ground returns the designated ground node id.
func (c *Circuit) Ground() string { return c.ground }

// NumUnknowns returns the number of node-voltage unknowns, i.e. non-ground
// nodes. Voltage-source branch currents are added by Assemble.
func (c *Circuit) NumUnknowns() int { return len(c.unknowns) }

// NodeIndex returns the unknown index of a non-ground node.
func (c *Circuit) NodeIndex(id string) (int, bool) {
	i, ok := c.nodeIndex[id]
	return i, ok
}

// UnknownNodes lists non-ground node ids in index order.
func (c *Circuit) UnknownNodes() []string {
	out := make([]string, len(c.unknowns))
	copy(out, c.unknowns)
	return out
}

// Nodes lists every node, ground included, in first-seen order.
func (c *Circuit) Nodes() []Node {
	out := make([]Node, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = Node{ID: n.ID, Ground: n.Ground, Components: append([]string(nil), n.Components...)}
	}
	return out
}

func (c *Circuit) Components() []device.Component {
	out := make([]device.Component, len(c.components))
	copy(out, c.components)
	return out
}

func (c *Circuit) Component(id string) (device.Component, bool) {
	for _, comp := range c.components {
		if comp.ID() == id {
			return comp, true
		}
	}
	return device.Component{}, false
}

// Linear reports whether every component has a linear element equation.
func (c *Circuit) Linear() bool {
	for _, comp := range c.components {
		if !comp.Linear() {
			return false
		}
	}
	return true
}

// WithSourceValue returns a copy of c with the value of source id replaced.
// The receiver is not modified.
func (c *Circuit) WithSourceValue(id string, value float64) (*Circuit, error) {
	for i, comp := range c.components {
		if comp.ID() != id {
			continue
		}
		if !comp.Kind().IsSource() {
			return nil, simerr.New(simerr.InvalidParameter, "%s is not an independent source", comp.Kind()).WithComponent(id)
		}
		updated, err := comp.WithValue(value)
		if err != nil {
			return nil, err
		}

		next := *c
		next.components = make([]device.Component, len(c.components))
		copy(next.components, c.components)
		next.components[i] = updated
		return &next, nil
	}
	return nil, simerr.New(simerr.InvalidParameter, "no such component").WithComponent(id)
}
