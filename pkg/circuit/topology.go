package circuit

import (
	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// dcGraph returns the undirected graph of DC paths between nodes. Graph
// node ids are positions in c.nodes. Resistors and voltage sources form
// edges; a current source does not, since it fixes a current but no
// potential.
func (c *Circuit) dcGraph() *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	pos := make(map[string]int64, len(c.nodes))
	for i, n := range c.nodes {
		pos[n.ID] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for _, comp := range c.components {
		switch comp.Kind() {
		case device.KindResistor, device.KindVoltageSource:
			g.SetEdge(simple.Edge{F: simple.Node(pos[comp.Pos()]), T: simple.Node(pos[comp.Neg()])})
		}
	}
	return g
}

// FloatingNodes returns, in node order, every node with no DC path to
// ground.
func FloatingNodes(c *Circuit) []string {
	g := c.dcGraph()

	var bfs traverse.BreadthFirst
	for i, n := range c.nodes {
		if n.ID == c.ground {
			bfs.Walk(g, simple.Node(i), nil)
			break
		}
	}

	var floating []string
	for i, n := range c.nodes {
		if n.ID != c.ground && !bfs.Visited(simple.Node(i)) {
			floating = append(floating, n.ID)
		}
	}
	return floating
}

// CheckConnectivity fails with FLOATING_NODE naming the first node that has
// no DC path to ground.
func CheckConnectivity(c *Circuit) error {
	floating := FloatingNodes(c)
	if len(floating) == 0 {
		return nil
	}
	return simerr.New(simerr.FloatingNode, "%d node(s) have no DC path to ground %q", len(floating), c.ground).
		WithNode(floating[0])
}
