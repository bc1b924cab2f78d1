package device

import (
	"strings"

	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

// NewGround declares node as the zero-potential reference.
func NewGround(id, name, node string) (Component, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Component{}, simerr.New(simerr.InvalidComponent, "ground: empty id")
	}
	node = strings.TrimSpace(node)
	if node == "" {
		return Component{}, simerr.New(simerr.InvalidComponent, "ground needs exactly one node").WithComponent(id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = id
	}
	return Component{
		id:    id,
		name:  name,
		kind:  KindGround,
		terms: [2]Terminal{{Role: RoleNode, Node: node}},
		nterm: 1,
	}, nil
}
