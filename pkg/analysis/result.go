package analysis

import (
	"fmt"
	"sort"

	"github.com/DrCloy/web-spice-sub001/pkg/circuit"
	"github.com/DrCloy/web-spice-sub001/pkg/device"
	"github.com/DrCloy/web-spice-sub001/pkg/matrix"
)

// Result is a solved operating point. Voltage-source currents follow the
// MNA branch convention: positive current enters the source at pos.
// Resistor currents flow pos to neg. Current-source currents are the source
// values.
type Result struct {
	CircuitID         string             `json:"circuitId" yaml:"circuitId"`
	Strategy          string             `json:"strategy" yaml:"strategy"`
	Converged         bool               `json:"converged" yaml:"converged"`
	Iterations        int                `json:"iterations" yaml:"iterations"`
	ResidualNorm      float64            `json:"residualNorm" yaml:"residualNorm"`
	UpdateNorm        float64            `json:"updateNorm" yaml:"updateNorm"`
	NodeOrder         []string           `json:"nodeOrder" yaml:"nodeOrder"`
	NodeVoltages      map[string]float64 `json:"nodeVoltages" yaml:"nodeVoltages"`
	BranchCurrents    map[string]float64 `json:"branchCurrents" yaml:"branchCurrents"`
	ComponentCurrents map[string]float64 `json:"componentCurrents" yaml:"componentCurrents"`
}

func newResult(ckt *circuit.Circuit, asm *circuit.Assembly, x matrix.Vector, strategy Strategy, nr *NewtonResult) *Result {
	res := &Result{
		CircuitID:         ckt.ID(),
		Strategy:          strategy.String(),
		Converged:         nr.Converged,
		Iterations:        nr.Iterations,
		ResidualNorm:      nr.ResidualNorm,
		UpdateNorm:        nr.UpdateNorm,
		NodeVoltages:      make(map[string]float64),
		BranchCurrents:    make(map[string]float64, len(asm.Branches)),
		ComponentCurrents: make(map[string]float64),
	}

	for _, n := range ckt.Nodes() {
		res.NodeOrder = append(res.NodeOrder, n.ID)
		if n.Ground {
			res.NodeVoltages[n.ID] = 0
			continue
		}
		res.NodeVoltages[n.ID] = x[asm.NodeIndex[n.ID]]
	}
	for _, id := range asm.Branches {
		res.BranchCurrents[id] = x[asm.BranchIndex[id]]
	}

	for _, comp := range ckt.Components() {
		switch comp.Kind() {
		case device.KindResistor:
			v := res.NodeVoltages[comp.Pos()] - res.NodeVoltages[comp.Neg()]
			res.ComponentCurrents[comp.ID()] = v / comp.Value()
		case device.KindVoltageSource:
			res.ComponentCurrents[comp.ID()] = res.BranchCurrents[comp.ID()]
		case device.KindCurrentSource:
			res.ComponentCurrents[comp.ID()] = comp.Value()
		}
	}
	return res
}

// Voltage returns the potential of node id.
func (r *Result) Voltage(id string) (float64, bool) {
	v, ok := r.NodeVoltages[id]
	return v, ok
}

// Current returns the current through component id.
func (r *Result) Current(id string) (float64, bool) {
	i, ok := r.ComponentCurrents[id]
	return i, ok
}

// Flatten keys every value SPICE style: V(node) and I(component).
func (r *Result) Flatten() map[string]float64 {
	out := make(map[string]float64, len(r.NodeVoltages)+len(r.ComponentCurrents))
	for id, v := range r.NodeVoltages {
		out[fmt.Sprintf("V(%s)", id)] = v
	}
	for id, i := range r.ComponentCurrents {
		out[fmt.Sprintf("I(%s)", id)] = i
	}
	return out
}

// ComponentIDs returns the ids with a reported current, sorted.
func (r *Result) ComponentIDs() []string {
	ids := make([]string, 0, len(r.ComponentCurrents))
	for id := range r.ComponentCurrents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
