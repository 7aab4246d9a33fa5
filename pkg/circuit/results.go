package circuit

import (
	"fmt"

	"github.com/nodalsim/spicecore/pkg/device"
	"github.com/nodalsim/spicecore/pkg/matrix"
)

// ExtractResults reads one solved real system into the signal-name map
// spec.md §6 describes: V(<node_key>) for every node, including ground
// (identically 0, per §9's explicit requirement that this trace always
// exist), and I(<name>) for every voltage source, inductor, and resistor.
//
// Branch currents are read directly off the solution vector with no sign
// flip: the worked examples of spec.md §8 (e.g. the resistive divider's
// I(V1) = -3.333e-3) match the raw branch unknown as stamped by
// stampBranchIncidence, not its negation — a divergence from the
// teacher's CircuitMatrix-level `-solution[idx]` convention in
// edp1096-toy-spice/pkg/circuit/circuit.go's GetSolution, which this core
// does not reproduce.
func (c *Circuit) ExtractResults(ix Index, m *matrix.CircuitMatrix) map[string]float64 {
	return c.ExtractResultsFromSolution(ix, m.Solution())
}

// ExtractResultsFromSolution is ExtractResults' logic applied to an
// already-unpacked solution vector, for callers (the operating-point
// driver's Gmin/source-stepping fallbacks) that only hold a raw []float64
// and not the *matrix.CircuitMatrix it came from.
func (c *Circuit) ExtractResultsFromSolution(ix Index, sol []float64) map[string]float64 {
	out := make(map[string]float64, len(c.nodes)+ix.NumV+ix.NumL)

	for key := range c.nodes {
		v := 0.0
		if idx := ix.NodeIndex[key]; idx > 0 && idx < len(sol) {
			v = sol[idx]
		}
		out[fmt.Sprintf("V(%s)", key)] = v
	}

	for _, d := range c.elements {
		switch dev := d.(type) {
		case *device.VSource:
			if kV, ok := ix.BranchIndex[dev.Name()]; ok && kV < len(sol) {
				out[fmt.Sprintf("I(%s)", dev.Name())] = sol[kV]
			}
		case *device.Inductor:
			if kL, ok := ix.BranchIndex[dev.Name()]; ok && kL < len(sol) {
				out[fmt.Sprintf("I(%s)", dev.Name())] = sol[kL]
			}
		case *device.Resistor:
			n1, n2 := dev.Nodes()[0], dev.Nodes()[1]
			v1, v2 := nodeVoltage(ix, sol, n1), nodeVoltage(ix, sol, n2)
			current := 0.0
			if dev.R != 0 {
				current = (v1 - v2) / dev.R
			}
			out[fmt.Sprintf("I(%s)", dev.Name())] = current
		}
	}
	return out
}

func nodeVoltage(ix Index, sol []float64, key string) float64 {
	idx, ok := ix.NodeIndex[key]
	if !ok || idx <= 0 || idx >= len(sol) {
		return 0
	}
	return sol[idx]
}

// ExtractACResults reads one solved complex system into a V(<node>) →
// complex-voltage map, per spec.md §4.7 ("record each non-ground node's
// complex voltage"), keyed the same way ExtractResultsFromSolution keys
// its DC/transient node voltages.
func (c *Circuit) ExtractACResults(ix Index, m *matrix.CircuitMatrix) map[string]complex128 {
	out := make(map[string]complex128, ix.NumNodes)
	for key, idx := range ix.NodeIndex {
		re, im := m.GetComplexSolution(idx)
		out[fmt.Sprintf("V(%s)", key)] = complex(re, im)
	}
	return out
}

// ZeroResistanceResistors returns the names of every resistor whose value
// is exactly 0, for the transient driver's pre-march diagnostic
// (spec.md §4.5: "a zero-resistance resistor yields zero current and a
// diagnostic").
func (c *Circuit) ZeroResistanceResistors() []string {
	var names []string
	for _, d := range c.elements {
		if r, ok := d.(*device.Resistor); ok && r.R == 0 {
			names = append(names, r.Name())
		}
	}
	return names
}
