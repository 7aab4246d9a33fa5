package device

import (
	"math"

	"github.com/nodalsim/spicecore/pkg/matrix"
)

// Diode is the core's sole nonlinear element: a Shockley-equation
// companion model linearized around the previous solution, per spec.md
// §4.2. Grounded on edp1096-toy-spice/pkg/device/diode.go's
// calculateCurrent/calculateConductance, trimmed to the single Is/η/Vt
// parameterization spec.md's element table names (the teacher's junction
// capacitance, breakdown, and series-resistance extensions are device
// models beyond the listed set, excluded by spec.md's Non-goals).
type Diode struct {
	base
	Is  float64
	Eta float64
	Vt  float64
}

func NewDiode(name, n1, n2 string, is, eta, vt float64) *Diode {
	return &Diode{base: base{name: name, kind: "D", nodes: []string{n1, n2}}, Is: is, Eta: eta, Vt: vt}
}

func (d *Diode) IsLinear() bool { return false }

func (d *Diode) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == AC {
		// Diodes do not contribute to the phasor system (spec.md §4.3).
		return nil
	}
	k1, k2 := status.nodeIndex(d.nodes[0]), status.nodeIndex(d.nodes[1])
	vdPrev := status.prevVoltage(d.nodes[0]) - status.prevVoltage(d.nodes[1])

	etaVt := d.Eta * d.Vt
	expArg := vdPrev / etaVt
	const maxExpArg = 80 // exp(80) stays well within float64 range
	if expArg > maxExpArg {
		expArg = maxExpArg
	}
	idPrev := d.Is * (math.Exp(expArg) - 1)
	gd := (d.Is / etaVt) * math.Exp(expArg)
	ieq := idPrev - gd*vdPrev

	stampConductance(m, k1, k2, gd)
	if k1 != 0 {
		m.AddRHS(k1, -ieq)
	}
	if k2 != 0 {
		m.AddRHS(k2, ieq)
	}
	return nil
}
