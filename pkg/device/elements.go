package device

import (
	"math"

	"github.com/nodalsim/spicecore/pkg/matrix"
)

// Resistor stamps a fixed conductance between its two terminals. Grounded
// on edp1096-toy-spice/pkg/device/resistor.go's Stamp, stripped of the
// temperature-coefficient extension that spec.md's element table does not
// carry (Tc1/Tc2/Tnom are a teacher-only enrichment this core does not need).
type Resistor struct {
	base
	R float64
}

func NewResistor(name, n1, n2 string, r float64) *Resistor {
	return &Resistor{base: base{name: name, kind: "R", nodes: []string{n1, n2}}, R: r}
}

func (r *Resistor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	k1, k2 := status.nodeIndex(r.nodes[0]), status.nodeIndex(r.nodes[1])
	g := 1.0 / r.R

	if status.Mode == AC {
		stampConductanceComplex(m, k1, k2, g, 0)
		return nil
	}
	stampConductance(m, k1, k2, g)
	return nil
}

// Capacitor is an open circuit in DC, a backward-Euler companion
// conductance gC=C/Δt plus an equivalent current source in transient, and
// an admittance jωC in AC. Grounded on
// edp1096-toy-spice/pkg/device/capacitor.go's Stamp.
type Capacitor struct {
	base
	C float64
}

func NewCapacitor(name, n1, n2 string, c float64) *Capacitor {
	return &Capacitor{base: base{name: name, kind: "C", nodes: []string{n1, n2}}, C: c}
}

func (c *Capacitor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	k1, k2 := status.nodeIndex(c.nodes[0]), status.nodeIndex(c.nodes[1])

	switch status.Mode {
	case AC:
		omega := 2 * math.Pi * status.Frequency
		stampConductanceComplex(m, k1, k2, 0, omega*c.C)
	case Transient:
		if status.TimeStep <= 0 {
			return nil
		}
		geq := c.C / status.TimeStep
		vPrev := status.prevVoltage(c.nodes[0]) - status.prevVoltage(c.nodes[1])
		ieq := geq * vPrev
		stampConductance(m, k1, k2, geq)
		if k1 != 0 {
			m.AddRHS(k1, ieq)
		}
		if k2 != 0 {
			m.AddRHS(k2, -ieq)
		}
	case DC:
		// open circuit: no contribution.
	}
	return nil
}

// Inductor always owns a branch-current unknown. DC: short (vL=0). In
// transient, backward-Euler: vL − (L/Δt)·jL = −(L/Δt)·jL_prev. In AC:
// admittance 1/(jωL), with a large-finite fallback near ω=0. Grounded on
// edp1096-toy-spice/pkg/device/inductor.go's Stamp, replacing its
// util.GetIntegratorCoeffs (higher-order BDF table) with the fixed
// backward-Euler coefficient L/Δt spec.md §4.2 specifies.
type Inductor struct {
	base
	L float64
}

func NewInductor(name, n1, n2 string, l float64) *Inductor {
	return &Inductor{base: base{name: name, kind: "L", nodes: []string{n1, n2}}, L: l}
}

func (l *Inductor) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	k1, k2 := status.nodeIndex(l.nodes[0]), status.nodeIndex(l.nodes[1])
	kL := status.BranchIndex[l.name]

	if status.Mode == AC {
		omega := 2 * math.Pi * status.Frequency
		var g, b float64 // admittance 1/(jωL) = -j/(ωL)
		const omegaFloor = 1e-9
		if omega < omegaFloor {
			g = 1e12
		} else {
			b = -1.0 / (omega * l.L)
		}
		stampConductanceComplex(m, k1, k2, g, b)
		return nil
	}

	stampBranchIncidence(m, k1, k2, kL)

	if status.Mode == Transient && status.TimeStep > 0 {
		geqInv := l.L / status.TimeStep
		m.AddElement(kL, kL, -geqInv)
		jPrev := status.prevCurrent(l.name)
		m.AddRHS(kL, -geqInv*jPrev)
	}
	// DC: branch equation is simply vL = 0 (already satisfied by the
	// incidence stamp above with no additional diagonal term).
	return nil
}

func (l *Inductor) BranchName() string { return l.name }

// stampConductance adds the ±g two-terminal admittance pattern common to
// resistors and the capacitor's backward-Euler companion.
func stampConductance(m matrix.DeviceMatrix, k1, k2 int, g float64) {
	if k1 != 0 {
		m.AddElement(k1, k1, g)
		if k2 != 0 {
			m.AddElement(k1, k2, -g)
		}
	}
	if k2 != 0 {
		if k1 != 0 {
			m.AddElement(k2, k1, -g)
		}
		m.AddElement(k2, k2, g)
	}
}

func stampConductanceComplex(m matrix.DeviceMatrix, k1, k2 int, re, im float64) {
	if k1 != 0 {
		m.AddComplexElement(k1, k1, re, im)
		if k2 != 0 {
			m.AddComplexElement(k1, k2, -re, -im)
		}
	}
	if k2 != 0 {
		if k1 != 0 {
			m.AddComplexElement(k2, k1, -re, -im)
		}
		m.AddComplexElement(k2, k2, re, im)
	}
}

// stampBranchIncidence writes the ±1 incidence pattern shared by every
// branch-unknown-owning element (voltage sources, inductors, VCVS, CCVS).
func stampBranchIncidence(m matrix.DeviceMatrix, k1, k2, kBranch int) {
	if k1 != 0 {
		m.AddElement(k1, kBranch, 1)
		m.AddElement(kBranch, k1, 1)
	}
	if k2 != 0 {
		m.AddElement(k2, kBranch, -1)
		m.AddElement(kBranch, k2, -1)
	}
}

func stampBranchIncidenceComplex(m matrix.DeviceMatrix, k1, k2, kBranch int) {
	if k1 != 0 {
		m.AddComplexElement(k1, kBranch, 1, 0)
		m.AddComplexElement(kBranch, k1, 1, 0)
	}
	if k2 != 0 {
		m.AddComplexElement(k2, kBranch, -1, 0)
		m.AddComplexElement(kBranch, k2, -1, 0)
	}
}
