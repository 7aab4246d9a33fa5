package device

import "github.com/nodalsim/spicecore/pkg/matrix"

// VCVS is a voltage-controlled voltage source: branch equation
// vn1 − vn2 − μ·(vc1 − vc2) = 0. Owns a branch-current unknown. Grounded
// on spec.md §4.2's VCVS stamping rule — the teacher has no controlled
// sources, so this is built directly from the spec/original_source
// (original_source/Element.h names this pattern generically via
// contributeToMNA for "dependent sources").
type VCVS struct {
	base
	Gain float64 // μ
	Ctrl [2]string
}

func NewVCVS(name, n1, n2, cn1, cn2 string, gain float64) *VCVS {
	return &VCVS{base: base{name: name, kind: "E", nodes: []string{n1, n2, cn1, cn2}}, Gain: gain, Ctrl: [2]string{cn1, cn2}}
}

func (e *VCVS) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == AC {
		// Dependent sources do not contribute to the phasor system
		// (spec.md §4.3); VCVS owns no branch row in the AC index.
		return nil
	}
	k1, k2 := status.nodeIndex(e.nodes[0]), status.nodeIndex(e.nodes[1])
	kc1, kc2 := status.nodeIndex(e.Ctrl[0]), status.nodeIndex(e.Ctrl[1])
	kV := status.BranchIndex[e.name]

	stampBranchIncidence(m, k1, k2, kV)
	if kc1 != 0 {
		m.AddElement(kV, kc1, -e.Gain)
	}
	if kc2 != 0 {
		m.AddElement(kV, kc2, e.Gain)
	}
	return nil
}

func (e *VCVS) BranchName() string { return e.name }

func (e *VCVS) RenameNodeRef(old, newKey string) {
	e.base.RenameNodeRef(old, newKey)
	for i, n := range e.Ctrl {
		if n == old {
			e.Ctrl[i] = newKey
		}
	}
}

// VCCS is a voltage-controlled current source: current gm·(vc1 − vc2)
// flows from n1 to n2. Owns no branch unknown. Per spec.md §9's open
// question, stamped here into A (the standard MNA form) rather than into
// b the way the original source's inconsistent implementation does;
// tests are written against KCL, which this form satisfies.
type VCCS struct {
	base
	Gm   float64
	Ctrl [2]string
}

func NewVCCS(name, n1, n2, cn1, cn2 string, gm float64) *VCCS {
	return &VCCS{base: base{name: name, kind: "G", nodes: []string{n1, n2, cn1, cn2}}, Gm: gm, Ctrl: [2]string{cn1, cn2}}
}

func (g *VCCS) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == AC {
		// Dependent sources do not contribute to the phasor system.
		return nil
	}
	k1, k2 := status.nodeIndex(g.nodes[0]), status.nodeIndex(g.nodes[1])
	kc1, kc2 := status.nodeIndex(g.Ctrl[0]), status.nodeIndex(g.Ctrl[1])

	add := func(i, j int, v float64) {
		if i == 0 || j == 0 {
			return
		}
		m.AddElement(i, j, v)
	}

	add(k1, kc1, g.Gm)
	add(k1, kc2, -g.Gm)
	add(k2, kc1, -g.Gm)
	add(k2, kc2, g.Gm)
	return nil
}

func (g *VCCS) RenameNodeRef(old, newKey string) {
	g.base.RenameNodeRef(old, newKey)
	for i, n := range g.Ctrl {
		if n == old {
			g.Ctrl[i] = newKey
		}
	}
}

// CCCS is a current-controlled current source: current β·jb flows from n1
// to n2, where jb is the current through controlling branch b. Owns no
// branch unknown of its own.
type CCCS struct {
	base
	Gain    float64
	Control string
}

func NewCCCS(name, n1, n2, control string, gain float64) *CCCS {
	return &CCCS{base: base{name: name, kind: "F", nodes: []string{n1, n2}}, Gain: gain, Control: control}
}

func (f *CCCS) ControlBranch() string { return f.Control }

func (f *CCCS) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == AC {
		// Dependent sources do not contribute to the phasor system.
		return nil
	}
	k1, k2 := status.nodeIndex(f.nodes[0]), status.nodeIndex(f.nodes[1])
	kb := status.BranchIndex[f.Control]

	if k1 != 0 {
		m.AddElement(k1, kb, f.Gain)
	}
	if k2 != 0 {
		m.AddElement(k2, kb, -f.Gain)
	}
	return nil
}

// CCVS is a current-controlled voltage source: branch equation
// vn1 − vn2 − Rm·jb = 0. Owns its own branch-current unknown kM.
type CCVS struct {
	base
	Rm      float64
	Control string
}

func NewCCVS(name, n1, n2, control string, rm float64) *CCVS {
	return &CCVS{base: base{name: name, kind: "H", nodes: []string{n1, n2}}, Rm: rm, Control: control}
}

func (h *CCVS) ControlBranch() string { return h.Control }
func (h *CCVS) BranchName() string    { return h.name }

func (h *CCVS) Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error {
	if status.Mode == AC {
		// Dependent sources do not contribute to the phasor system;
		// CCVS owns no branch row in the AC index.
		return nil
	}
	k1, k2 := status.nodeIndex(h.nodes[0]), status.nodeIndex(h.nodes[1])
	kM := status.BranchIndex[h.name]
	kb := status.BranchIndex[h.Control]

	stampBranchIncidence(m, k1, k2, kM)
	m.AddElement(kM, kb, -h.Rm)
	return nil
}
