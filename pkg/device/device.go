// Package device implements the element set of the MNA stamping engine:
// one Go type per element kind in the data model's table, each knowing how
// to add its own contribution to the shared (A, b) given the current
// node/branch index assignment and the circuit's previous-state. Kept as a
// tagged set of small structs implementing a common interface rather than
// a deep class hierarchy, per the source's own recommendation (a single
// dispatch point keeps stamping cache-friendly and avoids an allocation
// per virtual call).
package device

import (
	"github.com/nodalsim/spicecore/pkg/matrix"
)

// AnalysisMode selects which stamping path Stamp takes — several element
// kinds behave differently in DC, transient, and AC contexts.
type AnalysisMode int

const (
	DC AnalysisMode = iota
	Transient
	AC
)

// CircuitStatus is the per-call context an assembler hands every device's
// Stamp method: where in the index space its nodes and branch (if any)
// land, what analysis mode is active, and how to read the circuit's
// previous-state (the only state that persists across calls — devices
// themselves are stateless between Stamp invocations).
type CircuitStatus struct {
	Mode      AnalysisMode
	Time      float64 // transient: current time
	TimeStep  float64 // transient: Δt; 0 in DC mode
	Gmin      float64 // conductance floor added to every KCL diagonal
	Frequency float64 // AC: Hz (each device's AC stamp converts to ω)
	Temp      float64 // Kelvin; used by temperature-dependent devices

	// NodeIndex maps a node key to its row/column, 0 for ground.
	NodeIndex map[string]int
	// BranchIndex maps an element name owning an extra current unknown
	// (voltage sources, inductors, VCVS, CCVS) to its row/column.
	BranchIndex map[string]int

	// PrevVoltage returns the last-known voltage at a node key — the
	// previous converged timestep in Transient, or the previous Newton
	// iterate during DC operating-point iteration.
	PrevVoltage func(nodeKey string) float64
	// PrevCurrent returns the last-known current through a branch
	// (inductor or voltage source), analogous to PrevVoltage.
	PrevCurrent func(branchName string) float64
}

func (s *CircuitStatus) nodeIndex(key string) int {
	if key == "" {
		return 0
	}
	return s.NodeIndex[key]
}

func (s *CircuitStatus) prevVoltage(key string) float64 {
	if s.PrevVoltage == nil || key == "" {
		return 0
	}
	return s.PrevVoltage(key)
}

func (s *CircuitStatus) prevCurrent(name string) float64 {
	if s.PrevCurrent == nil {
		return 0
	}
	return s.PrevCurrent(name)
}

// Device is the common contract every element kind satisfies. Nodes
// returns terminal node keys in the order the element's parameters name
// them (n1, n2, and any control-terminal keys after).
type Device interface {
	Name() string
	Kind() string
	Nodes() []string
	Stamp(m matrix.DeviceMatrix, status *CircuitStatus) error
}

// BranchDevice names an element's branch-current unknown. The shared base
// gives every element kind a BranchName, so every device satisfies it;
// only voltage sources (all waveform kinds), inductors, VCVS, and CCVS
// own an extra current-unknown row/column.
type BranchDevice interface {
	Device
	BranchName() string
}

// Controlled is implemented by current-controlled sources (CCCS, CCVS);
// ControlBranch names the voltage-source or inductor element whose branch
// current drives this source.
type Controlled interface {
	ControlBranch() string
}

// ACSource is implemented by VSource, which also knows how to drive the
// complex small-signal system as the sweep's excitation; ISource does not
// implement it
// (§4.3: "the right-hand side is zero everywhere except at the designated
// excitation source's branch row, which is set to unit amplitude").
type ACSource interface {
	StampACUnitExcitation(m matrix.DeviceMatrix, status *CircuitStatus) error
}

// NodeRenamer is implemented by every device so Circuit.RenameNode can
// rewrite a referring element's node fields in place without a type switch
// per element kind.
type NodeRenamer interface {
	RenameNodeRef(old, newKey string)
}

// DCSettable is implemented by every source kind (VSource, ISource) so
// the operating-point driver's source-stepping fallback can scale a
// source's DC level without a type switch per source kind.
type DCSettable interface {
	SetDC(value float64)
}

// Linear reports whether the device's current stamp depends only on its
// own parameters (true) or on the previous solution (false, e.g. Diode).
// No analysis driver consults it: every Newton iteration restamps every
// element.
type Linear interface {
	IsLinear() bool
}

// base carries the fields every concrete element shares: its identity and
// terminal node keys.
type base struct {
	name  string
	kind  string
	nodes []string
}

func (b *base) Name() string    { return b.name }
func (b *base) Kind() string    { return b.kind }
func (b *base) Nodes() []string { return b.nodes }
func (b *base) IsLinear() bool  { return true }

func (b *base) BranchName() string { return b.name }

func (b *base) RenameNodeRef(old, newKey string) {
	for i, n := range b.nodes {
		if n == old {
			b.nodes[i] = newKey
		}
	}
}
