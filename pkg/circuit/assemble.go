// Index assignment and MNA assembly: the index-layout contract of
// spec.md §3/§4.2 (node rows, then voltage-source/VCVS rows, then
// inductor rows, then CCVS rows) lives here, grounded on
// edp1096-toy-spice/pkg/circuit/circuit.go's AssignNodeBranchMaps/
// CreateMatrix/Stamp, generalized from the teacher's V/L-only branch set
// to the full element table (VCVS and CCVS also own branch unknowns).
package circuit

import (
	"github.com/nodalsim/spicecore/pkg/device"
	"github.com/nodalsim/spicecore/pkg/matrix"
	"github.com/nodalsim/spicecore/pkg/spicerr"
)

func acSourceError(name string) error {
	return spicerr.New(spicerr.InvalidParameter, "Circuit.AssembleAC: "+name+" is not an AC-capable voltage source")
}

// Index carries one circuit's current node/branch index assignment, plus
// the derived matrix size. Recomputed whenever the element set changes;
// analysis drivers hold it for the lifetime of one analysis call.
type Index struct {
	NodeIndex   map[string]int
	BranchIndex map[string]int
	NumNodes    int
	NumV        int // voltage sources + VCVS
	NumL        int // inductors
	NumH        int // CCVS
}

// Size is the dimension of the square MNA system this index implies.
func (ix Index) Size() int { return ix.NumNodes + ix.NumV + ix.NumL + ix.NumH }

// BuildIndex assigns node and branch rows/columns in the order spec.md
// §4.2 specifies: non-ground nodes (alphabetical), then voltage-like
// sources (independent V of any waveform, and VCVS) in element order,
// then inductors in element order, then CCVS in element order.
func (c *Circuit) BuildIndex() Index {
	_, nodeIndex := c.NonGroundNodes()
	ix := Index{NodeIndex: nodeIndex, BranchIndex: make(map[string]int), NumNodes: len(nodeIndex)}

	next := ix.NumNodes + 1
	for _, d := range c.elements {
		switch d.(type) {
		case *device.VSource, *device.VCVS:
			ix.BranchIndex[d.Name()] = next
			next++
			ix.NumV++
		}
	}
	for _, d := range c.elements {
		if _, ok := d.(*device.Inductor); ok {
			ix.BranchIndex[d.Name()] = next
			next++
			ix.NumL++
		}
	}
	for _, d := range c.elements {
		if _, ok := d.(*device.CCVS); ok {
			ix.BranchIndex[d.Name()] = next
			next++
			ix.NumH++
		}
	}
	return ix
}

// BuildACIndex is BuildIndex's counterpart for phasor analysis. Per
// spec.md §4.3, the complex system folds inductors into node-admittance
// entries directly (no branch row) and dependent sources (VCVS, VCCS,
// CCCS, CCVS) and diodes "do not contribute to the phasor system" at
// all — only independent voltage sources still own a branch-current
// unknown.
func (c *Circuit) BuildACIndex() Index {
	_, nodeIndex := c.NonGroundNodes()
	ix := Index{NodeIndex: nodeIndex, BranchIndex: make(map[string]int), NumNodes: len(nodeIndex)}

	next := ix.NumNodes + 1
	for _, d := range c.elements {
		if _, ok := d.(*device.VSource); ok {
			ix.BranchIndex[d.Name()] = next
			next++
			ix.NumV++
		}
	}
	return ix
}

// AssembleOptions configures one call to Assemble/AssembleAC.
type AssembleOptions struct {
	Transient bool    // false => DC (Δt treated as 0)
	Time      float64 // transient: current time
	TimeStep  float64 // transient: Δt; 0 in DC mode
	Gmin      float64 // conductance floor; callers pass 0 to use the 1e-12 default
	Temp      float64 // Kelvin; 0 defaults to 300.15 (room temperature)
}

const defaultGmin = 1e-12
const roomTempK = 300.15

func (o AssembleOptions) resolve() AssembleOptions {
	if o.Gmin <= 0 {
		o.Gmin = defaultGmin
	}
	if o.Temp <= 0 {
		o.Temp = roomTempK
	}
	return o
}

// Assemble builds the real-valued (A, b) system for a DC or transient
// operating point against the given index and returns the matrix.
func (c *Circuit) Assemble(ix Index, opts AssembleOptions) (*matrix.CircuitMatrix, error) {
	opts = opts.resolve()
	m := matrix.NewMatrix(ix.Size(), false)

	status := &device.CircuitStatus{
		Mode:        modeOf(opts.Transient),
		Time:        opts.Time,
		TimeStep:    opts.TimeStep,
		Gmin:        opts.Gmin,
		Temp:        opts.Temp,
		NodeIndex:   ix.NodeIndex,
		BranchIndex: ix.BranchIndex,
		PrevVoltage: c.PrevNodeVoltage,
		PrevCurrent: c.PrevBranchCurrent,
	}

	for _, d := range c.elements {
		if err := d.Stamp(m, status); err != nil {
			return nil, err
		}
	}
	m.LoadGmin(opts.Gmin, ix.NumNodes)
	return m, nil
}

func modeOf(transient bool) device.AnalysisMode {
	if transient {
		return device.Transient
	}
	return device.DC
}

// AssembleAC builds the complex admittance system at angular frequency
// ω=2πf and injects the unit excitation at excitationSource's branch row
// (spec.md §4.3). Fails with InvalidParameter if the named source is not
// a branch-owning AC-capable element.
func (c *Circuit) AssembleAC(ix Index, freqHz float64, excitationSource string) (*matrix.CircuitMatrix, error) {
	m := matrix.NewMatrix(ix.Size(), true)

	status := &device.CircuitStatus{
		Mode:        device.AC,
		Frequency:   freqHz,
		NodeIndex:   ix.NodeIndex,
		BranchIndex: ix.BranchIndex,
	}

	for _, d := range c.elements {
		if err := d.Stamp(m, status); err != nil {
			return nil, err
		}
	}

	src, ok := c.Element(excitationSource)
	if !ok {
		return nil, acSourceError(excitationSource)
	}
	acSrc, ok := src.(device.ACSource)
	if !ok {
		return nil, acSourceError(excitationSource)
	}
	if err := acSrc.StampACUnitExcitation(m, status); err != nil {
		return nil, err
	}
	return m, nil
}
