// Package analysis implements the four drivers spec.md §4.5-§4.8
// describes: DC operating point, transient march, DC sweep, and AC
// sweep. Each orchestrates repeated circuit.Assemble/AssembleAC +
// matrix.Solve calls, extracts named results via circuit.ExtractResults/
// ExtractACResults, and reports non-fatal conditions (ConvergenceWarning,
// SolverFailure) through an injected diagnostic.Sink rather than the
// teacher's static ErrorManager singleton (edp1096-toy-spice/pkg/
// analysis/anlysis.go's BaseAnalysis).
package analysis

import (
	"math"

	"github.com/nodalsim/spicecore/pkg/circuit"
	"github.com/nodalsim/spicecore/pkg/diagnostic"
	"github.com/nodalsim/spicecore/pkg/spicerr"
)

// convergenceTol and maxNRIterations are spec.md §4.5's DC-operating-
// point convergence contract: "compare max |Vnew − Vprev| across
// non-ground nodes; stop when the max delta drops below 1e-6 or at 100
// iterations."
const (
	convergenceTol  = 1e-6
	maxNRIterations = 100
)

// preflight runs the connectivity/ground guards every analysis driver's
// Run (OperatingPoint's Solve) performs before any assembly is attempted
// (SPEC_FULL.md §4).
// allowDisconnected lets a caller (e.g. a netlist test fixture) opt out
// of the connectivity check for an intentionally floating subcircuit.
func preflight(ckt *circuit.Circuit, op string, allowDisconnected bool) error {
	if !ckt.HasGround() {
		return spicerr.New(spicerr.MissingGround, op)
	}
	if !allowDisconnected && !ckt.Connected() {
		return spicerr.New(spicerr.Disconnected, op)
	}
	return nil
}

// voltageMap reads every node's voltage out of a solved real system,
// keyed by node key (ground excluded — it is always 0 and never stored
// in previous-state).
func voltageMap(ix circuit.Index, sol []float64) map[string]float64 {
	out := make(map[string]float64, len(ix.NodeIndex))
	for key, idx := range ix.NodeIndex {
		if idx > 0 && idx < len(sol) {
			out[key] = sol[idx]
		}
	}
	return out
}

// branchMap reads every branch unknown (voltage source or inductor
// current) out of a solved real system, keyed by element name.
func branchMap(ix circuit.Index, sol []float64) map[string]float64 {
	out := make(map[string]float64, len(ix.BranchIndex))
	for name, idx := range ix.BranchIndex {
		if idx >= 0 && idx < len(sol) {
			out[name] = sol[idx]
		}
	}
	return out
}

// maxVoltageDelta computes max |Vnew - Vprev| across newV's keys,
// comparing against the circuit's currently recorded previous state —
// spec.md §4.5's convergence test, used by the op-point driver's Newton
// loop (newtonIterate, which Gmin and source stepping also run).
func maxVoltageDelta(ckt *circuit.Circuit, newV map[string]float64) float64 {
	maxDelta := 0.0
	for key, v := range newV {
		if d := math.Abs(v - ckt.PrevNodeVoltage(key)); d > maxDelta {
			maxDelta = d
		}
	}
	return maxDelta
}

// sink returns s, or diagnostic.Discard{} if s is nil, so every driver
// can unconditionally call into its sink without a nil guard.
func sink(s diagnostic.Sink) diagnostic.Sink {
	if s == nil {
		return diagnostic.Discard{}
	}
	return s
}
