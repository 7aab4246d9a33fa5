package analysis

import (
	"math"

	"github.com/nodalsim/spicecore/pkg/circuit"
	"github.com/nodalsim/spicecore/pkg/device"
	"github.com/nodalsim/spicecore/pkg/diagnostic"
	"github.com/nodalsim/spicecore/pkg/spicerr"
)

// OperatingPoint finds the DC operating point of a circuit: spec.md
// §4.5 item 2's Newton iteration, escalated through the Gmin-stepping
// and source-stepping fallbacks SPEC_FULL.md §4 adopts from
// edp1096-toy-spice/pkg/analysis/op.go's Execute/performSourceStepping.
// Callable on its own through Solve, and used by Transient/DCSweep/ACSweep
// to establish their initial condition or linearization point.
type OperatingPoint struct {
	Gmin              float64
	AllowDisconnected bool
	Sink              diagnostic.Sink
}

// NewOperatingPoint returns a driver with the nominal GMIN floor.
func NewOperatingPoint(s diagnostic.Sink) *OperatingPoint {
	return &OperatingPoint{Gmin: 1e-12, Sink: sink(s)}
}

// Solve finds the operating point of ckt, leaving its previous-state
// maps holding the converged (or best-available) node voltages and
// branch currents. Returns the index the solution was computed against
// and the raw solution vector.
func (op *OperatingPoint) Solve(ckt *circuit.Circuit) (circuit.Index, []float64, error) {
	s := sink(op.Sink)
	if err := preflight(ckt, "OperatingPoint.Solve", op.AllowDisconnected); err != nil {
		return circuit.Index{}, nil, err
	}

	gmin := op.Gmin
	if gmin <= 0 {
		gmin = 1e-12
	}

	ix := ckt.BuildIndex()

	if sol, ok, err := op.newtonIterate(ckt, ix, gmin); err == nil && ok {
		return ix, sol, nil
	}

	s.Warnf("operating point: plain Newton iteration did not converge, starting Gmin stepping", map[string]any{"circuit": ckt.Name()})
	if sol, err := op.gminStep(ckt, ix, gmin); err == nil {
		return ix, sol, nil
	}

	s.Warnf("operating point: Gmin stepping did not converge, starting source stepping", map[string]any{"circuit": ckt.Name()})
	sol, err := op.sourceStep(ckt, ix, gmin)
	if err != nil {
		s.Errorf("operating point: did not converge after Newton iteration, Gmin stepping, and source stepping; proceeding with best-available state", map[string]any{"circuit": ckt.Name()})
		return ix, sol, spicerr.Wrap(spicerr.ConvergenceWarning, "OperatingPoint.Solve", err)
	}
	return ix, sol, nil
}

// newtonIterate runs up to maxNRIterations of assemble/solve/compare at
// a fixed Gmin, updating ckt's previous-state after every iteration
// (nonlinear devices like Diode read it back on the next Stamp). Returns
// the last solution produced, whether it met the convergence tolerance,
// and a non-nil error only for a hard solver failure (Singular).
func (op *OperatingPoint) newtonIterate(ckt *circuit.Circuit, ix circuit.Index, gmin float64) ([]float64, bool, error) {
	var lastSol []float64
	for iter := 0; iter < maxNRIterations; iter++ {
		m, err := ckt.Assemble(ix, circuit.AssembleOptions{Gmin: gmin})
		if err != nil {
			return lastSol, false, err
		}
		if err := m.Solve(); err != nil {
			return lastSol, false, err
		}
		sol := m.Solution()
		newV := voltageMap(ix, sol)
		delta := maxVoltageDelta(ckt, newV)
		ckt.SetPreviousState(newV, branchMap(ix, sol))
		lastSol = sol
		if iter > 0 && delta < convergenceTol {
			return sol, true, nil
		}
	}
	return lastSol, false, nil
}

// gminStep ramps Gmin down across 10 decades from a large starting
// value to the nominal floor, running a full Newton iteration at each
// level, then does a final iteration at the nominal Gmin.
func (op *OperatingPoint) gminStep(ckt *circuit.Circuit, ix circuit.Index, nominalGmin float64) ([]float64, error) {
	const steps = 10
	g := nominalGmin * math.Pow(10, steps)
	var sol []float64
	for i := 0; i < steps; i++ {
		s, _, err := op.newtonIterate(ckt, ix, g)
		if err != nil {
			return sol, err
		}
		sol = s
		g /= 10
	}
	finalSol, ok, err := op.newtonIterate(ckt, ix, nominalGmin)
	if err != nil {
		return sol, err
	}
	if !ok {
		return finalSol, spicerr.New(spicerr.ConvergenceWarning, "OperatingPoint.gminStep: did not converge at nominal Gmin")
	}
	return finalSol, nil
}

// sourceStep ramps every independent DC-valued source from 10% to 100%
// of its nominal value, running a full Newton iteration at each level,
// and restores original values before returning (edp1096-toy-spice/
// pkg/analysis/op.go's performSourceStepping, generalized from
// VoltageSource-only to every DCSettable source kind).
func (op *OperatingPoint) sourceStep(ckt *circuit.Circuit, ix circuit.Index, gmin float64) ([]float64, error) {
	type stepped struct {
		dev  device.DCSettable
		orig float64
	}
	var sources []stepped
	for _, d := range ckt.Elements() {
		switch dev := d.(type) {
		case *device.VSource:
			if dev.Wave == device.WaveDC {
				sources = append(sources, stepped{dev, dev.DC})
			}
		case *device.ISource:
			if dev.Wave == device.WaveDC {
				sources = append(sources, stepped{dev, dev.DC})
			}
		}
	}
	defer func() {
		for _, s := range sources {
			s.dev.SetDC(s.orig)
		}
	}()

	var sol []float64
	const steps = 10
	for step := 1; step <= steps; step++ {
		factor := float64(step) / steps
		for _, s := range sources {
			s.dev.SetDC(s.orig * factor)
		}
		s, ok, err := op.newtonIterate(ckt, ix, gmin)
		if err != nil {
			return sol, err
		}
		sol = s
		if !ok && step == steps {
			return sol, spicerr.New(spicerr.ConvergenceWarning, "OperatingPoint.sourceStep: did not converge at 100% source level")
		}
	}
	return sol, nil
}
