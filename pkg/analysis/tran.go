package analysis

import (
	"fmt"

	"github.com/nodalsim/spicecore/pkg/circuit"
	"github.com/nodalsim/spicecore/pkg/device"
	"github.com/nodalsim/spicecore/pkg/diagnostic"
	"github.com/nodalsim/spicecore/pkg/spicerr"
)

// TimeSeries is the transient driver's result table: a time vector and a
// signal-name -> value-sequence map of identical length (spec.md §4.5).
type TimeSeries struct {
	Time    []float64
	Signals map[string][]float64
}

// Transient marches a circuit from t=0 to StopTime at a fixed step
// (backward Euler only, per the Non-goals' "no adaptive or higher-order
// integration"), grounded on edp1096-toy-spice/pkg/analysis/tran.go's
// Execute loop, rewritten against the centralized previous-state model
// and the fixed-step contract of spec.md §4.5 (the teacher's adaptive
// step-doubling/halving and LTE estimation are not carried over — they
// implement the adaptive integration spec.md's Non-goals explicitly
// excludes).
type Transient struct {
	TimeStep          float64
	StopTime          float64
	UIC               bool
	Gmin              float64
	AllowDisconnected bool
	Sink              diagnostic.Sink
}

// NewTransient returns a driver with the nominal GMIN floor.
func NewTransient(timeStep, stopTime float64, uic bool, s diagnostic.Sink) *Transient {
	return &Transient{TimeStep: timeStep, StopTime: stopTime, UIC: uic, Gmin: 1e-12, Sink: sink(s)}
}

// Run executes the march and returns the accumulated result table.
func (tr *Transient) Run(ckt *circuit.Circuit) (TimeSeries, error) {
	s := sink(tr.Sink)
	if err := preflight(ckt, "Transient.Run", tr.AllowDisconnected); err != nil {
		return TimeSeries{}, err
	}
	if tr.TimeStep <= 0 {
		return TimeSeries{}, spicerr.New(spicerr.InvalidParameter, "Transient.Run: step must be positive")
	}
	if tr.StopTime < 0 {
		return TimeSeries{}, spicerr.New(spicerr.InvalidParameter, "Transient.Run: stop time must be non-negative")
	}

	gmin := tr.Gmin
	if gmin <= 0 {
		gmin = 1e-12
	}

	if zr := ckt.ZeroResistanceResistors(); len(zr) > 0 {
		s.Warnf("transient: zero-resistance resistor yields zero current", map[string]any{"resistors": zr})
	}

	ix := ckt.BuildIndex()
	result := TimeSeries{Signals: make(map[string][]float64)}
	appendSample := func(t float64, values map[string]float64) {
		result.Time = append(result.Time, t)
		for name, v := range values {
			result.Signals[name] = append(result.Signals[name], v)
		}
	}

	if tr.UIC {
		ckt.ResetPreviousState()
	} else {
		op := NewOperatingPoint(s)
		op.Gmin = gmin
		op.AllowDisconnected = tr.AllowDisconnected
		if _, _, err := op.Solve(ckt); err != nil {
			if !spicerr.Is(err, spicerr.ConvergenceWarning) {
				return TimeSeries{}, err
			}
			s.Warnf("transient: initial operating point did not converge, falling back to zero initial conditions", map[string]any{"circuit": ckt.Name()})
			ckt.ResetPreviousState()
		}
	}

	appendSample(0, snapshotResults(ckt, ix))

	dt := tr.TimeStep
	slack := dt/2 + 1e-12
	t := 0.0
	for t+dt <= tr.StopTime+slack {
		next := t + dt
		m, err := ckt.Assemble(ix, circuit.AssembleOptions{Transient: true, Time: next, TimeStep: dt, Gmin: gmin})
		if err != nil {
			s.Errorf("transient: assembly failed, terminating march", map[string]any{"time": next, "cause": err.Error()})
			break
		}
		if err := m.Solve(); err != nil {
			s.Errorf("transient: solver failed, terminating march", map[string]any{"time": next, "cause": err.Error()})
			break
		}
		sol := m.Solution()
		ckt.SetPreviousState(voltageMap(ix, sol), branchMap(ix, sol))
		appendSample(next, ckt.ExtractResultsFromSolution(ix, sol))
		t = next
	}

	if len(result.Time) == 0 {
		appendSample(0, snapshotResults(ckt, ix))
	}

	return result, nil
}

// snapshotResults reads the circuit's current previous-state directly
// into the same V(<key>)/I(<name>) signal schema ExtractResults
// produces, for the t=0 initial-condition sample (no assembled system
// exists yet to extract from).
func snapshotResults(ckt *circuit.Circuit, ix circuit.Index) map[string]float64 {
	out := make(map[string]float64, len(ix.NodeIndex)+1+ix.NumV+ix.NumL)
	for key := range ix.NodeIndex {
		out[fmt.Sprintf("V(%s)", key)] = ckt.PrevNodeVoltage(key)
	}
	if ckt.HasGround() {
		out[fmt.Sprintf("V(%s)", ckt.GroundKey())] = 0
	}
	for _, d := range ckt.Elements() {
		switch dev := d.(type) {
		case *device.VSource:
			out[fmt.Sprintf("I(%s)", dev.Name())] = ckt.PrevBranchCurrent(dev.Name())
		case *device.Inductor:
			out[fmt.Sprintf("I(%s)", dev.Name())] = ckt.PrevBranchCurrent(dev.Name())
		case *device.Resistor:
			n1, n2 := dev.Nodes()[0], dev.Nodes()[1]
			v1, v2 := ckt.PrevNodeVoltage(n1), ckt.PrevNodeVoltage(n2)
			current := 0.0
			if dev.R != 0 {
				current = (v1 - v2) / dev.R
			}
			out[fmt.Sprintf("I(%s)", dev.Name())] = current
		}
	}
	return out
}
