package analysis

import (
	"github.com/nodalsim/spicecore/pkg/circuit"
	"github.com/nodalsim/spicecore/pkg/device"
	"github.com/nodalsim/spicecore/pkg/diagnostic"
	"github.com/nodalsim/spicecore/pkg/spicerr"
)

// sweepAxis is one swept source: its name, range, and the DCSettable
// handle + original value needed to drive and later restore it.
type sweepAxis struct {
	source           string
	start, stop, inc float64
	settable         device.DCSettable
	orig             float64
}

func (a sweepAxis) values() []float64 {
	var out []float64
	if a.inc > 0 {
		for v := a.start; v <= a.stop+1e-12; v += a.inc {
			out = append(out, v)
		}
	} else {
		for v := a.start; v >= a.stop-1e-12; v += a.inc {
			out = append(out, v)
		}
	}
	return out
}

// SweepResult is the DC-sweep driver's result table: one or two sweep
// value columns ("SWEEP1"/"SWEEP2") plus the usual V(<key>)/I(<name>)
// signal map, every column the same length.
type SweepResult struct {
	Axes    int
	Signals map[string][]float64
}

// DCSweep steps one or two independent sources across a range and
// records the operating point at each combination, per spec.md §4.6 and
// SPEC_FULL.md §4's nested-sweep supplement (edp1096-toy-spice/pkg/
// analysis/dc.go's singleSweep/nestedSweep, generalized into one
// AddAxis-driven loop instead of duplicated single/nested methods).
type DCSweep struct {
	Gmin              float64
	AllowDisconnected bool
	Sink              diagnostic.Sink

	axes []sweepAxis
}

// NewDCSweep returns a driver with the nominal GMIN floor and no axes
// configured; call AddAxis once or twice before Run.
func NewDCSweep(s diagnostic.Sink) *DCSweep {
	return &DCSweep{Gmin: 1e-12, Sink: sink(s)}
}

// AddAxis configures one swept source. At most two axes are supported
// (SPEC_FULL.md §4's nested sweep). inc's sign must match the direction
// from start to stop.
func (dc *DCSweep) AddAxis(ckt *circuit.Circuit, source string, start, stop, inc float64) error {
	if len(dc.axes) >= 2 {
		return spicerr.New(spicerr.InvalidParameter, "DCSweep.AddAxis: at most two swept sources are supported")
	}
	if inc == 0 {
		return spicerr.New(spicerr.InvalidParameter, "DCSweep.AddAxis: increment must be non-zero")
	}
	if (stop-start)*inc < 0 {
		return spicerr.New(spicerr.InvalidParameter, "DCSweep.AddAxis: increment sign must match the start-to-stop direction")
	}
	d, ok := ckt.Element(source)
	if !ok {
		return spicerr.New(spicerr.NotFound, "DCSweep.AddAxis: source "+source+" not found")
	}
	settable, ok := d.(device.DCSettable)
	if !ok {
		return spicerr.New(spicerr.InvalidParameter, "DCSweep.AddAxis: "+source+" is not a sweepable source")
	}

	var orig float64
	switch dev := d.(type) {
	case *device.VSource:
		orig = dev.DC
	case *device.ISource:
		orig = dev.DC
	}

	dc.axes = append(dc.axes, sweepAxis{source: source, start: start, stop: stop, inc: inc, settable: settable, orig: orig})
	return nil
}

// OriginalValue returns the pre-sweep value of the named swept source
// and whether it is tracked. The driver leaves sources at their final
// swept value after Run, per spec.md §9 — this lets a caller restore it
// explicitly (SPEC_FULL.md §4's snapshot/restore supplement).
func (dc *DCSweep) OriginalValue(source string) (float64, bool) {
	for _, ax := range dc.axes {
		if ax.source == source {
			return ax.orig, true
		}
	}
	return 0, false
}

// RestoreOriginalValues resets every swept source back to the value it
// held before Run was called.
func (dc *DCSweep) RestoreOriginalValues() {
	for _, ax := range dc.axes {
		ax.settable.SetDC(ax.orig)
	}
}

// Run sweeps the configured axes and returns the accumulated sweep
// table. On a solver failure at any combination, emits a diagnostic and
// halts, preserving the rows already recorded.
func (dc *DCSweep) Run(ckt *circuit.Circuit) (SweepResult, error) {
	s := sink(dc.Sink)
	if err := preflight(ckt, "DCSweep.Run", dc.AllowDisconnected); err != nil {
		return SweepResult{}, err
	}
	if len(dc.axes) == 0 {
		return SweepResult{}, spicerr.New(spicerr.InvalidParameter, "DCSweep.Run: no swept source configured")
	}

	op := NewOperatingPoint(s)
	op.Gmin = dc.Gmin
	op.AllowDisconnected = dc.AllowDisconnected

	result := SweepResult{Axes: len(dc.axes), Signals: make(map[string][]float64)}
	record := func(v0 float64, v1 *float64) error {
		ix, sol, err := op.Solve(ckt)
		if err != nil && !spicerr.Is(err, spicerr.ConvergenceWarning) {
			return err
		}
		result.Signals["SWEEP1"] = append(result.Signals["SWEEP1"], v0)
		if v1 != nil {
			result.Signals["SWEEP2"] = append(result.Signals["SWEEP2"], *v1)
		}
		for name, val := range ckt.ExtractResultsFromSolution(ix, sol) {
			result.Signals[name] = append(result.Signals[name], val)
		}
		return nil
	}

	axis0 := dc.axes[0]
	var axis1Values []float64
	if len(dc.axes) == 2 {
		axis1Values = dc.axes[1].values()
	}

outer:
	for _, v0 := range axis0.values() {
		axis0.settable.SetDC(v0)

		if len(dc.axes) == 1 {
			if err := record(v0, nil); err != nil {
				s.Errorf("dc sweep: solver failed, halting sweep", map[string]any{"source": axis0.source, "value": v0, "cause": err.Error()})
				break outer
			}
			continue
		}

		for _, v1 := range axis1Values {
			dc.axes[1].settable.SetDC(v1)
			v1 := v1
			if err := record(v0, &v1); err != nil {
				s.Errorf("dc sweep: solver failed, halting sweep", map[string]any{"source1": axis0.source, "value1": v0, "source2": dc.axes[1].source, "value2": v1, "cause": err.Error()})
				break outer
			}
		}
	}

	return result, nil
}
