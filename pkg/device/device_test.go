package device

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalsim/spicecore/pkg/matrix"
)

func statusFor(mode AnalysisMode, nodeIndex, branchIndex map[string]int) *CircuitStatus {
	return &CircuitStatus{
		Mode:        mode,
		NodeIndex:   nodeIndex,
		BranchIndex: branchIndex,
		PrevVoltage: func(string) float64 { return 0 },
		PrevCurrent: func(string) float64 { return 0 },
	}
}

func TestResistorStampsConductancePattern(t *testing.T) {
	r := NewResistor("R1", "n1", "n2", 1000)
	m := matrix.NewMatrix(2, false)
	status := statusFor(DC, map[string]int{"n1": 1, "n2": 2}, nil)

	require.NoError(t, r.Stamp(m, status))

	m.AddRHS(1, 10.0/1000) // 10mA injected at n1
	// Load n2 with 1k to ground so the system isn't singular; the 10mA then
	// flows through R1, dropping 10V across it.
	m.AddElement(2, 2, 1.0/1000)
	require.NoError(t, m.Solve())
	v1, v2 := m.Solution()[1], m.Solution()[2]
	assert.InDelta(t, 10.0, v1-v2, 1e-9)
}

func TestVSourceBranchIncidenceAndRHS(t *testing.T) {
	v := NewVSourceDC("V1", "n1", "0", 5)
	m := matrix.NewMatrix(2, false)
	nodeIndex := map[string]int{"n1": 1}
	branchIndex := map[string]int{"V1": 2}
	status := statusFor(DC, nodeIndex, branchIndex)
	status.BranchIndex = branchIndex

	require.NoError(t, v.Stamp(m, status))
	// Load n1 with a conductance to ground so the system isn't singular.
	m.AddElement(1, 1, 1.0/1000)

	require.NoError(t, m.Solve())
	assert.InDelta(t, 5.0, m.Solution()[1], 1e-9)
	// I(V1): branch current from n1 through the source to ground; the
	// source drives 5mA out of n1 into the 1k load, so it reads -5mA
	// (matches spec.md §8 scenario 1's sign).
	assert.InDelta(t, -5.0/1000, m.Solution()[2], 1e-9)
}

func TestDiodeCompanionModelLinearizesAtPrevVoltage(t *testing.T) {
	d := NewDiode("D1", "n1", "n2", 1e-14, 1, 0.025852)
	m := matrix.NewMatrix(2, false)
	status := statusFor(DC, map[string]int{"n1": 1, "n2": 2}, nil)
	status.PrevVoltage = func(key string) float64 {
		if key == "n1" {
			return 0.6
		}
		return 0
	}

	require.NoError(t, d.Stamp(m, status))

	etaVt := 1 * 0.025852
	wantGd := (1e-14 / etaVt) * math.Exp(0.6/etaVt)
	assert.InDelta(t, wantGd, m.GetDiagElement(1), wantGd*1e-9)
}

func TestControlledSourcesSkipACMode(t *testing.T) {
	nodeIndex := map[string]int{"n1": 1, "n2": 2, "c1": 3, "c2": 4}
	branchIndex := map[string]int{"E1": 5, "H1": 6, "Vctrl": 7}

	devices := []Device{
		NewVCVS("E1", "n1", "n2", "c1", "c2", 2),
		NewVCCS("G1", "n1", "n2", "c1", "c2", 0.01),
		NewCCCS("F1", "n1", "n2", "Vctrl", 3),
		NewCCVS("H1", "n1", "n2", "Vctrl", 50),
	}

	for _, dev := range devices {
		m := matrix.NewMatrix(7, true)
		status := statusFor(AC, nodeIndex, branchIndex)
		status.Frequency = 1000
		require.NoError(t, dev.Stamp(m, status))
		// Every stamp call above must have been a no-op: the complex
		// system stays all-zero and unsolved for a dependent source
		// alone (no excitation), so this just asserts Stamp didn't panic
		// or error under AC mode, per spec.md §4.3's exclusion.
	}
}

func TestISourceDrivesNodeNegative(t *testing.T) {
	// 1mA from n1 to 0 through a 1k resistor to ground must pull n1 to
	// -1V, per spec.md §4.2's b[n1] -= I convention (a current source
	// drawing current out of its n1 terminal sinks that node negative).
	i := NewISourceDC("I1", "n1", "0", 1e-3)
	r := NewResistor("R1", "n1", "0", 1000)
	nodeIndex := map[string]int{"n1": 1}
	m := matrix.NewMatrix(1, false)
	status := statusFor(DC, nodeIndex, nil)

	require.NoError(t, r.Stamp(m, status))
	require.NoError(t, i.Stamp(m, status))
	require.NoError(t, m.Solve())

	assert.InDelta(t, -1.0, m.Solution()[1], 1e-9)
}

func TestVCCSStampsKCL(t *testing.T) {
	// VCCS G1 sinks gm*(Vc1-Vc2) out of ground and sources it into n2. A
	// voltage source pins the control node Vc1 at 2V (c2 is ground), and
	// a load resistor converts the resulting current into a measurable
	// node voltage at n2.
	g := NewVCCS("G1", "0", "n2", "c1", "0", 0.01)
	vctrl := NewVSourceDC("Vc", "c1", "0", 2)
	rload := NewResistor("Rload", "n2", "0", 1000)

	nodeIndex := map[string]int{"n2": 1, "c1": 2}
	branchIndex := map[string]int{"Vc": 3}
	m := matrix.NewMatrix(3, false)
	status := statusFor(DC, nodeIndex, branchIndex)

	require.NoError(t, g.Stamp(m, status))
	require.NoError(t, vctrl.Stamp(m, status))
	require.NoError(t, rload.Stamp(m, status))
	require.NoError(t, m.Solve())

	// gm * Vc1 = 0.01 * 2 = 20mA flows into n2, developing 20mA * 1000
	// ohm = 20V across Rload.
	assert.InDelta(t, 20.0, m.Solution()[1], 1e-6)
}

func TestCCVSStampsKCL(t *testing.T) {
	// CCVS H1 makes Vn1 - V(ground) = Rm * I(Vctrl). The controlling
	// branch Vctrl (0V, tied to ground on both sides) carries exactly the
	// current an independent current source forces through it.
	h := NewCCVS("H1", "n1", "0", "Vctrl", 50)
	vctrl := NewVSourceDC("Vctrl", "c1", "0", 0)
	isrc := NewISourceDC("I1", "c1", "0", 2e-3)

	nodeIndex := map[string]int{"n1": 1, "c1": 2}
	branchIndex := map[string]int{"H1": 3, "Vctrl": 4}
	m := matrix.NewMatrix(4, false)
	status := statusFor(DC, nodeIndex, branchIndex)

	require.NoError(t, h.Stamp(m, status))
	require.NoError(t, vctrl.Stamp(m, status))
	require.NoError(t, isrc.Stamp(m, status))
	require.NoError(t, m.Solve())

	// I(Vctrl) = -2mA (current sourced by I1 flows out of c1, matching
	// the b[n1] -= I convention), so Vn1 = 50 * -2mA = -0.1V.
	assert.InDelta(t, -0.1, m.Solution()[1], 1e-6)
}

func TestDiodeSkipsACMode(t *testing.T) {
	d := NewDiode("D1", "n1", "n2", 1e-14, 1, 0.025852)
	m := matrix.NewMatrix(2, true)
	status := statusFor(AC, map[string]int{"n1": 1, "n2": 2}, nil)
	status.Frequency = 1000

	assert.NoError(t, d.Stamp(m, status))
}

func TestPulseWaveformFormula(t *testing.T) {
	p := PulseParams{V1: 0, V2: 5, Td: 0, Tr: 1e-6, Tf: 1e-6, Pw: 1e-3, Per: 2e-3}

	assert.Equal(t, 0.0, valueAt(WavePulse, 0, p, SinParams{}, PWLParams{}, 0))
	assert.InDelta(t, 5.0, valueAt(WavePulse, 0, p, SinParams{}, PWLParams{}, 1e-6), 1e-9)
	assert.InDelta(t, 5.0, valueAt(WavePulse, 0, p, SinParams{}, PWLParams{}, 5e-4), 1e-9)
	assert.InDelta(t, 0.0, valueAt(WavePulse, 0, p, SinParams{}, PWLParams{}, 1.999e-3), 1e-9)
}

func TestSinWaveformZeroFrequencyHoldsOffset(t *testing.T) {
	s := SinParams{Voff: 1, Vamp: 2, Freq: 0}
	assert.Equal(t, 1.0, valueAt(WaveSin, 0, PulseParams{}, s, PWLParams{}, 123))
}

func TestPWLInterpolation(t *testing.T) {
	p := PWLParams{Times: []float64{0, 1, 2}, Values: []float64{0, 10, 10}}
	assert.InDelta(t, 5.0, pwlValueAt(p, 0.5), 1e-9)
	assert.InDelta(t, 10.0, pwlValueAt(p, 1.5), 1e-9)
	assert.InDelta(t, 0.0, pwlValueAt(p, -1), 1e-9)
	assert.InDelta(t, 10.0, pwlValueAt(p, 5), 1e-9)
}

func TestDCSettableInterfaceSatisfiedBySources(t *testing.T) {
	var v DCSettable = NewVSourceDC("V1", "n1", "0", 1)
	v.SetDC(5)
	assert.Equal(t, 5.0, v.(*VSource).DC)

	var i DCSettable = NewISourceDC("I1", "n1", "0", 1)
	i.SetDC(2)
	assert.Equal(t, 2.0, i.(*ISource).DC)
}
