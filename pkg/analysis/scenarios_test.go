package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalsim/spicecore/pkg/circuit"
	"github.com/nodalsim/spicecore/pkg/device"
)

// The following encode spec.md §8's six concrete end-to-end scenarios,
// each checked against its worked-example tolerance.

func TestScenarioResistiveDividerDC(t *testing.T) {
	c := circuit.New("divider")
	require.NoError(t, c.AddElement(device.NewGround("GND", "0")))
	require.NoError(t, c.AddElement(device.NewVSourceDC("V1", "N1", "0", 10)))
	require.NoError(t, c.AddElement(device.NewResistor("R1", "N1", "N2", 1000)))
	require.NoError(t, c.AddElement(device.NewResistor("R2", "N2", "0", 2000)))

	op := NewOperatingPoint(nil)
	ix, sol, err := op.Solve(c)
	require.NoError(t, err)
	results := c.ExtractResultsFromSolution(ix, sol)

	assert.InDelta(t, 10.0, results["V(N1)"], 0.1)
	assert.InDelta(t, 6.667, results["V(N2)"], 0.0667)
	assert.InDelta(t, -3.333e-3, results["I(V1)"], 3.333e-5)
	assert.InDelta(t, 3.333e-3, results["I(R1)"], 3.333e-5)
	assert.InDelta(t, 3.333e-3, results["I(R2)"], 3.333e-5)
}

func TestScenarioRCStepResponse(t *testing.T) {
	c := circuit.New("rc")
	require.NoError(t, c.AddElement(device.NewGround("GND", "0")))
	require.NoError(t, c.AddElement(device.NewVSourceDC("V1", "N1", "0", 5)))
	require.NoError(t, c.AddElement(device.NewResistor("R1", "N1", "N2", 1000)))
	require.NoError(t, c.AddElement(device.NewCapacitor("C1", "N2", "0", 1e-6)))

	tr := NewTransient(1e-5, 5e-3, true, nil)
	result, err := tr.Run(c)
	require.NoError(t, err)

	v1ms := sampleAt(t, result, 1e-3)
	v5ms := sampleAt(t, result, 5e-3)
	assert.InDelta(t, 3.1606, result.Signals["V(N2)"][v1ms], 0.032)
	assert.InDelta(t, 4.966, result.Signals["V(N2)"][v5ms], 0.05)
}

func TestScenarioRLStepResponse(t *testing.T) {
	c := circuit.New("rl")
	require.NoError(t, c.AddElement(device.NewGround("GND", "0")))
	require.NoError(t, c.AddElement(device.NewVSourceDC("V1", "N1", "0", 10)))
	require.NoError(t, c.AddElement(device.NewResistor("R1", "N1", "N2", 100)))
	require.NoError(t, c.AddElement(device.NewInductor("L1", "N2", "0", 1e-3)))

	tr := NewTransient(1e-6, 1e-4, true, nil)
	result, err := tr.Run(c)
	require.NoError(t, err)

	i10us := sampleAt(t, result, 1e-5)
	iFinal := len(result.Time) - 1
	assert.InDelta(t, 0.0632, result.Signals["I(L1)"][i10us], 0.00632)
	assert.InDelta(t, 0.1, result.Signals["I(L1)"][iFinal], 0.001)
}

func TestScenarioPulseThroughRC(t *testing.T) {
	c := circuit.New("pulse-rc")
	require.NoError(t, c.AddElement(device.NewGround("GND", "0")))
	require.NoError(t, c.AddElement(device.NewVSourcePulse("V1", "N1", "0", device.PulseParams{
		V1: 0, V2: 5, Td: 0, Tr: 1e-6, Tf: 1e-6, Pw: 1e-3, Per: 2e-3,
	})))
	require.NoError(t, c.AddElement(device.NewResistor("R1", "N1", "N2", 1000)))
	require.NoError(t, c.AddElement(device.NewCapacitor("C1", "N2", "0", 1e-6)))

	tr := NewTransient(1e-5, 5e-3, true, nil)
	result, err := tr.Run(c)
	require.NoError(t, err)

	maxV := 0.0
	for _, v := range result.Signals["V(N1)"] {
		if v > maxV {
			maxV = v
		}
	}
	assert.Greater(t, maxV, 4.9)

	rising := 0
	prev := 0.0
	for _, v := range result.Signals["V(N1)"] {
		if prev < 2.5 && v >= 2.5 {
			rising++
		}
		prev = v
	}
	// One rising edge at t=0 plus one every 2ms period thereafter: with a
	// 5ms stop and a 2ms period that's edges at t=0, 2ms, and 4ms.
	assert.Equal(t, 3, rising)
}

func TestScenarioACSweepRCLowPass(t *testing.T) {
	c := circuit.New("rc-lowpass")
	require.NoError(t, c.AddElement(device.NewGround("GND", "0")))
	require.NoError(t, c.AddElement(device.NewVSourceAC("V1", "N1", "0", 0, device.ACParams{Magnitude: 1, Phase: 0})))
	require.NoError(t, c.AddElement(device.NewResistor("R1", "N1", "N2", 1000)))
	require.NoError(t, c.AddElement(device.NewCapacitor("C1", "N2", "0", 1e-6)))

	ac := NewACSweep(nil)
	ac.ExcitationSource = "V1"
	ac.StartFreq = 1
	ac.StopFreq = 1e5
	ac.NumPoints = 50
	ac.Kind = Decade

	result, err := ac.Run(c)
	require.NoError(t, err)

	fc := 1 / (2 * math.Pi * 1000 * 1e-6)
	// No decade point lands on fc (the nearest, ~175.7Hz, has gain ~0.671),
	// so interpolate the gain linearly in log-frequency between the two
	// points that bracket fc.
	lo := closestFreqIndex(result.Freq, fc)
	if result.Freq[lo] > fc {
		lo--
	}
	hi := lo + 1
	gain := func(i int) float64 {
		return cmplxAbs(result.Signals["V(N2)"][i]) / cmplxAbs(result.Signals["V(N1)"][i])
	}
	frac := math.Log(fc/result.Freq[lo]) / math.Log(result.Freq[hi]/result.Freq[lo])
	mag := gain(lo) + frac*(gain(hi)-gain(lo))
	assert.InDelta(t, 1/math.Sqrt2, mag, 1/math.Sqrt2*0.03)
}

func TestScenarioDCSweep(t *testing.T) {
	c := circuit.New("dc-sweep")
	require.NoError(t, c.AddElement(device.NewGround("GND", "0")))
	require.NoError(t, c.AddElement(device.NewVSourceDC("V1", "N1", "0", 0)))
	require.NoError(t, c.AddElement(device.NewResistor("R1", "N1", "N_mid", 1000)))
	require.NoError(t, c.AddElement(device.NewResistor("R2", "N_mid", "0", 1000)))

	dc := NewDCSweep(nil)
	require.NoError(t, dc.AddAxis(c, "V1", 0, 10, 0.5))
	result, err := dc.Run(c)
	require.NoError(t, err)

	require.Len(t, result.Signals["SWEEP1"], 21)
	for i, v1 := range result.Signals["SWEEP1"] {
		assert.InDelta(t, 0.5*v1, result.Signals["V(N_mid)"][i], 0.01*math.Max(1, v1))
	}
}

func sampleAt(t *testing.T, ts TimeSeries, target float64) int {
	t.Helper()
	best, bestDiff := 0, math.Inf(1)
	for i, tt := range ts.Time {
		if d := math.Abs(tt - target); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

func closestFreqIndex(freqs []float64, target float64) int {
	best, bestDiff := 0, math.Inf(1)
	for i, f := range freqs {
		if d := math.Abs(f - target); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}
