package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaussianSolveSatisfiesAx(t *testing.T) {
	a := [][]float64{
		{4, 1, -1},
		{1, 5, 2},
		{-1, 2, 6},
	}
	b := []float64{3, 12, 18}

	x, err := GaussianSolve(cloneReal(a), append([]float64(nil), b...))
	require.NoError(t, err)

	for i := range b {
		var sum float64
		for j := range x {
			sum += a[i][j] * x[j]
		}
		assert.InDelta(t, b[i], sum, 1e-8*max1(b[i]))
	}
}

func TestLUSolveMatchesGaussian(t *testing.T) {
	a := [][]float64{
		{4, 1, -1},
		{1, 5, 2},
		{-1, 2, 6},
	}
	b := []float64{3, 12, 18}

	xg, err := GaussianSolve(cloneReal(a), append([]float64(nil), b...))
	require.NoError(t, err)
	xl, err := LUSolve(cloneReal(a), append([]float64(nil), b...))
	require.NoError(t, err)

	for i := range xg {
		assert.InDelta(t, xg[i], xl[i], 1e-8)
	}
}

func TestGaussianSolveDetectsSingular(t *testing.T) {
	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	b := []float64{1, 2}

	_, err := GaussianSolve(a, b)
	assert.Error(t, err)
}

func TestComplexGaussianSolveSatisfiesAx(t *testing.T) {
	a := [][]complex128{
		{complex(2, 1), complex(0, -1)},
		{complex(1, 0), complex(3, 2)},
	}
	b := []complex128{complex(5, 1), complex(4, -2)}

	x, err := ComplexGaussianSolve(cloneComplex(a), append([]complex128(nil), b...))
	require.NoError(t, err)

	for i := range b {
		var sum complex128
		for j := range x {
			sum += a[i][j] * x[j]
		}
		assert.InDelta(t, real(b[i]), real(sum), 1e-6)
		assert.InDelta(t, imag(b[i]), imag(sum), 1e-6)
	}
}

func max1(v float64) float64 {
	if v < 0 {
		v = -v
	}
	if v < 1 {
		return 1
	}
	return v
}

func TestCircuitMatrixGroundSentinelIgnored(t *testing.T) {
	m := NewMatrix(2, false)
	m.AddElement(0, 0, 99)
	m.AddElement(0, 1, 99)
	m.AddRHS(0, 99)

	m.AddElement(1, 1, 1)
	m.AddRHS(1, 5)
	m.AddElement(2, 2, 1)
	m.AddRHS(2, 7)

	require.NoError(t, m.Solve())
	assert.InDelta(t, 5.0, m.Solution()[1], 1e-9)
	assert.InDelta(t, 7.0, m.Solution()[2], 1e-9)
}

func TestCircuitMatrixLoadGminOnlyTouchesNodeRows(t *testing.T) {
	// Rows 1-2 are node rows with no stamped conductance (dangling
	// nodes); row 3 is a branch-current row, deliberately left with a
	// zero diagonal. LoadGmin(numNodes=2) must regularize rows 1-2 but
	// leave row 3 singular.
	m := NewMatrix(3, false)
	m.LoadGmin(1e-9, 2)

	err := m.Solve()
	assert.Error(t, err, "a zero-diagonal branch row must stay singular; LoadGmin must not reach row 3")
}
