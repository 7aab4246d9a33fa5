package matrix

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/nodalsim/spicecore/pkg/spicerr"
)

// pivotFloor is the minimum acceptable |pivot| before a dense solve is
// declared singular (spec.md §4.4).
const pivotFloor = 1e-12

// GaussianSolve solves Ax=b by Gaussian elimination with partial pivoting.
// It clones A and b internally; the caller's slices are never mutated.
// Grounded on original_source/Solvers.cpp's GaussianEliminationSolver and
// mirrored by ComplexGaussianSolve below for the AC system.
func GaussianSolve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if n == 0 {
		return nil, nil
	}
	A := cloneReal(a)
	B := append([]float64(nil), b...)

	for k := 0; k < n; k++ {
		pivotRow := k
		for i := k + 1; i < n; i++ {
			if math.Abs(A[i][k]) > math.Abs(A[pivotRow][k]) {
				pivotRow = i
			}
		}
		A[k], A[pivotRow] = A[pivotRow], A[k]
		B[k], B[pivotRow] = B[pivotRow], B[k]

		if math.Abs(A[k][k]) < pivotFloor {
			return nil, spicerr.New(spicerr.Singular, fmt.Sprintf("GaussianSolve: zero pivot at column %d", k))
		}

		for i := k + 1; i < n; i++ {
			factor := A[i][k] / A[k][k]
			for j := k; j < n; j++ {
				A[i][j] -= factor * A[k][j]
			}
			B[i] -= factor * B[k]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := 0.0
		for j := i + 1; j < n; j++ {
			sum += A[i][j] * x[j]
		}
		x[i] = (B[i] - sum) / A[i][i]
	}
	return x, nil
}

// LUSolve factorizes A in Doolittle form (L unit-lower-triangular, U
// upper-triangular, no pivoting — spec.md §4.4/§9 accepts this as a
// deliberate divergence from the pivoted Gaussian solver on ill-conditioned
// systems) and forward/back-substitutes for x in Ax=b. Grounded on
// original_source/Solvers.cpp's LUDecompositionSolver.
func LUSolve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if n == 0 {
		return nil, nil
	}

	l := make([][]float64, n)
	u := make([][]float64, n)
	for i := range l {
		l[i] = make([]float64, n)
		u[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		l[i][i] = 1.0
		for k := i; k < n; k++ {
			sum := 0.0
			for j := 0; j < i; j++ {
				sum += l[i][j] * u[j][k]
			}
			u[i][k] = a[i][k] - sum
		}
		if math.Abs(u[i][i]) < pivotFloor {
			return nil, spicerr.New(spicerr.Singular, fmt.Sprintf("LUSolve: zero diagonal at row %d", i))
		}
		for k := i + 1; k < n; k++ {
			sum := 0.0
			for j := 0; j < i; j++ {
				sum += l[k][j] * u[j][i]
			}
			l[k][i] = (a[k][i] - sum) / u[i][i]
		}
	}

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < i; j++ {
			sum += l[i][j] * y[j]
		}
		y[i] = (b[i] - sum) / l[i][i]
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := 0.0
		for j := i + 1; j < n; j++ {
			sum += u[i][j] * x[j]
		}
		if math.Abs(u[i][i]) < pivotFloor {
			return nil, spicerr.New(spicerr.Singular, fmt.Sprintf("LUSolve: zero diagonal at row %d", i))
		}
		x[i] = (y[i] - sum) / u[i][i]
	}
	return x, nil
}

// ComplexGaussianSolve is the complex-field counterpart of GaussianSolve,
// used by the AC small-signal assembler. |.| denotes complex modulus.
func ComplexGaussianSolve(a [][]complex128, b []complex128) ([]complex128, error) {
	n := len(b)
	if n == 0 {
		return nil, nil
	}
	A := cloneComplex(a)
	B := append([]complex128(nil), b...)

	for k := 0; k < n; k++ {
		pivotRow := k
		for i := k + 1; i < n; i++ {
			if cmplx.Abs(A[i][k]) > cmplx.Abs(A[pivotRow][k]) {
				pivotRow = i
			}
		}
		A[k], A[pivotRow] = A[pivotRow], A[k]
		B[k], B[pivotRow] = B[pivotRow], B[k]

		if cmplx.Abs(A[k][k]) < pivotFloor {
			return nil, spicerr.New(spicerr.Singular, fmt.Sprintf("ComplexGaussianSolve: zero pivot at column %d", k))
		}

		for i := k + 1; i < n; i++ {
			factor := A[i][k] / A[k][k]
			for j := k; j < n; j++ {
				A[i][j] -= factor * A[k][j]
			}
			B[i] -= factor * B[k]
		}
	}

	x := make([]complex128, n)
	for i := n - 1; i >= 0; i-- {
		sum := complex(0, 0)
		for j := i + 1; j < n; j++ {
			sum += A[i][j] * x[j]
		}
		x[i] = (B[i] - sum) / A[i][i]
	}
	return x, nil
}

func cloneReal(a [][]float64) [][]float64 {
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func cloneComplex(a [][]complex128) [][]complex128 {
	out := make([][]complex128, len(a))
	for i, row := range a {
		out[i] = append([]complex128(nil), row...)
	}
	return out
}
