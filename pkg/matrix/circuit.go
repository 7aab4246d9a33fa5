// Package matrix implements the dense real and complex MNA systems the
// circuit package assembles into, and the direct solvers in solver.go.
// Its API shape — AddElement/AddRHS/LoadGmin/Clear/Solve/Solution over a
// 1-based-indexed matrix with index 0 reserved as the ground sentinel — is
// carried over from edp1096-toy-spice/pkg/matrix/circuit.go, but the
// storage is dense (a plain [][]float64/[][]complex128) and the solve path
// is GaussianSolve/LUSolve/ComplexGaussianSolve instead of an external
// sparse factorization library: spec.md's Non-goals explicitly exclude
// sparse-matrix techniques, and its §4.4 specifies the dense algorithms as
// the deliverable.
package matrix

import (
	"fmt"

	"github.com/nodalsim/spicecore/pkg/spicerr"
)

// Method selects which dense solver CircuitMatrix.Solve uses for the real
// system. The complex (AC) system always solves via ComplexGaussianSolve.
type Method int

const (
	// Gaussian is Gaussian elimination with partial pivoting (the default).
	Gaussian Method = iota
	// LU is Doolittle LU factorization with forward/back substitution.
	LU
)

// CircuitMatrix owns the dense coefficient matrix and right-hand side for
// one MNA system, real or complex. Index 0 is the ground sentinel and is
// silently ignored by every Add* method, matching spec.md §4.2's "k=-1
// denoting the ground row/col which is simply omitted from writes."
type CircuitMatrix struct {
	Size      int
	Method    Method
	isComplex bool

	a  [][]float64
	b  []float64
	ac [][]complex128
	bc []complex128

	solution  []float64
	solutionC []complex128
}

// NewMatrix allocates a size×size system (node count plus extra unknowns),
// real or complex depending on isComplex. The name and signature mirror
// the teacher's constructor; the body builds dense storage instead of
// handing off to github.com/edp1096/sparse.
func NewMatrix(size int, isComplex bool) *CircuitMatrix {
	m := &CircuitMatrix{Size: size, isComplex: isComplex}
	// Allocate (size+1) so 1-based indices [1,size] are valid and index 0
	// stays a harmless, always-zero ground sentinel row/column.
	dim := size + 1
	if isComplex {
		m.ac = make([][]complex128, dim)
		for i := range m.ac {
			m.ac[i] = make([]complex128, dim)
		}
		m.bc = make([]complex128, dim)
	} else {
		m.a = make([][]float64, dim)
		for i := range m.a {
			m.a[i] = make([]float64, dim)
		}
		m.b = make([]float64, dim)
	}
	return m
}

func (m *CircuitMatrix) inBounds(i, j int) bool {
	return i > 0 && j > 0 && i <= m.Size && j <= m.Size
}

// AddElement accumulates value into A[i][j] of the real system. i or j == 0
// (ground) is silently ignored, per the stamping convention every device
// in pkg/device relies on.
func (m *CircuitMatrix) AddElement(i, j int, value float64) {
	if i == 0 || j == 0 {
		return
	}
	if !m.inBounds(i, j) {
		panic(fmt.Sprintf("matrix: index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size))
	}
	m.a[i][j] += value
}

// AddRHS accumulates value into b[i] of the real system. i == 0 is ignored.
func (m *CircuitMatrix) AddRHS(i int, value float64) {
	if i == 0 {
		return
	}
	if i < 0 || i > m.Size {
		panic(fmt.Sprintf("matrix: rhs index out of bounds (i=%d, size=%d)", i, m.Size))
	}
	m.b[i] += value
}

// AddComplexElement accumulates real+imag into A[i][j] of the complex system.
func (m *CircuitMatrix) AddComplexElement(i, j int, real, imag float64) {
	if i == 0 || j == 0 {
		return
	}
	if !m.inBounds(i, j) {
		panic(fmt.Sprintf("matrix: index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size))
	}
	m.ac[i][j] += complex(real, imag)
}

// AddComplexRHS accumulates real+imag into b[i] of the complex system.
func (m *CircuitMatrix) AddComplexRHS(i int, real, imag float64) {
	if i == 0 {
		return
	}
	if i < 0 || i > m.Size {
		panic(fmt.Sprintf("matrix: rhs index out of bounds (i=%d, size=%d)", i, m.Size))
	}
	m.bc[i] += complex(real, imag)
}

// LoadGmin adds gmin to the diagonal of every KCL (non-ground-node) row —
// rows [1,numNodes], not the branch-current rows that follow them —
// regularizing nearly-singular systems from dangling capacitive-only
// nodes (spec.md §4.2's GMIN floor).
func (m *CircuitMatrix) LoadGmin(gmin float64, numNodes int) {
	for i := 1; i <= numNodes && i <= m.Size; i++ {
		m.a[i][i] += gmin
	}
}

// Clear zeroes the matrix and right-hand side so the next Stamp call starts
// from a blank system. The circuit assembler allocates a fresh matrix for
// every assembly and does not call it.
func (m *CircuitMatrix) Clear() {
	if m.isComplex {
		for i := range m.ac {
			for j := range m.ac[i] {
				m.ac[i][j] = 0
			}
			m.bc[i] = 0
		}
		return
	}
	for i := range m.a {
		for j := range m.a[i] {
			m.a[i][j] = 0
		}
		m.b[i] = 0
	}
}

// Solve factors and solves the currently-stamped system, storing the
// result for Solution / GetComplexSolution. The dense solvers clone their
// input, so the stamped matrix survives the call unmodified.
func (m *CircuitMatrix) Solve() error {
	// The dense solvers are 0-based: hand them rows and columns [1,Size],
	// leaving out the ground sentinel row and column.
	if m.isComplex {
		rows := make([][]complex128, m.Size)
		for i := range rows {
			rows[i] = m.ac[i+1][1:]
		}
		x, err := ComplexGaussianSolve(rows, m.bc[1:])
		if err != nil {
			return spicerr.Wrap(spicerr.Singular, "CircuitMatrix.Solve", err)
		}
		m.solutionC = make([]complex128, m.Size+1)
		copy(m.solutionC[1:], x)
		return nil
	}

	rows := make([][]float64, m.Size)
	for i := range rows {
		rows[i] = m.a[i+1][1:]
	}
	var x []float64
	var err error
	switch m.Method {
	case LU:
		x, err = LUSolve(rows, m.b[1:])
	default:
		x, err = GaussianSolve(rows, m.b[1:])
	}
	if err != nil {
		return spicerr.Wrap(spicerr.Singular, "CircuitMatrix.Solve", err)
	}
	m.solution = make([]float64, m.Size+1)
	copy(m.solution[1:], x)
	return nil
}

// GetDiagElement returns the current value of A[i][i] in the real system,
// used by diagnostics that want to report pivot magnitudes.
func (m *CircuitMatrix) GetDiagElement(i int) float64 {
	if i <= 0 || i > m.Size {
		return 0
	}
	return m.a[i][i]
}

// RHS returns the real right-hand side vector, 1-indexed.
func (m *CircuitMatrix) RHS() []float64 {
	return m.b
}

// Solution returns the real solution vector, 1-indexed (index 0 is always 0).
func (m *CircuitMatrix) Solution() []float64 {
	return m.solution
}

// GetComplexSolution returns the real and imaginary parts of unknown i from
// the most recent complex solve.
func (m *CircuitMatrix) GetComplexSolution(i int) (float64, float64) {
	if !m.isComplex || i <= 0 || i > m.Size || m.solutionC == nil {
		return 0, 0
	}
	v := m.solutionC[i]
	return real(v), imag(v)
}

// IsComplex reports whether this matrix holds the complex (AC) system.
func (m *CircuitMatrix) IsComplex() bool {
	return m.isComplex
}

// PrintSystem renders the stamped equations and right-hand side, one
// equation per row, skipping all-zero rows. Grounded on the teacher's
// CircuitMatrix.PrintSystem, kept as a debugging aid; nothing in this
// module calls it.
func (m *CircuitMatrix) PrintSystem() {
	fmt.Printf("\nCircuit equations (%dx%d):\n", m.Size, m.Size)
	for i := 1; i <= m.Size; i++ {
		rowHasElements := false
		var line string
		for j := 1; j <= m.Size; j++ {
			if m.isComplex {
				v := m.ac[i][j]
				if v != 0 {
					line += fmt.Sprintf("  (%g%+gi)*x%d", real(v), imag(v), j)
					rowHasElements = true
				}
				continue
			}
			if m.a[i][j] != 0 {
				line += fmt.Sprintf("  %+g*x%d", m.a[i][j], j)
				rowHasElements = true
			}
		}
		if !rowHasElements {
			continue
		}
		if m.isComplex {
			rhs := m.bc[i]
			fmt.Printf("Equation %d:%s = %g%+gi\n", i, line, real(rhs), imag(rhs))
		} else {
			fmt.Printf("Equation %d:%s = %g\n", i, line, m.b[i])
		}
	}
}
