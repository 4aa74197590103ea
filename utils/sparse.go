package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// SparsityPattern collects the (row, column) couplings of a matrix before its storage is allocated
type SparsityPattern struct {
	nr, nc int
	rows   []map[int]struct{}
}

func NewSparsityPattern(nr, nc int) (sp *SparsityPattern) {
	sp = &SparsityPattern{
		nr:   nr,
		nc:   nc,
		rows: make([]map[int]struct{}, nr),
	}
	for i := range sp.rows {
		sp.rows[i] = make(map[int]struct{})
	}
	return
}

// Couple marks every (row, col) pair of the outer product of rowDofs and colDofs as nonzero
func (sp *SparsityPattern) Couple(rowDofs, colDofs []int) {
	for _, i := range rowDofs {
		if i < 0 || i >= sp.nr {
			panic(fmt.Errorf("row index %d out of bounds [0,%d)", i, sp.nr))
		}
		for _, j := range colDofs {
			if j < 0 || j >= sp.nc {
				panic(fmt.Errorf("column index %d out of bounds [0,%d)", j, sp.nc))
			}
			sp.rows[i][j] = struct{}{}
		}
	}
}

// Build allocates a zero valued CSR matrix with the collected pattern, columns sorted within each row
func (sp *SparsityPattern) Build(name string) (R CSR) {
	var (
		indptr = make([]int, sp.nr+1)
		nnz    int
	)
	for i, row := range sp.rows {
		nnz += len(row)
		indptr[i+1] = nnz
	}
	ind := make([]int, 0, nnz)
	for _, row := range sp.rows {
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		ind = append(ind, cols...)
	}
	R = CSR{
		M:    sparse.NewCSR(sp.nr, sp.nc, indptr, ind, make([]float64, nnz)),
		name: name,
	}
	return
}

// CSR is a compressed sparse row matrix whose pattern is fixed at construction; only values change
type CSR struct {
	M    *sparse.CSR
	name string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) Data() []float64               { return m.RawMatrix().Data }
func (m CSR) Indptr() []int                 { return m.RawMatrix().Indptr }
func (m CSR) Ind() []int                    { return m.RawMatrix().Ind }
func (m CSR) NNZ() int                      { return len(m.RawMatrix().Data) }
func (m CSR) Name() string                  { return m.name }
func (m CSR) IsEmpty() bool                 { return m.M == nil }

// Position returns the offset of entry (i, j) within Data, ok is false outside the pattern
func (m CSR) Position(i, j int) (pos int, ok bool) {
	var (
		raw  = m.RawMatrix()
		cols = raw.Ind[raw.Indptr[i]:raw.Indptr[i+1]]
	)
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return raw.Indptr[i] + k, true
	}
	return -1, false
}

// AddAt accumulates val into entry (i, j), which must be part of the pattern
func (m CSR) AddAt(i, j int, val float64) {
	pos, ok := m.Position(i, j)
	if !ok {
		panic(fmt.Errorf("entry (%d,%d) is outside the sparsity pattern of matrix \"%s\"", i, j, m.name))
	}
	m.Data()[pos] += val
}

func (m CSR) Zero() {
	data := m.Data()
	for i := range data {
		data[i] = 0
	}
}

// MulVec computes y = A*x
func (m CSR) MulVec(y, x []float64) {
	for i := range y {
		y[i] = 0
	}
	// MulVecTo accumulates into its destination
	m.M.MulVecTo(y, false, x)
}

// ZeroClone returns a matrix sharing the pattern of m with its own zeroed values
func (m CSR) ZeroClone() (R CSR) {
	raw := m.RawMatrix()
	nr, nc := m.Dims()
	R = CSR{
		M:    sparse.NewCSR(nr, nc, raw.Indptr, raw.Ind, make([]float64, len(raw.Data))),
		name: m.name,
	}
	return
}

// Bandwidths returns the lower and upper bandwidth of the pattern
func (m CSR) Bandwidths() (kl, ku int) {
	var (
		raw   = m.RawMatrix()
		nr, _ = m.Dims()
	)
	for i := 0; i < nr; i++ {
		for _, j := range raw.Ind[raw.Indptr[i]:raw.Indptr[i+1]] {
			if i-j > kl {
				kl = i - j
			}
			if j-i > ku {
				ku = j - i
			}
		}
	}
	return
}

func (m CSR) ToDense() (D *mat.Dense) {
	return m.M.ToDense()
}

func (m CSR) String() string {
	nr, nc := m.Dims()
	return fmt.Sprintf("CSR[%s] %dx%d nnz=%d", m.name, nr, nc, m.NNZ())
}
