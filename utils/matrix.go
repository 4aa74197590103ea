package utils

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

var ErrSingularMatrix = errors.New("matrix is singular")

const (
	InverseRCondMin  = 1.e-14 // Smallest reciprocal condition number accepted by InverseWithCheck
	InverseTolerance = 1.e-9  // Bound on max|M*Minv - I| accepted by InverseWithCheck
)

type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }

// Chainable methods (extended)
func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	R = NewMatrix(nr, nc, dataR)
	R.M.Copy(m.M)
	return
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	var (
		nr, nc = m.Dims()
	)
	i, j = lim(i, nr), lim(j, nc)
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) AddAt(i, j int, val float64) Matrix { // Changes receiver
	var (
		nr, nc = m.Dims()
	)
	i, j = lim(i, nr), lim(j, nc)
	m.checkWritable()
	m.M.Set(i, j, m.M.At(i, j)+val)
	return m
}

// InverseWithCheck inverts through the LU factors, ill conditioned matrices and inverses whose product with the
// receiver strays from the identity are rejected
func (m Matrix) InverseWithCheck() (R Matrix, err error) {
	var (
		f     LU
		nr, _ = m.Dims()
	)
	if f, err = m.Factor(); err != nil {
		err = fmt.Errorf("unable to invert: %w", err)
		return
	}
	if !(f.RCond >= InverseRCondMin) {
		err = fmt.Errorf("unable to invert, reciprocal condition number %g: %w", f.RCond, ErrSingularMatrix)
		return
	}
	R = f.F
	work := make([]float64, nr*nr)
	if ok := lapack64.Getri(R.RawMatrix(), f.ipiv, work, nr*nr); !ok {
		err = fmt.Errorf("unable to invert: %w", ErrSingularMatrix)
		return
	}
	prod := mat.NewDense(nr, nr, nil)
	prod.Mul(m.M, R.M)
	for i := 0; i < nr; i++ {
		for j := 0; j < nr; j++ {
			delta := prod.At(i, j)
			if i == j {
				delta -= 1
			}
			if !(math.Abs(delta) <= InverseTolerance) {
				err = fmt.Errorf("inverse check failed, (M*Minv - I)[%d,%d] = %g: %w", i, j, delta, ErrSingularMatrix)
				return
			}
		}
	}
	return
}

// LU holds the partially pivoted factors of a square matrix, the receiver of Factor is left unchanged
type LU struct {
	F     Matrix
	ipiv  []int
	RCond float64 // Reciprocal condition number estimate in the 1-norm
}

func (m Matrix) Factor() (f LU, err error) {
	var (
		nr, nc = m.Dims()
	)
	if nr != nc {
		err = fmt.Errorf("unable to factor a %dx%d matrix", nr, nc)
		return
	}
	f.F = m.Copy()
	f.ipiv = make([]int, nr)
	a := f.F.RawMatrix()
	anorm := lapack64.Lange(lapack.MaxColumnSum, a, make([]float64, nr))
	if ok := lapack64.Getrf(a, f.ipiv); !ok {
		err = fmt.Errorf("exactly singular pivot: %w", ErrSingularMatrix)
		return
	}
	f.RCond = lapack64.Gecon(lapack.MaxColumnSum, a, anorm, make([]float64, 4*nr), make([]int, nr))
	return
}

// Solve writes the solution of A x = b into x, b and x may alias
func (f LU) Solve(b, x []float64) {
	nr, _ := f.F.Dims()
	copy(x, b)
	rhs := blas64.General{
		Rows:   nr,
		Cols:   1,
		Stride: 1,
		Data:   x,
	}
	lapack64.Getrs(blas.NoTrans, f.F.RawMatrix(), rhs, f.ipiv)
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func lim(i, imax int) int {
	if i < 0 {
		return imax + i // Support indexing from end, -1 is imax
	}
	return i
}
