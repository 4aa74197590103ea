package LinearSolver

import (
	"fmt"

	"github.com/mfdali/two-phase-flow/utils"
)

// Dense factors a dense copy of the matrix with LAPACK, usable for small systems and as a reference
type Dense struct {
	MinRCond  float64 // Reciprocal condition numbers below this are reported as singular
	LastRCond float64
}

func NewDense() *Dense {
	return &Dense{MinRCond: 1.e-14}
}

func (ds *Dense) Solve(A utils.CSR, b, x []float64) (err error) {
	var n int
	if n, err = checkDims(A, b, x); err != nil {
		return
	}
	if n == 0 {
		return
	}
	var (
		M      = utils.NewMatrix(n, n)
		lu     utils.LU
		indptr = A.Indptr()
		ind    = A.Ind()
		data   = A.Data()
	)
	for i := 0; i < n; i++ {
		for p := indptr[i]; p < indptr[i+1]; p++ {
			M.AddAt(i, ind[p], data[p])
		}
	}
	if lu, err = M.Factor(); err != nil {
		return fmt.Errorf("%w: %v", ErrLinearSolveFailure, err)
	}
	ds.LastRCond = lu.RCond
	if !(ds.LastRCond >= ds.MinRCond) {
		return fmt.Errorf("%w: reciprocal condition number %g", ErrLinearSolveFailure, ds.LastRCond)
	}
	lu.Solve(b, x)
	return checkFinite(x)
}
