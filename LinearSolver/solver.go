package LinearSolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mfdali/two-phase-flow/utils"
)

var ErrLinearSolveFailure = errors.New("linear solve failed")

// Solver solves A x = b for x. A is not modified.
type Solver interface {
	Solve(A utils.CSR, b, x []float64) error
}

func NewSolver(name string) (s Solver, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sparse", "lu":
		s = NewSparse()
	case "banded", "band":
		s = NewBanded()
	case "dense", "lapack":
		s = NewDense()
	default:
		err = fmt.Errorf("unknown linear solver [%s], use sparse, banded or dense", name)
	}
	return
}

func checkDims(A utils.CSR, b, x []float64) (n int, err error) {
	nr, nc := A.Dims()
	switch {
	case nr != nc:
		err = fmt.Errorf("%w: matrix is %dx%d, not square", ErrLinearSolveFailure, nr, nc)
	case len(b) != nr || len(x) != nr:
		err = fmt.Errorf("%w: dimension mismatch, matrix %d, rhs %d, solution %d",
			ErrLinearSolveFailure, nr, len(b), len(x))
	}
	return nr, err
}

func checkFinite(x []float64) (err error) {
	if i := utils.FirstNonFinite(x); i >= 0 {
		err = fmt.Errorf("%w: non-finite solution component %d", ErrLinearSolveFailure, i)
	}
	return
}
