package NonlinearSolver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mfdali/two-phase-flow/LinearSolver"
	"github.com/mfdali/two-phase-flow/utils"
)

var ErrNewtonDivergence = errors.New("newton iteration diverged")

// Problem is a square nonlinear system L(U) = 0 with Jacobian J = dL/dU
type Problem interface {
	Size() int
	// NewJacobian allocates the Jacobian with its final sparsity pattern, called once per Solve
	NewJacobian() utils.CSR
	// Assemble overwrites L and the values of J at U
	Assemble(U, L []float64, J utils.CSR) error
}

type Stats struct {
	Iterations      int // Linear solves performed
	InitialResidual float64
	Residual        float64
	Converged       bool
	History         []float64 // Residual norm at each assembly
}

type Newton struct {
	AbsoluteTolerance float64
	RelativeTolerance float64
	MaxIterations     int
	Linear            LinearSolver.Solver
	Verbose           bool
	LastSolve         Stats
}

func NewNewton(atol, rtol float64, maxIterations int, linear LinearSolver.Solver) *Newton {
	return &Newton{
		AbsoluteTolerance: atol,
		RelativeTolerance: rtol,
		MaxIterations:     maxIterations,
		Linear:            linear,
	}
}

/*
	Solve drives U to a root of the problem: J dU = -L, U += dU until

		|L|_2 < atol or |L|_2 < rtol * |L_0|_2

	The convergence test is made before each solve, so a converged initial guess performs no linear solve.
	At most MaxIterations linear solves are made; on failure U holds the last iterate.
*/
func (nw *Newton) Solve(p Problem, U []float64) (err error) {
	var (
		n  = p.Size()
		L  = make([]float64, n)
		dU = make([]float64, n)
		J  = p.NewJacobian()
	)
	if len(U) != n {
		return fmt.Errorf("solution has length %d, problem size is %d", len(U), n)
	}
	if nw.Linear == nil {
		nw.Linear = LinearSolver.NewSparse()
	}
	nw.LastSolve = Stats{}
	st := &nw.LastSolve
	for it := 0; ; it++ {
		if err = p.Assemble(U, L, J); err != nil {
			if !errors.Is(err, ErrNewtonDivergence) {
				err = fmt.Errorf("%w: assembly at iteration %d: %w", ErrNewtonDivergence, it, err)
			}
			return
		}
		norm := floats.Norm(L, 2)
		st.History = append(st.History, norm)
		st.Residual = norm
		if it == 0 {
			st.InitialResidual = norm
		}
		if nw.Verbose {
			fmt.Printf("    Newton iteration %2d, residual %8.5e\n", it, norm)
		}
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			return fmt.Errorf("%w: non-finite residual at iteration %d", ErrNewtonDivergence, it)
		}
		if norm == 0 || norm < nw.AbsoluteTolerance || norm < nw.RelativeTolerance*st.InitialResidual {
			st.Converged = true
			return
		}
		if it == nw.MaxIterations {
			return fmt.Errorf("%w: residual %8.5e after %d iterations, initial residual %8.5e",
				ErrNewtonDivergence, norm, it, st.InitialResidual)
		}
		if !utils.IsFinite(J.Data()) {
			return fmt.Errorf("%w: non-finite Jacobian at iteration %d", ErrNewtonDivergence, it)
		}
		floats.Scale(-1, L)
		if err = nw.Linear.Solve(J, L, dU); err != nil {
			return fmt.Errorf("newton iteration %d: %w", it, err)
		}
		st.Iterations++
		floats.Add(U, dU)
	}
}
