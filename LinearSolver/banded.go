package LinearSolver

import (
	"fmt"
	"math"

	"github.com/mfdali/two-phase-flow/utils"
)

/*
	Banded LU with partial pivoting on a Reverse Cuthill-McKee reordering of the matrix.

	Row i of the reordered matrix is stored in store[i*W:(i+1)*W] with W = 2*kl + ku + 1, entry (i,j) at
	offset j - i + kl. The extra kl columns above the band hold the fill produced by row interchanges.
	Multipliers overwrite the eliminated entries of column k, and row interchanges at step k only touch
	columns k and beyond, so the forward solve replays interchange then elimination step by step.
*/

type Banded struct {
	PivotTolerance float64 // Pivots below PivotTolerance * max|A| are singular
	Reorders       int     // Number of orderings computed, stays at 1 while the pattern is reused

	// Cached ordering, reused while the sparsity pattern is unchanged
	key    patternKey
	perm   []int
	iperm  []int
	n, W   int
	kl, ku int
	store  []float64
	ipiv   []int
	bp, xp []float64
}

type patternKey struct {
	n, nnz int
	ind    *int
}

func NewBanded() *Banded {
	return &Banded{PivotTolerance: 1.e-14}
}

func keyOf(A utils.CSR) (key patternKey) {
	n, _ := A.Dims()
	key = patternKey{n: n, nnz: A.NNZ()}
	if ind := A.Ind(); len(ind) > 0 {
		key.ind = &ind[0]
	}
	return
}

func (bs *Banded) setup(A utils.CSR) {
	key := keyOf(A)
	if bs.perm != nil && key == bs.key {
		return
	}
	bs.key = key
	bs.n = key.n
	bs.perm = ReverseCuthillMcKee(A)
	bs.iperm = inversePermutation(bs.perm)
	bs.kl, bs.ku = PermutedBandwidths(A, bs.perm)
	bs.W = 2*bs.kl + bs.ku + 1
	bs.store = make([]float64, bs.n*bs.W)
	bs.ipiv = make([]int, bs.n)
	bs.bp = make([]float64, bs.n)
	bs.xp = make([]float64, bs.n)
	bs.Reorders++
}

// Bandwidths of the reordered matrix, valid after the first Solve
func (bs *Banded) Bandwidths() (kl, ku int) { return bs.kl, bs.ku }

func (bs *Banded) at(i, j int) *float64 {
	return &bs.store[i*bs.W+j-i+bs.kl]
}

func (bs *Banded) Solve(A utils.CSR, b, x []float64) (err error) {
	var n int
	if n, err = checkDims(A, b, x); err != nil {
		return
	}
	if n == 0 {
		return
	}
	bs.setup(A)
	if err = bs.factor(A); err != nil {
		return
	}
	for i := 0; i < n; i++ {
		bs.bp[i] = b[bs.perm[i]]
	}
	bs.substitute()
	for i := 0; i < n; i++ {
		x[bs.perm[i]] = bs.xp[i]
	}
	return checkFinite(x)
}

func (bs *Banded) factor(A utils.CSR) (err error) {
	var (
		n      = bs.n
		indptr = A.Indptr()
		ind    = A.Ind()
		data   = A.Data()
		maxAbs float64
	)
	for i := range bs.store {
		bs.store[i] = 0
	}
	for i := 0; i < n; i++ {
		pi := bs.iperm[i]
		for p := indptr[i]; p < indptr[i+1]; p++ {
			*bs.at(pi, bs.iperm[ind[p]]) += data[p]
			maxAbs = math.Max(maxAbs, math.Abs(data[p]))
		}
	}
	if !(maxAbs > 0) || math.IsInf(maxAbs, 0) {
		return fmt.Errorf("%w: matrix norm is %g", ErrLinearSolveFailure, maxAbs)
	}
	tiny := bs.PivotTolerance * maxAbs
	for k := 0; k < n; k++ {
		var (
			lmax = min(k+bs.kl, n-1)
			jmax = min(k+bs.kl+bs.ku, n-1)
			p    = k
			pval = math.Abs(*bs.at(k, k))
		)
		for i := k + 1; i <= lmax; i++ {
			if v := math.Abs(*bs.at(i, k)); v > pval {
				p, pval = i, v
			}
		}
		if !(pval > tiny) {
			return fmt.Errorf("%w: pivot %d is %g, singular to working precision", ErrLinearSolveFailure, k, pval)
		}
		bs.ipiv[k] = p
		if p != k {
			for j := k; j <= jmax; j++ {
				a, b := bs.at(k, j), bs.at(p, j)
				*a, *b = *b, *a
			}
		}
		pivot := *bs.at(k, k)
		for i := k + 1; i <= lmax; i++ {
			lik := bs.at(i, k)
			if *lik == 0 {
				continue
			}
			m := *lik / pivot
			*lik = m
			for j := k + 1; j <= jmax; j++ {
				*bs.at(i, j) -= m * *bs.at(k, j)
			}
		}
	}
	return
}

func (bs *Banded) substitute() {
	var (
		n = bs.n
		y = bs.bp
	)
	for k := 0; k < n; k++ {
		if p := bs.ipiv[k]; p != k {
			y[k], y[p] = y[p], y[k]
		}
		lmax := min(k+bs.kl, n-1)
		for i := k + 1; i <= lmax; i++ {
			y[i] -= *bs.at(i, k) * y[k]
		}
	}
	for i := n - 1; i >= 0; i-- {
		var (
			sum  = y[i]
			jmax = min(i+bs.kl+bs.ku, n-1)
		)
		for j := i + 1; j <= jmax; j++ {
			sum -= *bs.at(i, j) * bs.xp[j]
		}
		bs.xp[i] = sum / *bs.at(i, i)
	}
}
