package LinearSolver

import (
	"fmt"
	"math"

	"github.com/mfdali/two-phase-flow/utils"
)

/*
	Sparse LU, P A Q = L U, factored column by column in the nested dissection order Q.

	Column k of the factors comes from one sparse triangular solve with the k columns of L already computed.
	The rows it can reach are found by a depth first search through the graph of L, so the work is
	proportional to the floating point operations performed. Rows are pivoted by threshold partial pivoting:
	the diagonal row is kept while it is within PivotThreshold of the largest candidate. Entries that are exactly
	zero in A are dropped before factoring, so couplings that vanish numerically produce no fill.

	L has a unit diagonal stored first in each of its columns, U has its diagonal stored last.
*/

type Sparse struct {
	PivotTolerance float64 // Pivots below PivotTolerance * max|A| are singular
	PivotThreshold float64 // Diagonal pivots within this fraction of the largest candidate are kept
	LeafSize       int     // Subsets below this size are not dissected further
	Reorders       int     // Number of orderings computed, stays at 1 while the pattern is reused

	key  patternKey
	q    []int // Column order, q[k] is the column eliminated at step k
	n    int
	pinv []int // Original row to pivot step
	// Matrix by columns, exact zeros dropped
	ap, ai []int
	ax     []float64
	// Factors
	lp, li []int
	lx     []float64
	up, ui []int
	ux     []float64
	// Work
	x             []float64
	xi            []int
	stack, pstack []int
	mark          []int
	stamp         int
}

func NewSparse() *Sparse {
	return &Sparse{
		PivotTolerance: 1.e-14,
		PivotThreshold: 0.1,
		LeafSize:       DefaultLeafSize,
	}
}

func (ss *Sparse) setup(A utils.CSR) {
	key := keyOf(A)
	if ss.q != nil && key == ss.key {
		return
	}
	n := key.n
	ss.key = key
	ss.n = n
	ss.q = NestedDissection(A, ss.LeafSize)
	ss.pinv = make([]int, n)
	ss.ap = make([]int, n+1)
	ss.ai = make([]int, key.nnz)
	ss.ax = make([]float64, key.nnz)
	ss.lp = make([]int, n+1)
	ss.up = make([]int, n+1)
	ss.x = make([]float64, n)
	ss.xi = make([]int, n)
	ss.stack = make([]int, n)
	ss.pstack = make([]int, n)
	ss.mark = make([]int, n)
	ss.stamp = 0
	ss.li, ss.lx, ss.ui, ss.ux = nil, nil, nil, nil
	ss.Reorders++
}

// FactorNNZ is the number of entries stored in L and U by the last factorization
func (ss *Sparse) FactorNNZ() int { return len(ss.li) + len(ss.ui) }

func (ss *Sparse) Solve(A utils.CSR, b, x []float64) (err error) {
	var n int
	if n, err = checkDims(A, b, x); err != nil {
		return
	}
	if n == 0 {
		return
	}
	ss.setup(A)
	if err = ss.factor(A); err != nil {
		return
	}
	ss.substitute(b, x)
	return checkFinite(x)
}

// gatherColumns transposes the nonzero entries of A into the column storage, returning max|A|
func (ss *Sparse) gatherColumns(A utils.CSR) (maxAbs float64) {
	var (
		n      = ss.n
		indptr = A.Indptr()
		ind    = A.Ind()
		data   = A.Data()
		ap     = ss.ap
	)
	for j := range ap {
		ap[j] = 0
	}
	for p, j := range ind {
		if data[p] != 0 {
			ap[j+1]++
		}
		maxAbs = math.Max(maxAbs, math.Abs(data[p]))
	}
	for j := 0; j < n; j++ {
		ap[j+1] += ap[j]
	}
	next := ss.xi
	copy(next, ap[:n])
	for i := 0; i < n; i++ {
		for p := indptr[i]; p < indptr[i+1]; p++ {
			if v := data[p]; v != 0 {
				j := ind[p]
				ss.ai[next[j]] = i
				ss.ax[next[j]] = v
				next[j]++
			}
		}
	}
	return
}

func (ss *Sparse) factor(A utils.CSR) (err error) {
	var (
		n      = ss.n
		maxAbs = ss.gatherColumns(A)
		x      = ss.x
		xi     = ss.xi
	)
	if !(maxAbs > 0) || math.IsInf(maxAbs, 0) {
		return fmt.Errorf("%w: matrix norm is %g", ErrLinearSolveFailure, maxAbs)
	}
	tiny := ss.PivotTolerance * maxAbs
	for i := range ss.pinv {
		ss.pinv[i] = -1
	}
	ss.li, ss.lx = ss.li[:0], ss.lx[:0]
	ss.ui, ss.ux = ss.ui[:0], ss.ux[:0]
	for k := 0; k < n; k++ {
		ss.lp[k] = len(ss.li)
		ss.up[k] = len(ss.ui)
		col := ss.q[k]
		top := ss.reach(col)
		for _, i := range xi[top:] {
			x[i] = 0
		}
		for p := ss.ap[col]; p < ss.ap[col+1]; p++ {
			x[ss.ai[p]] = ss.ax[p]
		}
		// x = L \ A(:,col), in topological order
		for _, j := range xi[top:] {
			J := ss.pinv[j]
			if J < 0 {
				continue
			}
			xj := x[j]
			if xj == 0 {
				continue
			}
			for p := ss.lp[J] + 1; p < ss.lp[J+1]; p++ {
				x[ss.li[p]] -= ss.lx[p] * xj
			}
		}
		var (
			ipiv = -1
			amax = -1.
		)
		for _, i := range xi[top:] {
			if ss.pinv[i] < 0 {
				if a := math.Abs(x[i]); a > amax {
					ipiv, amax = i, a
				}
			} else {
				ss.ui = append(ss.ui, ss.pinv[i])
				ss.ux = append(ss.ux, x[i])
			}
		}
		if ipiv < 0 || !(amax > tiny) {
			return fmt.Errorf("%w: pivot %d is %g, singular to working precision", ErrLinearSolveFailure, k, math.Max(amax, 0))
		}
		if ss.pinv[col] < 0 && math.Abs(x[col]) >= ss.PivotThreshold*amax {
			ipiv = col
		}
		pivot := x[ipiv]
		ss.ui = append(ss.ui, k)
		ss.ux = append(ss.ux, pivot)
		ss.pinv[ipiv] = k
		ss.li = append(ss.li, ipiv)
		ss.lx = append(ss.lx, 1)
		for _, i := range xi[top:] {
			if ss.pinv[i] < 0 && x[i] != 0 {
				ss.li = append(ss.li, i)
				ss.lx = append(ss.lx, x[i]/pivot)
			}
		}
	}
	ss.lp[n] = len(ss.li)
	ss.up[n] = len(ss.ui)
	// Rows of L in pivot order
	for p, i := range ss.li {
		ss.li[p] = ss.pinv[i]
	}
	return
}

// reach leaves in xi[top:] the rows reachable from the nonzeros of column col of A through the columns of L
// computed so far, in topological order
func (ss *Sparse) reach(col int) (top int) {
	top = ss.n
	ss.stamp++
	for p := ss.ap[col]; p < ss.ap[col+1]; p++ {
		if i := ss.ai[p]; ss.mark[i] != ss.stamp {
			top = ss.dfs(i, top)
		}
	}
	return
}

func (ss *Sparse) dfs(root, top int) int {
	var (
		stack  = ss.stack
		pstack = ss.pstack
		head   = 0
	)
	stack[0] = root
	for head >= 0 {
		j := stack[head]
		J := ss.pinv[j]
		if ss.mark[j] != ss.stamp {
			ss.mark[j] = ss.stamp
			if J >= 0 {
				pstack[head] = ss.lp[J] + 1 // Skip the unit diagonal
			}
		}
		done := true
		if J >= 0 {
			for p := pstack[head]; p < ss.lp[J+1]; p++ {
				i := ss.li[p]
				if ss.mark[i] == ss.stamp {
					continue
				}
				pstack[head] = p + 1
				head++
				stack[head] = i
				done = false
				break
			}
		}
		if done {
			head--
			top--
			ss.xi[top] = j
		}
	}
	return top
}

func (ss *Sparse) substitute(b, x []float64) {
	var (
		n = ss.n
		y = ss.x
	)
	for i := 0; i < n; i++ {
		y[ss.pinv[i]] = b[i]
	}
	for j := 0; j < n; j++ {
		if yj := y[j]; yj != 0 {
			for p := ss.lp[j] + 1; p < ss.lp[j+1]; p++ {
				y[ss.li[p]] -= ss.lx[p] * yj
			}
		}
	}
	for j := n - 1; j >= 0; j-- {
		d := ss.up[j+1] - 1
		y[j] /= ss.ux[d]
		if yj := y[j]; yj != 0 {
			for p := ss.up[j]; p < d; p++ {
				y[ss.ui[p]] -= ss.ux[p] * yj
			}
		}
	}
	for k := 0; k < n; k++ {
		x[ss.q[k]] = y[k]
	}
}
