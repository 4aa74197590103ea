package TwoPhase2D

import (
	"fmt"

	"github.com/mfdali/two-phase-flow/DG2D"
	"github.com/mfdali/two-phase-flow/utils"
)

/*
	localSystem is the element residual and Jacobian of one cell or facet.

	Local unknowns are numbered side by side, and within a side block by block:
		[ velocity (NpVel) | pressure (NpS) | saturation (NpS) ] for side 0, then the same for side 1
	Equation rows use the same numbering as the unknowns, the test function of row (side, block, i) is the
	basis function of unknown (side, block, i).
*/
type localSystem struct {
	NpVel, NpS int
	nSides     int
	nPerSide   int
	dofs       []int // Global DOF of each local unknown
	R          []float64
	J          []float64 // Row major, len(dofs) x len(dofs)
}

func newLocalSystem(NpVel, NpS int) (ls *localSystem) {
	nPerSide := NpVel + 2*NpS
	ls = &localSystem{
		NpVel:    NpVel,
		NpS:      NpS,
		nPerSide: nPerSide,
		dofs:     make([]int, 2*nPerSide),
		R:        make([]float64, 2*nPerSide),
		J:        make([]float64, 4*nPerSide*nPerSide),
	}
	return
}

// reset clears the system and binds it to the DOFs of the given cells, one per side
func (ls *localSystem) reset(d *DG2D.Discretization, cells ...int) {
	var (
		lay  = d.Layout
		offP = lay.Offset(DG2D.Pressure)
		offS = lay.Offset(DG2D.Saturation)
	)
	ls.nSides = len(cells)
	n := ls.size()
	for i := 0; i < n; i++ {
		ls.R[i] = 0
	}
	for i := 0; i < n*n; i++ {
		ls.J[i] = 0
	}
	for side, k := range cells {
		for a, dof := range d.VelDofs[k] {
			ls.dofs[ls.index(side, DG2D.Velocity, a)] = dof
		}
		for i := 0; i < ls.NpS; i++ {
			ls.dofs[ls.index(side, DG2D.Pressure, i)] = offP + k*ls.NpS + i
			ls.dofs[ls.index(side, DG2D.Saturation, i)] = offS + k*ls.NpS + i
		}
	}
}

func (ls *localSystem) size() int { return ls.nSides * ls.nPerSide }

func (ls *localSystem) index(side int, b DG2D.Block, i int) int {
	switch b {
	case DG2D.Velocity:
		return side*ls.nPerSide + i
	case DG2D.Pressure:
		return side*ls.nPerSide + ls.NpVel + i
	case DG2D.Saturation:
		return side*ls.nPerSide + ls.NpVel + ls.NpS + i
	}
	panic(fmt.Errorf("unknown block %d", b))
}

func (ls *localSystem) addR(side int, b DG2D.Block, i int, val float64) {
	ls.R[ls.index(side, b, i)] += val
}

// addJ accumulates d(row equation)/d(column unknown)
func (ls *localSystem) addJ(rowSide int, rowBlock DG2D.Block, i int, colSide int, colBlock DG2D.Block, j int, val float64) {
	ls.J[ls.index(rowSide, rowBlock, i)*ls.size()+ls.index(colSide, colBlock, j)] += val
}

// scatter adds the local system into the global residual and Jacobian. Zero Jacobian entries are skipped,
// every nonzero entry must lie in the sparsity pattern of J.
func (ls *localSystem) scatter(L []float64, J utils.CSR) {
	var (
		n    = ls.size()
		data []float64
	)
	if !J.IsEmpty() {
		data = J.Data()
	}
	for i := 0; i < n; i++ {
		gi := ls.dofs[i]
		L[gi] += ls.R[i]
		if data == nil {
			continue
		}
		row := ls.J[i*n : (i+1)*n]
		for j, val := range row {
			if val == 0 {
				continue
			}
			pos, ok := J.Position(gi, ls.dofs[j])
			if !ok {
				panic(fmt.Errorf("local entry (%d,%d) maps outside the Jacobian pattern at (%d,%d)", i, j, gi, ls.dofs[j]))
			}
			data[pos] += val
		}
	}
}
