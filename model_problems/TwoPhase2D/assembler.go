package TwoPhase2D

import (
	"fmt"
	"math"

	"github.com/mfdali/two-phase-flow/DG2D"
	"github.com/mfdali/two-phase-flow/utils"
)

/*
	Assembler evaluates the residual L(U; U0) of one time step and its Jacobian dL/dU.

	Cells and facets are split into ParallelDegree contiguous partitions. Every partition accumulates into
	its own residual and Jacobian values, which are summed once all partitions finish.
*/
type Assembler struct {
	Disc       *DG2D.Discretization
	Coef       Coefficients
	Dt         float64
	State      *FieldState // Supplies U0
	Partitions *utils.PartitionMap
	facetPM    *utils.PartitionMap
	kinv       [][][2][2]float64 // Inverse permeability per cell, per quadrature point
	pBC, sBC   [][]float64       // Boundary values per facet, per quadrature point, nil on interior facets
	pattern    utils.CSR
	work       []*assemblyWork
}

type assemblyWork struct {
	L  []float64
	J  utils.CSR
	ls *localSystem
	// Gathered local values
	uLoc, u0Loc       []float64
	pLoc, sLoc, s0Loc []float64
	// Gathered facet side values
	sideU0, sideS, sideS0 [2][]float64
	err                   error
}

func NewAssembler(d *DG2D.Discretization, coef Coefficients, dt float64, kinv InversePermeability,
	bcs BoundaryConditions, state *FieldState, ProcLimit int) (as *Assembler, err error) {
	var (
		mesh = d.Mesh
		K    = mesh.NumCells()
	)
	if !(dt > 0) || math.IsInf(dt, 0) {
		err = fmt.Errorf("time step must be positive and finite, have %g", dt)
		return
	}
	if kinv == nil || bcs.Pressure == nil || bcs.InflowSaturation == nil {
		err = fmt.Errorf("permeability and boundary conditions must be set")
		return
	}
	NPar := utils.ParallelDegree(ProcLimit, K)
	as = &Assembler{
		Disc:       d,
		Coef:       coef,
		Dt:         dt,
		State:      state,
		Partitions: utils.NewPartitionMap(NPar, K),
		facetPM:    utils.NewPartitionMap(NPar, mesh.NumFacets()),
		kinv:       make([][][2][2]float64, K),
		pBC:        make([][]float64, mesh.NumFacets()),
		sBC:        make([][]float64, mesh.NumFacets()),
	}
	for k := range mesh.Tris {
		as.kinv[k] = make([][2][2]float64, len(d.CellPoints[k]))
		for q, cp := range d.CellPoints[k] {
			kk := kinv(cp.X[0], cp.X[1])
			for _, v := range [4]float64{kk[0][0], kk[0][1], kk[1][0], kk[1][1]} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					err = fmt.Errorf("%w: inverse permeability at (%g,%g) is %v", ErrInvalidCoefficient, cp.X[0], cp.X[1], kk)
					return nil, err
				}
			}
			as.kinv[k][q] = kk
		}
	}
	for _, fn := range mesh.BoundaryFacets {
		pts := d.FacetPoints[fn]
		as.pBC[fn] = make([]float64, len(pts))
		as.sBC[fn] = make([]float64, len(pts))
		for q, fp := range pts {
			as.pBC[fn][q] = bcs.Pressure(fp.X[0], fp.X[1])
			as.sBC[fn][q] = bcs.InflowSaturation(fp.X[0], fp.X[1])
		}
	}
	as.pattern = as.buildPattern()
	as.work = make([]*assemblyWork, NPar)
	for np := range as.work {
		as.work[np] = &assemblyWork{
			L:     make([]float64, d.Layout.Size()),
			J:     as.pattern.ZeroClone(),
			ls:    newLocalSystem(d.NpVel, d.Scalar.Np),
			uLoc:  make([]float64, d.NpVel),
			u0Loc: make([]float64, d.NpVel),
			pLoc:  make([]float64, d.Scalar.Np),
			sLoc:  make([]float64, d.Scalar.Np),
			s0Loc: make([]float64, d.Scalar.Np),
		}
		for side := 0; side < 2; side++ {
			as.work[np].sideU0[side] = make([]float64, d.NpVel)
			as.work[np].sideS[side] = make([]float64, d.Scalar.Np)
			as.work[np].sideS0[side] = make([]float64, d.Scalar.Np)
		}
	}
	return
}

// buildPattern couples every unknown of a cell with every other unknown of the cell, and the saturations of
// the two cells sharing an interior facet
func (as *Assembler) buildPattern() utils.CSR {
	var (
		d    = as.Disc
		n    = d.Layout.Size()
		sp   = utils.NewSparsityPattern(n, n)
		ls   = newLocalSystem(d.NpVel, d.Scalar.Np)
		offS = d.Layout.Offset(DG2D.Saturation)
	)
	for k := range d.Mesh.Tris {
		ls.reset(d, k)
		dofs := ls.dofs[:ls.size()]
		sp.Couple(dofs, dofs)
	}
	for _, fn := range d.Mesh.InteriorFacets {
		var sat []int
		for _, k := range d.Mesh.Facets[fn].Cells {
			for _, i := range d.ScalarDofs(k) {
				sat = append(sat, offS+i)
			}
		}
		sp.Couple(sat, sat)
	}
	return sp.Build("Jacobian")
}

func (as *Assembler) Size() int { return as.Disc.Layout.Size() }

func (as *Assembler) NewJacobian() utils.CSR { return as.pattern.ZeroClone() }

func (as *Assembler) ParallelDegree() int { return as.Partitions.ParallelDegree }

// Assemble overwrites L with the residual at U and, unless J is empty, the values of J with the Jacobian
func (as *Assembler) Assemble(U, L []float64, J utils.CSR) (err error) {
	var (
		withJ = !J.IsEmpty()
		U0    = as.State.U0
	)
	if len(U) != as.Size() || len(L) != as.Size() {
		return fmt.Errorf("assembly vectors have lengths %d and %d, system size is %d", len(U), len(L), as.Size())
	}
	as.Partitions.Run(func(bn, kMin, kMax int) {
		w := as.work[bn]
		w.err = nil
		for i := range w.L {
			w.L[i] = 0
		}
		var Jw utils.CSR
		if withJ {
			w.J.Zero()
			Jw = w.J
		}
		for k := kMin; k < kMax && w.err == nil; k++ {
			w.err = as.assembleCell(k, U, U0, w, Jw)
		}
		fMin, fMax := as.facetPM.GetBucketRange(bn)
		for fn := fMin; fn < fMax && w.err == nil; fn++ {
			w.err = as.assembleFacet(fn, U, U0, w, Jw)
		}
	})
	for i := range L {
		L[i] = 0
	}
	if withJ {
		J.Zero()
	}
	for _, w := range as.work {
		if w.err != nil {
			return w.err
		}
		for i, v := range w.L {
			L[i] += v
		}
		if withJ {
			data := J.Data()
			for i, v := range w.J.Data() {
				data[i] += v
			}
		}
	}
	if i := utils.FirstNonFinite(L); i >= 0 {
		return fmt.Errorf("non-finite residual entry %d", i)
	}
	if withJ {
		if i := utils.FirstNonFinite(J.Data()); i >= 0 {
			return fmt.Errorf("non-finite Jacobian entry %d", i)
		}
	}
	return
}

func (as *Assembler) gather(k int, U, U0 []float64, w *assemblyWork) {
	var (
		d    = as.Disc
		offP = d.Layout.Offset(DG2D.Pressure)
		offS = d.Layout.Offset(DG2D.Saturation)
	)
	for a, dof := range d.VelDofs[k] {
		w.uLoc[a] = U[dof]
		w.u0Loc[a] = U0[dof]
	}
	for i, dof := range d.ScalarDofs(k) {
		w.pLoc[i] = U[offP+dof]
		w.sLoc[i] = U[offS+dof]
		w.s0Loc[i] = U0[offS+dof]
	}
}

// gatherSide fills the previous velocity and the saturations of cell k into the buffers of one facet side
func (as *Assembler) gatherSide(k, side int, U, U0 []float64, w *assemblyWork) {
	var (
		d    = as.Disc
		offS = d.Layout.Offset(DG2D.Saturation)
	)
	for a, dof := range d.VelDofs[k] {
		w.sideU0[side][a] = U0[dof]
	}
	for i, dof := range d.ScalarDofs(k) {
		w.sideS[side][i] = U[offS+dof]
		w.sideS0[side][i] = U0[offS+dof]
	}
}

func (as *Assembler) assembleCell(k int, U, U0 []float64, w *assemblyWork, J utils.CSR) (err error) {
	var (
		d  = as.Disc
		ls = w.ls
	)
	ls.reset(d, k)
	as.gather(k, U, U0, w)
	for q := range d.CellPoints[k] {
		var (
			cp   = &d.CellPoints[k][q]
			kinv = as.kinv[k][q]
			cs   cellState
		)
		if cs, err = newCellState(cp, kinv, w.uLoc, w.pLoc, w.sLoc, w.s0Loc, as.Coef); err != nil {
			return fmt.Errorf("cell %d: %w", k, err)
		}
		momentumCellTerm(cp, kinv, &cs, ls)
		massCellTerm(cp, &cs, ls)
		transportCellTerm(as.Dt, cp, &cs, ls)
	}
	ls.scatter(w.L, J)
	return
}

func (as *Assembler) assembleFacet(fn int, U, U0 []float64, w *assemblyWork, J utils.CSR) (err error) {
	var (
		d     = as.Disc
		f     = &d.Mesh.Facets[fn]
		ls    = w.ls
		nSide = d.NSides(fn)
		sides [2]facetSide
	)
	ls.reset(d, f.Cells[:nSide]...)
	for side := 0; side < nSide; side++ {
		as.gatherSide(f.Cells[side], side, U, U0, w)
	}
	for q := range d.FacetPoints[fn] {
		fp := &d.FacetPoints[fn][q]
		for side := 0; side < nSide; side++ {
			if sides[side], err = newFacetSide(fp, side, w.sideU0[side], w.sideS[side], w.sideS0[side], as.Coef); err != nil {
				return fmt.Errorf("facet %d: %w", fn, err)
			}
		}
		if nSide == 2 {
			upwindFacetTerm(as.Dt, fp, sides, ls)
			continue
		}
		boundaryPressureTerm(fp, as.pBC[fn][q], ls)
		boundaryTransportTerm(as.Dt, fp, sides[0], as.sBC[fn][q], ls)
	}
	ls.scatter(w.L, J)
	return
}

// Residual evaluates L at U without the Jacobian
func (as *Assembler) Residual(U, L []float64) error {
	return as.Assemble(U, L, utils.CSR{})
}
