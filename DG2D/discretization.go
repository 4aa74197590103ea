package DG2D

import (
	"fmt"

	"github.com/mfdali/two-phase-flow/geometry2D"
	"gonum.org/v1/gonum/integrate/quad"
)

// CellPoint holds the basis data of one cell quadrature point
type CellPoint struct {
	X       [2]float64
	W       float64 // Quadrature weight times cell area
	Phi     [][2]float64
	DivPhi  []float64
	Chi     []float64
	GradChi [][2]float64
}

// FacetPoint holds the basis data of both cells sharing a facet at one facet quadrature point.
// Side 1 is unused on the boundary.
type FacetPoint struct {
	X      [2]float64
	W      float64       // Quadrature weight times facet length
	Normal [2][2]float64 // Unit normal pointing out of the cell on each side
	Phi    [2][][2]float64
	Chi    [2][]float64
}

type Discretization struct {
	Mesh        *geometry2D.TriMesh
	Family      VelocityFamily
	Order       int
	Scalar      ScalarSpace
	Quad        TriQuadrature
	EdgeQuad    EdgeQuadrature
	Layout      Layout
	NpVel       int // Velocity DOFs per cell
	Basis       []*CellVelocityBasis
	VelDofs     [][]int // Global velocity DOF of each local velocity basis function, per cell
	CellPoints  [][]CellPoint
	FacetPoints [][]FacetPoint
	dofXi       []float64 // Positions of the velocity DOFs along a facet
}

func NewDiscretization(mesh *geometry2D.TriMesh, family VelocityFamily, order, quadDegree int) (d *Discretization, err error) {
	if mesh == nil {
		err = fmt.Errorf("discretization needs a mesh")
		return
	}
	if order != 1 {
		err = fmt.Errorf("polynomial order %d is not implemented, only order 1", order)
		return
	}
	if quadDegree <= 0 {
		quadDegree = order + 1
	}
	d = &Discretization{
		Mesh:   mesh,
		Family: family,
		Order:  order,
		NpVel:  family.Np(),
	}
	if d.Scalar, err = NewScalarSpace(order - 1); err != nil {
		return nil, err
	}
	if d.Quad, err = NewTriQuadrature(quadDegree); err != nil {
		return nil, err
	}
	d.EdgeQuad = NewEdgeQuadrature(quadDegree)
	var (
		NEdge = family.NEdgeDOF()
		K     = mesh.NumCells()
	)
	d.dofXi = make([]float64, NEdge)
	quad.Legendre{}.FixedLocations(d.dofXi, make([]float64, NEdge), 0, 1)
	d.Layout = Layout{
		NVelocity:   NEdge * mesh.NumFacets(),
		NPressure:   d.Scalar.Np * K,
		NSaturation: d.Scalar.Np * K,
	}
	if err = d.buildCellBases(); err != nil {
		return nil, err
	}
	d.buildCellPoints()
	d.buildFacetPoints()
	return
}

func (d *Discretization) buildCellBases() (err error) {
	var (
		mesh  = d.Mesh
		NEdge = d.Family.NEdgeDOF()
	)
	d.Basis = make([]*CellVelocityBasis, mesh.NumCells())
	d.VelDofs = make([][]int, mesh.NumCells())
	for k := range mesh.Tris {
		var (
			tri     = &mesh.Tris[k]
			points  = make([][2]float64, d.NpVel)
			normals = make([][2]float64, d.NpVel)
			dofs    = make([]int, d.NpVel)
		)
		for i, fn := range tri.Facets {
			for j := 0; j < NEdge; j++ {
				a := i*NEdge + j
				points[a] = mesh.FacetPoint(fn, d.dofXi[j])
				normals[a] = mesh.Facets[fn].Normal
				dofs[a] = fn*NEdge + j
			}
		}
		if d.Basis[k], err = NewCellVelocityBasis(d.Family, tri.Centroid, tri.Diameter, points, normals); err != nil {
			return fmt.Errorf("cell %d: %w", k, err)
		}
		d.VelDofs[k] = dofs
	}
	return
}

func (d *Discretization) newCellPoint() CellPoint {
	return CellPoint{
		Phi:     make([][2]float64, d.NpVel),
		DivPhi:  make([]float64, d.NpVel),
		Chi:     make([]float64, d.Scalar.Np),
		GradChi: make([][2]float64, d.Scalar.Np),
	}
}

func (d *Discretization) buildCellPoints() {
	var (
		mesh = d.Mesh
	)
	d.CellPoints = make([][]CellPoint, mesh.NumCells())
	for k := range mesh.Tris {
		var (
			tri = &mesh.Tris[k]
			pts = make([]CellPoint, d.Quad.Np())
		)
		for q, l := range d.Quad.L {
			cp := d.newCellPoint()
			for i := 0; i < 3; i++ {
				p := mesh.Points[tri.Verts[i]].X
				cp.X[0] += l[i] * p[0]
				cp.X[1] += l[i] * p[1]
			}
			cp.W = d.Quad.W[q] * tri.Area
			d.Basis[k].Eval(cp.X[0], cp.X[1], cp.Phi, cp.DivPhi)
			d.Scalar.Eval(cp.Chi, cp.GradChi)
			pts[q] = cp
		}
		d.CellPoints[k] = pts
	}
}

func (d *Discretization) buildFacetPoints() {
	var (
		mesh = d.Mesh
	)
	d.FacetPoints = make([][]FacetPoint, mesh.NumFacets())
	for fn := range mesh.Facets {
		var (
			f   = &mesh.Facets[fn]
			pts = make([]FacetPoint, d.EdgeQuad.Np())
		)
		for q, xi := range d.EdgeQuad.Xi {
			fp := FacetPoint{
				X: mesh.FacetPoint(fn, xi),
				W: d.EdgeQuad.W[q] * f.Length,
			}
			for side := 0; side < d.NSides(fn); side++ {
				k := f.Cells[side]
				fp.Normal[side] = mesh.OutwardNormal(fn, side)
				fp.Phi[side] = make([][2]float64, d.NpVel)
				fp.Chi[side] = make([]float64, d.Scalar.Np)
				d.Basis[k].Eval(fp.X[0], fp.X[1], fp.Phi[side], make([]float64, d.NpVel))
				d.Scalar.Eval(fp.Chi[side], make([][2]float64, d.Scalar.Np))
			}
			pts[q] = fp
		}
		d.FacetPoints[fn] = pts
	}
}

// NSides is 1 for a boundary facet and 2 for an interior facet
func (d *Discretization) NSides(fn int) int {
	if d.Mesh.Facets[fn].IsBoundary() {
		return 1
	}
	return 2
}

// ScalarDofs returns the block local indices of the scalar DOFs of cell k
func (d *Discretization) ScalarDofs(k int) (dofs []int) {
	Np := d.Scalar.Np
	dofs = make([]int, Np)
	for i := range dofs {
		dofs[i] = k*Np + i
	}
	return
}

// EvalVelocity evaluates the velocity block u at (x, y) within cell k
func (d *Discretization) EvalVelocity(k int, x, y float64, u []float64) (v [2]float64) {
	var (
		phi = make([][2]float64, d.NpVel)
		div = make([]float64, d.NpVel)
	)
	d.Basis[k].Eval(x, y, phi, div)
	for a, dof := range d.VelDofs[k] {
		v[0] += u[dof] * phi[a][0]
		v[1] += u[dof] * phi[a][1]
	}
	return
}

// EvalScalar evaluates a pressure or saturation block at (x, y) within cell k
func (d *Discretization) EvalScalar(k int, x, y float64, s []float64) (val float64) {
	var (
		chi     = make([]float64, d.Scalar.Np)
		gradChi = make([][2]float64, d.Scalar.Np)
	)
	d.Scalar.Eval(chi, gradChi)
	for i, dof := range d.ScalarDofs(k) {
		val += s[dof] * chi[i]
	}
	return
}

// InterpolateVelocity sets the velocity DOFs of u from the normal components of a vector field
func (d *Discretization) InterpolateVelocity(field func(x, y float64) [2]float64, u []float64) {
	NEdge := d.Family.NEdgeDOF()
	for fn := range d.Mesh.Facets {
		n := d.Mesh.Facets[fn].Normal
		for j := 0; j < NEdge; j++ {
			x := d.Mesh.FacetPoint(fn, d.dofXi[j])
			v := field(x[0], x[1])
			u[fn*NEdge+j] = v[0]*n[0] + v[1]*n[1]
		}
	}
}

// InterpolateScalar sets a DG0 block to the cell centroid values of a scalar field
func (d *Discretization) InterpolateScalar(field func(x, y float64) float64, s []float64) {
	for k := range d.Mesh.Tris {
		c := d.Mesh.Tris[k].Centroid
		for _, dof := range d.ScalarDofs(k) {
			s[dof] = field(c[0], c[1])
		}
	}
}
