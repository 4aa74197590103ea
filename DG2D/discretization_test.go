package DG2D

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfdali/two-phase-flow/geometry2D"
	"github.com/mfdali/two-phase-flow/utils"
)

func TestQuadrature(t *testing.T) {
	// Reference triangle (0,0),(1,0),(0,1): x = L1, y = L2 and mean(x^a y^b) = 2 a! b! / (a+b+2)!
	integrate := func(tq TriQuadrature, f func(x, y float64) float64) (sum float64) {
		for q, l := range tq.L {
			sum += tq.W[q] * f(l[1], l[2])
		}
		return
	}
	{ // Weights are normalized
		for _, degree := range []int{0, 1, 2, 3, 4} {
			tq, err := NewTriQuadrature(degree)
			require.NoError(t, err)
			var sum float64
			for _, w := range tq.W {
				sum += w
			}
			assert.InDelta(t, 1., sum, 1.e-14)
			assert.True(t, tq.Degree >= degree)
		}
	}
	{ // Degree 2
		tq, err := NewTriQuadrature(2)
		require.NoError(t, err)
		assert.Equal(t, 3, tq.Np())
		assert.InDelta(t, 1./6, integrate(tq, func(x, y float64) float64 { return x * x }), 1.e-14)
		assert.InDelta(t, 1./12, integrate(tq, func(x, y float64) float64 { return x * y }), 1.e-14)
	}
	{ // Degree 4
		tq, err := NewTriQuadrature(4)
		require.NoError(t, err)
		assert.Equal(t, 6, tq.Np())
		assert.InDelta(t, 1./15, integrate(tq, func(x, y float64) float64 { return x * x * x * x }), 1.e-12)
		assert.InDelta(t, 1./90, integrate(tq, func(x, y float64) float64 { return x * x * y * y }), 1.e-12)
		assert.InDelta(t, 1./30, integrate(tq, func(x, y float64) float64 { return x * x * y }), 1.e-12)
	}
	{ // Out of range
		_, err := NewTriQuadrature(-1)
		assert.Error(t, err)
		_, err = NewTriQuadrature(5)
		assert.Error(t, err)
	}
	{ // Edge rule
		eq := NewEdgeQuadrature(2)
		assert.Equal(t, 2, eq.Np())
		assert.Equal(t, 3, eq.Degree)
		var sum, cube float64
		for q, xi := range eq.Xi {
			sum += eq.W[q]
			cube += eq.W[q] * xi * xi * xi
		}
		assert.InDelta(t, 1., sum, 1.e-14)
		assert.InDelta(t, 0.25, cube, 1.e-14)
		assert.Equal(t, 1, NewEdgeQuadrature(0).Np())
	}
}

func TestLayout(t *testing.T) {
	l := Layout{NVelocity: 10, NPressure: 4, NSaturation: 4}
	assert.Equal(t, 18, l.Size())
	assert.Equal(t, 0, l.Offset(Velocity))
	assert.Equal(t, 10, l.Offset(Pressure))
	assert.Equal(t, 14, l.Offset(Saturation))
	lo, hi := l.Range(Saturation)
	assert.Equal(t, 14, lo)
	assert.Equal(t, 18, hi)
	U := make([]float64, l.Size())
	l.View(U, Pressure)[1] = 3
	assert.Equal(t, 3., U[11])
	assert.Equal(t, 4, len(l.View(U, Saturation)))
	assert.Equal(t, "saturation", Saturation.String())
}

func newTestDiscretization(t *testing.T, family VelocityFamily) *Discretization {
	mesh, err := geometry2D.NewRectangleMesh(3, 2, 0, 1.5, 0, 1)
	require.NoError(t, err)
	d, err := NewDiscretization(mesh, family, 1, 2)
	require.NoError(t, err)
	return d
}

func TestVelocityBasis(t *testing.T) {
	for _, family := range []VelocityFamily{BDM, RT} {
		d := newTestDiscretization(t, family)
		mesh := d.Mesh
		NEdge := family.NEdgeDOF()
		assert.Equal(t, NEdge*mesh.NumFacets(), d.Layout.NVelocity)
		assert.Equal(t, mesh.NumCells(), d.Layout.NPressure)
		assert.Equal(t, mesh.NumCells(), d.Layout.NSaturation)
		var (
			phi = make([][2]float64, d.NpVel)
			div = make([]float64, d.NpVel)
		)
		for k := range mesh.Tris {
			tri := &mesh.Tris[k]
			// Each basis function is dual to the normal component functionals of the cell
			for i, fn := range tri.Facets {
				n := mesh.Facets[fn].Normal
				for j := 0; j < NEdge; j++ {
					x := mesh.FacetPoint(fn, d.dofXi[j])
					d.Basis[k].Eval(x[0], x[1], phi, div)
					a := i*NEdge + j
					for b := 0; b < d.NpVel; b++ {
						expected := 0.
						if a == b {
							expected = 1
						}
						assert.InDelta(t, expected, phi[b][0]*n[0]+phi[b][1]*n[1], 1.e-12)
					}
					assert.Equal(t, fn*NEdge+j, d.VelDofs[k][a])
				}
			}
			// Cell integral of the divergence equals the outward flux through the owning facet
			for i, fn := range tri.Facets {
				sign := 1.
				if mesh.Side(fn, k) == 1 {
					sign = -1
				}
				for j := 0; j < NEdge; j++ {
					a := i*NEdge + j
					var integral float64
					for _, cp := range d.CellPoints[k] {
						integral += cp.W * cp.DivPhi[a]
					}
					assert.InDelta(t, sign*mesh.Facets[fn].Length/float64(NEdge), integral, 1.e-12)
				}
			}
		}
	}
}

func TestInterpolation(t *testing.T) {
	fields := map[VelocityFamily]func(x, y float64) [2]float64{
		BDM: func(x, y float64) [2]float64 { return [2]float64{1 + 2*x - y, 3*x + 0.5*y} },
		RT:  func(x, y float64) [2]float64 { return [2]float64{1 + 0.5*x, -2 + 0.5*y} },
	}
	for family, field := range fields {
		d := newTestDiscretization(t, family)
		u := make([]float64, d.Layout.NVelocity)
		d.InterpolateVelocity(field, u)
		for k := range d.Mesh.Tris {
			// Fields within the space are reproduced exactly, at the quadrature points and elsewhere
			for _, cp := range d.CellPoints[k] {
				var v [2]float64
				for a, dof := range d.VelDofs[k] {
					v[0] += u[dof] * cp.Phi[a][0]
					v[1] += u[dof] * cp.Phi[a][1]
				}
				exact := field(cp.X[0], cp.X[1])
				assert.InDelta(t, exact[0], v[0], 1.e-12)
				assert.InDelta(t, exact[1], v[1], 1.e-12)
			}
			c := d.Mesh.Tris[k].Centroid
			v := d.EvalVelocity(k, c[0], c[1], u)
			exact := field(c[0], c[1])
			assert.InDelta(t, exact[0], v[0], 1.e-12)
			assert.InDelta(t, exact[1], v[1], 1.e-12)
		}
	}
	{ // Scalars are cell constants
		d := newTestDiscretization(t, BDM)
		s := make([]float64, d.Layout.NSaturation)
		d.InterpolateScalar(func(x, y float64) float64 { return x + y }, s)
		for k, tri := range d.Mesh.Tris {
			assert.InDelta(t, tri.Centroid[0]+tri.Centroid[1], d.EvalScalar(k, 0, 0, s), 1.e-14)
		}
	}
}

func TestFacetPoints(t *testing.T) {
	d := newTestDiscretization(t, BDM)
	for fn, f := range d.Mesh.Facets {
		var length float64
		for _, fp := range d.FacetPoints[fn] {
			length += fp.W
			assert.Equal(t, f.Normal, fp.Normal[0])
			if !f.IsBoundary() {
				assert.Equal(t, 2, d.NSides(fn))
				assert.InDelta(t, -f.Normal[0], fp.Normal[1][0], 1.e-15)
				assert.InDelta(t, -f.Normal[1], fp.Normal[1][1], 1.e-15)
				// Normal components agree from both sides
				u := make([]float64, d.Layout.NVelocity)
				for i := range u {
					u[i] = math.Sin(float64(i))
				}
				var un [2]float64
				for side := 0; side < 2; side++ {
					k := f.Cells[side]
					for a, dof := range d.VelDofs[k] {
						un[side] += u[dof] * (fp.Phi[side][a][0]*f.Normal[0] + fp.Phi[side][a][1]*f.Normal[1])
					}
				}
				assert.InDelta(t, un[0], un[1], 1.e-12)
			} else {
				assert.Equal(t, 1, d.NSides(fn))
				assert.Nil(t, fp.Phi[1])
			}
		}
		assert.InDelta(t, f.Length, length, 1.e-14)
	}
}

func TestDiscretizationErrors(t *testing.T) {
	mesh, err := geometry2D.NewUnitSquareMesh(2)
	require.NoError(t, err)
	_, err = NewDiscretization(mesh, BDM, 2, 2)
	assert.Error(t, err)
	_, err = NewDiscretization(nil, BDM, 1, 2)
	assert.Error(t, err)
	_, err = NewDiscretization(mesh, BDM, 1, 7)
	assert.Error(t, err)
	d, err := NewDiscretization(mesh, RT, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Quad.Degree)

	vf, err := NewVelocityFamily("rt")
	assert.NoError(t, err)
	assert.Equal(t, RT, vf)
	vf, err = NewVelocityFamily("")
	assert.NoError(t, err)
	assert.Equal(t, BDM, vf)
	_, err = NewVelocityFamily("Nedelec")
	assert.Error(t, err)
	assert.Equal(t, 6, BDM.Np())
	assert.Equal(t, 3, RT.Np())

	{ // Repeated functionals give a singular Vandermonde matrix
		var (
			points  = [][2]float64{{0.2, 0.1}, {0.2, 0.1}, {0.5, 0.5}}
			normals = [][2]float64{{1, 0}, {1, 0}, {0, 1}}
		)
		_, err = NewCellVelocityBasis(RT, [2]float64{1. / 3, 1. / 3}, 1, points, normals)
		assert.True(t, errors.Is(err, utils.ErrSingularMatrix), "%v", err)
		_, err = NewCellVelocityBasis(BDM, [2]float64{1. / 3, 1. / 3}, 1, points, normals)
		assert.Error(t, err)
		// The dual basis is read only once built
		cb := d.Basis[0]
		assert.Panics(t, func() { cb.C.Set(0, 0, 1) })
	}
}
