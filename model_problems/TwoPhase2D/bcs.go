package TwoPhase2D

import (
	"math"

	"github.com/mfdali/two-phase-flow/geometry2D"
	"github.com/mfdali/two-phase-flow/types"
)

type ScalarField func(x, y float64) float64

/*
	Pressure is imposed weakly on the whole boundary. The inflow saturation is only seen where the previous
	step's velocity enters the domain, u0.n < 0; on outflow facets the interior saturation is transported out.
*/
type BoundaryConditions struct {
	Pressure         ScalarField
	InflowSaturation ScalarField
}

// LinearPressure is p = a + bx*x + by*y
func LinearPressure(a, bx, by float64) ScalarField {
	return func(x, y float64) float64 { return a + bx*x + by*y }
}

// LeftInflow injects value where x < x0, zero elsewhere
func LeftInflow(x0, value float64) ScalarField {
	return func(x, y float64) float64 {
		if x < x0 {
			return value
		}
		return 0
	}
}

// TaggedInflow injects the value of the boundary marker nearest to the point, markers without a value inject zero
func TaggedInflow(mesh *geometry2D.TriMesh, values map[types.BCTAG]float64) ScalarField {
	return func(x, y float64) float64 {
		var (
			best    = math.Inf(1)
			bestTag = types.BC_None
		)
		for _, fn := range mesh.BoundaryFacets {
			f := &mesh.Facets[fn]
			if d := segmentDistance(mesh.Points[f.Verts[0]].X, mesh.Points[f.Verts[1]].X, x, y); d < best {
				best, bestTag = d, f.Tag
			}
		}
		return values[bestTag]
	}
}

func segmentDistance(a, b [2]float64, x, y float64) float64 {
	var (
		dx, dy = b[0] - a[0], b[1] - a[1]
		t      = ((x-a[0])*dx + (y-a[1])*dy) / (dx*dx + dy*dy)
	)
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(x-a[0]-t*dx, y-a[1]-t*dy)
}

// DefaultBoundaryConditions drives the flow left to right with p = 1 - x and injects water on the left side
func DefaultBoundaryConditions() BoundaryConditions {
	return BoundaryConditions{
		Pressure:         LinearPressure(1, -1, 0),
		InflowSaturation: LeftInflow(1.e-14, 1),
	}
}
