package geometry2D

import (
	"fmt"
	"math"

	"github.com/mfdali/two-phase-flow/types"
)

type Point struct {
	X [2]float64
}

// Tri is a counter-clockwise triangle. Local edge i joins Verts[i] and Verts[(i+1)%3]
type Tri struct {
	Verts    [3]int
	Facets   [3]int // Global facet number of each local edge
	Area     float64
	Centroid [2]float64
	Diameter float64 // Longest edge
}

// Facet is an edge of the triangulation shared by one (boundary) or two (interior) triangles
type Facet struct {
	Verts     [2]int     // Global vertex numbers, ascending
	Cells     [2]int     // Cells[1] is -1 on the boundary
	LocalEdge [2]int     // Local edge number of this facet within each cell
	Normal    [2]float64 // Unit normal pointing out of Cells[0]
	Length    float64
	Tag       types.BCTAG
}

func (f *Facet) IsBoundary() bool { return f.Cells[1] < 0 }

type TriMesh struct {
	Points         []Point
	Tris           []Tri
	Facets         []Facet
	InteriorFacets []int
	BoundaryFacets []int
}

// NewTriMesh builds the facet connectivity of a triangulation. Every boundary edge must appear in bcEdges,
// keyed by its boundary tag; triangles are reordered counter-clockwise when needed.
func NewTriMesh(points []Point, tris [][3]int, bcEdges map[types.BCTAG][][2]int) (tm *TriMesh, err error) {
	var (
		edgeMap = make(map[types.EdgeKey]int, 3*len(tris)/2+len(points))
		tagMap  = make(map[types.EdgeKey]types.BCTAG)
	)
	if len(tris) == 0 {
		err = fmt.Errorf("triangulation has no elements")
		return
	}
	for tag, edges := range bcEdges {
		if !tag.IsBoundary() {
			err = fmt.Errorf("boundary edges listed under the interior tag")
			return
		}
		for _, e := range edges {
			tagMap[types.NewEdgeKey(e)] = tag
		}
	}
	tm = &TriMesh{
		Points: points,
		Tris:   make([]Tri, len(tris)),
	}
	for k, verts := range tris {
		for _, v := range verts {
			if v < 0 || v >= len(points) {
				err = fmt.Errorf("triangle %d references vertex %d, have %d vertices", k, v, len(points))
				return
			}
		}
		tri := &tm.Tris[k]
		tri.Verts = verts
		signedArea := tm.signedArea(verts)
		if signedArea < 0 {
			tri.Verts[1], tri.Verts[2] = tri.Verts[2], tri.Verts[1]
			signedArea = -signedArea
		}
		if signedArea == 0 {
			err = fmt.Errorf("triangle %d is degenerate", k)
			return
		}
		tri.Area = signedArea
		for i := 0; i < 3; i++ {
			p := points[tri.Verts[i]].X
			tri.Centroid[0] += p[0] / 3
			tri.Centroid[1] += p[1] / 3
		}
		for i := 0; i < 3; i++ {
			v0, v1 := tri.Verts[i], tri.Verts[(i+1)%3]
			key := types.NewEdgeKey([2]int{v0, v1})
			fn, found := edgeMap[key]
			if !found {
				fn = len(tm.Facets)
				edgeMap[key] = fn
				tm.Facets = append(tm.Facets, Facet{
					Verts:     key.GetVertices(false),
					Cells:     [2]int{k, -1},
					LocalEdge: [2]int{i, -1},
				})
				f := &tm.Facets[fn]
				p0, p1 := points[v0].X, points[v1].X
				dx, dy := p1[0]-p0[0], p1[1]-p0[1]
				f.Length = math.Hypot(dx, dy)
				f.Normal = [2]float64{dy / f.Length, -dx / f.Length}
			} else {
				f := &tm.Facets[fn]
				if f.Cells[1] >= 0 {
					err = fmt.Errorf("edge %v is shared by more than two triangles", key.GetVertices(false))
					return
				}
				f.Cells[1] = k
				f.LocalEdge[1] = i
			}
			tri.Facets[i] = fn
			if tm.Facets[fn].Length > tri.Diameter {
				tri.Diameter = tm.Facets[fn].Length
			}
		}
	}
	for fn := range tm.Facets {
		f := &tm.Facets[fn]
		if !f.IsBoundary() {
			tm.InteriorFacets = append(tm.InteriorFacets, fn)
			continue
		}
		tag, found := tagMap[types.NewEdgeKey(f.Verts)]
		if !found {
			err = fmt.Errorf("boundary edge %v has no boundary marker", f.Verts)
			return
		}
		f.Tag = tag
		tm.BoundaryFacets = append(tm.BoundaryFacets, fn)
	}
	return
}

func (tm *TriMesh) signedArea(verts [3]int) float64 {
	var (
		a, b, c = tm.Points[verts[0]].X, tm.Points[verts[1]].X, tm.Points[verts[2]].X
	)
	return 0.5 * ((b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1]))
}

func (tm *TriMesh) NumCells() int  { return len(tm.Tris) }
func (tm *TriMesh) NumFacets() int { return len(tm.Facets) }

// Side returns 0 or 1 for the position of cell k within facet fn, and -1 if k does not touch fn
func (tm *TriMesh) Side(fn, k int) int {
	f := &tm.Facets[fn]
	switch k {
	case f.Cells[0]:
		return 0
	case f.Cells[1]:
		return 1
	}
	return -1
}

// OutwardNormal is the unit normal of facet fn pointing out of the cell on the given side
func (tm *TriMesh) OutwardNormal(fn, side int) (n [2]float64) {
	n = tm.Facets[fn].Normal
	if side == 1 {
		n[0], n[1] = -n[0], -n[1]
	}
	return
}

// FacetPoint maps xi in [0,1] to the facet, traversed from its lower to its higher vertex number
func (tm *TriMesh) FacetPoint(fn int, xi float64) (x [2]float64) {
	var (
		f      = &tm.Facets[fn]
		p0, p1 = tm.Points[f.Verts[0]].X, tm.Points[f.Verts[1]].X
	)
	x[0] = p0[0] + xi*(p1[0]-p0[0])
	x[1] = p0[1] + xi*(p1[1]-p0[1])
	return
}

// Barycentric returns the barycentric coordinates of (x, y) in cell k
func (tm *TriMesh) Barycentric(k int, x, y float64) (l [3]float64) {
	var (
		tri     = &tm.Tris[k]
		a, b, c = tm.Points[tri.Verts[0]].X, tm.Points[tri.Verts[1]].X, tm.Points[tri.Verts[2]].X
		det     = (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	)
	l[0] = ((b[1]-c[1])*(x-c[0]) + (c[0]-b[0])*(y-c[1])) / det
	l[1] = ((c[1]-a[1])*(x-c[0]) + (a[0]-c[0])*(y-c[1])) / det
	l[2] = 1 - l[0] - l[1]
	return
}

// Locate finds the first cell containing (x, y), points on shared edges resolve to the lowest cell number
func (tm *TriMesh) Locate(x, y float64) (k int, found bool) {
	const tol = 1.e-12
	for k = range tm.Tris {
		l := tm.Barycentric(k, x, y)
		if l[0] >= -tol && l[1] >= -tol && l[2] >= -tol {
			return k, true
		}
	}
	return -1, false
}

// BoundingBox returns the lower left and upper right corners of the vertex cloud
func (tm *TriMesh) BoundingBox() (lo, hi [2]float64) {
	lo = [2]float64{math.Inf(1), math.Inf(1)}
	hi = [2]float64{math.Inf(-1), math.Inf(-1)}
	for _, p := range tm.Points {
		for i := 0; i < 2; i++ {
			lo[i] = math.Min(lo[i], p.X[i])
			hi[i] = math.Max(hi[i], p.X[i])
		}
	}
	return
}
