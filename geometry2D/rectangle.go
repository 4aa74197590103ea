package geometry2D

import (
	"fmt"

	"github.com/mfdali/two-phase-flow/types"
)

// NewRectangleMesh triangulates [xmin,xmax]x[ymin,ymax] with nx by ny squares, each cut along the diagonal
// from its lower left to its upper right corner. Boundaries are tagged left, right, bottom and top.
func NewRectangleMesh(nx, ny int, xmin, xmax, ymin, ymax float64) (tm *TriMesh, err error) {
	if nx < 1 || ny < 1 {
		err = fmt.Errorf("rectangle mesh needs at least one cell in each direction, have %dx%d", nx, ny)
		return
	}
	if !(xmax > xmin) || !(ymax > ymin) {
		err = fmt.Errorf("empty rectangle [%g,%g]x[%g,%g]", xmin, xmax, ymin, ymax)
		return
	}
	var (
		points  = make([]Point, (nx+1)*(ny+1))
		tris    = make([][3]int, 0, 2*nx*ny)
		bcEdges = make(map[types.BCTAG][][2]int, 4)
		vert    = func(i, j int) int { return i + j*(nx+1) }
	)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			points[vert(i, j)] = Point{X: [2]float64{
				xmin + (xmax-xmin)*float64(i)/float64(nx),
				ymin + (ymax-ymin)*float64(j)/float64(ny),
			}}
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v0, v1, v2, v3 := vert(i, j), vert(i+1, j), vert(i, j+1), vert(i+1, j+1)
			tris = append(tris, [3]int{v0, v1, v3}, [3]int{v0, v3, v2})
		}
	}
	for j := 0; j < ny; j++ {
		bcEdges[types.BC_Left] = append(bcEdges[types.BC_Left], [2]int{vert(0, j), vert(0, j+1)})
		bcEdges[types.BC_Right] = append(bcEdges[types.BC_Right], [2]int{vert(nx, j), vert(nx, j+1)})
	}
	for i := 0; i < nx; i++ {
		bcEdges[types.BC_Bottom] = append(bcEdges[types.BC_Bottom], [2]int{vert(i, 0), vert(i+1, 0)})
		bcEdges[types.BC_Top] = append(bcEdges[types.BC_Top], [2]int{vert(i, ny), vert(i+1, ny)})
	}
	return NewTriMesh(points, tris, bcEdges)
}

func NewUnitSquareMesh(n int) (tm *TriMesh, err error) {
	return NewRectangleMesh(n, n, 0, 1, 0, 1)
}
