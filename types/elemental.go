package types

import (
	"fmt"
	"math"
)

// EdgeKey packs the two vertex numbers of an edge, lower vertex in the low 32 bits, so both
// traversal directions of an edge share one key
type EdgeKey uint64

func NewEdgeKey(verts [2]int) EdgeKey {
	lo, hi := verts[0], verts[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < 0 || hi > math.MaxUint32 {
		panic(fmt.Errorf("unable to pack vertices %d and %d into an edge key", verts[0], verts[1]))
	}
	return EdgeKey(uint64(lo) | uint64(hi)<<32)
}

// GetVertices returns the vertices in ascending order, or descending when rev is set
func (ek EdgeKey) GetVertices(rev bool) (verts [2]int) {
	verts = [2]int{int(ek & math.MaxUint32), int(ek >> 32)}
	if rev {
		verts[0], verts[1] = verts[1], verts[0]
	}
	return
}
