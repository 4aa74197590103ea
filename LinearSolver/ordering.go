package LinearSolver

import (
	"github.com/mfdali/two-phase-flow/utils"
)

/*
	Nested dissection of the symmetrized pattern of A.

	A level structure rooted at a pseudo peripheral vertex is cut at the level holding the median vertex. The
	vertices of that level adjacent to the next level separate the two halves, which are dissected in turn and
	numbered before the separator. Disconnected subsets are dissected one component at a time, subsets of at
	most LeafSize vertices are numbered in reverse breadth first order.
*/

const DefaultLeafSize = 64

// NestedDissection returns the elimination order of the unknowns of A, perm[new] = old
func NestedDissection(A utils.CSR, leafSize int) (perm []int) {
	n, _ := A.Dims()
	nd := &dissector{
		adj:   symmetricAdjacency(A),
		label: make([]int, n),
		seen:  make([]int, n),
		leaf:  max(leafSize, 1),
		perm:  make([]int, 0, n),
	}
	nodes := make([]int, n)
	for i := range nodes {
		nodes[i] = i
	}
	nd.dissect(nodes)
	return nd.perm
}

type dissector struct {
	adj       [][]int
	label     []int // Subset currently holding each vertex
	nextLabel int
	seen      []int // BFS visit stamps
	stamp     int
	leaf      int
	perm      []int
}

func (nd *dissector) newLabel(nodes []int) (id int) {
	nd.nextLabel++
	id = nd.nextLabel
	for _, v := range nodes {
		nd.label[v] = id
	}
	return
}

// bfs visits the vertices labelled id reachable from root, levels[l] starts level l within order
func (nd *dissector) bfs(root, id int) (order, levels []int) {
	nd.stamp++
	nd.seen[root] = nd.stamp
	order = append(order, root)
	for head := 0; head < len(order); {
		levels = append(levels, head)
		end := len(order)
		for ; head < end; head++ {
			for _, w := range nd.adj[order[head]] {
				if nd.label[w] == id && nd.seen[w] != nd.stamp {
					nd.seen[w] = nd.stamp
					order = append(order, w)
				}
			}
		}
	}
	levels = append(levels, len(order))
	return
}

// components splits nodes into the connected subsets of the vertices labelled id
func (nd *dissector) components(nodes []int, id int) (comps [][]int) {
	nd.stamp++
	for _, root := range nodes {
		if nd.seen[root] == nd.stamp {
			continue
		}
		nd.seen[root] = nd.stamp
		comp := []int{root}
		for head := 0; head < len(comp); head++ {
			for _, w := range nd.adj[comp[head]] {
				if nd.label[w] == id && nd.seen[w] != nd.stamp {
					nd.seen[w] = nd.stamp
					comp = append(comp, w)
				}
			}
		}
		comps = append(comps, comp)
	}
	return
}

// peripheral walks to a vertex of near maximal eccentricity by restarting from the lowest degree vertex of
// the last level while the level count grows
func (nd *dissector) peripheral(root, id int) (order, levels []int) {
	order, levels = nd.bfs(root, id)
	for {
		var (
			last = order[levels[len(levels)-2]:]
			next = last[0]
		)
		for _, v := range last[1:] {
			if len(nd.adj[v]) < len(nd.adj[next]) {
				next = v
			}
		}
		o, l := nd.bfs(next, id)
		if len(l) <= len(levels) {
			return
		}
		order, levels = o, l
	}
}

func (nd *dissector) dissect(nodes []int) {
	if len(nodes) == 0 {
		return
	}
	id := nd.newLabel(nodes)
	if comps := nd.components(nodes, id); len(comps) > 1 {
		for _, comp := range comps {
			nd.dissect(comp)
		}
		return
	}
	order, levels := nd.peripheral(nodes[0], id)
	nLevel := len(levels) - 1
	if len(nodes) <= nd.leaf || nLevel < 3 {
		// Reversed breadth first order keeps the profile of the leaf small
		for k := len(order) - 1; k >= 0; k-- {
			nd.perm = append(nd.perm, order[k])
		}
		return
	}
	// Median level, kept away from the first and last so both halves are non empty
	mid := 1
	for mid < nLevel-2 && levels[mid+1] <= len(order)/2 {
		mid++
	}
	var (
		below     = order[levels[mid+1]:]
		separator []int
		above     = make([]int, 0, levels[mid+1])
	)
	above = append(above, order[:levels[mid]]...)
	for _, v := range nd.levelSlice(order, levels, mid) {
		nd.label[v] = 0
	}
	for _, v := range below {
		nd.label[v] = -id
	}
	for _, v := range nd.levelSlice(order, levels, mid) {
		cut := false
		for _, w := range nd.adj[v] {
			if nd.label[w] == -id {
				cut = true
				break
			}
		}
		if cut {
			separator = append(separator, v)
		} else {
			above = append(above, v)
		}
	}
	nd.dissect(above)
	nd.dissect(below)
	nd.perm = append(nd.perm, separator...)
}

func (nd *dissector) levelSlice(order, levels []int, l int) []int {
	return order[levels[l]:levels[l+1]]
}
