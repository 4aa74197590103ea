package LinearSolver

import (
	"sort"

	"github.com/mfdali/two-phase-flow/utils"
)

// ReverseCuthillMcKee orders the unknowns of the symmetrized pattern of A to reduce its bandwidth.
// perm[new] = old.
func ReverseCuthillMcKee(A utils.CSR) (perm []int) {
	var (
		n, _ = A.Dims()
		adj  = symmetricAdjacency(A)
	)
	degree := func(i int) int { return len(adj[i]) }

	var (
		visited = make([]bool, n)
		order   = make([]int, 0, n)
		roots   = make([]int, n)
	)
	for i := range roots {
		roots[i] = i
	}
	// Each connected component starts from its lowest degree vertex
	sort.SliceStable(roots, func(a, b int) bool { return degree(roots[a]) < degree(roots[b]) })
	for _, root := range roots {
		if visited[root] {
			continue
		}
		visited[root] = true
		head := len(order)
		order = append(order, root)
		for head < len(order) {
			v := order[head]
			head++
			start := len(order)
			for _, w := range adj[v] {
				if !visited[w] {
					visited[w] = true
					order = append(order, w)
				}
			}
			next := order[start:]
			sort.SliceStable(next, func(a, b int) bool { return degree(next[a]) < degree(next[b]) })
		}
	}
	perm = make([]int, n)
	for i, v := range order {
		perm[n-1-i] = v
	}
	return
}

// symmetricAdjacency lists the neighbors of every vertex in the pattern of A + A^T, without self loops
func symmetricAdjacency(A utils.CSR) (adj [][]int) {
	var (
		n, _   = A.Dims()
		indptr = A.Indptr()
		ind    = A.Ind()
	)
	adj = make([][]int, n)
	for i := 0; i < n; i++ {
		for _, j := range ind[indptr[i]:indptr[i+1]] {
			if i != j {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}
	for i := range adj {
		adj[i] = uniqueInts(adj[i])
	}
	return
}

func uniqueInts(a []int) []int {
	if len(a) < 2 {
		return a
	}
	sort.Ints(a)
	j := 1
	for i := 1; i < len(a); i++ {
		if a[i] != a[j-1] {
			a[j] = a[i]
			j++
		}
	}
	return a[:j]
}

// PermutedBandwidths returns the lower and upper bandwidth of A after the symmetric permutation perm
func PermutedBandwidths(A utils.CSR, perm []int) (kl, ku int) {
	var (
		n, _   = A.Dims()
		indptr = A.Indptr()
		ind    = A.Ind()
		iperm  = inversePermutation(perm)
	)
	for i := 0; i < n; i++ {
		pi := iperm[i]
		for _, j := range ind[indptr[i]:indptr[i+1]] {
			pj := iperm[j]
			if pi-pj > kl {
				kl = pi - pj
			}
			if pj-pi > ku {
				ku = pj - pi
			}
		}
	}
	return
}

func inversePermutation(perm []int) (iperm []int) {
	iperm = make([]int, len(perm))
	for i, p := range perm {
		iperm[p] = i
	}
	return
}
