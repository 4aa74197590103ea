package DG2D

import (
	"fmt"

	"gonum.org/v1/gonum/integrate/quad"
)

// TriQuadrature is a triangle rule in barycentric coordinates, weights sum to one
type TriQuadrature struct {
	Degree int
	L      [][3]float64
	W      []float64
}

// NewTriQuadrature returns the smallest tabulated rule exact for polynomials of the requested degree
func NewTriQuadrature(degree int) (tq TriQuadrature, err error) {
	switch {
	case degree < 0:
		err = fmt.Errorf("quadrature degree must be non-negative, have %d", degree)
	case degree <= 1:
		tq = TriQuadrature{
			Degree: 1,
			L:      [][3]float64{{1. / 3, 1. / 3, 1. / 3}},
			W:      []float64{1},
		}
	case degree == 2:
		tq = TriQuadrature{
			Degree: 2,
			L:      [][3]float64{{2. / 3, 1. / 6, 1. / 6}, {1. / 6, 2. / 3, 1. / 6}, {1. / 6, 1. / 6, 2. / 3}},
			W:      []float64{1. / 3, 1. / 3, 1. / 3},
		}
	case degree <= 4:
		// Strang-Fix / Dunavant six point rule
		const (
			a, wa = 0.445948490915965, 0.223381589678011
			b, wb = 0.091576213509771, 0.109951743655322
		)
		tq = TriQuadrature{
			Degree: 4,
			L: [][3]float64{
				{a, a, 1 - 2*a}, {a, 1 - 2*a, a}, {1 - 2*a, a, a},
				{b, b, 1 - 2*b}, {b, 1 - 2*b, b}, {1 - 2*b, b, b},
			},
			W: []float64{wa, wa, wa, wb, wb, wb},
		}
	default:
		err = fmt.Errorf("triangle quadrature of degree %d is not tabulated, maximum is 4", degree)
	}
	return
}

func (tq TriQuadrature) Np() int { return len(tq.W) }

// EdgeQuadrature is a Gauss-Legendre rule on [0,1], weights sum to one
type EdgeQuadrature struct {
	Degree int
	Xi, W  []float64
}

func NewEdgeQuadrature(degree int) (eq EdgeQuadrature) {
	if degree < 1 {
		degree = 1
	}
	n := (degree + 2) / 2
	eq = EdgeQuadrature{
		Degree: 2*n - 1,
		Xi:     make([]float64, n),
		W:      make([]float64, n),
	}
	quad.Legendre{}.FixedLocations(eq.Xi, eq.W, 0, 1)
	return
}

func (eq EdgeQuadrature) Np() int { return len(eq.W) }
