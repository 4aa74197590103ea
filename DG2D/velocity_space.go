package DG2D

import (
	"fmt"
	"strings"

	"github.com/mfdali/two-phase-flow/utils"
)

/*
	H(div) conforming velocity spaces on triangles.

	Degrees of freedom live on the facets: DOF j of facet f is the normal component u(x_fj).n_f, where n_f is
	the facet's global normal (out of its first cell) and x_fj are the Gauss-Legendre points of the facet,
	traversed from the lower to the higher global vertex number. Cells sharing a facet therefore share the
	DOF values and the normal component is continuous across the facet.

	The local basis of a cell is the dual basis of these functionals within the polynomial space of the
	element, found by inverting the local Vandermonde matrix V[a][m] = functional_a(p_m).

	BDM order 1: P1 vector fields, 2 DOFs per edge
		p = (1,0), (xi,0), (eta,0), (0,1), (0,xi), (0,eta)
	RT order 1 (lowest order Raviart-Thomas): 1 DOF per edge
		p = (1,0), (0,1), (xi,eta)
	with xi = (x-xc)/h, eta = (y-yc)/h scaled about the cell centroid.
*/

type VelocityFamily uint8

const (
	BDM VelocityFamily = iota
	RT
)

func NewVelocityFamily(label string) (vf VelocityFamily, err error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "", "BDM":
		vf = BDM
	case "RT":
		vf = RT
	default:
		err = fmt.Errorf("unknown velocity element [%s], use BDM or RT", label)
	}
	return
}

func (vf VelocityFamily) String() string {
	switch vf {
	case BDM:
		return "BDM"
	case RT:
		return "RT"
	}
	return fmt.Sprintf("VelocityFamily(%d)", uint8(vf))
}

func (vf VelocityFamily) NEdgeDOF() int {
	if vf == RT {
		return 1
	}
	return 2
}

func (vf VelocityFamily) Np() int { return 3 * vf.NEdgeDOF() }

// monomial evaluates vector monomial m of the family and its divergence in scaled coordinates
func (vf VelocityFamily) monomial(m int, xi, eta float64) (v [2]float64, div float64) {
	switch vf {
	case BDM:
		switch m {
		case 0:
			return [2]float64{1, 0}, 0
		case 1:
			return [2]float64{xi, 0}, 1
		case 2:
			return [2]float64{eta, 0}, 0
		case 3:
			return [2]float64{0, 1}, 0
		case 4:
			return [2]float64{0, xi}, 0
		case 5:
			return [2]float64{0, eta}, 1
		}
	case RT:
		switch m {
		case 0:
			return [2]float64{1, 0}, 0
		case 1:
			return [2]float64{0, 1}, 0
		case 2:
			return [2]float64{xi, eta}, 2
		}
	}
	panic(fmt.Errorf("monomial %d out of range for %s", m, vf))
}

// CellVelocityBasis is the dual basis of one cell, phi_a = sum_m C[m][a] p_m
type CellVelocityBasis struct {
	Family VelocityFamily
	Center [2]float64
	H      float64
	C      utils.Matrix
}

// NewCellVelocityBasis inverts the Vandermonde matrix of the functionals (point, normal) pairs
func NewCellVelocityBasis(vf VelocityFamily, center [2]float64, h float64,
	points [][2]float64, normals [][2]float64) (cb *CellVelocityBasis, err error) {
	var (
		Np = vf.Np()
		V  = utils.NewMatrix(Np, Np)
	)
	if len(points) != Np || len(normals) != Np {
		err = fmt.Errorf("%s needs %d functionals, have %d points and %d normals", vf, Np, len(points), len(normals))
		return
	}
	cb = &CellVelocityBasis{
		Family: vf,
		Center: center,
		H:      h,
	}
	for a := 0; a < Np; a++ {
		xi, eta := cb.scaled(points[a][0], points[a][1])
		for m := 0; m < Np; m++ {
			p, _ := vf.monomial(m, xi, eta)
			V.Set(a, m, p[0]*normals[a][0]+p[1]*normals[a][1])
		}
	}
	if cb.C, err = V.InverseWithCheck(); err != nil {
		err = fmt.Errorf("singular %s Vandermonde matrix: %w", vf, err)
		return nil, err
	}
	cb.C.SetReadOnly("C")
	return
}

func (cb *CellVelocityBasis) scaled(x, y float64) (xi, eta float64) {
	return (x - cb.Center[0]) / cb.H, (y - cb.Center[1]) / cb.H
}

// Eval fills the basis values and divergences at (x, y)
func (cb *CellVelocityBasis) Eval(x, y float64, phi [][2]float64, div []float64) {
	var (
		Np      = cb.Family.Np()
		xi, eta = cb.scaled(x, y)
	)
	for a := 0; a < Np; a++ {
		phi[a] = [2]float64{}
		div[a] = 0
	}
	for m := 0; m < Np; m++ {
		p, d := cb.Family.monomial(m, xi, eta)
		for a := 0; a < Np; a++ {
			c := cb.C.At(m, a)
			phi[a][0] += c * p[0]
			phi[a][1] += c * p[1]
			div[a] += c * d / cb.H
		}
	}
}
