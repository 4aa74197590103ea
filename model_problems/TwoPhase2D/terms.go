package TwoPhase2D

import (
	"math"

	"github.com/mfdali/two-phase-flow/DG2D"
)

/*
	Weak form, per step, with s_mid = (s0 + s)/2, u0 the previous step velocity and n the outward normal:

	Momentum    (v, lambdaInv(s_mid) Kinv u) - (div v, p) + <v.n, p_bc>
	Mass        (q, div u)
	Transport   (r, s - s0) - dt (grad r, F(s_mid) u) + dt <r, F(s_mid) un+> + dt <r, un- s_bc>
	            + dt <<jump(r), un+(+) F(s_mid)(+) - un+(-) F(s_mid)(-)>>
	with un+ = max(u0.n, 0), un- = min(u0.n, 0), < > over boundary facets and << >> over interior facets.

	Each term below adds its residual and its exact derivative with respect to the current unknowns into
	a localSystem. Terms in u0 alone have no derivative.
*/

// cellState is the solution at one cell quadrature point
type cellState struct {
	u, kinvU [2]float64
	divU     float64
	p, s, s0 float64
	coef     CoefficientValues // At s_mid
}

func dot(a, b [2]float64) float64 { return a[0]*b[0] + a[1]*b[1] }

func matVec(m [2][2]float64, v [2]float64) [2]float64 {
	return [2]float64{m[0][0]*v[0] + m[0][1]*v[1], m[1][0]*v[0] + m[1][1]*v[1]}
}

func newCellState(cp *DG2D.CellPoint, kinv [2][2]float64, uLoc, pLoc, sLoc, s0Loc []float64,
	c Coefficients) (cs cellState, err error) {
	for a, ua := range uLoc {
		cs.u[0] += ua * cp.Phi[a][0]
		cs.u[1] += ua * cp.Phi[a][1]
		cs.divU += ua * cp.DivPhi[a]
	}
	for i, chi := range cp.Chi {
		cs.p += pLoc[i] * chi
		cs.s += sLoc[i] * chi
		cs.s0 += s0Loc[i] * chi
	}
	cs.kinvU = matVec(kinv, cs.u)
	cs.coef, err = c.EvaluateChecked(0.5 * (cs.s0 + cs.s))
	return
}

func momentumCellTerm(cp *DG2D.CellPoint, kinv [2][2]float64, cs *cellState, ls *localSystem) {
	var (
		w   = cp.W
		li  = cs.coef.LambdaInv
		dli = cs.coef.DLambdaInv
	)
	for i, phi := range cp.Phi {
		ls.addR(0, DG2D.Velocity, i, w*(li*dot(phi, cs.kinvU)-cp.DivPhi[i]*cs.p))
		for j, phj := range cp.Phi {
			ls.addJ(0, DG2D.Velocity, i, 0, DG2D.Velocity, j, w*li*dot(phi, matVec(kinv, phj)))
		}
		for j, chj := range cp.Chi {
			ls.addJ(0, DG2D.Velocity, i, 0, DG2D.Pressure, j, -w*cp.DivPhi[i]*chj)
			ls.addJ(0, DG2D.Velocity, i, 0, DG2D.Saturation, j, w*dli*0.5*chj*dot(phi, cs.kinvU))
		}
	}
}

func massCellTerm(cp *DG2D.CellPoint, cs *cellState, ls *localSystem) {
	w := cp.W
	for i, chi := range cp.Chi {
		ls.addR(0, DG2D.Pressure, i, w*chi*cs.divU)
		for j, div := range cp.DivPhi {
			ls.addJ(0, DG2D.Pressure, i, 0, DG2D.Velocity, j, w*chi*div)
		}
	}
}

func transportCellTerm(dt float64, cp *DG2D.CellPoint, cs *cellState, ls *localSystem) {
	var (
		w     = cp.W
		f, df = cs.coef.F, cs.coef.DF
	)
	for i, chi := range cp.Chi {
		gradU := dot(cp.GradChi[i], cs.u)
		ls.addR(0, DG2D.Saturation, i, w*(chi*(cs.s-cs.s0)-dt*f*gradU))
		for j, chj := range cp.Chi {
			ls.addJ(0, DG2D.Saturation, i, 0, DG2D.Saturation, j, w*(chi*chj-dt*df*0.5*chj*gradU))
		}
		for j, phj := range cp.Phi {
			ls.addJ(0, DG2D.Saturation, i, 0, DG2D.Velocity, j, -w*dt*f*dot(cp.GradChi[i], phj))
		}
	}
}

// facetSide is the solution seen from one cell of a facet at one facet quadrature point
type facetSide struct {
	un0  float64 // Previous step velocity dotted with the outward normal of this side
	coef CoefficientValues
}

func newFacetSide(fp *DG2D.FacetPoint, side int, u0Loc, sLoc, s0Loc []float64, c Coefficients) (fs facetSide, err error) {
	var (
		u0    [2]float64
		s, s0 float64
	)
	for a, ua := range u0Loc {
		u0[0] += ua * fp.Phi[side][a][0]
		u0[1] += ua * fp.Phi[side][a][1]
	}
	for i, chi := range fp.Chi[side] {
		s += sLoc[i] * chi
		s0 += s0Loc[i] * chi
	}
	fs.un0 = dot(u0, fp.Normal[side])
	fs.coef, err = c.EvaluateChecked(0.5 * (s0 + s))
	return
}

// upwindSplit returns the outflow velocity of each side. The normal component is single valued, so at most
// one side is upwind, and a zero normal velocity transports nothing.
func upwindSplit(sides [2]facetSide) (unPlus [2]float64) {
	v := 0.5 * (sides[0].un0 - sides[1].un0)
	unPlus[0] = math.Max(v, 0)
	unPlus[1] = math.Max(-v, 0)
	return
}

func upwindFacetTerm(dt float64, fp *DG2D.FacetPoint, sides [2]facetSide, ls *localSystem) {
	var (
		unPlus = upwindSplit(sides)
		flux   = unPlus[0]*sides[0].coef.F - unPlus[1]*sides[1].coef.F
		sign   = [2]float64{1, -1}
	)
	if unPlus[0] == 0 && unPlus[1] == 0 {
		return
	}
	for side := 0; side < 2; side++ {
		for i, chi := range fp.Chi[side] {
			c := sign[side] * dt * fp.W * chi
			ls.addR(side, DG2D.Saturation, i, c*flux)
			for j, chj := range fp.Chi[0] {
				ls.addJ(side, DG2D.Saturation, i, 0, DG2D.Saturation, j, c*unPlus[0]*sides[0].coef.DF*0.5*chj)
			}
			for j, chj := range fp.Chi[1] {
				ls.addJ(side, DG2D.Saturation, i, 1, DG2D.Saturation, j, -c*unPlus[1]*sides[1].coef.DF*0.5*chj)
			}
		}
	}
}

func boundaryPressureTerm(fp *DG2D.FacetPoint, pBC float64, ls *localSystem) {
	n := fp.Normal[0]
	for i, phi := range fp.Phi[0] {
		ls.addR(0, DG2D.Velocity, i, fp.W*dot(phi, n)*pBC)
	}
}

func boundaryTransportTerm(dt float64, fp *DG2D.FacetPoint, side facetSide, sBC float64, ls *localSystem) {
	var (
		unPlus  = math.Max(side.un0, 0)
		unMinus = math.Min(side.un0, 0)
	)
	if unPlus == 0 && unMinus == 0 {
		return
	}
	for i, chi := range fp.Chi[0] {
		c := dt * fp.W * chi
		ls.addR(0, DG2D.Saturation, i, c*(side.coef.F*unPlus+unMinus*sBC))
		for j, chj := range fp.Chi[0] {
			ls.addJ(0, DG2D.Saturation, i, 0, DG2D.Saturation, j, c*side.coef.DF*0.5*chj*unPlus)
		}
	}
}
