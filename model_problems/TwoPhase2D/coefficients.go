package TwoPhase2D

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidCoefficient = errors.New("invalid coefficient")

/*
	Constitutive functions of water saturation s with mu_rel = mu_water / mu_oil:

		Inverse total mobility  lambdaInv(s) = 1 / (s^2/mu_rel + (1-s)^2)
		Fractional flow         F(s) = s^2 / (s^2 + mu_rel (1-s)^2)

	Saturation is not clamped, both denominators are positive for every finite s.
*/
type Coefficients struct {
	MuRel float64
}

func NewCoefficients(muRel float64) (c Coefficients, err error) {
	if !(muRel > 0) || math.IsInf(muRel, 0) {
		err = fmt.Errorf("%w: viscosity ratio must be positive and finite, have %g", ErrInvalidCoefficient, muRel)
		return
	}
	c = Coefficients{MuRel: muRel}
	return
}

func (c Coefficients) LambdaInv(s float64) float64 {
	return 1. / (s*s/c.MuRel + (1-s)*(1-s))
}

func (c Coefficients) DLambdaInv(s float64) float64 {
	li := c.LambdaInv(s)
	return -li * li * (2*s/c.MuRel - 2*(1-s))
}

func (c Coefficients) FracFlow(s float64) float64 {
	s2 := s * s
	return s2 / (s2 + c.MuRel*(1-s)*(1-s))
}

func (c Coefficients) DFracFlow(s float64) float64 {
	d := s*s + c.MuRel*(1-s)*(1-s)
	return 2 * c.MuRel * s * (1 - s) / (d * d)
}

// CoefficientValues are the constitutive functions and their derivatives at one saturation
type CoefficientValues struct {
	LambdaInv, DLambdaInv float64
	F, DF                 float64
}

// EvaluateChecked returns every coefficient at s, failing on non-finite input or output
func (c Coefficients) EvaluateChecked(s float64) (cv CoefficientValues, err error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		err = fmt.Errorf("%w: saturation is %g", ErrInvalidCoefficient, s)
		return
	}
	cv = CoefficientValues{
		LambdaInv:  c.LambdaInv(s),
		DLambdaInv: c.DLambdaInv(s),
		F:          c.FracFlow(s),
		DF:         c.DFracFlow(s),
	}
	for _, v := range [4]float64{cv.LambdaInv, cv.DLambdaInv, cv.F, cv.DF} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			err = fmt.Errorf("%w: coefficients at saturation %g are %+v", ErrInvalidCoefficient, s, cv)
			return
		}
	}
	return
}
