package TwoPhase2D

import (
	"fmt"
	"math"
)

// InversePermeability returns the inverse permeability tensor at (x, y), row major
type InversePermeability func(x, y float64) [2][2]float64

// IsotropicInversePermeability is kinv * I everywhere. A zero kinv makes the flow problem singular.
func IsotropicInversePermeability(kinv float64) InversePermeability {
	return func(x, y float64) [2][2]float64 {
		return [2][2]float64{{kinv, 0}, {0, kinv}}
	}
}

// ConstantPermeability is the homogeneous isotropic medium of permeability k
func ConstantPermeability(k float64) InversePermeability {
	return IsotropicInversePermeability(1. / k)
}

// ChannelPermeability is a sinusoidal high permeability channel along y = 0.5 in a low permeability medium,
// with a permeability contrast of 100
func ChannelPermeability() InversePermeability {
	return func(x, y float64) [2][2]float64 {
		arg := (y - 0.5 - 0.1*math.Sin(10*x)) / 0.1
		kinv := 1. / math.Max(math.Exp(-arg*arg), 0.01)
		return [2][2]float64{{kinv, 0}, {0, kinv}}
	}
}

func NewInversePermeability(name string, k float64) (kinv InversePermeability, err error) {
	switch name {
	case "", "channel":
		kinv = ChannelPermeability()
	case "constant":
		if !(k > 0) || math.IsInf(k, 0) {
			err = fmt.Errorf("%w: constant permeability must be positive and finite, have %g", ErrInvalidCoefficient, k)
			return
		}
		kinv = ConstantPermeability(k)
	default:
		err = fmt.Errorf("unknown permeability field [%s], use channel or constant", name)
	}
	return
}
