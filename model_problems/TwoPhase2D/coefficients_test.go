package TwoPhase2D

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/mfdali/two-phase-flow/geometry2D"
	"github.com/mfdali/two-phase-flow/types"
)

func TestCoefficients(t *testing.T) {
	c, err := NewCoefficients(0.2)
	require.NoError(t, err)
	{ // End points and range
		assert.Equal(t, 0., c.FracFlow(0))
		assert.Equal(t, 1., c.FracFlow(1))
		assert.InDelta(t, 1., c.LambdaInv(0), 1.e-15)
		assert.InDelta(t, 0.2, c.LambdaInv(1), 1.e-15)
		prevF := -1.
		for i := 0; i <= 100; i++ {
			s := float64(i) / 100
			f := c.FracFlow(s)
			assert.True(t, f >= 0 && f <= 1)
			assert.True(t, f >= prevF, "F must be monotone, F(%g) = %g < %g", s, f, prevF)
			prevF = f
			assert.True(t, c.LambdaInv(s) > 0)
			assert.True(t, c.DFracFlow(s) >= 0)
		}
	}
	{ // Closed form derivatives agree with finite differences, inside and outside [0,1]
		for _, s := range []float64{-0.3, 0, 0.1, 0.35, 0.5, 0.8, 1, 1.4} {
			dl := fd.Derivative(c.LambdaInv, s, &fd.Settings{Formula: fd.Central})
			df := fd.Derivative(c.FracFlow, s, &fd.Settings{Formula: fd.Central})
			assert.InDelta(t, dl, c.DLambdaInv(s), 1.e-6)
			assert.InDelta(t, df, c.DFracFlow(s), 1.e-6)
		}
	}
	{ // Checked evaluation
		cv, err := c.EvaluateChecked(0.5)
		require.NoError(t, err)
		assert.Equal(t, c.FracFlow(0.5), cv.F)
		assert.Equal(t, c.DLambdaInv(0.5), cv.DLambdaInv)
		for _, s := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			_, err = c.EvaluateChecked(s)
			assert.True(t, errors.Is(err, ErrInvalidCoefficient))
		}
		// Saturation far outside [0,1] stays finite, it is not clamped
		cv, err = c.EvaluateChecked(-5)
		require.NoError(t, err)
		assert.True(t, cv.F > 0 && cv.F < 1)
	}
	{ // Invalid viscosity ratio
		for _, mu := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			_, err = NewCoefficients(mu)
			assert.True(t, errors.Is(err, ErrInvalidCoefficient))
		}
	}
}

func TestPermeability(t *testing.T) {
	{
		kinv := ChannelPermeability()
		// Channel center at x = 0
		k := kinv(0, 0.5)
		assert.InDelta(t, 1., k[0][0], 1.e-14)
		assert.Equal(t, 0., k[0][1])
		assert.Equal(t, k[0][0], k[1][1])
		// Far from the channel the contrast is capped at 100
		k = kinv(0, 0)
		assert.InDelta(t, 100., k[0][0], 1.e-12)
		k = kinv(0.3, 0.5+0.1*math.Sin(3))
		assert.InDelta(t, 1., k[1][1], 1.e-12)
	}
	{
		k := ConstantPermeability(4)(0.2, 0.7)
		assert.Equal(t, [2][2]float64{{0.25, 0}, {0, 0.25}}, k)
		k = IsotropicInversePermeability(0)(0, 0)
		assert.Equal(t, [2][2]float64{}, k)
		_, err := NewInversePermeability("constant", 0)
		assert.True(t, errors.Is(err, ErrInvalidCoefficient))
		_, err = NewInversePermeability("random", 1)
		assert.Error(t, err)
		kf, err := NewInversePermeability("", 0)
		require.NoError(t, err)
		assert.InDelta(t, 1., kf(0, 0.5)[0][0], 1.e-14)
	}
}

func TestBoundaryConditions(t *testing.T) {
	{
		bcs := DefaultBoundaryConditions()
		assert.Equal(t, 1., bcs.Pressure(0, 0.3))
		assert.Equal(t, 0.75, bcs.Pressure(0.25, 0.9))
		assert.Equal(t, 1., bcs.InflowSaturation(0, 0.5))
		assert.Equal(t, 0., bcs.InflowSaturation(1, 0.5))
		assert.Equal(t, 0., bcs.InflowSaturation(0.5, 0))
		assert.Equal(t, 3.5, LinearPressure(1, 2, 0.5)(1, 1))
	}
	{
		mesh, err := geometry2D.NewUnitSquareMesh(4)
		require.NoError(t, err)
		inflow := TaggedInflow(mesh, map[types.BCTAG]float64{types.BC_Left: 1, types.BC_Bottom: 0.5})
		assert.Equal(t, 1., inflow(0, 0.4))
		assert.Equal(t, 0.5, inflow(0.6, 0))
		assert.Equal(t, 0., inflow(1, 0.4))
		assert.Equal(t, 0., inflow(0.3, 1))
	}
	assert.InDelta(t, 0.5, segmentDistance([2]float64{0, 0}, [2]float64{1, 0}, 0.5, 0.5), 1.e-15)
	assert.InDelta(t, math.Sqrt(2), segmentDistance([2]float64{0, 0}, [2]float64{1, 0}, 2, 1), 1.e-15)
}
