package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	{ // Set, negative indices count from the end
		M := NewMatrix(2, 3)
		M.Set(0, 0, 1).Set(-1, -1, 6).AddAt(-1, -1, 1)
		assert.Equal(t, []float64{1, 0, 0, 0, 0, 7}, M.RawMatrix().Data)
		nr, nc := M.Dims()
		assert.Equal(t, 2, nr)
		assert.Equal(t, 3, nc)
		assert.Equal(t, 7., M.T().At(2, 1))
	}
	{ // Copy does not share storage
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		R := M.Copy()
		R.Set(0, 0, 10)
		assert.Equal(t, 1., M.At(0, 0))
		assert.Equal(t, 10., R.At(0, 0))
	}
	{ // Read only matrices refuse writes
		M := NewMatrix(2, 2)
		M.SetReadOnly("M")
		assert.Panics(t, func() { M.Set(0, 0, 1) })
		assert.Panics(t, func() { NewMatrix(2, 2, []float64{1, 2, 3}) })
	}
}

func TestInverse(t *testing.T) {
	M := NewMatrix(3, 3, []float64{
		4, 1, 0,
		1, 3, 1,
		0, 1, 2,
	})
	Minv, err := M.InverseWithCheck()
	require.NoError(t, err)
	I := NewMatrix(3, 3)
	I.M.Mul(M.M, Minv.M)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			exp := 0.
			if i == j {
				exp = 1
			}
			assert.InDelta(t, exp, I.At(i, j), 1.e-14)
		}
	}
	// Receiver is unchanged
	assert.Equal(t, 4., M.At(0, 0))
	{ // Singular and non square matrices fail
		S := NewMatrix(2, 2, []float64{1, 2, 2, 4})
		_, err = S.InverseWithCheck()
		assert.True(t, errors.Is(err, ErrSingularMatrix), "%v", err)
		// Nearly singular, the factorization completes but the condition estimate rejects it
		S = NewMatrix(2, 2, []float64{1, 1, 1, 1 + 1.e-15})
		_, err = S.InverseWithCheck()
		assert.True(t, errors.Is(err, ErrSingularMatrix), "%v", err)
		_, err = NewMatrix(2, 3).InverseWithCheck()
		assert.Error(t, err)
	}
}

func TestFactor(t *testing.T) {
	// Needs a row interchange at the first step
	M := NewMatrix(3, 3, []float64{
		0, 2, 1,
		1, 1, 0,
		3, 0, 1,
	})
	f, err := M.Factor()
	require.NoError(t, err)
	assert.True(t, f.RCond > 0.01 && f.RCond <= 1, "rcond %g", f.RCond)
	var (
		xe = []float64{1, -2, 3}
		b  = make([]float64, 3)
		x  = make([]float64, 3)
	)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			b[i] += M.At(i, j) * xe[j]
		}
	}
	f.Solve(b, x)
	assert.InDeltaSlice(t, xe, x, 1.e-14)
	// The factors are a copy
	assert.Equal(t, 0., M.At(0, 0))
	// In place
	f.Solve(b, b)
	assert.InDeltaSlice(t, xe, b, 1.e-14)
	{
		_, err = NewMatrix(2, 2, []float64{1, 2, 2, 4}).Factor()
		assert.True(t, errors.Is(err, ErrSingularMatrix))
		_, err = NewMatrix(2, 3).Factor()
		assert.Error(t, err)
		// Exact arithmetic leaves a nonzero pivot, the condition estimate reports the singularity
		f, err = NewMatrix(2, 2, []float64{1, 1, 1, 1 + 1.e-15}).Factor()
		require.NoError(t, err)
		assert.True(t, f.RCond < 1.e-14)
	}
}
