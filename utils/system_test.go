package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonFinite(t *testing.T) {
	assert.Equal(t, -1, FirstNonFinite([]float64{0, 1, 2}))
	assert.Equal(t, 1, FirstNonFinite([]float64{0, math.Inf(-1), math.NaN()}))
	assert.False(t, IsFinite([]float64{math.NaN()}))
	assert.True(t, IsFinite(nil))
	assert.Contains(t, GetMemUsage(), "MiB")
}
