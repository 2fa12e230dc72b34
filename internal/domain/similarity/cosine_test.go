package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine_SelfIsOne(t *testing.T) {
	vectors := [][]float64{
		{1, 0, 0},
		{0.3, -2.5, 7},
		{1e-3, 1e-3},
		{-4},
	}
	for _, v := range vectors {
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-9, "cosine(%v, %v)", v, v)
	}
}

func TestCosine_Symmetric(t *testing.T) {
	pairs := [][2][]float64{
		{{1, 2, 3}, {4, 5, 6}},
		{{1, 0}, {0, 1}},
		{{-1, 0.5}, {2, 9}},
		{{0, 0}, {1, 1}},
	}
	for _, p := range pairs {
		assert.Equal(t, Cosine(p[0], p[1]), Cosine(p[1], p[0]))
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}))
}

func TestCosine_Opposite(t *testing.T) {
	assert.InDelta(t, -1.0, Cosine([]float64{1, 2}, []float64{-1, -2}), 1e-12)
}

func TestCosine_ZeroVector(t *testing.T) {
	got := Cosine([]float64{0, 0, 0}, []float64{1, 2, 3})
	assert.False(t, math.IsNaN(got))
	assert.Equal(t, 0.0, got)
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{0, 0}))
}

func TestCosine_LengthMismatch(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float64{1, 0}, []float64{1, 0, 0}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}
