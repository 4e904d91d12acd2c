package metrics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPSquareMedianConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ps := NewPSquare(0.5)
	for i := 0; i < 20000; i++ {
		ps.Update(rng.NormFloat64()*10 + 100)
	}
	assert.InDelta(t, 100, ps.Quantile(), 2)
	assert.Equal(t, 20000, ps.Count())
}

func TestPSquareP99Converges(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ps := NewPSquare(0.99)
	for i := 0; i < 50000; i++ {
		ps.Update(rng.Float64() * 1000)
	}
	assert.InDelta(t, 990, ps.Quantile(), 15)
}

func TestPSquareFewSamples(t *testing.T) {
	ps := NewPSquare(0.5)
	assert.Equal(t, 0.0, ps.Quantile())
	ps.Update(5)
	ps.Update(1)
	ps.Update(3)
	assert.False(t, math.IsNaN(ps.Quantile()))
	assert.Equal(t, 3, ps.Count())
}
