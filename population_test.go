package varigen

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPopulationSampleShape(t *testing.T) {
	pop, err := NewPopulationModel(1)
	require.NoError(t, err)

	for _, f := range []float64{0.001, 0.25, 0.5, 0.999} {
		rng := rand.New(rand.NewSource(3))
		zv, err := pop.Sample(f, rng)
		require.NoError(t, err)
		require.Len(t, zv, 1)
		require.LessOrEqual(t, zv[0], Homozygous)
	}
}

func TestPopulationSampleReproducible(t *testing.T) {
	pop, err := NewPopulationModel(50)
	require.NoError(t, err)

	a, err := pop.Sample(0.3, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := pop.Sample(0.3, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestPopulationZygosityRates(t *testing.T) {
	const f = 0.5
	pop, err := NewPopulationModel(20000)
	require.NoError(t, err)

	zv, err := pop.Sample(f, rand.New(rand.NewSource(21)))
	require.NoError(t, err)

	var counts [3]int
	for _, z := range zv {
		counts[z]++
	}
	// Hardy-Weinberg at f=0.5: 25% absent, 50% het, 25% hom.
	n := float64(len(zv))
	require.InDelta(t, 0.25, float64(counts[Absent])/n, 0.02)
	require.InDelta(t, 0.50, float64(counts[Heterozygous])/n, 0.02)
	require.InDelta(t, 0.25, float64(counts[Homozygous])/n, 0.02)
}

func TestPopulationRejectsInvalidFrequency(t *testing.T) {
	pop, err := NewPopulationModel(1)
	require.NoError(t, err)

	for _, f := range []float64{0, -0.5, 1, 1.5} {
		_, err := pop.Sample(f, rand.New(rand.NewSource(1)))
		require.ErrorIs(t, err, ErrInvalidFrequency)
	}
}

func TestPopulationRejectsBadSampleSize(t *testing.T) {
	_, err := NewPopulationModel(0)
	require.ErrorIs(t, err, ErrInvalidModelParameters)
}
