package varigen

import (
	"fmt"
	"math/rand"

	"github.com/carbocation/pfx"
)

// PopulationModel is the "standard" population model: SampleSize independent
// diploid samples whose genotypes are drawn from an allele frequency.
type PopulationModel struct {
	SampleSize int `mapstructure:"sample_size"`
}

func NewPopulationModel(sampleSize int) (PopulationModel, error) {
	if sampleSize < 1 {
		return PopulationModel{}, pfx.Err(fmt.Errorf("%w: sample_size must be >= 1, got %d", ErrInvalidModelParameters, sampleSize))
	}
	return PopulationModel{SampleSize: sampleSize}, nil
}

// Sample draws a zygosity vector of length SampleSize for a variant with
// allele frequency f. Each sample consumes exactly two Bernoulli(f) draws
// from the stream, copy 1 then copy 2, so the vector is reproducible from
// the stream seed alone.
func (p PopulationModel) Sample(f float64, rng *rand.Rand) ([]Zygosity, error) {
	if f <= 0 || f >= 1 {
		return nil, pfx.Err(fmt.Errorf("%w: %f is outside (0,1)", ErrInvalidFrequency, f))
	}

	zv := make([]Zygosity, p.SampleSize)
	for i := range zv {
		z := Absent
		if rng.Float64() < f {
			z++
		}
		if rng.Float64() < f {
			z++
		}
		zv[i] = z
	}
	return zv, nil
}
