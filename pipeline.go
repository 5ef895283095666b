package varigen

import (
	"sort"
)

// pipeline applies the configured variant models, in configuration order, to
// one chromosome at a time. It owns the non-overlap invariant: candidates
// are checked against a single accepted-interval set scoped to the
// chromosome, and a model earlier in the list occupies intervals that later
// models must avoid.
type pipeline struct {
	deriver *Deriver
	site    *SiteFrequencyModel
	pop     PopulationModel
	models  []VariantModel
	src     SequenceSource
}

// Run generates the complete variant set for one chromosome, sorted by
// ascending position (model order breaks ties). Each accepted candidate is
// promoted with frequency and zygosity streams derived from its own
// (chromosome, model, ordinal) tuple, so a rejected candidate consumes no
// randomness beyond its placement and allele draws.
func (p *pipeline) Run(chromosome string) ([]Variant, error) {
	placed := &intervalSet{}
	var out []Variant

	for i, model := range p.models {
		placeRNG, err := p.deriver.Stream(chromosome, i, purposePlacement)
		if err != nil {
			return nil, err
		}
		alleleRNG, err := p.deriver.Stream(chromosome, i, purposeAllele)
		if err != nil {
			return nil, err
		}

		cr, err := newCandidateReader(chromosome, p.src, model, i, placeRNG, alleleRNG)
		if err != nil {
			return nil, err
		}

		ordinal := 0
		for c := cr.Read(); c != nil; c = cr.Read() {
			start, end := span(c.Position, c.RefLength)
			if placed.Overlaps(start, end) {
				continue
			}
			placed.Insert(start, end)

			v, err := p.promote(c, ordinal)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
			ordinal++
		}
		if err := cr.Error(); err != nil {
			return nil, err
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Position != out[b].Position {
			return out[a].Position < out[b].Position
		}
		return out[a].ModelIndex < out[b].ModelIndex
	})

	return out, nil
}

// promote assigns the accepted candidate an allele frequency and a zygosity
// vector, turning it into a finalized Variant.
func (p *pipeline) promote(c *CandidateVariant, ordinal int) (Variant, error) {
	freqRNG, err := p.deriver.Stream(c.Chromosome, c.ModelIndex, ordinalPurpose(purposeFrequency, ordinal))
	if err != nil {
		return Variant{}, err
	}
	f := p.site.Sample(freqRNG)

	zygRNG, err := p.deriver.Stream(c.Chromosome, c.ModelIndex, ordinalPurpose(purposeZygosity, ordinal))
	if err != nil {
		return Variant{}, err
	}
	zv, err := p.pop.Sample(f, zygRNG)
	if err != nil {
		return Variant{}, err
	}

	return Variant{
		Chromosome:      c.Chromosome,
		Position:        c.Position,
		RefLength:       c.RefLength,
		Alt:             c.Alt,
		AlleleFrequency: f,
		Zygosity:        zv,
		ModelIndex:      c.ModelIndex,
		ModelKind:       p.models[c.ModelIndex].Kind,
	}, nil
}
