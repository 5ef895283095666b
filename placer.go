package varigen

import (
	"fmt"
	"math/rand"

	"github.com/carbocation/pfx"
)

// snpAlt maps a reference base to its three possible substitutions.
var snpAlt = map[byte]string{
	'A': "CGT",
	'C': "AGT",
	'G': "ACT",
	'T': "ACG",
}

const bases = "ACGT"

// candidateReader lazily generates CandidateVariants for one
// (chromosome, model) pair. It walks the chromosome site by site, accepting
// each site with probability model.P from the placement stream; lengths, alt
// bases and inserted sequence come from the allele stream. The reader is
// finite (bounded by chromosome length) and not restartable: reproducing its
// output requires re-deriving the same stream seeds.
//
// Overlap against previously accepted variants is not decided here; the
// pipeline owns the accepted-interval set and all acceptance decisions.
type candidateReader struct {
	chromosome string
	length     int
	src        SequenceSource
	model      VariantModel
	modelIndex int
	placeRNG   *rand.Rand
	alleleRNG  *rand.Rand

	pos int
	err error
}

func newCandidateReader(chromosome string, src SequenceSource, model VariantModel, modelIndex int, placeRNG, alleleRNG *rand.Rand) (*candidateReader, error) {
	if err := model.validate(); err != nil {
		return nil, err
	}
	length, err := src.Length(chromosome)
	if err != nil {
		return nil, err
	}
	return &candidateReader{
		chromosome: chromosome,
		length:     length,
		src:        src,
		model:      model,
		modelIndex: modelIndex,
		placeRNG:   placeRNG,
		alleleRNG:  alleleRNG,
	}, nil
}

// Error returns the first error encountered while reading, if any.
func (r *candidateReader) Error() error {
	return r.err
}

// Read returns the next candidate, or nil when the chromosome is exhausted
// or an error occurred (check Error). Sites whose reference base is not one
// of ACGT are skipped after the site draw, so ambiguity runs in the
// reference never carry variants.
func (r *candidateReader) Read() *CandidateVariant {
	if r.err != nil {
		return nil
	}

	for r.pos < r.length {
		site := r.pos
		r.pos++

		if r.placeRNG.Float64() >= r.model.P {
			continue
		}

		ref, err := r.src.BaseAt(r.chromosome, site)
		if err != nil {
			r.err = pfx.Err(err)
			return nil
		}
		if _, ok := snpAlt[ref]; !ok {
			continue
		}

		switch r.model.Kind {
		case ModelSNP:
			alt := snpAlt[ref][r.alleleRNG.Intn(3)]
			return &CandidateVariant{
				Chromosome: r.chromosome,
				Position:   site,
				RefLength:  1,
				Alt:        string(alt),
				ModelIndex: r.modelIndex,
			}

		case ModelUniformDel:
			length := r.drawLength()
			if site+length > r.length {
				// Deleted span would cross the chromosome end. The length
				// draw is already consumed; just move on.
				continue
			}
			return &CandidateVariant{
				Chromosome: r.chromosome,
				Position:   site,
				RefLength:  length,
				Alt:        "",
				ModelIndex: r.modelIndex,
			}

		case ModelUniformIns:
			length := r.drawLength()
			alt := make([]byte, length)
			for i := range alt {
				alt[i] = bases[r.alleleRNG.Intn(4)]
			}
			return &CandidateVariant{
				Chromosome: r.chromosome,
				Position:   site,
				RefLength:  0,
				Alt:        string(alt),
				ModelIndex: r.modelIndex,
			}

		default:
			r.err = pfx.Err(fmt.Errorf("%w: unrecognized variant model kind %q", ErrConfigValidation, r.model.Kind))
			return nil
		}
	}

	return nil
}

// drawLength samples uniformly from [MinLen, MaxLen].
func (r *candidateReader) drawLength() int {
	return r.model.MinLen + r.alleleRNG.Intn(r.model.MaxLen-r.model.MinLen+1)
}
