package varigen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/carbocation/pfx"
)

// Stream purposes. Placement and allele draws use one stream each per
// (chromosome, model); frequency and zygosity draws use one stream per
// accepted variant, keyed by its ordinal within the (chromosome, model).
const (
	purposePlacement = "placement"
	purposeAllele    = "allele"
	purposeFrequency = "frequency"
	purposeZygosity  = "zygosity"
)

// Deriver expands one master seed into independent, reproducible sub-stream
// seeds keyed by (chromosome, model index, purpose). Every component that
// needs randomness requests its own stream here; no generator is ever shared,
// so concurrency and chromosome ordering cannot affect reproducibility.
type Deriver struct {
	master     uint64
	chroms     map[string]struct{}
	modelCount int
}

func NewDeriver(master uint64, chromosomes []string, modelCount int) *Deriver {
	d := &Deriver{
		master:     master,
		chroms:     make(map[string]struct{}, len(chromosomes)),
		modelCount: modelCount,
	}
	for _, c := range chromosomes {
		d.chroms[c] = struct{}{}
	}
	return d
}

// Derive returns the stream seed for the given tuple. The mixing function is
// a SHA-256 over the length-delimited tuple, so seeds are collision-resistant
// and each stream is reproducible in isolation.
func (d *Deriver) Derive(chromosome string, modelIndex int, purpose string) (uint64, error) {
	if _, ok := d.chroms[chromosome]; !ok {
		return 0, pfx.Err(fmt.Errorf("%w: chromosome %q is not configured", ErrInvalidSeedInput, chromosome))
	}
	if modelIndex < 0 || modelIndex >= d.modelCount {
		return 0, pfx.Err(fmt.Errorf("%w: model index %d outside [0,%d)", ErrInvalidSeedInput, modelIndex, d.modelCount))
	}
	return mixSeed(d.master, chromosome, modelIndex, purpose), nil
}

// Stream returns a fresh generator positioned at the start of the derived
// stream. Streams are not safe for concurrent use; callers own them.
func (d *Deriver) Stream(chromosome string, modelIndex int, purpose string) (*rand.Rand, error) {
	seed, err := d.Derive(chromosome, modelIndex, purpose)
	if err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(int64(seed))), nil
}

func mixSeed(master uint64, chromosome string, modelIndex int, purpose string) uint64 {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], master)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(chromosome)))
	h.Write(buf[:])
	h.Write([]byte(chromosome))
	binary.LittleEndian.PutUint64(buf[:], uint64(modelIndex))
	h.Write(buf[:])
	h.Write([]byte(purpose))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// ordinalPurpose keys the per-variant promotion streams.
func ordinalPurpose(purpose string, ordinal int) string {
	return fmt.Sprintf("%s/%d", purpose, ordinal)
}
