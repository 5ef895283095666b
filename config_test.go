package varigen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullParams = `
files:
  reference_file: ref.fa.gz
  dbfile: out/variants.db
rng:
  master_seed: 42
population_model:
  standard:
    sample_size: 10
site_model:
  double_exp:
    a1: 1.0
    k1: 20.0
    a2: 0.1
    k2: 3.0
    p0: 0.001
    p1: 0.2
    bin_cnt: 30
chromosomes: [1, 2, X]
variant_models:
  - snp:
      p: 0.01
  - uniformdel:
      p: 0.001
      min_len: 2
      max_len: 20
  - uniformins:
      p: 0.001
      min_len: 2
      max_len: 20
`

func TestParseConfigFull(t *testing.T) {
	cfg, err := ParseConfig([]byte(fullParams))
	require.NoError(t, err)

	assert.Equal(t, "ref.fa.gz", cfg.Files.ReferenceFile)
	assert.Equal(t, "out/variants.db", cfg.Files.DBFile)
	assert.Equal(t, uint64(42), cfg.MasterSeed)
	assert.Equal(t, 10, cfg.Population.SampleSize)
	assert.Equal(t, 30, cfg.SiteModel.BinCnt)
	assert.Equal(t, 0.001, cfg.SiteModel.P0)
	assert.Equal(t, []string{"1", "2", "X"}, cfg.Chromosomes)

	require.Len(t, cfg.VariantModels, 3)
	assert.Equal(t, ModelSNP, cfg.VariantModels[0].Kind)
	assert.Equal(t, 0.01, cfg.VariantModels[0].P)
	assert.Equal(t, ModelUniformDel, cfg.VariantModels[1].Kind)
	assert.Equal(t, 2, cfg.VariantModels[1].MinLen)
	assert.Equal(t, 20, cfg.VariantModels[1].MaxLen)
	assert.Equal(t, ModelUniformIns, cfg.VariantModels[2].Kind)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
rng:
  master_seed: 1
chromosomes: [1]
variant_models:
  - snp:
      p: 0.01
`))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Population.SampleSize)
	assert.Equal(t, DefaultSiteModel, cfg.SiteModel)
}

// An unrecognized model kind must be rejected at load time, before any
// reference access or generation.
func TestParseConfigRejectsUnknownVariantKind(t *testing.T) {
	_, err := ParseConfig([]byte(`
rng:
  master_seed: 1
chromosomes: [1]
variant_models:
  - bogus:
      p: 0.01
`))
	require.ErrorIs(t, err, ErrConfigValidation)
}

func TestParseConfigRejectsUnknownPopulationKind(t *testing.T) {
	_, err := ParseConfig([]byte(`
rng:
  master_seed: 1
population_model:
  exotic:
    sample_size: 5
chromosomes: [1]
variant_models:
  - snp:
      p: 0.01
`))
	require.ErrorIs(t, err, ErrConfigValidation)
}

func TestParseConfigRejectsUnknownSiteKind(t *testing.T) {
	_, err := ParseConfig([]byte(`
rng:
  master_seed: 1
site_model:
  triple_exp:
    a1: 1
chromosomes: [1]
variant_models:
  - snp:
      p: 0.01
`))
	require.ErrorIs(t, err, ErrConfigValidation)
}

func TestParseConfigRejectsUnknownParameter(t *testing.T) {
	_, err := ParseConfig([]byte(`
rng:
  master_seed: 1
chromosomes: [1]
variant_models:
  - snp:
      p: 0.01
      t_mat: 4
`))
	require.ErrorIs(t, err, ErrConfigValidation)
}

func TestParseConfigChromosomeList(t *testing.T) {
	for name, doc := range map[string]string{
		"empty": `
rng: {master_seed: 1}
chromosomes: []
variant_models: [{snp: {p: 0.01}}]
`,
		"duplicate": `
rng: {master_seed: 1}
chromosomes: [1, 1]
variant_models: [{snp: {p: 0.01}}]
`,
	} {
		_, err := ParseConfig([]byte(doc))
		require.ErrorIs(t, err, ErrConfigValidation, name)
	}
}

func TestParseConfigRequiresSeed(t *testing.T) {
	_, err := ParseConfig([]byte(`
chromosomes: [1]
variant_models:
  - snp:
      p: 0.01
`))
	require.ErrorIs(t, err, ErrConfigValidation)
}

func TestParseConfigRejectsBadLengthRange(t *testing.T) {
	_, err := ParseConfig([]byte(`
rng:
  master_seed: 1
chromosomes: [1]
variant_models:
  - uniformdel:
      p: 0.01
      min_len: 30
      max_len: 2
`))
	require.ErrorIs(t, err, ErrInvalidLengthRange)
}
