package varigen

import (
	"fmt"
	"os"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v2"
)

// Config is the validated, immutable description of one simulation run.
type Config struct {
	Files struct {
		ReferenceFile string
		DBFile        string
	}
	MasterSeed    uint64
	Population    PopulationModel
	SiteModel     DoubleExpParams
	Chromosomes   []string
	VariantModels []VariantModel
}

// DefaultSiteModel is used when the parameter file omits a site_model block:
// a strongly low-frequency-skewed spectrum capped at 20%.
var DefaultSiteModel = DoubleExpParams{
	A1: 1.0, K1: 20.0,
	A2: 0.1, K2: 3.0,
	P0: 0.001, P1: 0.2,
	BinCnt: 30,
}

// rawConfig mirrors the YAML parameter file. Model blocks are kind-tagged
// single-key maps, decoded into their parameter structs after the kind is
// recognized.
type rawConfig struct {
	Files struct {
		ReferenceFile string `yaml:"reference_file"`
		DBFile        string `yaml:"dbfile"`
	} `yaml:"files"`
	RNG struct {
		MasterSeed uint64 `yaml:"master_seed"`
	} `yaml:"rng"`
	PopulationModel map[string]map[string]interface{}   `yaml:"population_model"`
	SiteModel       map[string]map[string]interface{}   `yaml:"site_model"`
	Chromosomes     []interface{}                       `yaml:"chromosomes"`
	VariantModels   []map[string]map[string]interface{} `yaml:"variant_models"`
}

// LoadConfig reads and validates a YAML parameter file. Any unrecognized
// model kind or malformed field fails here, before any reference access or
// generation.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%w: %v", ErrConfigValidation, err))
	}
	return ParseConfig(raw)
}

// ParseConfig validates a YAML parameter document.
func ParseConfig(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, pfx.Err(fmt.Errorf("%w: %v", ErrConfigValidation, err))
	}

	cfg := &Config{}
	cfg.Files.ReferenceFile = raw.Files.ReferenceFile
	cfg.Files.DBFile = raw.Files.DBFile

	if raw.RNG.MasterSeed == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: rng.master_seed must be a positive integer", ErrConfigValidation))
	}
	cfg.MasterSeed = raw.RNG.MasterSeed

	chroms, err := normalizeChromosomes(raw.Chromosomes)
	if err != nil {
		return nil, err
	}
	cfg.Chromosomes = chroms

	pop, err := parsePopulationModel(raw.PopulationModel)
	if err != nil {
		return nil, err
	}
	cfg.Population = pop

	site, err := parseSiteModel(raw.SiteModel)
	if err != nil {
		return nil, err
	}
	cfg.SiteModel = site

	if len(raw.VariantModels) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: variant_models must list at least one model", ErrConfigValidation))
	}
	for i, entry := range raw.VariantModels {
		m, err := parseVariantModel(i, entry)
		if err != nil {
			return nil, err
		}
		cfg.VariantModels = append(cfg.VariantModels, m)
	}

	return cfg, nil
}

// normalizeChromosomes accepts integer or string identifiers and returns
// them as strings, preserving order, rejecting duplicates and empties.
func normalizeChromosomes(items []interface{}) ([]string, error) {
	if len(items) == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: chromosomes must list at least one identifier", ErrConfigValidation))
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		var name string
		switch v := item.(type) {
		case string:
			name = v
		case int:
			name = strconv.Itoa(v)
		default:
			return nil, pfx.Err(fmt.Errorf("%w: chromosome identifier %v has unsupported type %T", ErrConfigValidation, item, item))
		}
		if name == "" {
			return nil, pfx.Err(fmt.Errorf("%w: empty chromosome identifier", ErrConfigValidation))
		}
		if _, dup := seen[name]; dup {
			return nil, pfx.Err(fmt.Errorf("%w: duplicate chromosome %s", ErrConfigValidation, name))
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

func parsePopulationModel(block map[string]map[string]interface{}) (PopulationModel, error) {
	if block == nil {
		// Single-sample standard model, matching the original simulator's
		// behavior when no population model is given.
		return PopulationModel{SampleSize: 1}, nil
	}
	kind, params, err := singleKind("population_model", block)
	if err != nil {
		return PopulationModel{}, err
	}
	if kind != "standard" {
		return PopulationModel{}, pfx.Err(fmt.Errorf("%w: unrecognized population model kind %q", ErrConfigValidation, kind))
	}
	var pop PopulationModel
	if err := decodeParams("population_model.standard", params, &pop); err != nil {
		return PopulationModel{}, err
	}
	return pop, nil
}

func parseSiteModel(block map[string]map[string]interface{}) (DoubleExpParams, error) {
	if block == nil {
		return DefaultSiteModel, nil
	}
	kind, params, err := singleKind("site_model", block)
	if err != nil {
		return DoubleExpParams{}, err
	}
	if kind != "double_exp" {
		return DoubleExpParams{}, pfx.Err(fmt.Errorf("%w: unrecognized site model kind %q", ErrConfigValidation, kind))
	}
	var site DoubleExpParams
	if err := decodeParams("site_model.double_exp", params, &site); err != nil {
		return DoubleExpParams{}, err
	}
	return site, nil
}

func parseVariantModel(index int, block map[string]map[string]interface{}) (VariantModel, error) {
	kind, params, err := singleKind(fmt.Sprintf("variant_models[%d]", index), block)
	if err != nil {
		return VariantModel{}, err
	}

	switch ModelKind(kind) {
	case ModelSNP:
		var p struct {
			P float64 `mapstructure:"p"`
		}
		if err := decodeParams(kind, params, &p); err != nil {
			return VariantModel{}, err
		}
		m := VariantModel{Kind: ModelSNP, P: p.P}
		return m, m.validate()

	case ModelUniformDel, ModelUniformIns:
		var p struct {
			P      float64 `mapstructure:"p"`
			MinLen int     `mapstructure:"min_len"`
			MaxLen int     `mapstructure:"max_len"`
		}
		if err := decodeParams(kind, params, &p); err != nil {
			return VariantModel{}, err
		}
		m := VariantModel{Kind: ModelKind(kind), P: p.P, MinLen: p.MinLen, MaxLen: p.MaxLen}
		return m, m.validate()

	default:
		return VariantModel{}, pfx.Err(fmt.Errorf("%w: unrecognized variant model kind %q", ErrConfigValidation, kind))
	}
}

// singleKind unwraps a kind-tagged block, which must contain exactly one
// key: the model kind, mapping to its parameter set.
func singleKind(where string, block map[string]map[string]interface{}) (string, map[string]interface{}, error) {
	if len(block) != 1 {
		return "", nil, pfx.Err(fmt.Errorf("%w: %s must contain exactly one model kind, got %d", ErrConfigValidation, where, len(block)))
	}
	for kind, params := range block {
		return kind, params, nil
	}
	panic("unreachable")
}

// decodeParams maps a YAML parameter set onto its struct, rejecting keys
// the model does not define.
func decodeParams(where string, params map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return pfx.Err(err)
	}
	if err := dec.Decode(params); err != nil {
		return pfx.Err(fmt.Errorf("%w: %s: %v", ErrConfigValidation, where, err))
	}
	return nil
}

// RuntimeOptions are operational knobs read from the environment; they never
// influence the generated output, only how it is produced.
type RuntimeOptions struct {
	Workers int `envconfig:"VARIGEN_WORKERS"`
}

// RuntimeFromEnv reads VARIGEN_* environment overrides.
func RuntimeFromEnv() (RuntimeOptions, error) {
	var opts RuntimeOptions
	if err := envconfig.Process("", &opts); err != nil {
		return RuntimeOptions{}, pfx.Err(err)
	}
	return opts, nil
}
