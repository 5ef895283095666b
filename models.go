package varigen

import (
	"fmt"

	"github.com/carbocation/pfx"
)

// ModelKind tags a variant-type model. The kind set is closed and validated
// at config load time; dispatch is by switch, never by open-ended lookup.
type ModelKind string

const (
	ModelSNP        ModelKind = "snp"
	ModelUniformDel ModelKind = "uniformdel"
	ModelUniformIns ModelKind = "uniformins"
)

// VariantModel is one entry of the configured variant model list: a kind tag
// plus its parameters. Immutable once loaded. P is the per-site probability
// of a variant; MinLen/MaxLen bound the uniform length draw for indel kinds
// and are ignored for SNPs.
type VariantModel struct {
	Kind   ModelKind
	P      float64
	MinLen int
	MaxLen int
}

func (m VariantModel) validate() error {
	if m.P < 0 || m.P > 1 {
		return pfx.Err(fmt.Errorf("%w: %s p=%f outside [0,1]", ErrInvalidModelParameters, m.Kind, m.P))
	}
	switch m.Kind {
	case ModelSNP:
		return nil
	case ModelUniformDel, ModelUniformIns:
		if m.MinLen < 1 || m.MinLen > m.MaxLen {
			return pfx.Err(fmt.Errorf("%w: %s min_len=%d max_len=%d", ErrInvalidLengthRange, m.Kind, m.MinLen, m.MaxLen))
		}
		return nil
	default:
		return pfx.Err(fmt.Errorf("%w: unrecognized variant model kind %q", ErrConfigValidation, m.Kind))
	}
}
