package varigen

// CandidateVariant is a tentatively generated variant that has not yet been
// checked for overlap or promoted to final status. Candidates are transient;
// a rejected candidate is simply dropped.
type CandidateVariant struct {
	Chromosome string
	Position   int // 0-based offset into the chromosome
	RefLength  int // reference bases consumed; 0 for a pure insertion
	Alt        string
	ModelIndex int // index into the configured variant model list
}

// Variant is a finalized record: a candidate that survived overlap checking
// and was assigned an allele frequency and a per-sample zygosity vector.
// Immutable once created.
type Variant struct {
	Chromosome      string
	Position        int
	RefLength       int
	Alt             string
	AlleleFrequency float64
	Zygosity        []Zygosity // length == population sample size
	ModelIndex      int
	ModelKind       ModelKind
}

// span is the half-open reference interval a variant occupies for overlap
// accounting. Pure insertions consume no reference bases but still occupy
// their anchor position, so two variants can never share a site.
func span(position, refLength int) (start, end int) {
	if refLength < 1 {
		refLength = 1
	}
	return position, position + refLength
}
