package varigen

// Zygosity is the genotype state of one diploid sample for one variant:
// the number of chromosome copies carrying the alternate allele.
type Zygosity uint8

const (
	Absent Zygosity = iota
	Heterozygous
	Homozygous
)

func (z Zygosity) String() string {
	switch z {
	case Absent:
		return "ABSENT"
	case Heterozygous:
		return "HETEROZYGOUS"
	case Homozygous:
		return "HOMOZYGOUS"
	default:
		return "UNKNOWN"
	}
}
