package varigen

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/carbocation/pfx"
)

// DoubleExpParams parameterize the "double_exp" site frequency spectrum: a
// mixture of two exponentials a1*exp(-k1*x) + a2*exp(-k2*x), discretized
// into BinCnt bins on the support [P0, P1].
type DoubleExpParams struct {
	A1     float64 `mapstructure:"a1"`
	K1     float64 `mapstructure:"k1"`
	A2     float64 `mapstructure:"a2"`
	K2     float64 `mapstructure:"k2"`
	P0     float64 `mapstructure:"p0"`
	P1     float64 `mapstructure:"p1"`
	BinCnt int     `mapstructure:"bin_cnt"`
}

// SiteFrequencyModel maps a uniform draw to an allele frequency in [P0, P1)
// by inverting the discretized CDF of the double-exponential mixture. The
// CDF is built once at construction; sampling is a binary search plus one
// uniform draw for continuous resolution within the chosen bin.
type SiteFrequencyModel struct {
	edges []float64 // BinCnt+1 bin boundaries, ascending
	cdf   []float64 // cumulative mass at the right edge of each bin; cdf[BinCnt-1] == 1
}

func NewSiteFrequencyModel(p DoubleExpParams) (*SiteFrequencyModel, error) {
	if p.BinCnt < 1 {
		return nil, pfx.Err(fmt.Errorf("%w: bin_cnt must be >= 1, got %d", ErrInvalidModelParameters, p.BinCnt))
	}
	if p.P0 >= 1 {
		return nil, pfx.Err(fmt.Errorf("%w: p0 must be < 1, got %f", ErrInvalidModelParameters, p.P0))
	}
	if p.P0 <= 0 || p.P1 <= p.P0 || p.P1 > 1 {
		return nil, pfx.Err(fmt.Errorf("%w: need 0 < p0 < p1 <= 1, got p0=%f p1=%f", ErrInvalidModelParameters, p.P0, p.P1))
	}
	if p.A1 < 0 || p.A2 < 0 || p.A1+p.A2 == 0 {
		return nil, pfx.Err(fmt.Errorf("%w: amplitudes must be non-negative with positive sum", ErrInvalidModelParameters))
	}

	m := &SiteFrequencyModel{
		edges: make([]float64, p.BinCnt+1),
		cdf:   make([]float64, p.BinCnt),
	}
	width := (p.P1 - p.P0) / float64(p.BinCnt)
	for i := range m.edges {
		m.edges[i] = p.P0 + width*float64(i)
	}
	m.edges[p.BinCnt] = p.P1

	total := 0.0
	for i := 0; i < p.BinCnt; i++ {
		mass := expIntegral(p.A1, p.K1, m.edges[i], m.edges[i+1]) +
			expIntegral(p.A2, p.K2, m.edges[i], m.edges[i+1])
		total += mass
		m.cdf[i] = total
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, pfx.Err(fmt.Errorf("%w: spectrum has no mass on [%f,%f]", ErrInvalidModelParameters, p.P0, p.P1))
	}
	for i := range m.cdf {
		m.cdf[i] /= total
	}
	m.cdf[p.BinCnt-1] = 1

	return m, nil
}

// expIntegral is the closed form of the integral of a*exp(-k*x) over [lo,hi].
func expIntegral(a, k, lo, hi float64) float64 {
	if k == 0 {
		return a * (hi - lo)
	}
	return a / k * (math.Exp(-k*lo) - math.Exp(-k*hi))
}

// Sample draws an allele frequency from the spectrum. Exactly two uniform
// draws are consumed from the stream: one to select the bin, one for the
// position within it. The result always lies in [p0, p1).
func (m *SiteFrequencyModel) Sample(rng *rand.Rand) float64 {
	u := rng.Float64()
	i := sort.SearchFloat64s(m.cdf, u)
	if i >= len(m.cdf) {
		i = len(m.cdf) - 1
	}
	lo, hi := m.edges[i], m.edges[i+1]
	return lo + rng.Float64()*(hi-lo)
}

// Spectrum returns the bin centers and normalized per-bin mass, for
// inspection (dry runs). The slices are copies.
func (m *SiteFrequencyModel) Spectrum() (centers, mass []float64) {
	n := len(m.cdf)
	centers = make([]float64, n)
	mass = make([]float64, n)
	prev := 0.0
	for i := 0; i < n; i++ {
		centers[i] = (m.edges[i] + m.edges[i+1]) / 2
		mass[i] = m.cdf[i] - prev
		prev = m.cdf[i]
	}
	return centers, mass
}
