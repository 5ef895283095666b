package varigen

import "errors"

// Error taxonomy for the generation engine. Each error aborts exactly the
// unit of work it belongs to: a config error aborts the run before any
// generation starts, a model error fails the affected chromosome, and a
// sink error is propagated to the caller without internal retry.
var (
	// ErrConfigValidation covers unrecognized model kinds, out-of-range
	// parameters and malformed chromosome lists, detected at load time.
	ErrConfigValidation = errors.New("config validation failed")

	// ErrInvalidModelParameters is returned at model construction time,
	// never at sample time.
	ErrInvalidModelParameters = errors.New("invalid model parameters")

	// ErrInvalidLengthRange is returned when an indel model's length
	// bounds are inconsistent (min_len > max_len or min_len < 1).
	ErrInvalidLengthRange = errors.New("invalid length range")

	// ErrInvalidFrequency is returned when an allele frequency outside
	// (0,1) reaches the population sampler.
	ErrInvalidFrequency = errors.New("invalid allele frequency")

	// ErrInvalidSeedInput is returned when a stream is requested for a
	// chromosome or model index outside the configured ranges.
	ErrInvalidSeedInput = errors.New("invalid seed derivation input")

	// ErrReferenceAccess is returned for chromosome or offset lookups
	// outside the reference sequence.
	ErrReferenceAccess = errors.New("reference access out of bounds")

	// ErrSinkWrite is returned when the variant sink fails to commit a
	// chromosome's records.
	ErrSinkWrite = errors.New("sink write failed")
)
