package rate

import "errors"

var (
	// ErrEmptyDomain signals that no particle energies or s_kin values
	// remain after threshold filtering. This indicates misconfiguration
	// (e.g. an energy grid entirely below EMin) and is distinct from a
	// legitimate all-zero rate.
	ErrEmptyDomain = errors.New("rate: empty integration domain")

	// ErrNonMonotoneCumulative signals that a cumulative rate row
	// decreases in s_kin. Such rows are quadrature artifacts in the
	// input; they are surfaced, never silently corrected.
	ErrNonMonotoneCumulative = errors.New("rate: cumulative rate row is not monotone")
)
