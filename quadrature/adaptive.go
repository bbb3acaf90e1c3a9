package quadrature

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoConvergence is returned when an adaptive integration cannot reach its
// tolerance within the iteration budget.
var ErrNoConvergence = errors.New("quadrature: integration did not converge")

// Options configures adaptive integration.
type Options struct {
	Tol      float64 // absolute + relative tolerance on each subinterval
	MaxDepth int     // maximum bisection depth
}

// DefaultOptions returns tolerances suitable for smooth photon spectra.
func DefaultOptions() *Options {
	return &Options{
		Tol:      1e-9,
		MaxDepth: 50,
	}
}

// AdaptiveSimpson integrates f over [a, b] with adaptive Simpson bisection.
// Subintervals are bisected until the local Richardson error estimate meets
// the tolerance; exceeding the depth budget anywhere surfaces
// ErrNoConvergence rather than an unreliable value.
func AdaptiveSimpson(f func(float64) float64, a, b float64, opts *Options) (float64, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if b <= a {
		return 0, nil
	}
	fa, fb := f(a), f(b)
	m := 0.5 * (a + b)
	fm := f(m)
	whole := simpson(a, b, fa, fm, fb)
	v, err := adaptStep(f, a, b, fa, fm, fb, whole, opts.Tol, opts.MaxDepth)
	if err != nil {
		return 0, fmt.Errorf("%w: interval [%g, %g]", err, a, b)
	}
	return v, nil
}

func simpson(a, b, fa, fm, fb float64) float64 {
	return (b - a) / 6 * (fa + 4*fm + fb)
}

func adaptStep(f func(float64) float64, a, b, fa, fm, fb, whole, tol float64, depth int) (float64, error) {
	m := 0.5 * (a + b)
	lm := 0.5 * (a + m)
	rm := 0.5 * (m + b)
	flm, frm := f(lm), f(rm)
	left := simpson(a, m, fa, flm, fm)
	right := simpson(m, b, fm, frm, fb)
	delta := left + right - whole
	if math.Abs(delta) <= 15*tol*(1+math.Abs(left+right)) {
		// Richardson correction for the composite estimate.
		return left + right + delta/15, nil
	}
	if depth <= 0 {
		return 0, ErrNoConvergence
	}
	// Halving the tolerance per level keeps the global error bounded, but
	// below machine epsilon the acceptance test can never pass: deep
	// bisections (wide log-range integrands) would exhaust the depth budget
	// on rounding noise alone. Floor at epsilon.
	half := math.Max(tol/2, 0x1p-52)
	lv, err := adaptStep(f, a, m, fa, flm, fm, left, half, depth-1)
	if err != nil {
		return 0, err
	}
	rv, err := adaptStep(f, m, b, fm, frm, fb, right, half, depth-1)
	if err != nil {
		return 0, err
	}
	return lv + rv, nil
}
