// Package rate implements the interaction rate integration engine. Given a
// cross section tabulated over s_kin, a background photon field and a grid
// of particle energies, it computes the inverse mean free path per energy
// and, in cumulative mode, its breakdown over s_kin for outcome sampling.
//
// The double integral over photon energy and collision angle is reduced to
// a single integral over s_kin:
//
//	1/lambda(E) = 1/(8 E^2) * integral sigma(s) * s * I(s/(4E)) ds,
//
// where I(bound) is the field's tail density integral (see fieldcache). The
// s integral runs over a log-spaced 2^n+1 grid so Romberg extrapolation can
// be applied in log space, identically for every tabulated energy.
package rate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/astroflux/emrates/fieldcache"
	"github.com/astroflux/emrates/photonfield"
	"github.com/astroflux/emrates/quadrature"
	"github.com/astroflux/emrates/xsec"
)

// Mpc in meters. Rates are reported as 1/lambda [1/Mpc].
const Mpc = 3.0856775807e22

// Options sets the tabulation ranges and resolutions. The s_kin range is
// given in decades of eV^2.
type Options struct {
	LgSKinMin     float64 // log10 of the smallest tabulated s_kin [eV^2]
	LgSKinMax     float64 // log10 of the largest tabulated s_kin [eV^2]
	ScalarSamples int     // scalar-mode grid size, must be 2^n+1
	CDFSamples    int     // cumulative-mode grid size before downsampling
}

// DefaultOptions returns the production tabulation: 2^18+1 points for the
// scalar rate and 380001 for the cumulative mode, which is later downsampled
// and therefore run at higher resolution.
func DefaultOptions() *Options {
	return &Options{
		LgSKinMin:     4,
		LgSKinMax:     23,
		ScalarSamples: 1<<18 + 1,
		CDFSamples:    380001,
	}
}

// CoarseOptions returns a reduced tabulation for quick runs and tests.
// Accuracy degrades at the percent level.
func CoarseOptions() *Options {
	return &Options{
		LgSKinMin:     4,
		LgSKinMax:     23,
		ScalarSamples: 1<<12 + 1,
		CDFSamples:    20001,
	}
}

// Engine computes interaction rates for one (process, field) pair.
type Engine struct {
	entry xsec.Entry
	field photonfield.Field
	dens  *fieldcache.Table
	opts  *Options
}

// New creates an engine from a catalogue entry, a field and the field's
// density-integral table.
func New(entry xsec.Entry, field photonfield.Field, dens *fieldcache.Table, opts *Options) *Engine {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Engine{entry: entry, field: field, dens: dens, opts: opts}
}

// EMin returns the minimum particle energy [J] at which the process is
// kinematically reachable against the field.
func (e *Engine) EMin() float64 {
	_, emax := e.field.EnergyRange()
	return e.entry.SMin() / (4 * emax)
}

// EnergyGrid returns samples log-spaced particle energies [J] spanning
// [10^lgMin, 10^lgMax] eV.
func EnergyGrid(lgMin, lgMax float64, samples int) []float64 {
	grid := floats.LogSpan(make([]float64, samples),
		math.Pow(10, lgMin)*xsec.ElectronVolt, math.Pow(10, lgMax)*xsec.ElectronVolt)
	return grid
}

// FilterAbove returns the subsequence of xs strictly greater than min.
// xs must be sorted ascending.
func FilterAbove(xs []float64, min float64) []float64 {
	for i, x := range xs {
		if x > min {
			return xs[i:]
		}
	}
	return nil
}

// SKinMin returns the lower edge [J^2] of the kinematically active s_kin
// range: the larger of the process threshold and the smallest s_kin
// reachable in a collision of the lowest tabulated energy e0 with a
// background photon.
func (e *Engine) SKinMin(e0 float64) float64 {
	emin, _ := e.field.EnergyRange()
	return math.Max(e.entry.SMin(), 4*emin*e0)
}

// sKinRange returns the tabulated s_kin bounds in J^2.
func (e *Engine) sKinRange() (min, max float64) {
	const eV2 = xsec.ElectronVolt * xsec.ElectronVolt
	return math.Pow(10, e.opts.LgSKinMin) * eV2, math.Pow(10, e.opts.LgSKinMax) * eV2
}

// tabulate evaluates the cross section at every grid point, applying the
// entry's kinematic offset.
func (e *Engine) tabulate(s []float64) []float64 {
	xs := make([]float64, len(s))
	for i, v := range s {
		xs[i] = e.entry.Sigma(v)
	}
	return xs
}

// integrand fills y with sigma(s) * s * I(s/(4E)) for one particle energy.
func (e *Engine) integrand(y, s, xs []float64, energy float64) {
	for i := range s {
		if xs[i] == 0 {
			y[i] = 0
			continue
		}
		y[i] = xs[i] * s[i] * e.dens.Lookup(s[i]/(4*energy))
	}
}

// Rates computes the scalar interaction rate [1/Mpc] for each particle
// energy [J]. Energies below EMin get an exact zero: the kinematic range is
// empty there and integrating it would only produce quadrature noise.
func (e *Engine) Rates(energies []float64) ([]float64, error) {
	if len(energies) == 0 {
		return nil, fmt.Errorf("%w: no particle energies", ErrEmptyDomain)
	}
	smin, smax := e.sKinRange()
	grid, err := quadrature.NewLogGrid(smin, smax, e.opts.ScalarSamples)
	if err != nil {
		return nil, fmt.Errorf("rate: %w", err)
	}
	s := grid.Points()
	xs := e.tabulate(s)

	_, epsMax := e.field.EnergyRange()
	rates := make([]float64, len(energies))
	y := make([]float64, len(s))
	for k, energy := range energies {
		// Empty kinematic range: the threshold is out of reach for every
		// target photon at this energy.
		if e.entry.SMin() >= 4*energy*epsMax {
			rates[k] = 0
			continue
		}
		e.integrand(y, s, xs, energy)
		integral, err := grid.Romberg(y)
		if err != nil {
			return nil, fmt.Errorf("rate: energy %g: %w", energy, err)
		}
		rates[k] = math.Max(0, Mpc/(8*energy*energy)*integral)
	}
	return rates, nil
}

// CumulativeRates computes, for each particle energy, the running integral
// of the differential rate over increasing s_kin, at cumulative-mode
// resolution. The returned grid is the tabulated s_kin [J^2] restricted to
// values above both the process threshold and the smallest s_kin reachable
// by the lowest tabulated energy; each row is non-decreasing and its final
// value agrees with Rates within quadrature tolerance.
func (e *Engine) CumulativeRates(energies []float64) (sKin []float64, rows [][]float64, err error) {
	if len(energies) == 0 {
		return nil, nil, fmt.Errorf("%w: no particle energies", ErrEmptyDomain)
	}
	_, epsMax := e.field.EnergyRange()
	sLow := e.SKinMin(energies[0])

	smin, smax := e.sKinRange()
	full := floats.LogSpan(make([]float64, e.opts.CDFSamples), smin, smax)
	s := FilterAbove(full, sLow)
	if len(s) == 0 {
		return nil, nil, fmt.Errorf("%w: no s_kin above %g", ErrEmptyDomain, sLow)
	}
	xs := e.tabulate(s)

	rows = make([][]float64, len(energies))
	y := make([]float64, len(s))
	for k, energy := range energies {
		row := make([]float64, len(s))
		if e.entry.SMin() >= 4*energy*epsMax {
			rows[k] = row
			continue
		}
		e.integrand(y, s, xs, energy)
		quadrature.Cumulative(row, s, y)
		scale := Mpc / (8 * energy * energy)
		for i := range row {
			row[i] *= scale
		}
		rows[k] = row
	}
	return s, rows, nil
}
