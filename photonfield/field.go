// Package photonfield describes isotropic background photon fields. A field
// exposes its spectral photon number density over a bounded energy window;
// the rate engine assumes nothing else about its functional form.
package photonfield

import "math"

// Physical constants in SI units.
const (
	planck       = 6.62606957e-34 // [J s]
	lightSpeed   = 299792458.0    // [m/s]
	boltzmann    = 1.3806488e-23  // [J/K]
	electronVolt = 1.60217657e-19 // [J]
)

// Field is an isotropic background photon field.
type Field interface {
	// Name is a stable identifier, used to key the density-integral cache
	// and to name output files.
	Name() string
	// Density is the spectral photon number density dn/deps [1/m^3/J] at
	// photon energy eps [J]. Non-negative over the field's energy range.
	Density(eps float64) float64
	// EnergyRange returns the bounds [J] of the field's photon energies.
	EnergyRange() (min, max float64)
}

// Infoer is implemented by fields that carry a human-readable description
// for output file headers.
type Infoer interface {
	Info() string
}

// Blackbody is a Planck photon spectrum at temperature T, truncated to an
// explicit energy window.
type Blackbody struct {
	name string
	info string
	T    float64 // [K]
	emin float64 // [J]
	emax float64 // [J]
}

// NewBlackbody creates a blackbody field with the given name, temperature
// [K] and photon energy window [J].
func NewBlackbody(name string, temperature, emin, emax float64) *Blackbody {
	return &Blackbody{
		name: name,
		info: name,
		T:    temperature,
		emin: emin,
		emax: emax,
	}
}

// CMB returns the cosmic microwave background at T = 2.72548 K. The spectrum
// peaks near 6.3e-4 eV; photon energies above ~2.7e-3 eV contribute
// negligibly and are cut.
func CMB() *Blackbody {
	return NewBlackbody("CMB", 2.72548, 1e-10*electronVolt, 2.7e-3*electronVolt)
}

func (b *Blackbody) Name() string { return b.name }

// Info returns the header description of the field.
func (b *Blackbody) Info() string { return b.info }

// Density is the Planck photon number density dn/deps [1/m^3/J].
func (b *Blackbody) Density(eps float64) float64 {
	if eps < b.emin || eps > b.emax {
		return 0
	}
	hc := planck * lightSpeed
	x := eps / (boltzmann * b.T)
	// Expm1 keeps the Rayleigh-Jeans tail accurate for x << 1.
	return 8 * math.Pi * eps * eps / (hc * hc * hc) / math.Expm1(x)
}

func (b *Blackbody) EnergyRange() (min, max float64) { return b.emin, b.emax }

// Scaled wraps a field with its density multiplied by a constant factor.
// The wrapped field keeps its own name unless renamed.
type Scaled struct {
	Field
	Factor  float64
	Renamed string
}

func (s *Scaled) Name() string {
	if s.Renamed != "" {
		return s.Renamed
	}
	return s.Field.Name()
}

func (s *Scaled) Density(eps float64) float64 {
	return s.Factor * s.Field.Density(eps)
}
