// Package xsec provides the cross sections for electromagnetic interactions
// of high-energy photons and electrons with background photons, tabulated as
// functions of the squared center-of-mass energy above threshold.
//
// References: S. Lee, Phys. Rev. D 58 (1998) 043004 (pair production, inverse
// Compton scattering, triplet pair production); R.W. Brown et al., Phys. Rev.
// D 8 (1973) 3083, eq. (4.5) with k^2 = q^2 = 0 (double pair production).
package xsec

import (
	"fmt"
	"math"
)

// Physical constants in SI units.
const (
	ElectronVolt = 1.60217657e-19          // [J]
	mec2         = 510.998918e3 * ElectronVolt
	Me2          = mec2 * mec2             // squared electron mass [J^2/c^4]
	SigmaThomson = 6.6524e-29              // Thomson cross section [m^2]
	Alpha        = 1 / 137.035999074       // fine structure constant
)

// Target identifies the particle the background photon collides with. It
// selects the kinematic offset applied when tabulating a cross section over
// s_kin: photon-target processes evaluate sigma(s_kin) directly, lepton-target
// processes evaluate sigma(s_kin + me^2).
type Target int

const (
	PhotonTarget Target = iota
	LeptonTarget
)

// Process enumerates the supported interaction processes.
type Process int

const (
	PairProduction Process = iota
	DoublePairProduction
	InverseCompton
	TripletPairProduction
)

// String returns the canonical process name used in output paths.
func (p Process) String() string {
	switch p {
	case PairProduction:
		return "EMPairProduction"
	case DoublePairProduction:
		return "EMDoublePairProduction"
	case InverseCompton:
		return "EMInverseComptonScattering"
	case TripletPairProduction:
		return "EMTripletPairProduction"
	}
	return fmt.Sprintf("Process(%d)", int(p))
}

// ParseProcess maps a process name (as accepted on the command line) to its
// Process tag. Both the canonical names and short aliases are recognized.
func ParseProcess(name string) (Process, error) {
	switch name {
	case "EMPairProduction", "pp":
		return PairProduction, nil
	case "EMDoublePairProduction", "dpp":
		return DoublePairProduction, nil
	case "EMInverseComptonScattering", "ics":
		return InverseCompton, nil
	case "EMTripletPairProduction", "tpp":
		return TripletPairProduction, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProcess, name)
}

// Entry describes one catalogue entry: the cross section function, its
// kinematic threshold and the collision target kind.
type Entry struct {
	Process Process
	Target  Target
	sigma   func(s float64) float64
	sMin    float64
}

// Sigma evaluates the cross section [m^2] at s_kin [J^2]. For lepton-target
// processes the squared electron mass is added before evaluation, matching
// the tabulation convention.
func (e Entry) Sigma(sKin float64) float64 {
	if e.Target == LeptonTarget {
		return e.sigma(sKin + Me2)
	}
	return e.sigma(sKin)
}

// SMin returns the minimum s_kin [J^2] at which the process is kinematically
// allowed.
func (e Entry) SMin() float64 { return e.sMin }

var catalog = map[Process]Entry{
	PairProduction: {
		Process: PairProduction,
		Target:  PhotonTarget,
		sigma:   SigmaPP,
		sMin:    4 * Me2,
	},
	DoublePairProduction: {
		Process: DoublePairProduction,
		Target:  PhotonTarget,
		sigma:   SigmaDPP,
		sMin:    16 * Me2,
	},
	InverseCompton: {
		Process: InverseCompton,
		Target:  LeptonTarget,
		sigma:   SigmaICS,
		// Effectively zero: the ICS threshold is s = me^2 itself, so the
		// whole tabulated s_kin range is kinematically allowed.
		sMin: 1e-40 * Me2,
	},
	TripletPairProduction: {
		Process: TripletPairProduction,
		Target:  LeptonTarget,
		sigma:   SigmaTPP,
		sMin:    math.Exp((218.0/27.0)/(28.0/9.0))*Me2 - Me2,
	},
}

// Catalog returns the catalogue entry for the given process.
func Catalog(p Process) (Entry, error) {
	e, ok := catalog[p]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownProcess, p)
	}
	return e, nil
}

// SigmaPP is the Breit-Wheeler pair production cross section [m^2] at
// squared center-of-mass energy s [J^2]. Zero below s = 4 me^2.
func SigmaPP(s float64) float64 {
	smin := 4 * Me2
	if s < smin {
		return 0
	}
	b := math.Sqrt(1 - smin/s)
	// log1p form avoids cancellation in log((1+b)/(1-b)) near threshold.
	l := math.Log1p(b) - math.Log1p(-b)
	return SigmaThomson * 3 / 16 * (1 - b*b) * ((3-b*b*b*b)*l - 2*b*(2-b*b))
}

// SigmaDPP is the double pair production cross section [m^2] at s [J^2].
// Zero below s = 16 me^2.
func SigmaDPP(s float64) float64 {
	smin := 16 * Me2
	if s < smin {
		return 0
	}
	x := 1 - smin/s
	return 6.45e-34 * x * x * x * x * x * x
}

// SigmaICS is the inverse Compton scattering cross section [m^2] at s [J^2].
// Zero below s = me^2.
//
// The formula is numerically unstable for (s - me^2) / me^2 < 1e-5; results
// that close to threshold are unreliable and callers must avoid the region.
// No guard band is applied here.
func SigmaICS(s float64) float64 {
	smin := Me2
	if s < smin {
		return 0
	}
	b := (s - smin) / (s + smin)
	A := 2 / b / (1 + b) * (2 + 2*b - b*b - 2*b*b*b)
	B := (2 - 3*b*b - b*b*b) / (b * b) * (math.Log1p(b) - math.Log1p(-b))
	return SigmaThomson * 3 / 8 * smin / s / b * (A - B)
}

// SigmaTPP is the triplet pair production cross section [m^2] at s [J^2].
// Zero where the logarithmic beta parameter is negative.
func SigmaTPP(s float64) float64 {
	beta := 28.0/9.0*math.Log(s/Me2) - 218.0/27.0
	if beta < 0 {
		return 0
	}
	return SigmaThomson * 3 / 8 / math.Pi * Alpha * beta
}
