// Package pipeline sequences one (process, field) computation: catalogue
// lookup, density-integral cache, scalar rate table, cumulative rate table,
// downsampling and persistence. A run aborts on the first error. Each table
// file is written atomically, so a persisted file is always complete, but a
// failure in the cumulative stage leaves the already-written rate table for
// the pair behind.
package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/astroflux/emrates/fieldcache"
	"github.com/astroflux/emrates/photonfield"
	"github.com/astroflux/emrates/provenance"
	"github.com/astroflux/emrates/rate"
	"github.com/astroflux/emrates/store"
	"github.com/astroflux/emrates/table"
	"github.com/astroflux/emrates/xsec"
)

// Particle energy tabulation: log10(E/eV) from 9 to 23, 281 points.
const (
	LgEnergyMin   = 9
	LgEnergyMax   = 23
	EnergySamples = 281
)

// Runner drives (process, field) pipeline runs.
type Runner struct {
	Cache    *fieldcache.Cache
	OutDir   string
	Opts     *rate.Options
	Store    *store.Store // optional; nil skips cataloging
	Log      *slog.Logger
	Revision string
	RunID    string
}

// NewRunner creates a runner writing tables under outDir and density
// integrals under cacheDir, with production resolutions and a best-effort
// provenance stamp.
func NewRunner(outDir, cacheDir string) *Runner {
	rev := provenance.RevisionOrEmpty()
	return &Runner{
		Cache:    fieldcache.New(cacheDir).WithRevision(rev),
		OutDir:   outDir,
		Opts:     rate.DefaultOptions(),
		Log:      slog.Default(),
		Revision: rev,
		RunID:    provenance.RunID(),
	}
}

// Run computes and persists the rate and cumulative tables for one
// (process, field) pair.
func (r *Runner) Run(p xsec.Process, field photonfield.Field) error {
	entry, err := xsec.Catalog(p)
	if err != nil {
		return err
	}
	log := r.Log.With("process", p.String(), "field", field.Name())

	dens, err := r.Cache.GetOrCompute(field)
	if err != nil {
		return err
	}

	engine := rate.New(entry, field, dens, r.Opts)
	energies := rate.FilterAbove(rate.EnergyGrid(LgEnergyMin, LgEnergyMax, EnergySamples), engine.EMin())
	if len(energies) == 0 {
		return fmt.Errorf("%w: all energies below EMin=%g eV for %s on %s",
			rate.ErrEmptyDomain, engine.EMin()/xsec.ElectronVolt, p, field.Name())
	}
	log.Info("computing interaction rates",
		"energies", len(energies),
		"emin_eV", engine.EMin()/xsec.ElectronVolt)

	rates, err := engine.Rates(energies)
	if err != nil {
		return err
	}

	lgE := make([]float64, len(energies))
	for i, e := range energies {
		lgE[i] = math.Log10(e / xsec.ElectronVolt)
	}

	ratePath := filepath.Join(r.OutDir, p.String(), "rate_"+field.Name()+".txt")
	hdr := table.Header{
		Title:     p.String() + " interaction rates",
		FieldInfo: fieldInfo(field),
		Revision:  r.Revision,
		Columns:   "log10(E/eV), 1/lambda [1/Mpc]",
	}
	if err := table.WriteRate(ratePath, hdr, lgE, rates); err != nil {
		return err
	}
	log.Info("wrote rate table", "path", ratePath, "rows", len(lgE))

	sKin, rows, err := engine.CumulativeRates(energies)
	if err != nil {
		return err
	}
	coarse := rate.CoarseGrid(r.Opts, engine.SKinMin(energies[0]))
	down, err := rate.Downsample(sKin, rows, coarse)
	if err != nil {
		return err
	}

	const eV2 = xsec.ElectronVolt * xsec.ElectronVolt
	lgSKin := make([]float64, len(coarse))
	for i, s := range coarse {
		lgSKin[i] = math.Log10(s / eV2)
	}

	cdfPath := filepath.Join(r.OutDir, p.String(), "cdf_"+field.Name()+".txt")
	cdfHdr := table.Header{
		Title:     p.String() + " cumulative differential rate",
		FieldInfo: fieldInfo(field),
		Revision:  r.Revision,
		Columns:   "log10(E/eV), cumulative rate [1/Mpc] up to log10(s_kin/eV^2) as given in the first row",
	}
	if err := table.WriteCDF(cdfPath, cdfHdr, lgSKin, lgE, down); err != nil {
		return err
	}
	log.Info("wrote cumulative table", "path", cdfPath, "rows", len(down), "columns", len(coarse))

	if r.Store != nil {
		if err := r.Store.Record(r.RunID, p.String(), field.Name(), store.KindRate, ratePath, len(lgE)); err != nil {
			return err
		}
		if err := r.Store.Record(r.RunID, p.String(), field.Name(), store.KindCDF, cdfPath, len(down)); err != nil {
			return err
		}
		if err := r.Store.Record(r.RunID, p.String(), field.Name(), store.KindDensity, r.Cache.Path(field), fieldcache.BoundSamples); err != nil {
			return err
		}
	}
	return nil
}

// RunAll runs every (process, field) combination in order, stopping at the
// first failure.
func (r *Runner) RunAll(processes []xsec.Process, fields []photonfield.Field) error {
	for _, field := range fields {
		for _, p := range processes {
			if err := r.Run(p, field); err != nil {
				return fmt.Errorf("pipeline: %s on %s: %w", p, field.Name(), err)
			}
		}
	}
	return nil
}

func fieldInfo(field photonfield.Field) string {
	if inf, ok := field.(photonfield.Infoer); ok {
		return inf.Info()
	}
	return field.Name()
}
