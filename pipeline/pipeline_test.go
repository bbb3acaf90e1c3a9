package pipeline

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/astroflux/emrates/fieldcache"
	"github.com/astroflux/emrates/photonfield"
	"github.com/astroflux/emrates/rate"
	"github.com/astroflux/emrates/store"
	"github.com/astroflux/emrates/table"
	"github.com/astroflux/emrates/xsec"
)

func coarseRunner(t *testing.T) *Runner {
	t.Helper()
	r := NewRunner(t.TempDir(), t.TempDir())
	r.Opts = rate.CoarseOptions()
	return r
}

func TestRunPairProductionCMB(t *testing.T) {
	r := coarseRunner(t)
	db, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	r.Store = db

	cmb := photonfield.CMB()
	if err := r.Run(xsec.PairProduction, cmb); err != nil {
		t.Fatal(err)
	}

	ratePath := filepath.Join(r.OutDir, "EMPairProduction", "rate_CMB.txt")
	lgE, rates, err := table.ReadRate(ratePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(lgE) == 0 {
		t.Fatal("empty rate table")
	}
	// All persisted energies exceed EMin ~ 1e14 eV and all rates are
	// non-negative with at least one strictly positive.
	positive := false
	for i := range lgE {
		if lgE[i] < 13.5 {
			t.Errorf("energy row %d: log10(E)=%g below EMin", i, lgE[i])
		}
		if rates[i] < 0 {
			t.Errorf("rate[%d]=%g, want >= 0", i, rates[i])
		}
		if rates[i] > 0 {
			positive = true
		}
	}
	if !positive {
		t.Error("expected at least one positive rate")
	}

	cdfPath := filepath.Join(r.OutDir, "EMPairProduction", "cdf_CMB.txt")
	lgSKin, cdfLgE, rows, err := table.ReadCDF(cdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(cdfLgE) != len(lgE) {
		t.Errorf("cdf has %d energy rows, rate table %d", len(cdfLgE), len(lgE))
	}
	if len(lgSKin) == 0 || len(lgSKin) > rate.CoarseSamples {
		t.Errorf("cdf has %d s_kin columns", len(lgSKin))
	}
	// The s_kin grid starts above the pair production threshold,
	// log10(4 me^2 / eV^2) ~ 12.02.
	if lgSKin[0] < 12.0 {
		t.Errorf("first s_kin column %g below threshold", lgSKin[0])
	}
	for k, row := range rows {
		for j := 1; j < len(row); j++ {
			if row[j] < row[j-1] {
				t.Fatalf("cdf row %d decreases at column %d", k, j)
			}
		}
	}

	// The catalog recorded the rate, cdf and density tables for this run.
	entries, err := db.ListRun(r.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("catalog entries=%d, want 3", len(entries))
	}
	kinds := map[store.Kind]bool{}
	for _, e := range entries {
		kinds[e.Kind] = true
		if _, err := os.Stat(e.Path); err != nil {
			t.Errorf("cataloged path %s missing: %v", e.Path, err)
		}
	}
	for _, k := range []store.Kind{store.KindRate, store.KindCDF, store.KindDensity} {
		if !kinds[k] {
			t.Errorf("catalog missing kind %s", k)
		}
	}
}

func TestRunScalarMatchesCDFFinal(t *testing.T) {
	r := coarseRunner(t)
	cmb := photonfield.CMB()
	if err := r.Run(xsec.PairProduction, cmb); err != nil {
		t.Fatal(err)
	}
	_, rates, err := table.ReadRate(filepath.Join(r.OutDir, "EMPairProduction", "rate_CMB.txt"))
	if err != nil {
		t.Fatal(err)
	}
	_, _, rows, err := table.ReadCDF(filepath.Join(r.OutDir, "EMPairProduction", "cdf_CMB.txt"))
	if err != nil {
		t.Fatal(err)
	}
	// Spot-check rows well above threshold: the last cumulative column
	// approximates the scalar rate.
	for _, k := range []int{len(rates) / 2, len(rates) - 1} {
		final := rows[k][len(rows[k])-1]
		if rates[k] == 0 {
			continue
		}
		if rel := math.Abs(final-rates[k]) / rates[k]; rel > 0.05 {
			t.Errorf("row %d: cdf final %g vs rate %g (rel %g)", k, final, rates[k], rel)
		}
	}
}

func TestRunUnknownProcess(t *testing.T) {
	r := coarseRunner(t)
	err := r.Run(xsec.Process(42), photonfield.CMB())
	if !errors.Is(err, xsec.ErrUnknownProcess) {
		t.Errorf("err=%v, want ErrUnknownProcess", err)
	}
}

func TestRunEmptyEnergyDomain(t *testing.T) {
	r := coarseRunner(t)
	// A field with a tiny photon energy window pushes EMin above the whole
	// tabulated energy range.
	tiny := photonfield.NewBlackbody("tiny", 2.72548, 1e-33, 1e-32)
	err := r.Run(xsec.PairProduction, tiny)
	if !errors.Is(err, rate.ErrEmptyDomain) {
		t.Errorf("err=%v, want ErrEmptyDomain", err)
	}
	// No tables were written for the aborted run.
	if _, statErr := os.Stat(filepath.Join(r.OutDir, "EMPairProduction")); !os.IsNotExist(statErr) {
		t.Error("output directory created despite aborted run")
	}
}

func TestRunInverseComptonRaisedFloor(t *testing.T) {
	// At the default s_kin floor the lowest grid points sit inside the
	// documented unstable region of the inverse Compton cross section,
	// where cancellation noise can make cumulative rows wiggle. Raising
	// the floor keeps the whole grid in the stable regime; this is the
	// operator mitigation for ICS runs.
	r := coarseRunner(t)
	r.Opts.LgSKinMin = 7

	if err := r.Run(xsec.InverseCompton, photonfield.CMB()); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(r.OutDir, "EMInverseComptonScattering")
	lgE, rates, err := table.ReadRate(filepath.Join(dir, "rate_CMB.txt"))
	if err != nil {
		t.Fatal(err)
	}
	// ICS has no practical threshold against the CMB: the full energy
	// grid survives and the high-energy rates are strictly positive.
	if len(lgE) == 0 || lgE[0] > 9.1 {
		t.Fatalf("rate table starts at log10(E)=%g, want the full grid from 9", lgE[0])
	}
	if last := rates[len(rates)-1]; last <= 0 || math.IsInf(last, 1) {
		t.Errorf("rate at highest energy = %g, want positive finite", last)
	}

	_, _, rows, err := table.ReadCDF(filepath.Join(dir, "cdf_CMB.txt"))
	if err != nil {
		t.Fatal(err)
	}
	for k, row := range rows {
		for j := 1; j < len(row); j++ {
			if row[j] < row[j-1] {
				t.Fatalf("cdf row %d decreases at column %d", k, j)
			}
		}
	}
}

func TestRunReusesDensityCache(t *testing.T) {
	r := coarseRunner(t)
	cmb := photonfield.CMB()
	if err := r.Run(xsec.PairProduction, cmb); err != nil {
		t.Fatal(err)
	}
	if got := r.Cache.Recomputes(); got != 1 {
		t.Fatalf("recomputes=%d after first run, want 1", got)
	}
	// A second process against the same field reuses the cached integral.
	if err := r.Run(xsec.DoublePairProduction, cmb); err != nil {
		t.Fatal(err)
	}
	if got := r.Cache.Recomputes(); got != 1 {
		t.Errorf("recomputes=%d after second run, want 1", got)
	}
	if _, err := fieldcache.Load(r.Cache.Path(cmb)); err != nil {
		t.Errorf("density table unreadable: %v", err)
	}
}
