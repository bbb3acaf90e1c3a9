// Package fieldcache precomputes and persists, once per photon field, the
// tail integral of the field's number density,
//
//	I(bound) = integral from bound to Emax of n(eps)/eps^2 deps,
//
// tabulated over a log-spaced set of lower bounds. The rate engine substitutes
// these values for the photon-spectrum part of its double integral. A cache
// entry is keyed by field name; the presence of the on-disk table is the hit
// signal and entries are never invalidated automatically.
package fieldcache

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/astroflux/emrates/photonfield"
	"github.com/astroflux/emrates/quadrature"
	"github.com/astroflux/emrates/xsec"
)

const (
	// BoundSamples is the number of tabulated lower bounds per field.
	BoundSamples = 10000

	// BoundFloor is the global minimum lower bound [J]: the smallest
	// tabulated s_kin (1e4 eV^2) over four times the largest tabulated
	// particle energy (1e23 eV).
	BoundFloor = 1e4 / 4 / 1e23 * xsec.ElectronVolt
)

// Cache computes and persists density-integral tables under a directory,
// one text file per field name.
type Cache struct {
	dir        string
	opts       *quadrature.Options
	revision   string
	recomputes int
}

// New creates a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir, opts: quadrature.DefaultOptions()}
}

// WithQuadrature sets the adaptive quadrature options used on a miss.
func (c *Cache) WithQuadrature(opts *quadrature.Options) *Cache {
	c.opts = opts
	return c
}

// WithRevision sets the provenance revision embedded in table headers.
// An empty revision degrades to a header without provenance.
func (c *Cache) WithRevision(rev string) *Cache {
	c.revision = rev
	return c
}

// Path returns the on-disk location of the field's table.
func (c *Cache) Path(field photonfield.Field) string {
	return filepath.Join(c.dir, field.Name()+".txt")
}

// Recomputes returns how many tables this cache instance has computed, as
// opposed to loaded from disk.
func (c *Cache) Recomputes() int { return c.recomputes }

// GetOrCompute returns the density-integral table for the field, computing
// and persisting it only if no table exists on disk. A quadrature failure
// for any bound aborts without writing a partial table.
func (c *Cache) GetOrCompute(field photonfield.Field) (*Table, error) {
	path := c.Path(field)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	tab, err := c.compute(field)
	if err != nil {
		return nil, err
	}
	if err := c.write(path, field, tab); err != nil {
		return nil, err
	}
	c.recomputes++
	return tab, nil
}

// Invalidate removes the persisted table for the field, if any. Callers are
// responsible for invalidating after a field definition changes; the cache
// itself never does.
func (c *Cache) Invalidate(field photonfield.Field) error {
	err := os.Remove(c.Path(field))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("fieldcache: invalidate %s: %w", field.Name(), err)
	}
	return nil
}

func (c *Cache) compute(field photonfield.Field) (*Table, error) {
	emin, emax := field.EnergyRange()
	bounds := floats.LogSpan(make([]float64, BoundSamples), BoundFloor, emax)

	integrand := func(eps float64) float64 {
		return field.Density(eps) / (eps * eps)
	}

	values := make([]float64, len(bounds))
	for i, b := range bounds {
		// The density is zero below the field's window; clamp the lower
		// limit so the quadrature only resolves the window itself rather
		// than bisecting decades of empty support.
		v, err := quadrature.AdaptiveSimpson(integrand, math.Max(b, emin), emax, c.opts)
		if err != nil {
			return nil, fmt.Errorf("fieldcache: field %s bound %g: %w", field.Name(), b, err)
		}
		values[i] = v
	}
	return newTable(bounds, values, emax)
}

func (c *Cache) write(path string, field photonfield.Field, tab *Table) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("fieldcache: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, field.Name()+".tmp*")
	if err != nil {
		return fmt.Errorf("fieldcache: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "# integral n(e)/e^2 de from eMin to eMax, where eMax is the maximal photon energy of %s\n", field.Name())
	if c.revision != "" {
		fmt.Fprintf(w, "# produced with emrates version: %s\n", c.revision)
	}
	fmt.Fprintf(w, "# eMin [J]\tintegral [1/m^3/J^2]\n")
	for i, b := range tab.bounds {
		fmt.Fprintf(w, "%.4e\t%8.7e\n", b, tab.values[i])
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("fieldcache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fieldcache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("fieldcache: %w", err)
	}
	return nil
}

// Table is a tabulated density integral: lower bounds in increasing order
// with the corresponding tail integrals, non-increasing in the bound.
type Table struct {
	bounds []float64
	values []float64
	emax   float64
	pl     interp.PiecewiseLinear
}

func newTable(bounds, values []float64, emax float64) (*Table, error) {
	lnb := make([]float64, len(bounds))
	for i, b := range bounds {
		lnb[i] = math.Log(b)
	}
	t := &Table{bounds: bounds, values: values, emax: emax}
	if err := t.pl.Fit(lnb, values); err != nil {
		return nil, fmt.Errorf("fieldcache: fit table: %w", err)
	}
	return t, nil
}

// Lookup interpolates the tail integral at the given lower bound,
// log-linearly between tabulated bounds. Bounds at or above the field's
// maximum photon energy give zero; bounds below the tabulated floor clamp
// to the first table value.
func (t *Table) Lookup(bound float64) float64 {
	if bound >= t.emax {
		return 0
	}
	return t.pl.Predict(math.Log(bound))
}

// Bounds returns the tabulated lower bounds.
func (t *Table) Bounds() []float64 { return t.bounds }

// Values returns the tabulated integrals.
func (t *Table) Values() []float64 { return t.values }

// EMax returns the upper integration limit of the table.
func (t *Table) EMax() float64 { return t.emax }

// Load reads a persisted table. The upper integration limit is recovered
// from the last tabulated bound, whose tail integral is zero.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fieldcache: %w", err)
	}
	defer f.Close()

	var bounds, values []float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var b, v float64
		if _, err := fmt.Sscanf(line, "%g\t%g", &b, &v); err != nil {
			return nil, fmt.Errorf("fieldcache: parse %s: %w", path, err)
		}
		bounds = append(bounds, b)
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("fieldcache: read %s: %w", path, err)
	}
	if len(bounds) < 2 {
		return nil, fmt.Errorf("fieldcache: table %s has %d rows", path, len(bounds))
	}
	return newTable(bounds, values, bounds[len(bounds)-1])
}
