package rate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/astroflux/emrates/xsec"
)

// CoarseSamples is the storage resolution of downsampled cumulative tables.
const CoarseSamples = 190 + 1

// CoarseGrid returns the storage s_kin grid [J^2] for the given options,
// restricted to values above sLow.
func CoarseGrid(opts *Options, sLow float64) []float64 {
	const eV2 = xsec.ElectronVolt * xsec.ElectronVolt
	grid := floats.LogSpan(make([]float64, CoarseSamples),
		math.Pow(10, opts.LgSKinMin)*eV2, math.Pow(10, opts.LgSKinMax)*eV2)
	return FilterAbove(grid, sLow)
}

// Downsample interpolates each cumulative rate row from the source s_kin
// grid onto the coarse grid. Interpolation is piecewise linear, which cannot
// introduce non-monotonicity into a monotone row; outside the source range
// the nearest endpoint value is used. A source row that decreases anywhere
// is rejected with ErrNonMonotoneCumulative.
func Downsample(src []float64, rows [][]float64, dst []float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for k, row := range rows {
		if len(row) != len(src) {
			return nil, fmt.Errorf("rate: row %d has %d columns, grid has %d", k, len(row), len(src))
		}
		for i := 1; i < len(row); i++ {
			if row[i] < row[i-1] {
				return nil, fmt.Errorf("%w: row %d at column %d", ErrNonMonotoneCumulative, k, i)
			}
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(src, row); err != nil {
			return nil, fmt.Errorf("rate: fit row %d: %w", k, err)
		}
		coarse := make([]float64, len(dst))
		for i, s := range dst {
			coarse[i] = pl.Predict(s)
		}
		out[k] = coarse
	}
	return out, nil
}
