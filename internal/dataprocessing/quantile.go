package dataprocessing

import (
	"fmt"
	"math"
	"sort"

	"gwcatalog/internal/errors"
)

// Default credible interval bounds, roughly one sigma either side of the median.
const (
	DefaultLowerQuantile = 0.16
	DefaultUpperQuantile = 0.84
)

// Quantiles holds the lower and upper fractions used for interval bounds.
type Quantiles struct {
	Lower float64
	Upper float64
}

// DefaultQuantiles returns the 0.16/0.84 pair.
func DefaultQuantiles() Quantiles {
	return Quantiles{Lower: DefaultLowerQuantile, Upper: DefaultUpperQuantile}
}

// Validate checks 0 < Lower < Upper < 1.
func (q Quantiles) Validate() error {
	if !(q.Lower > 0 && q.Lower < 1) || !(q.Upper > 0 && q.Upper < 1) {
		return errors.NewConfigError(fmt.Sprintf("quantiles must lie in (0,1), got %g/%g", q.Lower, q.Upper), nil)
	}
	if q.Lower >= q.Upper {
		return errors.NewConfigError(fmt.Sprintf("lower quantile %g must be below upper quantile %g", q.Lower, q.Upper), nil)
	}
	return nil
}

// Summary is the point and interval estimate of one posterior column.
type Summary struct {
	Lower  float64
	Upper  float64
	Median float64
}

// Summarize reduces a column to (lower, upper, median). Quantiles are
// interpolated linearly between order statistics at h = (n-1)p.
func Summarize(column []float64, q Quantiles) (Summary, error) {
	return SummarizeColumn("", column, q)
}

// SummarizeColumn is Summarize with the column name carried into errors.
func SummarizeColumn(name string, column []float64, q Quantiles) (Summary, error) {
	if err := q.Validate(); err != nil {
		return Summary{}, err
	}
	if len(column) == 0 {
		return Summary{}, errors.NewInputError(name, "no samples")
	}
	for i, v := range column {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Summary{}, errors.NewInputError(name, fmt.Sprintf("non-finite value %v at row %d", v, i))
		}
	}

	sorted := make([]float64, len(column))
	copy(sorted, column)
	sort.Float64s(sorted)

	return Summary{
		Lower:  quantileSorted(sorted, q.Lower),
		Upper:  quantileSorted(sorted, q.Upper),
		Median: quantileSorted(sorted, 0.5),
	}, nil
}

// quantileSorted interpolates the p-quantile of an ascending, non-empty slice.
func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(lo)
	if frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
