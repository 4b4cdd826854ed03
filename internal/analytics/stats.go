package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/storelens/storelens/internal/dataset"
)

// ColumnStats holds descriptive statistics for one numeric column.
type ColumnStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Std    float64 `json:"std"`
}

// Describe computes per-column descriptive statistics. Unparseable cells are
// dropped; columns with zero valid values are omitted rather than reported
// as errors. Std is the sample standard deviation, zero for a single value.
func Describe(t *dataset.Table, columns []string) map[string]ColumnStats {
	out := make(map[string]ColumnStats)
	if t == nil {
		return out
	}
	if len(columns) == 0 {
		columns = t.NumericColumns()
	}
	for _, col := range columns {
		raw, valid := t.Numeric(col)
		if valid == 0 {
			continue
		}
		vals := dataset.DropNaN(raw)
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		std := 0.0
		if len(vals) > 1 {
			std = stat.StdDev(vals, nil)
		}
		out[col] = ColumnStats{
			Count:  len(vals),
			Mean:   stat.Mean(vals, nil),
			Median: median(sorted),
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
			Std:    std,
		}
	}
	return out
}

// median expects a sorted, non-empty slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile computes the p-th percentile (0..100) with linear interpolation
// between adjacent ranks, over a copy of values.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// meanOf returns the arithmetic mean, ignoring NaN entries; NaN when none remain.
func meanOf(values []float64) float64 {
	clean := dataset.DropNaN(values)
	if len(clean) == 0 {
		return math.NaN()
	}
	return stat.Mean(clean, nil)
}

// stdOf returns the sample standard deviation, ignoring NaN; zero below two values.
func stdOf(values []float64) float64 {
	clean := dataset.DropNaN(values)
	if len(clean) < 2 {
		return 0
	}
	return stat.StdDev(clean, nil)
}
