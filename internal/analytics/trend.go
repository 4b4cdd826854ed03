package analytics

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/dataset"
)

// MovingAverages reports the most recent trailing means of a series.
type MovingAverages struct {
	SevenDay  float64 `json:"7_day"`
	ThirtyDay float64 `json:"30_day"`
}

// TrendResult describes the direction and shape of a time-ordered series.
type TrendResult struct {
	TrendDirection   string         `json:"trend_direction"`
	TrendStrength    string         `json:"trend_strength"`
	GrowthRate7D     float64        `json:"growth_rate_7d"`
	GrowthRate30D    float64        `json:"growth_rate_30d"`
	SeasonalityScore float64        `json:"seasonality_score"`
	MovingAverages   MovingAverages `json:"moving_averages"`
	DataPoints       int            `json:"data_points"`
}

// MarshalJSON encodes NaN growth rates (series too short for a reference
// window) as null to keep the payload valid JSON.
func (r TrendResult) MarshalJSON() ([]byte, error) {
	type alias TrendResult
	return json.Marshal(struct {
		alias
		GrowthRate7D  *float64 `json:"growth_rate_7d"`
		GrowthRate30D *float64 `json:"growth_rate_30d"`
	}{
		alias:         alias(r),
		GrowthRate7D:  finiteOrNil(r.GrowthRate7D),
		GrowthRate30D: finiteOrNil(r.GrowthRate30D),
	})
}

type datedValue struct {
	date  time.Time
	value float64
}

// DetectTrends analyzes a (date, value) series: trailing moving averages,
// period-over-period and 7-period growth, a least-squares direction over the
// trailing window, and a weekday-dispersion seasonality score. Rows whose
// date or value fails to parse are dropped before analysis.
func DetectTrends(t *dataset.Table, dateCol, valueCol string, windowDays int) (*TrendResult, *Error) {
	if windowDays <= 0 {
		windowDays = config.DefaultTrendWindowDays
	}
	series := datedSeries(t, dateCol, valueCol)
	if len(series) < 2 {
		return nil, ErrInsufficientTrendData
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })

	values := make([]float64, len(series))
	for i, dv := range series {
		values[i] = dv.value
	}

	ma7 := trailingMean(values, 7)
	ma30 := trailingMean(values, 30)
	daily := pctChange(values, 1)
	weekly := pctChange(values, 7)

	recent := values[maxInt(0, len(values)-windowDays):]
	if len(recent) < 2 {
		return nil, ErrInsufficientRecentData
	}

	slope := fitSlope(recent)
	direction := "decreasing"
	if slope > 0 {
		direction = "increasing"
	}
	strength := "moderate"
	if math.Abs(slope) > popStd(recent) {
		strength = "strong"
	}

	return &TrendResult{
		TrendDirection:   direction,
		TrendStrength:    strength,
		GrowthRate7D:     meanOf(tail(weekly, 7)),
		GrowthRate30D:    meanOf(tail(daily, 30)),
		SeasonalityScore: seasonalityScore(series),
		MovingAverages: MovingAverages{
			SevenDay:  ma7[len(ma7)-1],
			ThirtyDay: ma30[len(ma30)-1],
		},
		DataPoints: len(series),
	}, nil
}

// datedSeries extracts parseable (date, value) pairs in row order.
func datedSeries(t *dataset.Table, dateCol, valueCol string) []datedValue {
	if t == nil {
		return nil
	}
	out := make([]datedValue, 0, t.Len())
	for i := range t.Rows {
		d, ok := dataset.ParseDate(t.Cell(i, dateCol))
		if !ok {
			continue
		}
		v, ok := dataset.ParseFloat(t.Cell(i, valueCol))
		if !ok {
			continue
		}
		out = append(out, datedValue{date: d, value: v})
	}
	return out
}

// trailingMean computes per-row trailing means with the window clipped at the
// series start (minimum period of one).
func trailingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := minInt(i+1, window)
		out[i] = sum / float64(n)
	}
	return out
}

// pctChange computes fractional change against the value lag rows earlier.
// Leading rows without a reference, and rows with a zero reference, are NaN.
func pctChange(values []float64, lag int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < lag || values[i-lag] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/values[i-lag] - 1
	}
	return out
}

// fitSlope returns the least-squares slope of values against their indices.
func fitSlope(values []float64) float64 {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	return beta
}

// seasonalityScore is the coefficient of variation of per-weekday means,
// zero when the weekday means have a non-positive mean or only one weekday
// is represented.
func seasonalityScore(series []datedValue) float64 {
	sums := make(map[time.Weekday]float64)
	counts := make(map[time.Weekday]int)
	for _, dv := range series {
		wd := dv.date.Weekday()
		sums[wd] += dv.value
		counts[wd]++
	}
	means := make([]float64, 0, len(sums))
	for wd, sum := range sums {
		means = append(means, sum/float64(counts[wd]))
	}
	if len(means) < 2 {
		return 0
	}
	m := stat.Mean(means, nil)
	if m <= 0 {
		return 0
	}
	return stat.StdDev(means, nil) / m
}

// popStd is the population standard deviation (the convention the trend
// strength threshold uses, unlike the sample std elsewhere).
func popStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := stat.Mean(values, nil)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

func tail(values []float64, n int) []float64 {
	return values[maxInt(0, len(values)-n):]
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
