package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/dataset"
)

// ForecastPoint is one extrapolated future period with its 95% band.
type ForecastPoint struct {
	Period     int     `json:"period"`
	Forecast   float64 `json:"forecast"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// ForecastResult extrapolates the recent linear trend of a series.
type ForecastResult struct {
	ForecastPeriods    int             `json:"forecast_periods"`
	TrendSlope         float64         `json:"trend_slope"`
	TrendDirection     string          `json:"trend_direction"`
	ConfidenceInterval float64         `json:"confidence_interval"`
	ForecastData       []ForecastPoint `json:"forecast_data"`
	LastActualValue    float64         `json:"last_actual_value"`
	ForecastAccuracy   string          `json:"forecast_accuracy"`
}

// Forecast fits a least-squares line to the trailing window of a time-sorted
// series and extrapolates periods future points. The confidence half-width
// is 1.96 times the residual standard deviation over the fit window, a naive
// 95% band that does not widen with horizon.
func Forecast(t *dataset.Table, dateCol, valueCol string, periods int) (*ForecastResult, *Error) {
	if periods <= 0 {
		periods = config.DefaultForecastPeriods
	}
	series := datedSeries(t, dateCol, valueCol)
	if len(series) < config.MinForecastRows {
		return nil, ErrInsufficientForecastData
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })

	values := make([]float64, len(series))
	for i, dv := range series {
		values[i] = dv.value
	}
	recent := tail(values, config.DefaultForecastWindowRows)
	if len(recent) < 2 {
		return nil, ErrInsufficientRecentRows
	}

	slope, intercept := fitLine(recent)

	residuals := make([]float64, len(recent))
	for i, v := range recent {
		residuals[i] = v - (slope*float64(i) + intercept)
	}
	halfWidth := 1.96 * popStd(residuals)

	points := make([]ForecastPoint, periods)
	for i := 0; i < periods; i++ {
		x := float64(len(recent) + i)
		v := slope*x + intercept
		points[i] = ForecastPoint{
			Period:     i + 1,
			Forecast:   v,
			LowerBound: v - halfWidth,
			UpperBound: v + halfWidth,
		}
	}

	direction := "decreasing"
	if slope > 0 {
		direction = "increasing"
	}
	return &ForecastResult{
		ForecastPeriods:    periods,
		TrendSlope:         slope,
		TrendDirection:     direction,
		ConfidenceInterval: halfWidth,
		ForecastData:       points,
		LastActualValue:    recent[len(recent)-1],
		ForecastAccuracy:   "moderate",
	}, nil
}

// fitLine returns the least-squares slope and intercept of values against
// their indices.
func fitLine(values []float64) (slope, intercept float64) {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	return beta, alpha
}
