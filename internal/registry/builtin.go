package registry

import (
	"context"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// Builtin registers the stock analyses against the provided role resolver and
// returns the populated registry.
func Builtin(resolver *analytics.Resolver) *Registry {
	r := New()

	r.MustRegister(Descriptor{
		Name:        "stats",
		Description: "Dataset summary, per-column statistics, and whichever deeper analyses the table qualifies for.",
		Run: func(_ context.Context, t *dataset.Table, _ Params) (any, *analytics.Error) {
			return analytics.Overview(t, resolver), nil
		},
	})

	r.MustRegister(Descriptor{
		Name:        "trends",
		Description: "Daily revenue trend, moving averages, growth rates, and weekday seasonality.",
		Kinds:       []dataset.Kind{dataset.KindOrders},
		Run: func(_ context.Context, t *dataset.Table, p Params) (any, *analytics.Error) {
			dateCol, ok := resolver.Resolve(t, analytics.RoleDate)
			if !ok {
				return nil, analytics.ErrInsufficientTrendData
			}
			valueCol, ok := resolver.Resolve(t, analytics.RoleMonetary)
			if !ok {
				return nil, analytics.ErrInsufficientTrendData
			}
			window := p.WindowDays
			if window <= 0 {
				window = config.DefaultTrendWindowDays
			}
			return present(analytics.DetectTrends(t, dateCol, valueCol, window))
		},
	})

	r.MustRegister(Descriptor{
		Name:        "anomalies",
		Description: "Isolation-forest scoring of numeric rows with the most unusual records surfaced.",
		Run: func(_ context.Context, t *dataset.Table, p Params) (any, *analytics.Error) {
			contamination := p.Contamination
			if contamination <= 0 {
				contamination = config.DefaultContamination
			}
			return present(analytics.DetectAnomalies(t, p.Columns, contamination))
		},
	})

	r.MustRegister(Descriptor{
		Name:        "segments",
		Description: "K-means customer segmentation with per-cluster profiles and business labels.",
		Kinds:       []dataset.Kind{dataset.KindCustomers},
		Run: func(_ context.Context, t *dataset.Table, p Params) (any, *analytics.Error) {
			clusters := p.Clusters
			if clusters <= 0 {
				clusters = config.DefaultClusterCount
			}
			features := p.Columns
			if len(features) == 0 {
				features = resolver.NumericFeatures(t)
			}
			return present(analytics.Segment(t, features, clusters))
		},
	})

	r.MustRegister(Descriptor{
		Name:        "correlations",
		Description: "Pairwise Pearson correlations across numeric columns with strength banding.",
		Run: func(_ context.Context, t *dataset.Table, p Params) (any, *analytics.Error) {
			banding := analytics.BasicBanding()
			if p.Advanced {
				banding = analytics.AdvancedBanding()
			}
			return present(analytics.Correlate(t, p.Columns, banding))
		},
	})

	r.MustRegister(Descriptor{
		Name:        "forecast",
		Description: "Linear trend extrapolation of daily revenue with a 95% confidence band.",
		Kinds:       []dataset.Kind{dataset.KindOrders},
		Run: func(_ context.Context, t *dataset.Table, p Params) (any, *analytics.Error) {
			dateCol, ok := resolver.Resolve(t, analytics.RoleDate)
			if !ok {
				return nil, analytics.ErrInsufficientForecastData
			}
			valueCol, ok := resolver.Resolve(t, analytics.RoleMonetary)
			if !ok {
				return nil, analytics.ErrInsufficientForecastData
			}
			periods := p.Periods
			if periods <= 0 {
				periods = config.DefaultForecastPeriods
			}
			return present(analytics.Forecast(t, dateCol, valueCol, periods))
		},
	})

	return r
}

// present collapses a typed (result, *Error) pair into the Runner shape
// without wrapping a nil result in a non-nil interface.
func present[T any](res *T, aerr *analytics.Error) (any, *analytics.Error) {
	if aerr != nil {
		return nil, aerr
	}
	return res, nil
}
