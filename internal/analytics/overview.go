package analytics

import (
	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/dataset"
)

// DatasetSummary is the headline shape of a table.
type DatasetSummary struct {
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

// DatasetOverview bundles the default analysis of one dataset: the summary,
// per-column statistics, and whichever deeper analyses the table qualifies
// for. Sub-analyses that fail on data quality contribute their error value in
// place of a result, so one bad column never hides the rest.
type DatasetOverview struct {
	Summary      DatasetSummary        `json:"summary"`
	Statistics   map[string]ColumnStats `json:"statistics"`
	SalesTrends  any                   `json:"sales_trends,omitempty"`
	Anomalies    any                   `json:"anomalies,omitempty"`
	Correlations any                   `json:"correlations,omitempty"`
}

// Overview runs the composite default analysis. Trend analysis requires
// resolvable date and monetary columns; anomaly detection requires at least
// one numeric column; correlation requires at least two.
func Overview(t *dataset.Table, resolver *Resolver) *DatasetOverview {
	out := &DatasetOverview{
		Summary: DatasetSummary{
			Rows:        t.Len(),
			Columns:     len(t.Columns),
			ColumnNames: t.Columns,
		},
		Statistics: Describe(t, nil),
	}

	dateCol, hasDate := resolver.Resolve(t, RoleDate)
	valueCol, hasValue := resolver.Resolve(t, RoleMonetary)
	if hasDate && hasValue {
		out.SalesTrends = eitherResult(DetectTrends(t, dateCol, valueCol, config.DefaultTrendWindowDays))
	}

	numeric := resolver.NumericFeatures(t)
	if len(numeric) > 0 {
		out.Anomalies = eitherResult(DetectAnomalies(t, nil, config.DefaultContamination))
	}
	if len(numeric) > 1 {
		out.Correlations = eitherResult(Correlate(t, nil, BasicBanding()))
	}
	return out
}

// eitherResult flattens a (result, *Error) pair into the value that should be
// embedded in the overview.
func eitherResult[T any](res *T, aerr *Error) any {
	if aerr != nil {
		return aerr
	}
	return res
}
