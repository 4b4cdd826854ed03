package analytics

import (
	"sort"
	"strings"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/dataset"
)

// ScoreSummary summarizes the distribution of anomaly scores.
type ScoreSummary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// AnomalyRecord is one flagged row with its score and original cell values.
type AnomalyRecord struct {
	RowIndex     int         `json:"row_index"`
	AnomalyScore float64     `json:"anomaly_score"`
	Row          dataset.Row `json:"row"`
}

// AnomalyResult reports multivariate outlier detection over numeric features.
// Scores are in (0, 1); higher means more anomalous. The sign convention is
// fixed here rather than inherited from any library: top anomalies are the
// rows with the highest scores.
type AnomalyResult struct {
	TotalRecords      int             `json:"total_records"`
	AnomalyCount      int             `json:"anomaly_count"`
	AnomalyPercentage float64         `json:"anomaly_percentage"`
	AnomalyThreshold  float64         `json:"anomaly_threshold"`
	TopAnomalies      []AnomalyRecord `json:"top_anomalies"`
	AnomalyScores     ScoreSummary    `json:"anomaly_scores"`
	ColumnsUsed       []string        `json:"columns_used"`
}

// DetectAnomalies scores every row with a freshly seeded isolation forest
// over the numeric subset of columns. Missing values are imputed with the
// column mean and features are standardized before fitting. The contamination
// fraction of rows with the highest scores (at least one) is flagged.
func DetectAnomalies(t *dataset.Table, columns []string, contamination float64) (*AnomalyResult, *Error) {
	if contamination <= 0 {
		contamination = config.DefaultContamination
	}
	cols, matrix := featureMatrix(t, columns)
	if len(cols) == 0 {
		return nil, ErrNoNumericColumns
	}
	standardize(matrix)

	forest := newIsolationForest(matrix, config.DefaultForestTrees, config.DefaultForestSubsample, config.DefaultModelSeed)
	scores := forest.scoreAll(matrix)

	n := len(matrix)
	count := int(contamination * float64(n))
	if count < 1 {
		count = 1
	}
	if count > n {
		count = n
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	top := make([]AnomalyRecord, 0, minInt(5, count))
	for _, i := range order[:count] {
		if len(top) == 5 {
			break
		}
		top = append(top, AnomalyRecord{RowIndex: i, AnomalyScore: scores[i], Row: t.Rows[i]})
	}

	return &AnomalyResult{
		TotalRecords:      n,
		AnomalyCount:      count,
		AnomalyPercentage: float64(count) / float64(n) * 100,
		AnomalyThreshold:  percentile(scores, 90),
		TopAnomalies:      top,
		AnomalyScores: ScoreSummary{
			Mean: meanOf(scores),
			Std:  popStd(scores),
			Min:  minOf(scores),
			Max:  maxOf(scores),
		},
		ColumnsUsed: cols,
	}, nil
}

// featureMatrix selects the numeric-coercible subset of columns and returns a
// row-major matrix with missing values imputed by the column mean. When no
// column list is given, identifier-like columns are excluded so a numeric ID
// never skews the scores.
func featureMatrix(t *dataset.Table, columns []string) ([]string, [][]float64) {
	if t == nil || t.Len() == 0 {
		return nil, nil
	}
	numeric := make(map[string]bool)
	for _, c := range t.NumericColumns() {
		numeric[c] = true
	}
	if len(columns) == 0 {
		for _, col := range t.NumericColumns() {
			if matchesAny(strings.ToLower(col), IdentifierExclusions()) {
				continue
			}
			columns = append(columns, col)
		}
	}
	var cols []string
	var series [][]float64
	for _, col := range columns {
		if !numeric[col] {
			continue
		}
		raw, valid := t.Numeric(col)
		if valid == 0 {
			continue
		}
		mean := meanOf(raw)
		vals := make([]float64, len(raw))
		for i, v := range raw {
			if v != v { // NaN
				vals[i] = mean
			} else {
				vals[i] = v
			}
		}
		cols = append(cols, col)
		series = append(series, vals)
	}
	if len(cols) == 0 {
		return nil, nil
	}
	matrix := make([][]float64, t.Len())
	for i := range matrix {
		row := make([]float64, len(cols))
		for j := range cols {
			row[j] = series[j][i]
		}
		matrix[i] = row
	}
	return cols, matrix
}

// standardize rescales each column in place to zero mean and unit variance
// (population convention); constant columns become all zeros.
func standardize(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}
	features := len(matrix[0])
	for j := 0; j < features; j++ {
		col := make([]float64, len(matrix))
		for i := range matrix {
			col[i] = matrix[i][j]
		}
		mean := meanOf(col)
		std := popStd(col)
		if std == 0 {
			std = 1
		}
		for i := range matrix {
			matrix[i][j] = (matrix[i][j] - mean) / std
		}
	}
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
