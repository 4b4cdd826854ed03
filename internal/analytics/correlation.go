package analytics

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/dataset"
)

// Banding selects the correlation thresholds and labels for one call site.
// The basic analysis reports only strong pairs; the advanced endpoint splits
// very strong from strong and adds the moderate band.
type Banding struct {
	Strong       float64
	VeryStrong   float64
	Moderate     float64
	SplitStrong  bool
	WithModerate bool
}

// BasicBanding mirrors the default correlation report.
func BasicBanding() Banding {
	return Banding{Strong: config.StrongCorrelation}
}

// AdvancedBanding adds the very-strong split and the moderate tier.
func AdvancedBanding() Banding {
	return Banding{
		Strong:       config.StrongCorrelation,
		VeryStrong:   config.VeryStrongCorrelation,
		Moderate:     config.ModerateCorrelation,
		SplitStrong:  true,
		WithModerate: true,
	}
}

// CorrelationPair is one flagged variable pair.
type CorrelationPair struct {
	Variable1        string  `json:"variable1"`
	Variable2        string  `json:"variable2"`
	Variable1Display string  `json:"variable1_display"`
	Variable2Display string  `json:"variable2_display"`
	Correlation      float64 `json:"correlation"`
	Strength         string  `json:"strength"`
	Direction        string  `json:"direction,omitempty"`
	Interpretation   string  `json:"interpretation"`
}

// CorrelationSummary aggregates the matrix.
type CorrelationSummary struct {
	TotalVariables          int     `json:"total_variables"`
	StrongCorrelationsCount int     `json:"strong_correlations_count"`
	MeanCorrelation         float64 `json:"mean_correlation"`
}

// CorrelationResult reports pairwise linear correlation over numeric columns.
// Moderate pairs, insights, and recommendations are populated only under the
// advanced banding.
type CorrelationResult struct {
	CorrelationMatrix    map[string]map[string]float64 `json:"correlation_matrix"`
	StrongCorrelations   []CorrelationPair             `json:"strong_correlations"`
	ModerateCorrelations []CorrelationPair             `json:"moderate_correlations,omitempty"`
	VariablesAnalyzed    int                           `json:"variables_analyzed"`
	TotalRelationships   int                           `json:"total_relationships,omitempty"`
	Summary              CorrelationSummary            `json:"summary"`
	BusinessInsights     []string                      `json:"business_insights,omitempty"`
	Recommendations      []string                      `json:"recommendations,omitempty"`
}

// MarshalJSON encodes NaN matrix cells (constant or disjoint columns) and a
// NaN mean as null to keep the payload valid JSON.
func (r CorrelationResult) MarshalJSON() ([]byte, error) {
	type alias CorrelationResult
	matrix := make(map[string]map[string]*float64, len(r.CorrelationMatrix))
	for a, row := range r.CorrelationMatrix {
		matrix[a] = make(map[string]*float64, len(row))
		for b, v := range row {
			matrix[a][b] = finiteOrNil(v)
		}
	}
	return json.Marshal(struct {
		alias
		CorrelationMatrix map[string]map[string]*float64 `json:"correlation_matrix"`
		Summary           struct {
			TotalVariables          int      `json:"total_variables"`
			StrongCorrelationsCount int      `json:"strong_correlations_count"`
			MeanCorrelation         *float64 `json:"mean_correlation"`
		} `json:"summary"`
	}{
		alias:             alias(r),
		CorrelationMatrix: matrix,
		Summary: struct {
			TotalVariables          int      `json:"total_variables"`
			StrongCorrelationsCount int      `json:"strong_correlations_count"`
			MeanCorrelation         *float64 `json:"mean_correlation"`
		}{
			TotalVariables:          r.Summary.TotalVariables,
			StrongCorrelationsCount: r.Summary.StrongCorrelationsCount,
			MeanCorrelation:         finiteOrNil(r.Summary.MeanCorrelation),
		},
	})
}

// Correlate computes the Pearson matrix over the numeric subset of columns
// (defaulting to all numeric, identifier-like columns excluded) and extracts
// banded pairs per the preset. Pairs use pairwise-complete observations.
func Correlate(t *dataset.Table, columns []string, banding Banding) (*CorrelationResult, *Error) {
	cols, matrix := featureMatrixRaw(t, columns)
	if len(cols) == 0 {
		return nil, ErrNoCorrelationColumns
	}

	corr := make(map[string]map[string]float64, len(cols))
	for _, c := range cols {
		corr[c] = make(map[string]float64, len(cols))
		corr[c][c] = 1
	}
	var upper []float64
	var strong, moderate []CorrelationPair
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			r := pearson(matrix[i], matrix[j])
			corr[cols[i]][cols[j]] = r
			corr[cols[j]][cols[i]] = r
			if !math.IsNaN(r) {
				upper = append(upper, r)
			}
			abs := math.Abs(r)
			switch {
			case abs > banding.Strong:
				strong = append(strong, makePair(cols[i], cols[j], r, banding))
			case banding.WithModerate && abs > banding.Moderate:
				p := makePair(cols[i], cols[j], r, banding)
				p.Strength = "Moderate"
				moderate = append(moderate, p)
			}
		}
	}

	res := &CorrelationResult{
		CorrelationMatrix:  corr,
		StrongCorrelations: strong,
		VariablesAnalyzed:  len(cols),
		Summary: CorrelationSummary{
			TotalVariables:          len(cols),
			StrongCorrelationsCount: len(strong),
			MeanCorrelation:         meanOf(upper),
		},
	}
	if banding.WithModerate {
		res.ModerateCorrelations = moderate
		res.TotalRelationships = len(strong) + len(moderate)
		res.BusinessInsights = correlationInsights(strong, moderate)
		res.Recommendations = correlationRecommendations(strong, moderate)
	}
	return res, nil
}

// featureMatrixRaw is featureMatrix without mean imputation: unparseable
// cells stay NaN so correlation can use pairwise-complete rows. Identifier
// columns are excluded when no explicit column list is given.
func featureMatrixRaw(t *dataset.Table, columns []string) ([]string, [][]float64) {
	if t == nil || t.Len() == 0 {
		return nil, nil
	}
	if len(columns) == 0 {
		for _, col := range t.NumericColumns() {
			if matchesAny(strings.ToLower(col), IdentifierExclusions()) {
				continue
			}
			columns = append(columns, col)
		}
	}
	numeric := make(map[string]bool)
	for _, c := range t.NumericColumns() {
		numeric[c] = true
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
		cols = append(cols, col)
		series = append(series, raw)
	}
	return cols, series
}

// pearson computes the sample correlation over rows where both series parse.
func pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	mx, my := meanOf(xs), meanOf(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}

func makePair(a, b string, r float64, banding Banding) CorrelationPair {
	p := CorrelationPair{
		Variable1:        a,
		Variable2:        b,
		Variable1Display: DisplayName(a),
		Variable2Display: DisplayName(b),
		Correlation:      r,
		Interpretation:   interpretCorrelation(a, b, r),
	}
	if banding.SplitStrong {
		p.Strength = "Strong"
		if math.Abs(r) > banding.VeryStrong {
			p.Strength = "Very Strong"
		}
		p.Direction = "Negative"
		if r > 0 {
			p.Direction = "Positive"
		}
	} else {
		p.Strength = "strong negative"
		if r > 0 {
			p.Strength = "strong positive"
		}
	}
	return p
}

// DisplayName prefixes a column name with an icon by keyword category.
func DisplayName(col string) string {
	lower := strings.ToLower(col)
	switch {
	case matchesAny(lower, []string{"total", "amount", "spent"}):
		return "💰 " + col
	case matchesAny(lower, []string{"date", "time"}):
		return "📅 " + col
	case matchesAny(lower, []string{"stock", "quantity"}):
		return "📦 " + col
	case matchesAny(lower, []string{"price", "cost"}):
		return "💵 " + col
	case matchesAny(lower, []string{"order", "count"}):
		return "🛒 " + col
	default:
		return "📊 " + col
	}
}

// interpretCorrelation maps a flagged pair onto a canned business sentence,
// matching specific column-name combinations before the generic
// magnitude-based fallbacks.
func interpretCorrelation(var1, var2 string, r float64) string {
	l1, l2 := strings.ToLower(var1), strings.ToLower(var2)

	if matchesAny(l1, []string{"total", "amount", "spent"}) && matchesAny(l2, []string{"total", "amount", "spent"}) {
		if r > 0.7 {
			return "High spending customers tend to have high total amounts"
		}
		return "Spending patterns are independent"
	}
	if matchesAny(l1, []string{"stock", "quantity"}) && matchesAny(l2, []string{"cost", "price"}) {
		if r > 0.7 {
			return "Higher stock quantities correlate with higher costs"
		}
		if r < -0.7 {
			return "Higher stock quantities correlate with lower unit costs (bulk pricing)"
		}
	}
	if matchesAny(l1, []string{"order", "count"}) && matchesAny(l2, []string{"total", "amount"}) {
		if r > 0.7 {
			return "More orders correlate with higher total amounts"
		}
		return "Order frequency and amounts are independent"
	}
	if matchesAny(l1, []string{"date", "time"}) && matchesAny(l2, []string{"total", "amount"}) {
		if r > 0.7 {
			return "Time-based trends in spending/amounts detected"
		}
		if r < -0.7 {
			return "Inverse time-based trends detected"
		}
	}

	switch {
	case r > 0.9:
		return "Very strong positive relationship - these variables move together"
	case r > 0.7:
		return "Strong positive relationship - as one increases, the other tends to increase"
	case r < -0.9:
		return "Very strong negative relationship - these variables move in opposite directions"
	case r < -0.7:
		return "Strong negative relationship - as one increases, the other tends to decrease"
	default:
		return "Moderate relationship - some connection exists"
	}
}

func correlationInsights(strong, moderate []CorrelationPair) []string {
	var out []string
	if len(strong) > 0 {
		out = append(out,
			fmt.Sprintf("Your business has %d strong connections between different metrics", len(strong)),
			"When one metric changes, the related metrics tend to change in the same direction")
	}
	if len(moderate) > 0 {
		out = append(out, fmt.Sprintf("Found %d moderate connections worth monitoring", len(moderate)))
	}
	if len(strong) == 0 && len(moderate) == 0 {
		out = append(out, "Your business metrics appear to be mostly independent - this could indicate diverse revenue streams")
	}
	return out
}

func correlationRecommendations(strong, moderate []CorrelationPair) []string {
	var out []string
	if len(strong) > 0 {
		out = append(out,
			"Focus on the metrics that are strongly connected - improving one will likely improve the other",
			"Use these connections to predict business performance and make informed decisions")
	}
	if len(moderate) > 0 {
		out = append(out, "Monitor the moderately connected metrics to identify emerging business patterns")
	}
	if len(strong) == 0 && len(moderate) == 0 {
		out = append(out, "Your business has diverse metrics - consider analyzing each area separately for optimization")
	}
	return out
}
