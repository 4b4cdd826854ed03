package analytics

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storelens/storelens/internal/dataset"
)

func pricingTable() *dataset.Table {
	t := &dataset.Table{Columns: []string{"Product ID", "Unit Price", "Unit Cost", "Stock Quantity"}}
	stock := []float64{5, 40, 12, 80, 3, 55, 22, 9, 67, 31}
	for i := 0; i < 10; i++ {
		price := 10 + float64(i)*5
		t.Rows = append(t.Rows, dataset.Row{
			"Product ID":     fmt.Sprintf("P-%d", i),
			"Unit Price":     fmt.Sprintf("%g", price),
			"Unit Cost":      fmt.Sprintf("%g", price*2),
			"Stock Quantity": fmt.Sprintf("%g", stock[i]),
		})
	}
	return t
}

func TestCorrelateLinearPair(t *testing.T) {
	res, aerr := Correlate(pricingTable(), nil, BasicBanding())
	require.Nil(t, aerr)

	require.InDelta(t, 1.0, res.CorrelationMatrix["Unit Price"]["Unit Cost"], 1e-9)

	found := false
	for _, p := range res.StrongCorrelations {
		if (p.Variable1 == "Unit Price" && p.Variable2 == "Unit Cost") ||
			(p.Variable1 == "Unit Cost" && p.Variable2 == "Unit Price") {
			found = true
			require.InDelta(t, 1.0, p.Correlation, 1e-9)
			require.Equal(t, "strong positive", p.Strength)
		}
	}
	require.True(t, found, "cost = 2*price must be reported as a strong correlation")
}

func TestCorrelateMatrixSymmetricUnitDiagonal(t *testing.T) {
	res, aerr := Correlate(pricingTable(), nil, BasicBanding())
	require.Nil(t, aerr)

	for a, row := range res.CorrelationMatrix {
		require.Equal(t, 1.0, row[a])
		for b, r := range row {
			require.Equal(t, r, res.CorrelationMatrix[b][a], "matrix must be symmetric (%s, %s)", a, b)
		}
	}
}

func TestCorrelateExcludesIdentifierColumns(t *testing.T) {
	res, aerr := Correlate(pricingTable(), nil, BasicBanding())
	require.Nil(t, aerr)
	require.NotContains(t, res.CorrelationMatrix, "Product ID")
	require.Equal(t, 3, res.VariablesAnalyzed)
}

func TestCorrelateStrongMatchesMatrix(t *testing.T) {
	res, aerr := Correlate(pricingTable(), nil, BasicBanding())
	require.Nil(t, aerr)
	for _, p := range res.StrongCorrelations {
		require.Greater(t, math.Abs(p.Correlation), 0.7)
		require.Equal(t, res.CorrelationMatrix[p.Variable1][p.Variable2], p.Correlation)
	}
	require.Equal(t, len(res.StrongCorrelations), res.Summary.StrongCorrelationsCount)
}

func TestCorrelateAdvancedBanding(t *testing.T) {
	res, aerr := Correlate(pricingTable(), nil, AdvancedBanding())
	require.Nil(t, aerr)

	for _, p := range res.StrongCorrelations {
		require.Contains(t, []string{"Strong", "Very Strong"}, p.Strength)
		require.Contains(t, []string{"Positive", "Negative"}, p.Direction)
		if math.Abs(p.Correlation) > 0.9 {
			require.Equal(t, "Very Strong", p.Strength)
		}
	}
	for _, p := range res.ModerateCorrelations {
		abs := math.Abs(p.Correlation)
		require.Greater(t, abs, 0.5)
		require.LessOrEqual(t, abs, 0.7)
		require.Equal(t, "Moderate", p.Strength)
	}
	require.Equal(t, len(res.StrongCorrelations)+len(res.ModerateCorrelations), res.TotalRelationships)
	require.NotEmpty(t, res.BusinessInsights)
	require.NotEmpty(t, res.Recommendations)
}

func TestCorrelateNoNumericColumns(t *testing.T) {
	tbl := &dataset.Table{Columns: []string{"Name"}, Rows: []dataset.Row{{"Name": "x"}}}
	_, aerr := Correlate(tbl, nil, BasicBanding())
	require.NotNil(t, aerr)
	require.Equal(t, "No numeric columns found for correlation analysis", aerr.Reason)

	_, aerr = Correlate(&dataset.Table{}, nil, BasicBanding())
	require.NotNil(t, aerr)
}

func TestDisplayNames(t *testing.T) {
	require.Equal(t, "💰 Total Amount", DisplayName("Total Amount"))
	require.Equal(t, "📅 Order Date", DisplayName("Order Date"))
	require.Equal(t, "📦 Stock Quantity", DisplayName("Stock Quantity"))
	require.Equal(t, "💵 Unit Price", DisplayName("Unit Price"))
	require.Equal(t, "🛒 Order Count", DisplayName("Order Count"))
	require.Equal(t, "📊 Region", DisplayName("Region"))
}

func TestInterpretCorrelation(t *testing.T) {
	require.Equal(t,
		"Higher stock quantities correlate with higher costs",
		interpretCorrelation("Stock Quantity", "Unit Cost", 0.85))
	require.Equal(t,
		"Higher stock quantities correlate with lower unit costs (bulk pricing)",
		interpretCorrelation("Stock Quantity", "Unit Cost", -0.85))
	require.Equal(t,
		"High spending customers tend to have high total amounts",
		interpretCorrelation("Total Spent", "Grand Amount", 0.92))
	require.Equal(t,
		"Very strong positive relationship - these variables move together",
		interpretCorrelation("Visits", "Sessions", 0.95))
}

func TestPearson(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	require.InDelta(t, 1, pearson(x, []float64{2, 4, 6, 8}), 1e-12)
	require.InDelta(t, -1, pearson(x, []float64{8, 6, 4, 2}), 1e-12)

	withGaps := []float64{1, math.NaN(), 3, 4}
	require.InDelta(t, 1, pearson(withGaps, []float64{10, 99, 30, 40}), 1e-12)

	require.True(t, math.IsNaN(pearson(x, []float64{5, 5, 5, 5})), "constant series has undefined correlation")
}
