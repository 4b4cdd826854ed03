package insights

import (
	"math"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// analyzeRevenue covers the orders dataset: totals, trend, anomalies, and a
// weekly seasonality check.
func (g *Generator) analyzeRevenue(t *dataset.Table) section {
	var sec section

	valueCol, ok := g.resolver.Resolve(t, analytics.RoleMonetary, analytics.IdentifierExclusions()...)
	if !ok {
		sec.insight("❌ Revenue analysis error: no revenue column found")
		return sec
	}
	vals, valid := t.Numeric(valueCol)
	if valid == 0 {
		sec.insight("❌ Revenue analysis error: revenue column %q has no numeric values", valueCol)
		return sec
	}
	clean := dataset.DropNaN(vals)
	total, avg := 0.0, 0.0
	for _, v := range clean {
		total += v
	}
	avg = total / float64(len(clean))
	sec.insight("💰 **Revenue Overview**: Total revenue %s", money(total))
	sec.insight("📊 Average order value: %s", money(avg))

	dateCol, hasDate := g.resolver.Resolve(t, analytics.RoleDate)
	if hasDate {
		trend, aerr := analytics.DetectTrends(t, dateCol, valueCol, 0)
		if aerr != nil {
			sec.insight("📈 **Basic Trend**: %s", aerr.Reason)
		} else {
			sec.insight("📈 **Trend Analysis**: Revenue is %s with %s momentum", trend.TrendDirection, trend.TrendStrength)
			sec.insight("📅 Growth rates: 7-day: %.1f%%, 30-day: %.1f%%", trend.GrowthRate7D*100, trend.GrowthRate30D*100)

			if trend.TrendDirection == "increasing" {
				if trend.GrowthRate7D > 0.1 {
					sec.recommend("Maintain current growth strategies - momentum is strong")
				} else {
					sec.recommend("Focus on customer retention and upselling to boost growth")
				}
			} else {
				sec.recommend("Investigate declining revenue - consider promotional campaigns")
			}
		}
	}

	if anomalies, aerr := analytics.DetectAnomalies(t, []string{valueCol}, 0.05); aerr == nil {
		if anomalies.AnomalyCount > 0 {
			sec.insight("⚠️ **Anomaly Alert**: %d unusual order patterns detected", anomalies.AnomalyCount)
			sec.recommend("Review anomalous orders for potential fraud or data quality issues")
		}
	}

	if hasDate && weeklySeasonality(t, dateCol, valueCol) > 0.3 {
		sec.insight("🔄 **Seasonality Detected**: Revenue shows weekly patterns")
		sec.recommend("Plan inventory and marketing around weekly revenue cycles")
	}

	return sec
}

// weeklySeasonality sums the value column per ISO week and returns the
// coefficient of variation of the weekly totals; zero below five weeks.
func weeklySeasonality(t *dataset.Table, dateCol, valueCol string) float64 {
	sums := make(map[int]float64)
	for i := range t.Rows {
		d, ok := dataset.ParseDate(t.Cell(i, dateCol))
		if !ok {
			continue
		}
		v, ok := dataset.ParseFloat(t.Cell(i, valueCol))
		if !ok {
			continue
		}
		year, week := d.ISOWeek()
		sums[year*100+week] += v
	}
	if len(sums) <= 4 {
		return 0
	}
	weekly := make([]float64, 0, len(sums))
	for _, s := range sums {
		weekly = append(weekly, s)
	}
	mean := 0.0
	for _, v := range weekly {
		mean += v
	}
	mean /= float64(len(weekly))
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range weekly {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(weekly) - 1)
	return math.Sqrt(variance) / mean
}
