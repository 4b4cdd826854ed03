package insights

import (
	"fmt"
	"strings"
	"time"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// analyzeCustomers covers the customers dataset: spending totals,
// k-means segmentation, and a 90-day activity check.
func (g *Generator) analyzeCustomers(t *dataset.Table) section {
	var sec section

	sec.insight("👥 **Customer Base**: %d total customers", t.Len())

	spentCol, ok := g.resolver.Resolve(t, analytics.RoleMonetary, analytics.IdentifierExclusions()...)
	if !ok {
		return sec
	}
	vals, valid := t.Numeric(spentCol)
	if valid == 0 {
		return sec
	}
	clean := dataset.DropNaN(vals)
	total := 0.0
	for _, v := range clean {
		total += v
	}
	sec.insight("💳 **Spending Analysis**: Total customer spending %s", money(total))
	sec.insight("📊 Average customer spending: %s", money(total/float64(len(clean))))

	features := []string{spentCol}
	if countCol, hasCount := orderCountColumn(t); hasCount {
		features = append(features, countCol)
	}
	seg, aerr := analytics.Segment(t, features, 0)
	if aerr != nil {
		sec.insight("🎯 **Customer Analysis**: %s", aerr.Reason)
	} else {
		sec.insight("🎯 **Customer Segments**: %d distinct customer groups identified", seg.NClusters)
		for c := 0; c < seg.NClusters; c++ {
			ca := seg.ClusterAnalysis[fmt.Sprintf("cluster_%d", c)]
			if fs, ok := ca.Characteristics[spentCol]; ok {
				sec.insight("   • Segment %d: %d customers (%.1f%%) - Avg spending: %s",
					c+1, ca.Size, ca.Percentage, money(fs.Mean))
			}
		}
		if seg.NClusters > 1 {
			sec.recommend("Implement targeted marketing strategies for different customer segments")
			sec.recommend("Focus retention efforts on high-value customer segments")
		}
	}

	if lastCol, hasLast := lastOrderDateColumn(t); hasLast {
		activePct := activeCustomerShare(t, lastCol, g.now())
		sec.insight("🔄 **Customer Activity**: %.1f%% of customers active in last 90 days", activePct)
		if activePct < 50 {
			sec.recommend("Implement customer re-engagement campaigns")
		} else if activePct > 80 {
			sec.insight("✅ Excellent customer retention rate!")
		}
	}

	return sec
}

// orderCountColumn finds an order-frequency column by keyword.
func orderCountColumn(t *dataset.Table) (string, bool) {
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "order") && strings.Contains(lower, "count") {
			return col, true
		}
	}
	return "", false
}

// lastOrderDateColumn finds a last-activity date column.
func lastOrderDateColumn(t *dataset.Table) (string, bool) {
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "last") && strings.Contains(lower, "date") {
			return col, true
		}
	}
	return "", false
}

// activeCustomerShare is the percentage of rows whose last-order date falls
// within the trailing 90 days.
func activeCustomerShare(t *dataset.Table, lastCol string, now time.Time) float64 {
	if t.Len() == 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -90)
	active := 0
	for i := range t.Rows {
		if d, ok := dataset.ParseDate(t.Cell(i, lastCol)); ok && !d.Before(cutoff) {
			active++
		}
	}
	return float64(active) / float64(t.Len()) * 100
}
