package insights

import (
	"sort"
	"strings"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// analyzeProducts covers the products dataset: pricing spread, category
// breakdown, and vendor concentration.
func (g *Generator) analyzeProducts(t *dataset.Table) section {
	var sec section

	sec.insight("🛍️ **Product Catalog**: %d total products", t.Len())

	if priceCol, ok := g.resolver.Resolve(t, analytics.RoleMonetary, analytics.IdentifierExclusions()...); ok {
		raw, valid := t.Numeric(priceCol)
		if valid > 0 {
			prices := dataset.DropNaN(raw)
			minP, maxP, sum := prices[0], prices[0], 0.0
			for _, p := range prices {
				if p < minP {
					minP = p
				}
				if p > maxP {
					maxP = p
				}
				sum += p
			}
			avg := sum / float64(len(prices))
			sec.insight("💰 **Pricing**: Average price %s, Range %s", money(avg), money(maxP-minP))
			if maxP-minP > avg*2 {
				sec.insight("📊 **Price Variation**: High price variability detected")
				sec.recommend("Review pricing strategy for consistency and competitiveness")
			}
		}
	}

	if catCol, ok := categoryColumn(t); ok {
		counts := valueCounts(t, catCol)
		if len(counts) > 0 {
			sec.insight("🏷️ **Top Categories**:")
			for _, vc := range counts[:minLen(3, len(counts))] {
				sec.insight("   • %s: %d products (%.1f%%)", vc.value, vc.count, float64(vc.count)/float64(t.Len())*100)
			}
			if len(counts) > 5 {
				sec.recommend("Consider consolidating or optimizing underperforming product categories")
			}
		}
	}

	if vendorCol, ok := vendorColumn(t); ok {
		counts := valueCounts(t, vendorCol)
		if len(counts) > 1 {
			sec.insight("🏢 **Vendor Diversity**: Products from %d vendors", len(counts))
			if float64(counts[0].count)/float64(t.Len())*100 > 50 {
				sec.insight("⚠️ **Vendor Concentration**: High dependency on single vendor")
				sec.recommend("Diversify vendor base to reduce supply chain risk")
			}
		}
	}

	return sec
}

type valueCount struct {
	value string
	count int
}

// valueCounts tallies non-empty cell values of a column, most frequent first
// with ties broken alphabetically for stable output.
func valueCounts(t *dataset.Table, col string) []valueCount {
	tally := make(map[string]int)
	for i := range t.Rows {
		if v := t.Cell(i, col); v != "" {
			tally[v]++
		}
	}
	out := make([]valueCount, 0, len(tally))
	for v, c := range tally {
		out = append(out, valueCount{value: v, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].value < out[j].value
	})
	return out
}

func categoryColumn(t *dataset.Table) (string, bool) {
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "category") || strings.Contains(lower, "type") {
			return col, true
		}
	}
	return "", false
}

func vendorColumn(t *dataset.Table) (string, bool) {
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "vendor") || strings.Contains(lower, "supplier") {
			return col, true
		}
	}
	return "", false
}

func minLen(a, b int) int {
	if a < b {
		return a
	}
	return b
}
