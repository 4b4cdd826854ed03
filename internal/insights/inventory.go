package insights

import (
	"sort"
	"strings"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// analyzeInventory covers the inventory dataset: stock alerts, total value,
// an ABC concentration check, and location spread.
func (g *Generator) analyzeInventory(t *dataset.Table) section {
	var sec section

	sec.insight("📦 **Inventory Overview**: %d total items", t.Len())

	qtyCol, ok := g.resolver.Resolve(t, analytics.RoleQuantity, analytics.IdentifierExclusions()...)
	if !ok {
		return sec
	}
	qty, valid := t.Numeric(qtyCol)
	if valid == 0 {
		return sec
	}

	lowStock, outOfStock := 0, 0
	for _, v := range qty {
		if v != v { // NaN
			continue
		}
		if v < config.LowStockThreshold {
			lowStock++
		}
		if v == 0 {
			outOfStock++
		}
	}
	sec.insight("⚠️ **Stock Alerts**: %d items low on stock, %d out of stock", lowStock, outOfStock)
	if lowStock > 0 {
		sec.recommend("Reorder %d items that are low on stock", lowStock)
	}
	if outOfStock > 0 {
		sec.recommend("Immediate action needed for %d out-of-stock items", outOfStock)
	}

	costCol, hasCost := costColumn(t)
	if hasCost {
		cost, _ := t.Numeric(costCol)
		values := make([]float64, 0, len(qty))
		totalValue := 0.0
		for i := range qty {
			if qty[i] != qty[i] || cost[i] != cost[i] {
				continue
			}
			v := qty[i] * cost[i]
			values = append(values, v)
			totalValue += v
		}
		sec.insight("💰 **Inventory Value**: Total stock value %s", money(totalValue))

		if len(values) > 0 && totalValue > 0 {
			sorted := append([]float64(nil), values...)
			sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
			aCount := int(float64(len(sorted)) * 0.2)
			aValue := 0.0
			for _, v := range sorted[:aCount] {
				aValue += v
			}
			sec.insight("📊 **ABC Analysis**: Top 20%% of items represent %.1f%% of inventory value", aValue/totalValue*100)
			sec.recommend("Focus inventory management on high-value A-category items")
		}
	}

	if locCol, hasLoc := locationColumn(t); hasLoc {
		locations := make(map[string]bool)
		for i := range t.Rows {
			if loc := t.Cell(i, locCol); loc != "" {
				locations[loc] = true
			}
		}
		if len(locations) > 1 {
			sec.insight("📍 **Multi-location**: Inventory spread across %d locations", len(locations))
			sec.recommend("Optimize stock distribution across locations")
		}
	}

	return sec
}

func costColumn(t *dataset.Table) (string, bool) {
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "cost") || strings.Contains(lower, "price") {
			return col, true
		}
	}
	return "", false
}

func locationColumn(t *dataset.Table) (string, bool) {
	for _, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), "location") {
			return col, true
		}
	}
	return "", false
}
