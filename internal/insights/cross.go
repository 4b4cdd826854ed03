package insights

import (
	"fmt"
	"math"
	"strings"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// crossDatasetInsights runs consistency checks spanning multiple datasets:
// revenue versus customer spending, product/inventory SKU coverage, and
// customer/order email coverage.
func (g *Generator) crossDatasetInsights(tables map[dataset.Kind]*dataset.Table) []string {
	var out []string

	orders := tables[dataset.KindOrders]
	customers := tables[dataset.KindCustomers]
	inventory := tables[dataset.KindInventory]
	products := tables[dataset.KindProducts]

	if orders != nil && customers != nil {
		out = append(out, g.revenueSpendingCheck(orders, customers)...)
	}
	if inventory != nil && products != nil {
		out = append(out, skuCoverageCheck(inventory, products)...)
	}
	if customers != nil && orders != nil {
		out = append(out, emailCoverageCheck(customers, orders)...)
	}
	return out
}

// revenueSpendingCheck flags a >10% mismatch between order revenue and total
// customer spending.
func (g *Generator) revenueSpendingCheck(orders, customers *dataset.Table) []string {
	ordersCol, ok1 := g.resolver.Resolve(orders, analytics.RoleMonetary, analytics.IdentifierExclusions()...)
	spentCol, ok2 := g.resolver.Resolve(customers, analytics.RoleMonetary, analytics.IdentifierExclusions()...)
	if !ok1 || !ok2 {
		return nil
	}
	revenue := columnSum(orders, ordersCol)
	spending := columnSum(customers, spentCol)
	if revenue <= 0 || spending <= 0 {
		return nil
	}
	discrepancy := math.Abs(revenue-spending) / revenue * 100
	if discrepancy <= 10 {
		return nil
	}
	return []string{
		fmt.Sprintf("⚠️ **Data Discrepancy**: Revenue and customer spending differ by %.1f%%", discrepancy),
		"🔍 Review data consistency between orders and customer records",
	}
}

// skuCoverageCheck reports the symmetric difference between product SKUs and
// inventory SKUs.
func skuCoverageCheck(inventory, products *dataset.Table) []string {
	invSKUs := columnSet(inventory, skuColumn(inventory))
	prodSKUs := columnSet(products, skuColumn(products))
	if invSKUs == nil || prodSKUs == nil {
		return nil
	}

	missingInventory := setDiff(prodSKUs, invSKUs)
	missingProducts := setDiff(invSKUs, prodSKUs)

	var out []string
	if missingInventory > 0 {
		out = append(out, fmt.Sprintf("📦 **Missing Inventory**: %d products lack inventory records", missingInventory))
	}
	if missingProducts > 0 {
		out = append(out, fmt.Sprintf("🛍️ **Orphaned Inventory**: %d inventory items without product records", missingProducts))
	}
	if len(out) > 0 {
		out = append(out, "🔄 Action: Synchronize product and inventory data")
	}
	return out
}

// emailCoverageCheck reports customers with no orders and orders from
// unregistered emails.
func emailCoverageCheck(customers, orders *dataset.Table) []string {
	custEmails := columnSet(customers, emailColumn(customers))
	orderEmails := columnSet(orders, emailColumn(orders))
	if custEmails == nil || orderEmails == nil {
		return nil
	}

	inactive := setDiff(custEmails, orderEmails)
	guests := setDiff(orderEmails, custEmails)

	var out []string
	if inactive > 0 {
		out = append(out,
			fmt.Sprintf("👥 **Inactive Customers**: %d customers have no orders", inactive),
			"💡 Consider re-engagement campaigns")
	}
	if guests > 0 {
		out = append(out,
			fmt.Sprintf("🛒 **Guest Orders**: %d orders from non-registered customers", guests),
			"🎯 Opportunity to convert guest customers to registered users")
	}
	return out
}

func columnSum(t *dataset.Table, col string) float64 {
	vals, _ := t.Numeric(col)
	sum := 0.0
	for _, v := range dataset.DropNaN(vals) {
		sum += v
	}
	return sum
}

// columnSet collects distinct non-empty values; nil when the column is absent.
func columnSet(t *dataset.Table, col string) map[string]bool {
	if col == "" || !t.HasColumn(col) {
		return nil
	}
	set := make(map[string]bool)
	for i := range t.Rows {
		if v := t.Cell(i, col); v != "" {
			set[v] = true
		}
	}
	return set
}

func setDiff(a, b map[string]bool) int {
	n := 0
	for v := range a {
		if !b[v] {
			n++
		}
	}
	return n
}

func skuColumn(t *dataset.Table) string {
	for _, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), "sku") {
			return col
		}
	}
	return ""
}

func emailColumn(t *dataset.Table) string {
	for _, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), "email") {
			return col
		}
	}
	return ""
}
