package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storelens/storelens/internal/dataset"
)

func rolesTable() *dataset.Table {
	return &dataset.Table{
		Columns: []string{"Customer ID", "Order Date", "Total Amount", "Stock Quantity", "Region"},
		Rows: []dataset.Row{
			{"Customer ID": "1", "Order Date": "2024-01-01", "Total Amount": "100", "Stock Quantity": "5", "Region": "North"},
		},
	}
}

func TestResolveRoles(t *testing.T) {
	r := NewResolver(nil)
	tbl := rolesTable()

	col, ok := r.Resolve(tbl, RoleDate)
	require.True(t, ok)
	require.Equal(t, "Order Date", col)

	col, ok = r.Resolve(tbl, RoleMonetary)
	require.True(t, ok)
	require.Equal(t, "Total Amount", col)

	col, ok = r.Resolve(tbl, RoleQuantity)
	require.True(t, ok)
	require.Equal(t, "Stock Quantity", col)

	col, ok = r.Resolve(tbl, RoleIdentifier)
	require.True(t, ok)
	require.Equal(t, "Customer ID", col)
}

func TestResolveFirstMatchWins(t *testing.T) {
	tbl := &dataset.Table{Columns: []string{"Unit Price", "Total Amount"}}
	col, ok := NewResolver(nil).Resolve(tbl, RoleMonetary)
	require.True(t, ok)
	require.Equal(t, "Unit Price", col)
}

func TestResolveExclusions(t *testing.T) {
	tbl := &dataset.Table{Columns: []string{"Price ID", "Unit Price"}}
	col, ok := NewResolver(nil).Resolve(tbl, RoleMonetary, IdentifierExclusions()...)
	require.True(t, ok)
	require.Equal(t, "Unit Price", col)
}

func TestResolveNotFound(t *testing.T) {
	tbl := &dataset.Table{Columns: []string{"Region", "Notes"}}
	_, ok := NewResolver(nil).Resolve(tbl, RoleDate)
	require.False(t, ok)

	_, ok = NewResolver(nil).Resolve(nil, RoleDate)
	require.False(t, ok)
}

func TestResolveCustomKeywords(t *testing.T) {
	kw := DefaultRoleKeywords()
	kw[RoleMonetary] = append(kw[RoleMonetary], "umsatz")
	tbl := &dataset.Table{Columns: []string{"Umsatz 2024"}}

	col, ok := NewResolver(kw).Resolve(tbl, RoleMonetary)
	require.True(t, ok)
	require.Equal(t, "Umsatz 2024", col)
}

func TestNumericFeaturesDropsIdentifiers(t *testing.T) {
	tbl := &dataset.Table{
		Columns: []string{"Customer ID", "Total Spent", "Order Count"},
		Rows: []dataset.Row{
			{"Customer ID": "1", "Total Spent": "100", "Order Count": "3"},
			{"Customer ID": "2", "Total Spent": "250", "Order Count": "5"},
		},
	}
	require.Equal(t, []string{"Total Spent", "Order Count"}, NewResolver(nil).NumericFeatures(tbl))
}
