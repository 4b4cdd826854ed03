package analytics

import (
	"strings"

	"github.com/storelens/storelens/internal/dataset"
)

// Role classifies the semantic purpose of a table column.
type Role string

const (
	RoleDate        Role = "date"
	RoleMonetary    Role = "monetary"
	RoleQuantity    Role = "quantity"
	RoleIdentifier  Role = "identifier"
	RoleCategorical Role = "categorical"
)

// RoleKeywords maps each role to the lowercase substrings that mark a column
// as playing that role. Exposed as data, not hardcoded in the resolver, so a
// deployment can extend the sets for renamed datasets.
type RoleKeywords map[Role][]string

// DefaultRoleKeywords returns the stock keyword sets.
func DefaultRoleKeywords() RoleKeywords {
	return RoleKeywords{
		RoleDate:       {"date", "time"},
		RoleMonetary:   {"total", "amount", "value", "cost", "price", "spent", "revenue", "grand"},
		RoleQuantity:   {"stock", "quantity", "current", "on hand"},
		RoleIdentifier: {"id", "sku", "index"},
	}
}

// IdentifierExclusions are the keywords used to drop ID-like columns from
// numeric pipelines where spurious correlation matters (anomaly detection,
// correlation, segmentation).
func IdentifierExclusions() []string {
	return []string{"id", "sku", "index"}
}

// Resolver picks columns for semantic roles by case-insensitive substring
// matching on column names. The first matching column in declared table
// order wins; this tie-break is deliberate and stable.
type Resolver struct {
	keywords RoleKeywords
}

// NewResolver builds a resolver; nil keywords selects the defaults.
func NewResolver(kw RoleKeywords) *Resolver {
	if kw == nil {
		kw = DefaultRoleKeywords()
	}
	return &Resolver{keywords: kw}
}

// Resolve returns the first column matching the role's keyword set, skipping
// any column that matches an exclude keyword. ok is false when no column
// qualifies.
func (r *Resolver) Resolve(t *dataset.Table, role Role, exclude ...string) (string, bool) {
	if t == nil {
		return "", false
	}
	words := r.keywords[role]
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if matchesAny(lower, exclude) {
			continue
		}
		if matchesAny(lower, words) {
			return col, true
		}
	}
	return "", false
}

// NumericFeatures returns the table's numeric columns with identifier-like
// columns removed, preserving declared order.
func (r *Resolver) NumericFeatures(t *dataset.Table) []string {
	var out []string
	for _, col := range t.NumericColumns() {
		if matchesAny(strings.ToLower(col), IdentifierExclusions()) {
			continue
		}
		out = append(out, col)
	}
	return out
}

// LabelColumn picks a column suitable for naming rows in chart output: the
// first non-numeric, non-identifier column, falling back to the first column.
func (r *Resolver) LabelColumn(t *dataset.Table) (string, bool) {
	if t == nil || len(t.Columns) == 0 {
		return "", false
	}
	numeric := make(map[string]bool)
	for _, c := range t.NumericColumns() {
		numeric[c] = true
	}
	for _, col := range t.Columns {
		if numeric[col] || matchesAny(strings.ToLower(col), IdentifierExclusions()) {
			continue
		}
		return col, true
	}
	return t.Columns[0], true
}

func matchesAny(lower string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
