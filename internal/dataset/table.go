package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the logical role of an uploaded dataset.
type Kind string

const (
	KindProducts  Kind = "products"
	KindOrders    Kind = "orders"
	KindCustomers Kind = "customers"
	KindInventory Kind = "inventory"
)

// Kinds lists the supported dataset kinds in upload order.
var Kinds = []Kind{KindProducts, KindOrders, KindCustomers, KindInventory}

// ValidKind reports whether k names a supported dataset kind.
func ValidKind(k string) bool {
	switch Kind(k) {
	case KindProducts, KindOrders, KindCustomers, KindInventory:
		return true
	}
	return false
}

// Row is one record keyed by column name. Cells are kept as raw text exactly
// as uploaded; numeric and date interpretation happens per analysis.
type Row map[string]string

// Table is an ordered set of columns plus rows. Tables are immutable once
// loaded; analyses read them and produce new result values.
type Table struct {
	Columns []string
	Rows    []Row
}

// Len returns the row count.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Cell returns the raw cell text for (row, col); empty string when absent.
func (t *Table) Cell(i int, col string) string {
	if i < 0 || i >= len(t.Rows) {
		return ""
	}
	return strings.TrimSpace(t.Rows[i][col])
}

// ParseFloat parses a cell as a 64-bit float, tolerating thousands separators,
// currency prefixes, and a trailing percent sign.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ',', '$', '₹', '€', '£':
			return -1
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	if percent {
		f /= 100
	}
	return f, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"02-01-2006",
	"Jan 2, 2006",
}

// ParseDate parses a cell as a date using the accepted upload layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Numeric extracts the named column as float64 values. Cells that do not
// parse are returned as NaN so callers can drop or impute them; valid is the
// count of parseable cells.
func (t *Table) Numeric(col string) (values []float64, valid int) {
	values = make([]float64, len(t.Rows))
	for i := range t.Rows {
		if f, ok := ParseFloat(t.Cell(i, col)); ok {
			values[i] = f
			valid++
		} else {
			values[i] = math.NaN()
		}
	}
	return values, valid
}

// NumericColumns returns the columns whose non-empty cells all parse as
// numbers (with at least one such cell), in declared column order. This is
// the per-operation stand-in for a declared schema.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, col := range t.Columns {
		nonEmpty, numeric := 0, 0
		for i := range t.Rows {
			cell := t.Cell(i, col)
			if cell == "" {
				continue
			}
			nonEmpty++
			if _, ok := ParseFloat(cell); ok {
				numeric++
			}
		}
		if nonEmpty > 0 && numeric == nonEmpty {
			out = append(out, col)
		}
	}
	return out
}

// DropNaN returns the subset of values that are finite numbers.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
