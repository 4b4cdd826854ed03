// Package insights turns the numeric analysis results into prioritized
// natural-language insight and recommendation strings. Generation is
// defensive throughout: a failed sub-analysis contributes an inline error
// insight and never blocks the rest of the report.
package insights

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Report is the synthesized output for all currently uploaded datasets.
type Report struct {
	Insights        []string  `json:"insights"`
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generated_at"`
	DataSources     []string  `json:"data_sources"`
}

// section accumulates one dataset's insight and recommendation lines.
type section struct {
	insights        []string
	recommendations []string
}

func (s *section) insight(format string, args ...any) {
	s.insights = append(s.insights, fmt.Sprintf(format, args...))
}

func (s *section) recommend(format string, args ...any) {
	s.recommendations = append(s.recommendations, fmt.Sprintf(format, args...))
}

// money renders an amount with thousands separators and two decimals,
// e.g. 1234567.8 -> "₹1,234,567.80".
func money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "₹0.00"
	}
	sign := ""
	if v < 0 {
		sign = "-"
	}
	s := fmt.Sprintf("%.2f", math.Abs(v))
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]
	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
		if len(whole) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(whole); i += 3 {
		b.WriteString(whole[i : i+3])
		if i+3 < len(whole) {
			b.WriteByte(',')
		}
	}
	return sign + "₹" + b.String() + frac
}
