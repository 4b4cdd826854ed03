package analytics

import (
	"sort"

	"github.com/storelens/storelens/internal/dataset"
)

// Chart is a renderer-agnostic data series: parallel labels and values. The
// server ships numbers only; drawing is the client's job.
type Chart struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// RevenueTrendChart sums the value column per calendar day, ordered by date.
func RevenueTrendChart(t *dataset.Table, dateCol, valueCol string) (*Chart, *Error) {
	series := datedSeries(t, dateCol, valueCol)
	if len(series) == 0 {
		return nil, Errorf("No dated revenue data available for charting")
	}
	const day = "2006-01-02"
	sums := make(map[string]float64)
	for _, dv := range series {
		sums[dv.date.Format(day)] += dv.value
	}
	labels := make([]string, 0, len(sums))
	for d := range sums {
		labels = append(labels, d)
	}
	sort.Strings(labels)
	values := make([]float64, len(labels))
	for i, d := range labels {
		values[i] = sums[d]
	}
	return &Chart{Title: "Daily Revenue", Labels: labels, Values: values}, nil
}

// SegmentSizeChart turns a segmentation result into a size-per-segment series.
func SegmentSizeChart(seg *SegmentationResult) *Chart {
	c := &Chart{Title: "Customer Segments"}
	for _, d := range seg.ClusterDetails {
		c.Labels = append(c.Labels, d.Type)
		c.Values = append(c.Values, float64(d.Size))
	}
	return c
}

// InventoryLevelChart lists the topN items by on-hand quantity, largest first.
// Ties keep row order so repeated calls chart identically.
func InventoryLevelChart(t *dataset.Table, nameCol, qtyCol string, topN int) (*Chart, *Error) {
	type item struct {
		name string
		qty  float64
	}
	items := make([]item, 0, t.Len())
	for i := range t.Rows {
		qty, ok := dataset.ParseFloat(t.Cell(i, qtyCol))
		if !ok {
			continue
		}
		name := t.Cell(i, nameCol)
		if name == "" {
			continue
		}
		items = append(items, item{name: name, qty: qty})
	}
	if len(items) == 0 {
		return nil, Errorf("No stock quantities available for charting")
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].qty > items[j].qty })
	if topN > 0 && len(items) > topN {
		items = items[:topN]
	}
	c := &Chart{Title: "Inventory Levels"}
	for _, it := range items {
		c.Labels = append(c.Labels, it.name)
		c.Values = append(c.Values, it.qty)
	}
	return c, nil
}
