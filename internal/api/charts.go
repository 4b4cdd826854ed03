package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/storelens/storelens/config"
	"github.com/storelens/storelens/pkg/apierr"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
)

// handleChart serves renderer-agnostic chart series. Each chart type binds to
// one dataset kind; a missing role column or empty series comes back as HTTP
// 200 with the analysis error body, like the analyze routes.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	chartType := mux.Vars(r)["type"]

	var (
		kind  dataset.Kind
		build func(*dataset.Table) (any, *analytics.Error)
	)
	switch chartType {
	case "revenue_trend":
		kind = dataset.KindOrders
		build = func(t *dataset.Table) (any, *analytics.Error) {
			dateCol, okDate := s.resolver.Resolve(t, analytics.RoleDate)
			valueCol, okValue := s.resolver.Resolve(t, analytics.RoleMonetary)
			if !okDate || !okValue {
				return nil, analytics.Errorf("No dated revenue data available for charting")
			}
			c, aerr := analytics.RevenueTrendChart(t, dateCol, valueCol)
			if aerr != nil {
				return nil, aerr
			}
			return c, nil
		}
	case "customer_segments":
		kind = dataset.KindCustomers
		build = func(t *dataset.Table) (any, *analytics.Error) {
			seg, aerr := analytics.Segment(t, s.resolver.NumericFeatures(t), config.DefaultClusterCount)
			if aerr != nil {
				return nil, aerr
			}
			return analytics.SegmentSizeChart(seg), nil
		}
	case "inventory_levels":
		kind = dataset.KindInventory
		build = func(t *dataset.Table) (any, *analytics.Error) {
			qtyCol, ok := s.resolver.Resolve(t, analytics.RoleQuantity)
			if !ok {
				return nil, analytics.Errorf("No stock quantities available for charting")
			}
			nameCol, _ := s.resolver.LabelColumn(t)
			c, aerr := analytics.InventoryLevelChart(t, nameCol, qtyCol, config.DefaultChartTopItems)
			if aerr != nil {
				return nil, aerr
			}
			return c, nil
		}
	default:
		apierr.Write(w, apierr.Validation, "unknown chart type: "+chartType)
		return
	}

	table, err := s.store.Get(kind)
	if err != nil {
		apierr.Write(w, apierr.DatasetMissing, "")
		return
	}
	result, aerr := build(table)
	if aerr != nil {
		s.writeJSON(w, http.StatusOK, aerr)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
