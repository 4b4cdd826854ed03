package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
	"github.com/storelens/storelens/internal/insights"
	"github.com/storelens/storelens/internal/registry"
	"github.com/storelens/storelens/internal/runtime"
	"github.com/storelens/storelens/internal/security"
)

func newTestHandler(t *testing.T) (http.Handler, *dataset.Store) {
	return newTestHandlerWithSecurity(t, nil)
}

func newTestHandlerWithSecurity(t *testing.T, sec *security.Manager) (http.Handler, *dataset.Store) {
	t.Helper()
	limits := runtime.NewLimits(4, 8)
	store := dataset.NewStore(0, 0, nil, nil)
	resolver := analytics.NewResolver(nil)
	log := zerolog.Nop()
	srv := NewServer(
		log,
		store,
		dataset.NewLoader(limits.MaxRowsPerOp),
		resolver,
		registry.Builtin(resolver),
		insights.NewGenerator(resolver, log),
		nil,
		nil,
		sec,
		limits,
	)
	return srv.Router(runtime.NewMiddleware(runtime.NewController(limits))), store
}

func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func ordersCSV(rows int) string {
	var b strings.Builder
	b.WriteString("Date,Total\n")
	for i := 0; i < rows; i++ {
		b.WriteString(fmt.Sprintf("2024-01-%02d,%d\n", i%28+1, 100+10*i))
	}
	return b.String()
}

func doUpload(t *testing.T, h http.Handler, kind, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := multipartCSV(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/"+kind, body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUploadCSV(t *testing.T) {
	h, store := newTestHandler(t)
	rec := doUpload(t, h, "orders", "orders.csv", ordersCSV(5))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "orders", body["dataset"])
	require.Equal(t, float64(5), body["rows"])
	require.NotEmpty(t, body["handle_id"])
	require.Equal(t, 1, store.Count())
}

func TestUploadUnknownKind(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doUpload(t, h, "invoices", "x.csv", "a\n1\n")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_DATASET", decodeBody(t, rec)["code"])
}

func TestUploadUnsupportedExtension(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doUpload(t, h, "orders", "orders.pdf", "junk")
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	require.Equal(t, "UNSUPPORTED_FORMAT", decodeBody(t, rec)["code"])
}

func TestUploadMissingFileField(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/orders", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "UPLOAD_FAILED", decodeBody(t, rec)["code"])
}

func TestPreviewPagination(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, doUpload(t, h, "orders", "orders.csv", ordersCSV(25)).Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/orders?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	page := decodeBody(t, rec)
	require.Len(t, page["rows"], 10)
	require.Equal(t, float64(25), page["total_rows"])
	cursor, _ := page["next_cursor"].(string)
	require.NotEmpty(t, cursor)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/orders?cursor="+cursor, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	page = decodeBody(t, rec)
	require.Len(t, page["rows"], 10)
	require.Equal(t, float64(10), page["offset"])

	cursor, _ = page["next_cursor"].(string)
	require.NotEmpty(t, cursor)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/orders?cursor="+cursor, nil))
	page = decodeBody(t, rec)
	require.Len(t, page["rows"], 5)
	require.Empty(t, page["next_cursor"])
}

func TestPreviewCursorInvalidAfterReupload(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(25))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/orders?limit=10", nil))
	cursor, _ := decodeBody(t, rec)["next_cursor"].(string)
	require.NotEmpty(t, cursor)

	doUpload(t, h, "orders", "orders.csv", ordersCSV(25))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/orders?cursor="+cursor, nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "CURSOR_INVALID", decodeBody(t, rec)["code"])
}

func TestPreviewMissingDataset(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data/orders", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "DATASET_MISSING", decodeBody(t, rec)["code"])
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeTrends(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(20))

	rec := postJSON(t, h, "/api/analyze/orders", `{"analysis":"trends"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "increasing", body["trend_direction"])
	require.Equal(t, float64(20), body["data_points"])
}

func TestAnalyzeDataQualityFailureIsOK(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", "Date,Total\n2024-01-01,100\n")

	rec := postJSON(t, h, "/api/analyze/orders", `{"analysis":"trends"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Insufficient data for trend analysis", decodeBody(t, rec)["error"])
}

func TestAnalyzeUnknownAnalysis(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(5))

	rec := postJSON(t, h, "/api/analyze/orders", `{"analysis":"prophecy"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "unknown analysis")
}

func TestAnalyzeKindScoping(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(5))

	rec := postJSON(t, h, "/api/analyze/orders", `{"analysis":"segments"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "does not apply")
}

func TestAnalyzeMissingDataset(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, h, "/api/analyze/customers", `{"analysis":"anomalies"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "DATASET_MISSING", decodeBody(t, rec)["code"])
}

func TestAnalyzeRejectsBadContamination(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(5))

	rec := postJSON(t, h, "/api/analyze/orders", `{"analysis":"anomalies","contamination":0.9}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "contamination")
}

func TestAdvancedCorrelations(t *testing.T) {
	h, _ := newTestHandler(t)
	csv := "Customer ID,Total Spent,Order Count\n"
	for i := 1; i <= 12; i++ {
		csv += fmt.Sprintf("%d,%d,%d\n", i, 1000*i, 2*i)
	}
	doUpload(t, h, "customers", "customers.csv", csv)

	rec := postJSON(t, h, "/api/advanced-analysis/correlations", `{"dataset":"customers"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.NotEmpty(t, body["strong_correlations"])
	require.NotEmpty(t, body["business_insights"])
	require.NotEmpty(t, body["recommendations"])
}

func TestAdvancedRequiresDataset(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, h, "/api/advanced-analysis/correlations", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "dataset is required")
}

func TestInsightsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(20))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/insights", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.NotEmpty(t, body["insights"])
	require.Equal(t, []any{"orders"}, body["data_sources"])
}

func TestListAnalyses(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyses", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	list, ok := body["analyses"].([]any)
	require.True(t, ok)
	require.Len(t, list, 6)
}

func TestListAndDropDatasets(t *testing.T) {
	h, store := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(5))
	doUpload(t, h, "customers", "customers.csv", "Customer ID,Total Spent\n1,100\n")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody(t, rec)["datasets"], 2)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/datasets/orders", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, store.Count())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/datasets/orders", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoadFromAllowedPath(t *testing.T) {
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	path := filepath.Join(real, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(ordersCSV(5)), 0o644))

	sec, err := security.NewManager([]string{real}, nil)
	require.NoError(t, err)
	h, store := newTestHandlerWithSecurity(t, sec)

	rec := postJSON(t, h, "/api/load/orders", fmt.Sprintf(`{"path":%q}`, path))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, float64(5), decodeBody(t, rec)["rows"])
	require.Equal(t, 1, store.Count())
}

func TestLoadRejectsOutsideAllowList(t *testing.T) {
	allowed := t.TempDir()
	outside := t.TempDir()
	path := filepath.Join(outside, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(ordersCSV(5)), 0o644))

	sec, err := security.NewManager([]string{allowed}, nil)
	require.NoError(t, err)
	h, _ := newTestHandlerWithSecurity(t, sec)

	rec := postJSON(t, h, "/api/load/orders", fmt.Sprintf(`{"path":%q}`, path))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "PERMISSION_DENIED", decodeBody(t, rec)["code"])
}

func TestLoadDisabledWithoutAllowList(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := postJSON(t, h, "/api/load/orders", `{"path":"/tmp/orders.csv"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, decodeBody(t, rec)["error"], "disabled")
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestAnalyzeDefaultsToStats(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(10))

	rec := postJSON(t, h, "/api/analyze/orders", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	summary, ok := body["summary"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(10), summary["rows"])
	require.Contains(t, body, "statistics")
}

func TestChartRevenueTrend(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(10))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/revenue_trend", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Daily Revenue", body["title"])
	labels, ok := body["labels"].([]any)
	require.True(t, ok)
	require.Len(t, labels, 10)
}

func TestChartInventoryLevels(t *testing.T) {
	h, _ := newTestHandler(t)
	doUpload(t, h, "inventory", "inventory.csv",
		"Product Name,Stock Quantity\nWidget,5\nGadget,80\nSprocket,12\n")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/inventory_levels", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	labels, ok := body["labels"].([]any)
	require.True(t, ok)
	require.Equal(t, "Gadget", labels[0])
}

func TestChartUnknownType(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/pie_of_everything", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "VALIDATION", decodeBody(t, rec)["code"])
}

func TestChartMissingDataset(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/charts/revenue_trend", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "DATASET_MISSING", decodeBody(t, rec)["code"])
}

func newTestHandlerWithRegistry(t *testing.T, reg *registry.Registry, limits runtime.Limits) http.Handler {
	t.Helper()
	store := dataset.NewStore(0, 0, nil, nil)
	resolver := analytics.NewResolver(nil)
	log := zerolog.Nop()
	srv := NewServer(
		log,
		store,
		dataset.NewLoader(limits.MaxRowsPerOp),
		resolver,
		reg,
		insights.NewGenerator(resolver, log),
		nil,
		nil,
		nil,
		limits,
	)
	return srv.Router(runtime.NewMiddleware(runtime.NewController(limits)))
}

func TestAnalyzePanicBecomesAnalysisFailed(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(registry.Descriptor{
		Name:        "explode",
		Description: "always panics",
		Run: func(_ context.Context, _ *dataset.Table, _ registry.Params) (any, *analytics.Error) {
			panic("boom")
		},
	})
	h := newTestHandlerWithRegistry(t, reg, runtime.NewLimits(4, 8))
	doUpload(t, h, "orders", "orders.csv", ordersCSV(5))

	rec := postJSON(t, h, "/api/analyze/orders", `{"analysis":"explode"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "ANALYSIS_FAILED", body["code"])
	require.Contains(t, body["error"], "explode")
}

func TestAnalyzeTimeoutBecomesTimeout(t *testing.T) {
	reg := registry.New()
	reg.MustRegister(registry.Descriptor{
		Name:        "sleepy",
		Description: "waits out the operation deadline",
		Run: func(ctx context.Context, _ *dataset.Table, _ registry.Params) (any, *analytics.Error) {
			<-ctx.Done()
			return nil, analytics.Errorf("interrupted")
		},
	})
	limits := runtime.NewLimits(4, 8)
	limits.OperationTimeout = 50 * time.Millisecond
	h := newTestHandlerWithRegistry(t, reg, limits)
	doUpload(t, h, "orders", "orders.csv", ordersCSV(5))

	rec := postJSON(t, h, "/api/analyze/orders", `{"analysis":"sleepy"}`)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Equal(t, "TIMEOUT", decodeBody(t, rec)["code"])
}
