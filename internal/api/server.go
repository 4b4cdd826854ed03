// Package api exposes the analytics engine over HTTP: dataset uploads,
// previews, per-dataset analyses, and the synthesized insight report.
// Every route runs behind the runtime limiter and the request metrics.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
	"github.com/storelens/storelens/internal/insights"
	"github.com/storelens/storelens/internal/registry"
	"github.com/storelens/storelens/internal/runtime"
	"github.com/storelens/storelens/internal/security"
	"github.com/storelens/storelens/internal/telemetry"
	"github.com/storelens/storelens/pkg/version"
)

// Server bundles the handler dependencies.
type Server struct {
	log       zerolog.Logger
	store     *dataset.Store
	loader    *dataset.Loader
	resolver  *analytics.Resolver
	analyses  *registry.Registry
	generator *insights.Generator
	metrics   *telemetry.Metrics
	hooks     *telemetry.Hooks
	security  *security.Manager
	limits    runtime.Limits
}

// NewServer wires the handler set. Resolver, metrics, and hooks default to
// fresh instances when nil; a nil security manager disables server-side loads.
func NewServer(
	log zerolog.Logger,
	store *dataset.Store,
	loader *dataset.Loader,
	resolver *analytics.Resolver,
	analyses *registry.Registry,
	generator *insights.Generator,
	metrics *telemetry.Metrics,
	hooks *telemetry.Hooks,
	sec *security.Manager,
	limits runtime.Limits,
) *Server {
	if resolver == nil {
		resolver = analytics.NewResolver(nil)
	}
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	if hooks == nil {
		hooks = telemetry.NewHooks(log)
	}
	return &Server{
		log:       log,
		store:     store,
		loader:    loader,
		resolver:  resolver,
		analyses:  analyses,
		generator: generator,
		metrics:   metrics,
		hooks:     hooks,
		security:  sec,
		limits:    limits,
	}
}

// Router builds the HTTP route table. The limiter middleware guards the API
// routes; health and metrics stay outside it so probes keep working under
// saturation.
func (s *Server) Router(mw *runtime.Middleware) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	guard := func(route string, h http.HandlerFunc) http.Handler {
		return mw.Limit(s.metrics.Instrument(route, h))
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/upload/{kind}", guard("/api/upload", http.HandlerFunc(s.handleUpload))).Methods(http.MethodPost)
	api.Handle("/load/{kind}", guard("/api/load", http.HandlerFunc(s.handleLoadPath))).Methods(http.MethodPost)
	api.Handle("/data/{kind}", guard("/api/data", http.HandlerFunc(s.handlePreview))).Methods(http.MethodGet)
	api.Handle("/datasets", guard("/api/datasets", http.HandlerFunc(s.handleListDatasets))).Methods(http.MethodGet)
	api.Handle("/datasets/{kind}", guard("/api/datasets", http.HandlerFunc(s.handleDropDataset))).Methods(http.MethodDelete)
	api.Handle("/analyses", guard("/api/analyses", http.HandlerFunc(s.handleListAnalyses))).Methods(http.MethodGet)
	api.Handle("/analyze/{kind}", guard("/api/analyze", http.HandlerFunc(s.handleAnalyze))).Methods(http.MethodPost)
	api.Handle("/advanced-analysis/{analysis}", guard("/api/advanced-analysis", http.HandlerFunc(s.handleAdvancedAnalysis))).Methods(http.MethodPost)
	api.Handle("/insights", guard("/api/insights", http.HandlerFunc(s.handleInsights))).Methods(http.MethodGet)
	api.Handle("/charts/{type}", guard("/api/charts", http.HandlerFunc(s.handleChart))).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  version.Version(),
		"datasets": s.store.Count(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}
