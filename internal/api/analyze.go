package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"

	"github.com/storelens/storelens/pkg/apierr"
	"github.com/storelens/storelens/pkg/validation"

	"github.com/storelens/storelens/internal/analytics"
	"github.com/storelens/storelens/internal/dataset"
	"github.com/storelens/storelens/internal/registry"
)

var errPanicked = errors.New("analysis panicked")

// analyzeBody is the shared request shape for both analysis routes. All
// tunables are optional; zero values select configured defaults.
type analyzeBody struct {
	Analysis      string   `json:"analysis"`
	Dataset       string   `json:"dataset"`
	Contamination float64  `json:"contamination" validate:"contamination"`
	Clusters      int      `json:"clusters" validate:"gte=0,lte=20"`
	Periods       int      `json:"periods" validate:"gte=0,lte=365"`
	WindowDays    int      `json:"window_days" validate:"gte=0,lte=365"`
	Columns       []string `json:"columns"`
}

// handleAnalyze runs one registered analysis over the dataset kind in the
// path. Data-quality failures come back as HTTP 200 with an error field, the
// same shape the analysis itself produces; only transport and validation
// problems use error status codes.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	kindName := mux.Vars(r)["kind"]
	body, ok := s.decodeAnalyzeBody(w, r)
	if !ok {
		return
	}
	if body.Analysis == "" {
		body.Analysis = "stats"
	}
	s.runAnalysis(w, r, body.Analysis, kindName, body, false)
}

// handleAdvancedAnalysis is handleAnalyze with the analysis in the path, the
// dataset in the body, and the advanced presentation enabled (extra strength
// banding, insights, and recommendations where the analysis supports them).
func (s *Server) handleAdvancedAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis := mux.Vars(r)["analysis"]
	body, ok := s.decodeAnalyzeBody(w, r)
	if !ok {
		return
	}
	if body.Dataset == "" {
		apierr.Write(w, apierr.Validation, "dataset is required")
		return
	}
	s.runAnalysis(w, r, analysis, body.Dataset, body, true)
}

func (s *Server) decodeAnalyzeBody(w http.ResponseWriter, r *http.Request) (analyzeBody, bool) {
	var body analyzeBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			apierr.Write(w, apierr.Validation, "invalid JSON body: "+err.Error())
			return body, false
		}
	}
	if msg := validation.ValidateStruct(body); msg != "" {
		apierr.FromText(w, msg)
		return body, false
	}
	return body, true
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, analysis, kindName string, body analyzeBody, advanced bool) {
	if !dataset.ValidKind(kindName) {
		apierr.Write(w, apierr.InvalidDataset, "unknown dataset kind: "+kindName)
		return
	}
	kind := dataset.Kind(kindName)

	desc, ok := s.analyses.Get(analysis)
	if !ok {
		apierr.Write(w, apierr.Validation, "unknown analysis: "+analysis)
		return
	}
	if !desc.Supports(kind) {
		apierr.Write(w, apierr.Validation, "analysis "+analysis+" does not apply to dataset "+kindName)
		return
	}

	table, err := s.store.Get(kind)
	if err != nil {
		apierr.Write(w, apierr.DatasetMissing, "")
		return
	}

	params := registry.Params{
		Contamination: body.Contamination,
		Clusters:      body.Clusters,
		Periods:       body.Periods,
		WindowDays:    body.WindowDays,
		Columns:       body.Columns,
		Advanced:      advanced,
	}

	start := time.Now()
	result, aerr, panicked := s.safeRun(r.Context(), desc, table, params)
	elapsed := time.Since(start)

	if panicked {
		s.metrics.ObserveAnalysis(analysis, true)
		s.hooks.OnAnalysis(analysis, kindName, elapsed, "", errPanicked)
		apierr.Write(w, apierr.AnalysisFailed, "analysis "+analysis+" failed unexpectedly")
		return
	}
	if err := r.Context().Err(); errors.Is(err, context.DeadlineExceeded) {
		s.metrics.ObserveAnalysis(analysis, true)
		s.hooks.OnAnalysis(analysis, kindName, elapsed, "", err)
		apierr.Write(w, apierr.Timeout, "")
		return
	}
	if aerr != nil {
		s.metrics.ObserveAnalysis(analysis, true)
		s.hooks.OnAnalysis(analysis, kindName, elapsed, aerr.Reason, nil)
		s.writeJSON(w, http.StatusOK, aerr)
		return
	}
	s.metrics.ObserveAnalysis(analysis, false)
	s.hooks.OnAnalysis(analysis, kindName, elapsed, "", nil)
	s.writeJSON(w, http.StatusOK, result)
}

// safeRun executes one analysis behind a recover boundary so a programming
// error in an analysis never tears down the connection; the handler turns a
// recovered panic into an ANALYSIS_FAILED envelope.
func (s *Server) safeRun(ctx context.Context, desc registry.Descriptor, table *dataset.Table, params registry.Params) (result any, aerr *analytics.Error, panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error().
				Str("analysis", desc.Name).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("analysis panicked")
			result, aerr, panicked = nil, nil, true
		}
	}()
	result, aerr = desc.Run(ctx, table, params)
	return result, aerr, false
}

// handleListAnalyses describes the registered analyses.
func (s *Server) handleListAnalyses(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Datasets    []string `json:"datasets,omitempty"`
	}
	out := make([]entry, 0)
	for _, d := range s.analyses.List() {
		e := entry{Name: d.Name, Description: d.Description}
		for _, k := range d.Kinds {
			e.Datasets = append(e.Datasets, string(k))
		}
		out = append(out, e)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"analyses": out})
}

// handleInsights synthesizes the cross-dataset report over whatever datasets
// are currently resident.
func (s *Server) handleInsights(w http.ResponseWriter, _ *http.Request) {
	report := s.generator.Synthesize(s.store.Snapshot())
	s.writeJSON(w, http.StatusOK, report)
}
