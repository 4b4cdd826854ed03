// Package apierr defines canonical API error codes, a catalog of standard
// messages with retry semantics and next steps, and helpers to shape them
// into HTTP responses. Handlers return "CODE: message" strings; the catalog
// enriches them so clients always see consistent guidance.
package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Code defines a canonical error code used across handlers.
type Code string

const (
	// Validation & Input
	Validation     Code = "VALIDATION"
	InvalidDataset Code = "INVALID_DATASET"
	DatasetMissing Code = "DATASET_MISSING"
	CursorInvalid  Code = "CURSOR_INVALID"

	// Resource & Limits
	BusyResource    Code = "BUSY_RESOURCE"
	Timeout         Code = "TIMEOUT"
	PayloadTooLarge Code = "PAYLOAD_TOO_LARGE"

	// IO & Formats
	UploadFailed      Code = "UPLOAD_FAILED"
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	PermissionDenied  Code = "PERMISSION_DENIED"

	// Analysis
	AnalysisFailed Code = "ANALYSIS_FAILED"
)

// Entry documents a code's standard message, HTTP status, retry semantics,
// and next steps.
type Entry struct {
	Code      Code
	Message   string
	Status    int
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:     {Code: Validation, Message: "invalid inputs", Status: http.StatusBadRequest, Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry"}},
	InvalidDataset: {Code: InvalidDataset, Message: "unknown dataset kind", Status: http.StatusBadRequest, Retryable: true, NextSteps: []string{"Use one of: products, orders, customers, inventory"}},
	DatasetMissing: {Code: DatasetMissing, Message: "no dataset of this kind has been uploaded", Status: http.StatusNotFound, Retryable: true, NextSteps: []string{"Upload the dataset first, then retry the analysis"}},
	CursorInvalid:  {Code: CursorInvalid, Message: "cursor is invalid for current context", Status: http.StatusBadRequest, Retryable: true, NextSteps: []string{"Restart pagination from the first page"}},

	BusyResource:    {Code: BusyResource, Message: "concurrent request limit reached", Status: http.StatusTooManyRequests, Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:         {Code: Timeout, Message: "operation exceeded configured time limit", Status: http.StatusGatewayTimeout, Retryable: true, NextSteps: []string{"Reduce the dataset size or increase the timeout"}},
	PayloadTooLarge: {Code: PayloadTooLarge, Message: "upload exceeds configured size", Status: http.StatusRequestEntityTooLarge, Retryable: false, NextSteps: []string{"Split the file or increase the upload limit"}},

	UploadFailed:      {Code: UploadFailed, Message: "failed to read uploaded file", Status: http.StatusBadRequest, Retryable: true, NextSteps: []string{"Verify the file is valid CSV or XLSX and retry"}},
	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported file format", Status: http.StatusUnsupportedMediaType, Retryable: false, NextSteps: []string{"Convert to .csv or .xlsx and retry"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "insufficient permissions to access path", Status: http.StatusForbidden, Retryable: false, NextSteps: []string{"Choose a path under an allowed directory"}},

	AnalysisFailed: {Code: AnalysisFailed, Message: "analysis failed", Status: http.StatusUnprocessableEntity, Retryable: true, NextSteps: []string{"Check column names and data quality, then retry"}},
}

// Lookup returns the catalog entry for a code, falling back to a generic
// Validation entry for unknown codes.
func Lookup(code Code) Entry {
	if e, ok := catalog[code]; ok {
		return e
	}
	return Entry{Code: code, Message: string(code), Status: http.StatusBadRequest, Retryable: true}
}

// Normalize builds a standard "CODE: message | nextSteps: ..." string so
// clients that surface only a message still get guidance.
func Normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// Body is the JSON error envelope returned by every failing endpoint.
type Body struct {
	Error     string   `json:"error"`
	Code      Code     `json:"code"`
	Retryable bool     `json:"retryable"`
	NextSteps []string `json:"next_steps,omitempty"`
}

// Write emits the standard JSON error envelope for a code with an optional
// message override.
func Write(w http.ResponseWriter, code Code, msg string) {
	e := Lookup(code)
	if strings.TrimSpace(msg) == "" {
		msg = e.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(Body{
		Error:     msg,
		Code:      e.Code,
		Retryable: e.Retryable,
		NextSteps: e.NextSteps,
	})
}

// FromText parses a "CODE: message" string and writes the enriched envelope.
// Unprefixed text is treated as a Validation error.
func FromText(w http.ResponseWriter, text string) {
	t := strings.TrimSpace(text)
	if t == "" {
		Write(w, Validation, "")
		return
	}
	parts := strings.SplitN(t, ":", 2)
	code := Code(strings.TrimSpace(parts[0]))
	if _, ok := catalog[code]; !ok {
		Write(w, Validation, t)
		return
	}
	msg := ""
	if len(parts) == 2 {
		msg = strings.TrimSpace(parts[1])
	}
	Write(w, code, msg)
}
