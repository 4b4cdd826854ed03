// Package analytics implements the numeric analysis pipeline: descriptive
// statistics, trend detection, multivariate anomaly scoring, clustering-based
// segmentation, correlation analysis, and trend-extrapolation forecasting.
//
// Every public operation returns either a typed result or an *Error. Data
// quality failures (too few rows, no numeric columns, missing roles) never
// propagate as Go errors past the package boundary; callers render the
// Error's reason verbatim.
package analytics

import (
	"fmt"
	"math"
)

// Error is the failure variant of every analysis. Reason is a human-readable
// sentence surfaced to end users unchanged.
type Error struct {
	Reason string `json:"error"`
}

func (e *Error) Error() string { return e.Reason }

// Errorf builds an analysis error from a format string.
func Errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Canonical data-quality failure messages. Kept as variables so tests can
// assert on them and the synthesizer can embed them in insight strings.
var (
	ErrInsufficientTrendData    = &Error{Reason: "Insufficient data for trend analysis"}
	ErrInsufficientRecentData   = &Error{Reason: "Insufficient recent data for trend analysis"}
	ErrNoNumericColumns         = &Error{Reason: "No numeric columns found for anomaly detection"}
	ErrNoSegmentationFeatures   = &Error{Reason: "No numeric features found for segmentation"}
	ErrNoCorrelationColumns     = &Error{Reason: "No numeric columns found for correlation analysis"}
	ErrInsufficientForecastData = &Error{Reason: "Insufficient data for forecasting (minimum 10 data points required)"}
	ErrInsufficientRecentRows   = &Error{Reason: "Insufficient recent data for forecasting"}
)

// finiteOrNil lets result marshalers encode NaN and infinities as JSON null,
// which encoding/json otherwise rejects.
func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
