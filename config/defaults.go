package config

import "time"

// Default runtime limits and guardrails for the storelens analytics server.
// These values are conservative and can be overridden via environment or
// config file (see cmd/server). They are referenced by internal/runtime.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxResidentDatasets   = 8

	// Payload and row limits
	DefaultMaxUploadBytes   = 16 * 1024 * 1024 // 16MB per uploaded file
	DefaultMaxRowsPerOp     = 100_000
	DefaultPreviewRowLimit  = 10
	DefaultPreviewPageLimit = 100
)

const (
	// Timeouts
	DefaultOperationTimeout      = 30 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
	DefaultShutdownTimeout       = 5 * time.Second

	// Dataset store eviction
	DefaultDatasetIdleTTL       = 30 * time.Minute
	DefaultDatasetCleanupPeriod = 5 * time.Minute
)

// Analysis defaults. Every analysis accepts explicit parameters; these apply
// when the caller omits them.
const (
	DefaultTrendWindowDays    = 30
	DefaultContamination      = 0.1
	DefaultClusterCount       = 4
	DefaultForecastPeriods    = 30
	DefaultForecastWindowRows = 14
	MinForecastRows           = 10

	// Isolation forest
	DefaultForestTrees     = 100
	DefaultForestSubsample = 256
	DefaultModelSeed       = 42

	// Correlation banding thresholds
	StrongCorrelation     = 0.7
	VeryStrongCorrelation = 0.9
	ModerateCorrelation   = 0.5

	// Inventory heuristics
	LowStockThreshold = 10

	// Chart payloads
	DefaultChartTopItems = 10
)
