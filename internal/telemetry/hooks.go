package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// Hooks implements server lifecycle callbacks for basic telemetry and logging.
// It is intentionally minimal; the Prometheus collectors live in Metrics.
type Hooks struct {
	logger zerolog.Logger
}

// NewHooks constructs a Hooks instance with the provided logger.
func NewHooks(logger zerolog.Logger) *Hooks {
	return &Hooks{logger: logger}
}

// OnServerStart is called when the server begins accepting connections.
func (h *Hooks) OnServerStart(addr string) {
	h.logger.Info().Str("addr", addr).Msg("analytics server starting")
}

// OnServerStop is called during server shutdown.
func (h *Hooks) OnServerStop() {
	h.logger.Info().Msg("analytics server stopping")
}

// OnUpload records a dataset upload and its outcome.
func (h *Hooks) OnUpload(kind string, rows int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Error().Str("dataset", kind).Dur("duration", duration).Err(err).Msg("upload failed")
		return
	}
	h.logger.Info().Str("dataset", kind).Int("rows", rows).Dur("duration", duration).Msg("dataset uploaded")
}

// OnAnalysis logs analysis invocations and their outcomes. Data-quality
// failures arrive as reason; only unexpected errors arrive as err.
func (h *Hooks) OnAnalysis(analysis, kind string, duration time.Duration, reason string, err error) {
	evt := h.logger.Info().Str("analysis", analysis).Str("dataset", kind).Dur("duration", duration)
	switch {
	case err != nil:
		h.logger.Error().Str("analysis", analysis).Str("dataset", kind).Dur("duration", duration).Err(err).Msg("analysis error")
	case reason != "":
		evt.Str("reason", reason).Msg("analysis degraded")
	default:
		evt.Msg("analysis completed")
	}
}
