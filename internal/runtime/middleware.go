package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/storelens/storelens/pkg/apierr"
)

// Middleware enforces runtime limits for HTTP handlers using the Controller.
// It bounds global concurrency and applies an operation timeout to each call.
type Middleware struct {
	ctrl *Controller
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller) *Middleware {
	return &Middleware{ctrl: ctrl}
}

// Limit wraps a handler: it acquires a request slot with a bounded wait,
// applies the operation timeout to the request context, and guarantees
// release. Saturation and deadline expiry become standard error envelopes.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acquireCtx := r.Context()
		if m.ctrl.limits.AcquireRequestTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(r.Context(), m.ctrl.limits.AcquireRequestTimeout)
			defer cancel()
		}

		if err := m.ctrl.AcquireRequest(acquireCtx); err != nil {
			apierr.Write(w, apierr.BusyResource,
				fmt.Sprintf("concurrent request limit reached (max=%d), retry shortly", m.ctrl.limits.MaxConcurrentRequests))
			return
		}
		defer m.ctrl.ReleaseRequest()

		callCtx := r.Context()
		cancel := func() {}
		if m.ctrl.limits.OperationTimeout > 0 {
			callCtx, cancel = context.WithTimeout(r.Context(), m.ctrl.limits.OperationTimeout)
		}
		defer cancel()

		next.ServeHTTP(w, r.WithContext(callCtx))
	})
}
