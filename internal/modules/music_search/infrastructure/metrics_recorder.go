package infrastructure

import (
	"context"
	"errors"
	"time"

	"github.com/sglre6355/sgrsearch/internal/metrics"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Compile-time check that PrometheusRecorder implements ports.SearchRecorder.
var _ ports.SearchRecorder = PrometheusRecorder{}

// PrometheusRecorder records search activity in the prometheus collectors.
type PrometheusRecorder struct{}

// RecordSearch records the outcome of one coordinator search.
func (PrometheusRecorder) RecordSearch(scope domain.SourceID, outcome ports.SearchOutcome) {
	metrics.SearchRequests.WithLabelValues(string(scope), string(outcome)).Inc()
}

// RecordBackendCall records one backend search call and its latency.
func (PrometheusRecorder) RecordBackendCall(source domain.SourceID, err error, elapsed time.Duration) {
	metrics.BackendLatency.WithLabelValues(string(source)).Observe(elapsed.Seconds())
	metrics.BackendCalls.WithLabelValues(string(source), callOutcome(err)).Inc()
}

func callOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	return errorKind(err)
}

// errorKind maps an error to a low-cardinality label value.
func errorKind(err error) string {
	var backendErr *domain.BackendError
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &backendErr):
		return "backend_error"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, domain.ErrTransport):
		return "transport"
	default:
		return "error"
	}
}
