package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/sglre6355/sgrsearch/internal/metrics"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"cancelled", context.Canceled, "cancelled"},
		{"timeout", fmt.Errorf("%w: bi", domain.ErrTimeout), "timeout"},
		{"backend", &domain.BackendError{Source: "bi", Message: "x"}, "backend_error"},
		{"malformed", fmt.Errorf("%w: x", domain.ErrMalformedResponse), "malformed"},
		{"status", &domain.StatusError{StatusCode: 500}, "transport"},
		{"other", errors.New("x"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorKind(tt.err); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrometheusRecorder(t *testing.T) {
	recorder := PrometheusRecorder{}

	searches := metrics.SearchRequests.WithLabelValues("recorder-test", string(ports.OutcomeCommitted))
	calls := metrics.BackendCalls.WithLabelValues("recorder-test", "timeout")
	beforeSearches := counterValue(t, searches)
	beforeCalls := counterValue(t, calls)

	recorder.RecordSearch("recorder-test", ports.OutcomeCommitted)
	recorder.RecordBackendCall("recorder-test", domain.ErrTimeout, 10*time.Millisecond)

	if got := counterValue(t, searches) - beforeSearches; got != 1 {
		t.Errorf("expected search counter to grow by 1, got %v", got)
	}
	if got := counterValue(t, calls) - beforeCalls; got != 1 {
		t.Errorf("expected backend call counter to grow by 1, got %v", got)
	}
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m.GetCounter().GetValue()
}
