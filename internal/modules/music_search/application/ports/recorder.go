package ports

import (
	"time"

	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// SearchOutcome is the terminal state of one coordinator search.
type SearchOutcome string

const (
	OutcomeCommitted SearchOutcome = "committed"
	OutcomeCached    SearchOutcome = "cached"
	OutcomeStale     SearchOutcome = "stale"
	OutcomeFailed    SearchOutcome = "failed"
	OutcomeEmpty     SearchOutcome = "empty"
)

// SearchRecorder records search activity.
type SearchRecorder interface {
	// RecordSearch records the outcome of one coordinator search.
	RecordSearch(scope domain.SourceID, outcome SearchOutcome)

	// RecordBackendCall records one backend search call and its latency.
	RecordBackendCall(source domain.SourceID, err error, elapsed time.Duration)
}
