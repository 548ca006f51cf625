package domain

import (
	"errors"
	"fmt"
)

// Errors returned by sources and the search layer.
var (
	// ErrTransport is returned when a request could not be carried out.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse is returned when a response body cannot be parsed.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrTimeout is returned when no correlated response arrives before the deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrSourceNotFound is returned when a scope names no known backend.
	ErrSourceNotFound = errors.New("source not found")

	// ErrUnsupportedAction is returned when a source does not handle an action.
	ErrUnsupportedAction = errors.New("action not supported")

	// ErrMissingIdentifiers is returned when a track lacks the identifiers needed to resolve it.
	ErrMissingIdentifiers = errors.New("track is missing backend identifiers")

	// ErrNoPlayableURL is returned when a backend offers no playable stream.
	ErrNoPlayableURL = errors.New("no playable url")

	// ErrUnsupportedQuality is returned when a track does not list the requested quality.
	ErrUnsupportedQuality = errors.New("quality not offered for track")

	// ErrTrackNotFound is returned when a track is not part of any committed result.
	ErrTrackNotFound = errors.New("track not found in search results")
)

// BackendError is an explicit failure reported by a backend.
type BackendError struct {
	Source  SourceID
	Code    int
	Message string
}

func (e *BackendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s backend error %d: %s", e.Source, e.Code, e.Message)
	}
	return fmt.Sprintf("%s backend error: %s", e.Source, e.Message)
}

// StatusError is returned when a backend answers with an HTTP error status.
// It matches ErrTransport.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Is reports whether target is ErrTransport.
func (e *StatusError) Is(target error) bool {
	return target == ErrTransport
}
