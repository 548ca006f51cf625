package usecases

import "errors"

// Errors for the music search module.
var (
	// ErrDuplicateSource is returned when two backends share an identifier.
	ErrDuplicateSource = errors.New("duplicate source id")

	// ErrReservedSourceID is returned when a backend claims the aggregate scope identifier.
	ErrReservedSourceID = errors.New("source id is reserved")

	// ErrNoSources is returned when no backend is configured.
	ErrNoSources = errors.New("no search sources configured")
)
