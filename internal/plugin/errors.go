package plugin

import "errors"

var (
	// ErrActionNotSupported is returned for actions a source does not handle.
	ErrActionNotSupported = errors.New("action not support")

	// ErrSourceNotSupported is returned for requests naming an unknown source.
	ErrSourceNotSupported = errors.New("source not support")

	// ErrClosed is returned when sending on a closed connection.
	ErrClosed = errors.New("plugin connection closed")
)
