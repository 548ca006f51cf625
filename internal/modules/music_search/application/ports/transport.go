package ports

import "context"

// RequestOptions configures a single Transport request.
type RequestOptions struct {
	Method  string
	Headers map[string]string
}

// Response is the raw result of a Transport request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport issues one HTTP request.
type Transport interface {
	// Request performs the request and returns the status and body.
	// Failures wrap domain.ErrTransport.
	Request(ctx context.Context, url string, opts RequestOptions) (*Response, error)
}
