package infrastructure

import (
	"context"
	"fmt"
	"io"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Compile-time check that BrowserTransport implements ports.Transport.
var _ ports.Transport = (*BrowserTransport)(nil)

// BrowserTransport implements ports.Transport with a Chrome TLS fingerprint,
// for backends that reject requests from non-browser clients.
type BrowserTransport struct {
	client tls_client.HttpClient
}

// NewBrowserTransport creates a transport that impersonates Chrome 131.
func NewBrowserTransport(timeout time.Duration) (*BrowserTransport, error) {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	opts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
	}
	client, err := tls_client.NewHttpClient(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser client: %w", err)
	}

	return &BrowserTransport{client: client}, nil
}

// Request performs one HTTP request.
// Status codes of 400 and above are returned with a *domain.StatusError.
func (t *BrowserTransport) Request(
	ctx context.Context,
	url string,
	opts ports.RequestOptions,
) (*ports.Response, error) {
	method := opts.Method
	if method == "" {
		method = fhttp.MethodGet
	}

	req, err := fhttp.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrTransport, err)
	}

	response := &ports.Response{StatusCode: resp.StatusCode, Body: body}
	if resp.StatusCode >= fhttp.StatusBadRequest {
		return response, &domain.StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	return response, nil
}
