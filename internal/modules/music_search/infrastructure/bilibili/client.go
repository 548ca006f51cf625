// Package bilibili implements the Bilibili video search backend.
package bilibili

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"golang.org/x/sync/singleflight"
)

// SourceID is the identifier of the Bilibili backend.
const SourceID domain.SourceID = "bi"

// DefaultLimit is the page size used when the caller does not pass one.
const DefaultLimit = 20

const (
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/89.0.4389.90 Safari/537.36 Edg/89.0.774.63"
	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 13_2_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.3 Mobile/15E148 Safari/604.1 Edg/114.0.0.0"
	acceptLanguage   = "zh-CN,zh;q=0.9,en;q=0.8,en-GB;q=0.7,en-US;q=0.6"
)

// Endpoints holds the API URLs used by the client.
type Endpoints struct {
	SPI     string
	Search  string
	View    string
	PlayURL string
}

// DefaultEndpoints returns the public Bilibili API endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		SPI:     "https://api.bilibili.com/x/frontend/finger/spi",
		Search:  "https://api.bilibili.com/x/web-interface/search/type",
		View:    "https://api.bilibili.com/x/web-interface/view",
		PlayURL: "https://api.bilibili.com/x/player/playurl",
	}
}

// Compile-time check that Client implements ports.Source.
var _ ports.Source = (*Client)(nil)

// Client is the Bilibili search backend.
type Client struct {
	transport ports.Transport
	endpoints Endpoints

	mu     sync.RWMutex
	token  *token
	primer singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoints overrides the API endpoints.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// NewClient creates a new Client issuing requests through transport.
func NewClient(transport ports.Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		endpoints: DefaultEndpoints(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the backend identifier.
func (c *Client) ID() domain.SourceID {
	return SourceID
}

// Descriptor describes the backend.
func (c *Client) Descriptor() domain.SourceDescriptor {
	return domain.SourceDescriptor{
		ID:        SourceID,
		Name:      "bilibili",
		Actions:   []string{domain.ActionSearchMusic, domain.ActionMusicURL},
		Qualities: []string{domain.DefaultQuality},
	}
}

// token is the buvid pair returned by the spi endpoint.
type token struct {
	buvid3 string
	buvid4 string
}

func (t *token) cookie() string {
	return "buvid3=" + t.buvid3 + ";buvid4=" + t.buvid4
}

// cookie returns the priming cookie, fetching it on first use.
// A failed fetch yields an empty cookie and is attempted again by the next search.
func (c *Client) cookie(ctx context.Context) string {
	if tok := c.cachedToken(); tok != nil {
		return tok.cookie()
	}

	v, err, _ := c.primer.Do("spi", func() (any, error) {
		if tok := c.cachedToken(); tok != nil {
			return tok, nil
		}

		tok, err := c.fetchToken(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// First successful fetch wins.
		if c.token == nil {
			c.token = tok
		}
		return c.token, nil
	})
	if err != nil {
		slog.Warn("failed to prime bilibili token, searching without it", "error", err)
		return ""
	}
	return v.(*token).cookie()
}

func (c *Client) cachedToken() *token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) fetchToken(ctx context.Context) (*token, error) {
	data, err := c.get(ctx, c.endpoints.SPI, map[string]string{
		"user-agent": mobileUserAgent,
	})
	if err != nil {
		return nil, err
	}

	var spi spiData
	if err := json.Unmarshal(data, &spi); err != nil {
		return nil, fmt.Errorf("%w: spi: %w", domain.ErrMalformedResponse, err)
	}
	if spi.B3 == "" {
		return nil, fmt.Errorf("%w: spi returned no buvid3", domain.ErrMalformedResponse)
	}

	return &token{buvid3: spi.B3, buvid4: spi.B4}, nil
}

// get issues a GET request and returns the data field of the response envelope.
func (c *Client) get(ctx context.Context, url string, headers map[string]string) (json.RawMessage, error) {
	resp, err := c.transport.Request(ctx, url, ports.RequestOptions{
		Method:  "GET",
		Headers: headers,
	})
	if err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &domain.BackendError{
			Source:  SourceID,
			Code:    env.Code,
			Message: env.Message,
		}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: response has no data", domain.ErrMalformedResponse)
	}
	return env.Data, nil
}

// decodeEnvelope parses a response body. Some gateways deliver the JSON
// document as a JSON string, which is unwrapped first.
func decodeEnvelope(body []byte) (*envelope, error) {
	if len(body) > 0 && body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
		}
		body = []byte(inner)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return &env, nil
}
