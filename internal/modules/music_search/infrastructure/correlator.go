package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/metrics"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"github.com/sglre6355/sgrsearch/internal/plugin"
)

// DefaultRequestTimeout is how long a plugin request waits for its response.
const DefaultRequestTimeout = 20 * time.Second

const requestKeyPrefix = "search__"

// RequestSender delivers requests to a plugin.
type RequestSender interface {
	SendRequest(req plugin.Request) error
}

// pendingRequest is a request waiting for its correlated response.
type pendingRequest struct {
	key       string
	action    string
	createdAt time.Time
	done      chan plugin.Response
}

// RequestCorrelator matches plugin responses to the requests that caused them.
// A pending request is completed by exactly one of: its response, its timeout,
// or cancellation of the caller's context. Whichever removes the entry from the
// pending table first wins, the others are no-ops.
type RequestCorrelator struct {
	sender  RequestSender
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

// NewRequestCorrelator creates a new RequestCorrelator.
func NewRequestCorrelator(sender RequestSender, timeout time.Duration) *RequestCorrelator {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &RequestCorrelator{
		sender:  sender,
		timeout: timeout,
		pending: make(map[string]*pendingRequest),
	}
}

// Issue sends one request and waits for its result.
// A response with a false status yields a *domain.BackendError.
// No response within the timeout yields domain.ErrTimeout.
func (c *RequestCorrelator) Issue(
	ctx context.Context,
	source domain.SourceID,
	action string,
	info any,
) (json.RawMessage, error) {
	rawInfo, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s info: %w", action, err)
	}

	p := &pendingRequest{
		key:       requestKeyPrefix + uuid.NewString(),
		action:    action,
		createdAt: time.Now(),
		done:      make(chan plugin.Response, 1),
	}
	c.register(p)

	err = c.sender.SendRequest(plugin.Request{
		RequestKey: p.key,
		Data: plugin.RequestData{
			Source: string(source),
			Action: action,
			Info:   rawInfo,
		},
	})
	if err != nil {
		c.remove(p.key)
		metrics.PluginRequests.WithLabelValues(action, "error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-p.done:
		return c.complete(source, p, resp)

	case <-timer.C:
		if c.remove(p.key) {
			metrics.PluginRequests.WithLabelValues(action, "timeout").Inc()
			return nil, fmt.Errorf("%w: %s %s after %s", domain.ErrTimeout, source, action, c.timeout)
		}

	case <-ctx.Done():
		if c.remove(p.key) {
			metrics.PluginRequests.WithLabelValues(action, "cancelled").Inc()
			return nil, ctx.Err()
		}
	}

	// The response was dispatched before the entry could be removed.
	return c.complete(source, p, <-p.done)
}

// Dispatch completes the pending request matching resp.RequestKey.
// It reports false when no request is waiting for the key.
func (c *RequestCorrelator) Dispatch(resp plugin.Response) bool {
	c.mu.Lock()
	p, ok := c.pending[resp.RequestKey]
	if ok {
		delete(c.pending, resp.RequestKey)
		metrics.PluginPending.Dec()
	}
	c.mu.Unlock()

	if !ok {
		return false
	}

	p.done <- resp
	return true
}

// Pending returns the number of requests waiting for a response.
func (c *RequestCorrelator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// FailAll completes every pending request with a failed response carrying message.
func (c *RequestCorrelator) FailAll(message string) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	metrics.PluginPending.Sub(float64(len(pending)))
	c.mu.Unlock()

	for key, p := range pending {
		p.done <- plugin.Response{RequestKey: key, ErrorMessage: message}
	}
}

func (c *RequestCorrelator) register(p *pendingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[p.key] = p
	metrics.PluginPending.Inc()
}

// remove deletes the entry for key and reports whether it was still pending.
func (c *RequestCorrelator) remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[key]; !ok {
		return false
	}
	delete(c.pending, key)
	metrics.PluginPending.Dec()
	return true
}

func (c *RequestCorrelator) complete(
	source domain.SourceID,
	p *pendingRequest,
	resp plugin.Response,
) (json.RawMessage, error) {
	if !resp.Status {
		metrics.PluginRequests.WithLabelValues(p.action, "error").Inc()
		message := resp.ErrorMessage
		if message == "" {
			message = defaultFailureMessage(p.action)
		}
		return nil, &domain.BackendError{Source: source, Message: message}
	}

	metrics.PluginRequests.WithLabelValues(p.action, "ok").Inc()
	return resp.Result, nil
}

func defaultFailureMessage(action string) string {
	if action == domain.ActionSearchMusic {
		return "search failed"
	}
	return action + " failed"
}
