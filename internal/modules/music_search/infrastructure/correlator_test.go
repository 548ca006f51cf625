package infrastructure

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"github.com/sglre6355/sgrsearch/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender captures sent requests and optionally answers them.
type recordingSender struct {
	mu       sync.Mutex
	requests []plugin.Request
	err      error
	onSend   func(req plugin.Request)
}

func (s *recordingSender) SendRequest(req plugin.Request) error {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	onSend := s.onSend
	s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if onSend != nil {
		go onSend(req)
	}
	return nil
}

func (s *recordingSender) sent() []plugin.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]plugin.Request(nil), s.requests...)
}

func TestRequestCorrelator_Issue_Resolves(t *testing.T) {
	sender := &recordingSender{}
	correlator := NewRequestCorrelator(sender, time.Second)
	sender.onSend = func(req plugin.Request) {
		correlator.Dispatch(plugin.Response{
			RequestKey: req.RequestKey,
			Status:     true,
			Result:     json.RawMessage(`{"data":{"list":[]}}`),
		})
	}

	result, err := correlator.Issue(context.Background(), "bi", domain.ActionSearchMusic,
		plugin.SearchInfo{Keyword: "foo", Page: 1, Limit: 30})
	require.NoError(t, err)

	assert.JSONEq(t, `{"data":{"list":[]}}`, string(result))
	assert.Equal(t, 0, correlator.Pending())

	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0].RequestKey, "search__"))
	assert.Equal(t, "bi", sent[0].Data.Source)
	assert.Equal(t, domain.ActionSearchMusic, sent[0].Data.Action)
	assert.JSONEq(t, `{"keyword":"foo","page":1,"limit":30}`, string(sent[0].Data.Info))
}

func TestRequestCorrelator_Issue_Failure(t *testing.T) {
	tests := []struct {
		name        string
		action      string
		message     string
		wantMessage string
	}{
		{"explicit message", domain.ActionSearchMusic, "rate limited", "rate limited"},
		{"default search message", domain.ActionSearchMusic, "", "search failed"},
		{"default url message", domain.ActionMusicURL, "", "musicUrl failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			correlator := NewRequestCorrelator(sender, time.Second)
			sender.onSend = func(req plugin.Request) {
				correlator.Dispatch(plugin.Response{RequestKey: req.RequestKey, ErrorMessage: tt.message})
			}

			_, err := correlator.Issue(context.Background(), "bi", tt.action, struct{}{})

			var backendErr *domain.BackendError
			require.ErrorAs(t, err, &backendErr)
			assert.Equal(t, tt.wantMessage, backendErr.Message)
			assert.Equal(t, domain.SourceID("bi"), backendErr.Source)
		})
	}
}

func TestRequestCorrelator_Issue_Timeout(t *testing.T) {
	sender := &recordingSender{}
	correlator := NewRequestCorrelator(sender, 50*time.Millisecond)

	_, err := correlator.Issue(context.Background(), "bi", domain.ActionSearchMusic, struct{}{})

	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, 0, correlator.Pending())

	// A response arriving after the timeout completes nothing.
	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.False(t, correlator.Dispatch(plugin.Response{RequestKey: sent[0].RequestKey, Status: true}))
}

func TestRequestCorrelator_Issue_ContextCancelled(t *testing.T) {
	correlator := NewRequestCorrelator(&recordingSender{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := correlator.Issue(ctx, "bi", domain.ActionSearchMusic, struct{}{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, correlator.Pending())
}

func TestRequestCorrelator_Issue_SendFailure(t *testing.T) {
	correlator := NewRequestCorrelator(&recordingSender{err: plugin.ErrClosed}, time.Second)

	_, err := correlator.Issue(context.Background(), "bi", domain.ActionSearchMusic, struct{}{})

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, plugin.ErrClosed)
	assert.Equal(t, 0, correlator.Pending())
}

func TestRequestCorrelator_Dispatch_UnknownKey(t *testing.T) {
	correlator := NewRequestCorrelator(&recordingSender{}, time.Second)

	assert.False(t, correlator.Dispatch(plugin.Response{RequestKey: "search__unknown", Status: true}))
}

func TestRequestCorrelator_Dispatch_OnlyOnce(t *testing.T) {
	sender := &recordingSender{}
	correlator := NewRequestCorrelator(sender, time.Second)

	dispatched := make(chan []bool, 1)
	sender.onSend = func(req plugin.Request) {
		first := correlator.Dispatch(plugin.Response{RequestKey: req.RequestKey, Status: true, Result: json.RawMessage(`1`)})
		second := correlator.Dispatch(plugin.Response{RequestKey: req.RequestKey, Status: false})
		dispatched <- []bool{first, second}
	}

	result, err := correlator.Issue(context.Background(), "bi", domain.ActionSearchMusic, struct{}{})
	require.NoError(t, err)

	assert.Equal(t, "1", string(result))
	assert.Equal(t, []bool{true, false}, <-dispatched)
}

func TestRequestCorrelator_ConcurrentRequests(t *testing.T) {
	sender := &recordingSender{}
	correlator := NewRequestCorrelator(sender, time.Second)
	sender.onSend = func(req plugin.Request) {
		// Echo the keyword back so each caller can check it got its own response.
		var info plugin.SearchInfo
		_ = json.Unmarshal(req.Data.Info, &info)
		result, _ := json.Marshal(info.Keyword)
		correlator.Dispatch(plugin.Response{RequestKey: req.RequestKey, Status: true, Result: result})
	}

	keywords := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	errs := make(chan error, len(keywords))
	var wg sync.WaitGroup
	for _, keyword := range keywords {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := correlator.Issue(context.Background(), "bi", domain.ActionSearchMusic,
				plugin.SearchInfo{Keyword: keyword})
			if err != nil {
				errs <- err
				return
			}
			var got string
			_ = json.Unmarshal(raw, &got)
			if got != keyword {
				errs <- errors.New("response for " + got + " delivered to " + keyword)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 0, correlator.Pending())
}

func TestRequestCorrelator_FailAll(t *testing.T) {
	sender := &recordingSender{}
	correlator := NewRequestCorrelator(sender, 5*time.Second)

	errCh := make(chan error, 1)
	go func() {
		_, err := correlator.Issue(context.Background(), "bi", domain.ActionSearchMusic, struct{}{})
		errCh <- err
	}()

	require.Eventually(t, func() bool { return correlator.Pending() == 1 }, time.Second, 5*time.Millisecond)
	correlator.FailAll("plugin disconnected")

	select {
	case err := <-errCh:
		var backendErr *domain.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, "plugin disconnected", backendErr.Message)
	case <-time.After(time.Second):
		t.Fatal("pending request was not failed")
	}
}
