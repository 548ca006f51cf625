package plugin

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	descriptor domain.SourceDescriptor
	page       *domain.Page
	err        error
	url        string
	lastTrack  *domain.Track
	lastLimit  int
}

func (f *fakeBackend) Descriptor() domain.SourceDescriptor { return f.descriptor }

func (f *fakeBackend) Search(_ context.Context, _ string, _, limit int) (*domain.Page, error) {
	f.lastLimit = limit
	return f.page, f.err
}

func (f *fakeBackend) ResolveURL(_ context.Context, track *domain.Track, _ string) (string, error) {
	f.lastTrack = track
	return f.url, f.err
}

func newFakeBackend() *fakeBackend {
	seconds := 225
	return &fakeBackend{
		descriptor: domain.SourceDescriptor{
			ID:        "bi",
			Name:      "bilibili",
			Actions:   []string{domain.ActionSearchMusic, domain.ActionMusicURL},
			Qualities: []string{"128k"},
		},
		page: domain.NewPage("bi", []*domain.Track{
			{ID: "BV1", Title: "t", Artist: "a", SourceID: "bi", DurationSeconds: &seconds},
		}, 41, 1, 20),
		url: "https://cdn.example/audio.m4s",
	}
}

func searchRequest(key, source, action string, info string) Request {
	return Request{
		RequestKey: key,
		Data:       RequestData{Source: source, Action: action, Info: json.RawMessage(info)},
	}
}

func TestServer_Handle_Search(t *testing.T) {
	backend := newFakeBackend()
	server := NewServer(time.Second, backend)

	resp := server.Handle(context.Background(), searchRequest("k1", "bi", domain.ActionSearchMusic, `{"keyword":"foo","page":1}`))

	require.True(t, resp.Status, resp.ErrorMessage)
	assert.Equal(t, "k1", resp.RequestKey)
	assert.Equal(t, DefaultSearchLimit, backend.lastLimit)

	var result SearchResponse
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, 41, result.Data.Total)
	assert.Equal(t, 1, result.Data.Page)
	require.Len(t, result.Data.List, 1)
	assert.Equal(t, FlexString("BV1"), result.Data.List[0].ID)
	assert.Equal(t, "3:45", result.Data.List[0].Interval)
}

func TestServer_Handle_MusicURL(t *testing.T) {
	backend := newFakeBackend()
	server := NewServer(0, backend)

	resp := server.Handle(context.Background(), searchRequest("k2", "bi", domain.ActionMusicURL,
		`{"musicInfo":{"id":"BV1","name":"t","meta":{"bvid":"BV1","cid":7}},"type":"128k"}`))

	require.True(t, resp.Status, resp.ErrorMessage)
	var url string
	require.NoError(t, json.Unmarshal(resp.Result, &url))
	assert.Equal(t, "https://cdn.example/audio.m4s", url)
	assert.Equal(t, "BV1", backend.lastTrack.Meta(MetaBVID))
	assert.Equal(t, "7", backend.lastTrack.Meta(MetaCID))
}

func TestServer_Handle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		backend func() *fakeBackend
		wantMsg string
	}{
		{
			name:    "unknown action",
			req:     searchRequest("k", "bi", "lyric", `{}`),
			backend: newFakeBackend,
			wantMsg: "action not support",
		},
		{
			name: "action not in descriptor",
			req:  searchRequest("k", "bi", domain.ActionMusicURL, `{"musicInfo":{}}`),
			backend: func() *fakeBackend {
				b := newFakeBackend()
				b.descriptor.Actions = []string{domain.ActionSearchMusic}
				return b
			},
			wantMsg: "action not support",
		},
		{
			name:    "unknown source",
			req:     searchRequest("k", "kw", domain.ActionSearchMusic, `{}`),
			backend: newFakeBackend,
			wantMsg: "source not support",
		},
		{
			name: "backend failure",
			req:  searchRequest("k", "bi", domain.ActionSearchMusic, `{"keyword":"x"}`),
			backend: func() *fakeBackend {
				b := newFakeBackend()
				b.err = errors.New("upstream exploded")
				return b
			},
			wantMsg: "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewServer(time.Second, tt.backend()).Handle(context.Background(), tt.req)

			assert.False(t, resp.Status)
			assert.Equal(t, "k", resp.RequestKey)
			assert.Contains(t, resp.ErrorMessage, tt.wantMsg)
			assert.Empty(t, resp.Result)
		})
	}
}

type chanSink struct {
	responses chan Response
	inited    chan Inited
}

func newChanSink() *chanSink {
	return &chanSink{
		responses: make(chan Response, 8),
		inited:    make(chan Inited, 1),
	}
}

func (s *chanSink) PublishResponse(resp Response) { s.responses <- resp }
func (s *chanSink) PublishInited(inited Inited)   { s.inited <- inited }

func TestServer_WebsocketRoundTrip(t *testing.T) {
	httpServer := httptest.NewServer(NewServer(time.Second, newFakeBackend()))
	defer httpServer.Close()

	sink := newChanSink()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, "ws"+strings.TrimPrefix(httpServer.URL, "http"), sink)
	require.NoError(t, err)
	defer client.Close()

	select {
	case inited := <-sink.inited:
		assert.True(t, inited.Status)
		require.Contains(t, inited.Sources, "bi")
		assert.Equal(t, []string{"searchMusic", "musicUrl"}, inited.Sources["bi"].Actions)
	case <-ctx.Done():
		t.Fatal("timed out waiting for inited event")
	}

	require.NoError(t, client.SendRequest(searchRequest("search__1", "bi", domain.ActionSearchMusic, `{"keyword":"foo","page":1,"limit":30}`)))
	require.NoError(t, client.SendRequest(searchRequest("search__2", "bi", "nope", `{}`)))

	got := map[string]Response{}
	for len(got) < 2 {
		select {
		case resp := <-sink.responses:
			got[resp.RequestKey] = resp
		case <-ctx.Done():
			t.Fatal("timed out waiting for responses")
		}
	}

	assert.True(t, got["search__1"].Status)
	assert.False(t, got["search__2"].Status)
	assert.Equal(t, "action not support", got["search__2"].ErrorMessage)
}

func TestClient_SendAfterClose(t *testing.T) {
	httpServer := httptest.NewServer(NewServer(time.Second, newFakeBackend()))
	defer httpServer.Close()

	client, err := Dial(context.Background(), "ws"+strings.TrimPrefix(httpServer.URL, "http"), newChanSink())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	<-client.Done()
	assert.ErrorIs(t, client.SendRequest(Request{RequestKey: "k"}), ErrClosed)
}
