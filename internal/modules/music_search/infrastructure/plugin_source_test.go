package infrastructure

import (
	"context"
	"errors"
	"testing"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"github.com/sglre6355/sgrsearch/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIssuer struct {
	result     json.RawMessage
	err        error
	lastSource domain.SourceID
	lastAction string
	lastInfo   any
}

func (m *mockIssuer) Issue(_ context.Context, source domain.SourceID, action string, info any) (json.RawMessage, error) {
	m.lastSource = source
	m.lastAction = action
	m.lastInfo = info
	return m.result, m.err
}

var biDescriptor = domain.SourceDescriptor{
	ID:        "bi",
	Name:      "bilibili",
	Actions:   []string{domain.ActionSearchMusic, domain.ActionMusicURL},
	Qualities: []string{"128k"},
}

func TestPluginSource_Search(t *testing.T) {
	issuer := &mockIssuer{result: json.RawMessage(`{"data":{"list":[
		{"id":"BV1","name":"a","singer":"s","interval":"3:45","meta":{"bvid":"BV1","picUrl":"//img/x.jpg"}},
		{"id":"BV2","name":"b","singer":"s"}
	],"total":61,"page":2,"limit":30}}`)}
	source := NewPluginSource(issuer, biDescriptor)

	page, err := source.Search(context.Background(), "foo", 2, 30)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceID("bi"), issuer.lastSource)
	assert.Equal(t, domain.ActionSearchMusic, issuer.lastAction)
	assert.Equal(t, plugin.SearchInfo{Keyword: "foo", Page: 2, Limit: 30}, issuer.lastInfo)

	assert.Equal(t, domain.SourceID("bi"), page.Source)
	assert.Equal(t, 61, page.Total)
	assert.Equal(t, 3, page.AllPage)
	require.Len(t, page.List, 2)
	assert.Equal(t, domain.TrackID("BV1"), page.List[0].ID)
	assert.Equal(t, "http://img/x.jpg", page.List[0].ArtworkURL)
	assert.Equal(t, "BV1", page.List[0].Meta(plugin.MetaBVID))
}

func TestPluginSource_Search_Errors(t *testing.T) {
	t.Run("issuer failure", func(t *testing.T) {
		source := NewPluginSource(&mockIssuer{err: domain.ErrTimeout}, biDescriptor)
		_, err := source.Search(context.Background(), "foo", 1, 30)
		assert.ErrorIs(t, err, domain.ErrTimeout)
	})

	t.Run("malformed result", func(t *testing.T) {
		source := NewPluginSource(&mockIssuer{result: json.RawMessage(`"nope"`)}, biDescriptor)
		_, err := source.Search(context.Background(), "foo", 1, 30)
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})

	t.Run("unsupported action", func(t *testing.T) {
		descriptor := biDescriptor
		descriptor.Actions = []string{domain.ActionMusicURL}
		issuer := &mockIssuer{}
		_, err := NewPluginSource(issuer, descriptor).Search(context.Background(), "foo", 1, 30)
		assert.ErrorIs(t, err, domain.ErrUnsupportedAction)
		assert.Empty(t, issuer.lastAction, "nothing is sent for unsupported actions")
	})
}

func TestPluginSource_ResolveURL(t *testing.T) {
	issuer := &mockIssuer{result: json.RawMessage(`"https://cdn.example/a.m4s"`)}
	source := NewPluginSource(issuer, biDescriptor)
	track := &domain.Track{
		ID:          "BV1",
		Title:       "a",
		SourceID:    "bi",
		BackendMeta: map[string]string{plugin.MetaBVID: "BV1", plugin.MetaCID: "9"},
	}

	url, err := source.ResolveURL(context.Background(), track, "128k")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example/a.m4s", url)
	assert.Equal(t, domain.ActionMusicURL, issuer.lastAction)
	info, ok := issuer.lastInfo.(plugin.MusicURLInfo)
	require.True(t, ok)
	assert.Equal(t, "128k", info.Type)
	assert.Equal(t, "BV1", info.MusicInfo.Meta.BVID)
	assert.Equal(t, plugin.FlexString("9"), info.MusicInfo.Meta.CID)
}

func TestPluginSource_ResolveURL_Empty(t *testing.T) {
	source := NewPluginSource(&mockIssuer{result: json.RawMessage(`""`)}, biDescriptor)

	_, err := source.ResolveURL(context.Background(), &domain.Track{ID: "x"}, "128k")
	if !errors.Is(err, domain.ErrNoPlayableURL) {
		t.Errorf("expected ErrNoPlayableURL, got %v", err)
	}
}
