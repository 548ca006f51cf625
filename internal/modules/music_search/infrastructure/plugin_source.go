package infrastructure

import (
	"context"
	"fmt"

	"github.com/sglre6355/sgrsearch/internal/json"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"github.com/sglre6355/sgrsearch/internal/plugin"
)

// RequestIssuer issues a correlated plugin request.
type RequestIssuer interface {
	Issue(ctx context.Context, source domain.SourceID, action string, info any) (json.RawMessage, error)
}

// Compile-time check that PluginSource implements ports.Source.
var _ ports.Source = (*PluginSource)(nil)

// PluginSource is a backend hosted by an out-of-process plugin.
type PluginSource struct {
	issuer     RequestIssuer
	descriptor domain.SourceDescriptor
}

// NewPluginSource creates a source for one descriptor announced by a plugin.
func NewPluginSource(issuer RequestIssuer, descriptor domain.SourceDescriptor) *PluginSource {
	return &PluginSource{
		issuer:     issuer,
		descriptor: descriptor,
	}
}

// ID returns the backend identifier.
func (s *PluginSource) ID() domain.SourceID {
	return s.descriptor.ID
}

// Descriptor describes the backend as announced by the plugin.
func (s *PluginSource) Descriptor() domain.SourceDescriptor {
	return s.descriptor
}

// Search runs the searchMusic action.
func (s *PluginSource) Search(ctx context.Context, keyword string, page, limit int) (*domain.Page, error) {
	if !s.descriptor.Supports(domain.ActionSearchMusic) {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrUnsupportedAction, s.descriptor.ID, domain.ActionSearchMusic)
	}

	raw, err := s.issuer.Issue(ctx, s.descriptor.ID, domain.ActionSearchMusic, plugin.SearchInfo{
		Keyword: keyword,
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}

	var resp plugin.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s search result: %w", domain.ErrMalformedResponse, s.descriptor.ID, err)
	}

	tracks := make([]*domain.Track, 0, len(resp.Data.List))
	for _, item := range resp.Data.List {
		tracks = append(tracks, plugin.NormalizeItem(s.descriptor.ID, item))
	}

	total := resp.Data.Total
	if total <= 0 {
		total = len(tracks)
	}
	return domain.NewPage(s.descriptor.ID, tracks, total, page, limit), nil
}

// ResolveURL runs the musicUrl action.
func (s *PluginSource) ResolveURL(ctx context.Context, track *domain.Track, quality string) (string, error) {
	if !s.descriptor.Supports(domain.ActionMusicURL) {
		return "", fmt.Errorf("%w: %s %s", domain.ErrUnsupportedAction, s.descriptor.ID, domain.ActionMusicURL)
	}

	raw, err := s.issuer.Issue(ctx, s.descriptor.ID, domain.ActionMusicURL, plugin.MusicURLInfo{
		MusicInfo: plugin.ItemFromTrack(track),
		Type:      quality,
	})
	if err != nil {
		return "", err
	}

	var url string
	if err := json.Unmarshal(raw, &url); err != nil {
		return "", fmt.Errorf("%w: %s music url: %w", domain.ErrMalformedResponse, s.descriptor.ID, err)
	}
	if url == "" {
		return "", domain.ErrNoPlayableURL
	}
	return url, nil
}
