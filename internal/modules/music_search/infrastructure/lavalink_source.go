package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Keys of Track.BackendMeta set by Lavalink sources.
const (
	MetaLavalinkURI     = "uri"
	MetaLavalinkEncoded = "encoded"
)

// TrackLoader loads tracks for a Lavalink query.
type TrackLoader interface {
	LoadTracks(ctx context.Context, query string) ([]*LoadedTrack, error)
}

// lavalinkSourceNames maps well-known search prefixes to source IDs and display names.
var lavalinkSourceNames = map[string]struct {
	id   domain.SourceID
	name string
}{
	"ytsearch":  {"yt", "YouTube"},
	"ytmsearch": {"ytm", "YouTube Music"},
	"scsearch":  {"sc", "SoundCloud"},
}

// Compile-time check that LavalinkSource implements ports.Source.
var _ ports.Source = (*LavalinkSource)(nil)

// LavalinkSource searches one Lavalink source manager through its search prefix.
// Lavalink returns a single result set per query, which is paged locally.
type LavalinkSource struct {
	loader TrackLoader
	prefix string
	id     domain.SourceID
	name   string
}

// NewLavalinkSource creates a source for a search prefix such as "ytsearch".
func NewLavalinkSource(loader TrackLoader, prefix string) *LavalinkSource {
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	id := domain.SourceID(strings.TrimSuffix(prefix, "search"))
	name := prefix
	if known, ok := lavalinkSourceNames[prefix]; ok {
		id = known.id
		name = known.name
	}

	return &LavalinkSource{
		loader: loader,
		prefix: prefix,
		id:     id,
		name:   name,
	}
}

// ID returns the backend identifier.
func (s *LavalinkSource) ID() domain.SourceID {
	return s.id
}

// Descriptor describes the backend.
func (s *LavalinkSource) Descriptor() domain.SourceDescriptor {
	return domain.SourceDescriptor{
		ID:        s.id,
		Name:      s.name,
		Actions:   []string{domain.ActionSearchMusic, domain.ActionMusicURL},
		Qualities: []string{domain.DefaultQuality},
	}
}

// Search returns one page of the tracks Lavalink found for keyword.
func (s *LavalinkSource) Search(ctx context.Context, keyword string, page, limit int) (*domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}

	loaded, err := s.loader.LoadTracks(ctx, s.prefix+":"+keyword)
	if err != nil {
		return nil, err
	}

	start := (page - 1) * limit
	if start >= len(loaded) {
		return domain.NewPage(s.id, []*domain.Track{}, len(loaded), page, limit), nil
	}
	end := min(start+limit, len(loaded))

	tracks := make([]*domain.Track, 0, end-start)
	for _, lt := range loaded[start:end] {
		tracks = append(tracks, s.normalize(lt))
	}
	return domain.NewPage(s.id, tracks, len(loaded), page, limit), nil
}

// ResolveURL returns the track URI, which Lavalink can load directly.
func (s *LavalinkSource) ResolveURL(_ context.Context, track *domain.Track, _ string) (string, error) {
	if uri := track.Meta(MetaLavalinkURI); uri != "" {
		return uri, nil
	}
	if track.PageURL != "" {
		return track.PageURL, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrNoPlayableURL, track.Key())
}

func (s *LavalinkSource) normalize(lt *LoadedTrack) *domain.Track {
	id := domain.TrackID(lt.Identifier)
	if id == "" {
		id = domain.StableID(s.id, lt.Title, lt.Artist, lt.URI)
	}

	var duration *int
	if !lt.IsStream {
		duration = domain.ParseDurationSeconds(int(lt.Duration.Seconds()))
	}

	meta := map[string]string{}
	if lt.URI != "" {
		meta[MetaLavalinkURI] = lt.URI
	}
	if lt.Encoded != "" {
		meta[MetaLavalinkEncoded] = lt.Encoded
	}

	return &domain.Track{
		ID:              id,
		Title:           domain.StripHighlight(lt.Title),
		Artist:          lt.Artist,
		SourceID:        s.id,
		DurationSeconds: duration,
		ArtworkURL:      domain.AbsoluteURL(lt.ArtworkURL),
		PageURL:         lt.URI,
		Qualities:       []domain.QualityOption{{Type: domain.DefaultQuality}},
		BackendMeta:     meta,
	}
}
