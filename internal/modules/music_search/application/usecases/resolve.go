package usecases

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// ResolveURLInput contains the input for the ResolveURL use case.
type ResolveURLInput struct {
	OwnerID  snowflake.ID
	TrackKey string // domain.Track.Key of a track the user has been shown
	Quality  string // empty selects the track's default quality
}

// ResolveURLOutput contains the result of the ResolveURL use case.
type ResolveURLOutput struct {
	Track   *domain.Track
	Quality string
	URL     string
}

// ResolveService resolves search results to playable URLs.
type ResolveService struct {
	catalog  *SourceCatalog
	sessions domain.SearchSessionRepository
}

// NewResolveService creates a new ResolveService.
func NewResolveService(
	catalog *SourceCatalog,
	sessions domain.SearchSessionRepository,
) *ResolveService {
	return &ResolveService{
		catalog:  catalog,
		sessions: sessions,
	}
}

// ResolveURL asks the backend that produced a track for a playable URL.
func (s *ResolveService) ResolveURL(
	ctx context.Context,
	input ResolveURLInput,
) (*ResolveURLOutput, error) {
	session := s.sessions.Get(input.OwnerID)
	if session == nil {
		return nil, domain.ErrTrackNotFound
	}

	track, ok := session.FindTrack(input.TrackKey)
	if !ok {
		return nil, domain.ErrTrackNotFound
	}

	source, err := s.catalog.Get(track.SourceID)
	if err != nil {
		return nil, err
	}
	if !source.Descriptor().Supports(domain.ActionMusicURL) {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrUnsupportedAction, domain.ActionMusicURL, track.SourceID)
	}

	quality := input.Quality
	if quality == "" {
		quality = track.DefaultQuality()
	} else if !track.HasQuality(quality) {
		return nil, fmt.Errorf("%w: %s for %s", domain.ErrUnsupportedQuality, quality, track.Key())
	}

	url, err := source.ResolveURL(ctx, track, quality)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", track.Key(), err)
	}

	return &ResolveURLOutput{
		Track:   track,
		Quality: quality,
		URL:     url,
	}, nil
}
