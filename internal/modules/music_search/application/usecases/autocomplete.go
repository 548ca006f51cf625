package usecases

import (
	"context"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// DefaultSuggestionLimit is the number of choices Discord accepts for autocomplete.
const DefaultSuggestionLimit = 25

// SuggestTracksInput contains the input for the SuggestTracks use case.
type SuggestTracksInput struct {
	OwnerID snowflake.ID
	Text    string
	Scope   domain.SourceID
	Limit   int
}

// SuggestTracksOutput contains the result of the SuggestTracks use case.
type SuggestTracksOutput struct {
	Tracks []*domain.Track
}

// CommittedTracksInput contains the input for the CommittedTracks use case.
type CommittedTracksInput struct {
	OwnerID snowflake.ID
	Filter  string
	Limit   int
}

// CommittedTracksOutput contains the result of the CommittedTracks use case.
type CommittedTracksOutput struct {
	Tracks []*domain.Track
}

// AutocompleteService handles autocomplete-related operations.
type AutocompleteService struct {
	search   *SearchCoordinator
	sessions domain.SearchSessionRepository
}

// NewAutocompleteService creates a new AutocompleteService.
func NewAutocompleteService(
	search *SearchCoordinator,
	sessions domain.SearchSessionRepository,
) *AutocompleteService {
	return &AutocompleteService{
		search:   search,
		sessions: sessions,
	}
}

// SuggestTracks runs a first-page search for the text typed so far.
// Every keystroke starts a new search, so a suggestion for older text that
// completes late comes back empty.
func (s *AutocompleteService) SuggestTracks(
	ctx context.Context,
	input SuggestTracksInput,
) (*SuggestTracksOutput, error) {
	output, err := s.search.Search(ctx, SearchInput{
		OwnerID: input.OwnerID,
		Text:    input.Text,
		Page:    1,
		Scope:   input.Scope,
	})
	if err != nil {
		return nil, err
	}

	return &SuggestTracksOutput{
		Tracks: limitTracks(output.Tracks, input.Limit),
	}, nil
}

// CommittedTracks returns the tracks the user has been shown, filtered by title or artist.
func (s *AutocompleteService) CommittedTracks(input CommittedTracksInput) *CommittedTracksOutput {
	session := s.sessions.Get(input.OwnerID)
	if session == nil {
		return &CommittedTracksOutput{Tracks: nil}
	}

	filter := strings.ToLower(strings.TrimSpace(input.Filter))
	var tracks []*domain.Track
	for _, track := range session.CommittedTracks() {
		if filter == "" ||
			strings.Contains(strings.ToLower(track.Title), filter) ||
			strings.Contains(strings.ToLower(track.Artist), filter) {
			tracks = append(tracks, track)
		}
	}

	return &CommittedTracksOutput{
		Tracks: limitTracks(tracks, input.Limit),
	}
}

func limitTracks(tracks []*domain.Track, limit int) []*domain.Track {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if len(tracks) > limit {
		return tracks[:limit]
	}
	return tracks
}
