package ports

import (
	"context"

	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Source is one search backend.
type Source interface {
	// ID returns the backend identifier.
	ID() domain.SourceID

	// Descriptor describes the backend and its supported actions.
	Descriptor() domain.SourceDescriptor

	// Search returns one normalized page of results for keyword.
	Search(ctx context.Context, keyword string, page, limit int) (*domain.Page, error)

	// ResolveURL returns a playable URL for a track produced by this backend.
	ResolveURL(ctx context.Context, track *domain.Track, quality string) (string, error)
}
