package usecases

import (
	"fmt"

	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// SourceCatalog is the fixed, ordered list of configured backends.
// Aggregate searches visit backends in this order.
type SourceCatalog struct {
	sources []ports.Source
	byID    map[domain.SourceID]ports.Source
}

// NewSourceCatalog creates a SourceCatalog from backends in configured order.
func NewSourceCatalog(sources ...ports.Source) (*SourceCatalog, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	c := &SourceCatalog{
		sources: make([]ports.Source, 0, len(sources)),
		byID:    make(map[domain.SourceID]ports.Source, len(sources)),
	}
	for _, src := range sources {
		id := src.ID()
		if id.IsAggregate() {
			return nil, fmt.Errorf("%w: %s", ErrReservedSourceID, id)
		}
		if _, ok := c.byID[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, id)
		}
		c.byID[id] = src
		c.sources = append(c.sources, src)
	}

	return c, nil
}

// Get returns the backend with the given ID.
func (c *SourceCatalog) Get(id domain.SourceID) (ports.Source, error) {
	src, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, id)
	}
	return src, nil
}

// Sources returns the backends in configured order.
func (c *SourceCatalog) Sources() []ports.Source {
	out := make([]ports.Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// IDs returns the backend IDs in configured order.
func (c *SourceCatalog) IDs() []domain.SourceID {
	ids := make([]domain.SourceID, len(c.sources))
	for i, src := range c.sources {
		ids[i] = src.ID()
	}
	return ids
}

// Descriptors returns the backend descriptors in configured order.
func (c *SourceCatalog) Descriptors() []domain.SourceDescriptor {
	descriptors := make([]domain.SourceDescriptor, len(c.sources))
	for i, src := range c.sources {
		descriptors[i] = src.Descriptor()
	}
	return descriptors
}
