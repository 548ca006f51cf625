package domain

import (
	"context"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// SearchTicket captures the scope state a search was started under.
type SearchTicket struct {
	Query      SearchQuery
	Generation uint64
	Limit      int
}

// SearchSession holds the per-scope search state of one user.
// One ListInfo exists for every known backend and for ScopeAll.
type SearchSession struct {
	OwnerID snowflake.ID

	mu          sync.Mutex
	sources     []SourceID
	activeScope SourceID
	listInfos   map[SourceID]*ListInfo
	inFlight    map[SourceID]context.CancelFunc
}

// NewSearchSession creates a session with empty state for each source and the aggregate scope.
func NewSearchSession(ownerID snowflake.ID, sources []SourceID, limit int) *SearchSession {
	s := &SearchSession{
		OwnerID:   ownerID,
		sources:   slices.Clone(sources),
		listInfos: make(map[SourceID]*ListInfo, len(sources)+1),
		inFlight:  make(map[SourceID]context.CancelFunc),
	}
	for _, id := range sources {
		s.listInfos[id] = newListInfo(limit)
	}
	s.listInfos[ScopeAll] = newListInfo(limit)
	return s
}

// SwitchScope makes scope the scope the user browses and returns the scope it
// replaces. previous is empty on the first switch and when scope is unchanged.
func (s *SearchSession) SwitchScope(scope SourceID) (previous SourceID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listInfos[scope]; !ok {
		return "", ErrSourceNotFound
	}
	if s.activeScope == scope {
		return "", nil
	}
	previous, s.activeScope = s.activeScope, scope
	return previous, nil
}

// Begin makes q the current query of its scope.
//
// If q was already committed and produced results, Begin returns those
// results and leaves the state untouched. Otherwise it replaces the scope's
// key and generation before any I/O happens and cancels the scope's previous
// in-flight search; cancel is kept until the new search commits or fails.
func (s *SearchSession) Begin(
	q SearchQuery,
	cancel context.CancelFunc,
) (SearchTicket, []*Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ok := s.listInfos[q.Scope]
	if !ok {
		return SearchTicket{}, nil, ErrSourceNotFound
	}

	key := q.Key()
	if li.hasCached(key) {
		return SearchTicket{Query: q, Generation: li.Generation, Limit: li.Limit},
			slices.Clone(li.Items), nil
	}

	if prev, ok := s.inFlight[q.Scope]; ok {
		prev()
	}
	if cancel != nil {
		s.inFlight[q.Scope] = cancel
	}

	li.CurrentKey = key
	li.Generation++

	return SearchTicket{Query: q, Generation: li.Generation, Limit: li.Limit}, nil, nil
}

// Commit stores the result pages of t and returns the scope's visible list.
// A stale ticket changes nothing and returns ok=false.
// The first page replaces the list, later pages are appended to it.
func (s *SearchSession) Commit(t SearchTicket, pages ...*Page) ([]*Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ok := s.listInfos[t.Query.Scope]
	if !ok || li.Generation != t.Generation {
		return nil, false
	}
	delete(s.inFlight, t.Query.Scope)

	aggregate := t.Query.Scope.IsAggregate()
	if aggregate {
		li.MaxPages = make(map[SourceID]int, len(pages))
	}

	var incoming []*Track
	total, maxPage := 0, 0
	li.LastPages = make([]*Page, 0, len(pages))
	for _, p := range pages {
		if p == nil {
			continue
		}
		li.LastPages = append(li.LastPages, p)
		incoming = append(incoming, p.List...)
		total = max(total, p.Total)
		maxPage = max(maxPage, p.AllPage)
		if aggregate {
			li.MaxPages[p.Source] = p.AllPage
		}
	}

	if t.Query.Page == 1 {
		li.Items = appendUnique(nil, incoming)
	} else {
		li.Items = appendUnique(li.Items, incoming)
	}
	li.Page = t.Query.Page
	li.Total = total
	li.MaxPage = maxPage
	li.CommittedKey = li.CurrentKey

	return slices.Clone(li.Items), true
}

// Fail records that the search of t failed.
// If t is current, its first page failed and results are shown, the scope is cleared.
func (s *SearchSession) Fail(t SearchTicket) (cleared, current bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ok := s.listInfos[t.Query.Scope]
	if !ok || li.Generation != t.Generation {
		return false, false
	}
	delete(s.inFlight, t.Query.Scope)

	if t.Query.Page == 1 && len(li.Items) > 0 {
		li.reset()
		return true, true
	}
	return false, true
}

// Clear empties a scope and abandons its in-flight search.
func (s *SearchSession) Clear(scope SourceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ok := s.listInfos[scope]
	if !ok {
		return ErrSourceNotFound
	}
	if cancel, ok := s.inFlight[scope]; ok {
		cancel()
		delete(s.inFlight, scope)
	}
	li.reset()
	return nil
}

// Snapshot returns a copy of a scope's state.
func (s *SearchSession) Snapshot(scope SourceID) (ListInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ok := s.listInfos[scope]
	if !ok {
		return ListInfo{}, false
	}
	return li.clone(), true
}

// CommittedTracks returns every visible track across scopes, aggregate scope first.
func (s *SearchSession) CommittedTracks() []*Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	tracks := appendUnique(nil, s.listInfos[ScopeAll].Items)
	for _, id := range s.sources {
		tracks = appendUnique(tracks, s.listInfos[id].Items)
	}
	return tracks
}

// FindTrack looks up a visible track by its Key.
func (s *SearchSession) FindTrack(key string) (*Track, bool) {
	for _, t := range s.CommittedTracks() {
		if t.Key() == key {
			return t, true
		}
	}
	return nil, false
}
