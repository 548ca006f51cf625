package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
	"golang.org/x/sync/errgroup"
)

// SearchInput contains the input for the Search use case.
type SearchInput struct {
	OwnerID snowflake.ID
	Text    string
	Page    int
	Scope   domain.SourceID
}

// SearchOutput contains the result of the Search use case.
// Tracks is the scope's visible list after the search: the committed list,
// the cached list, or empty when the search was superseded.
// Pages holds only the requested page as each backend returned it, one entry
// for a single backend and one per backend in configured order for ScopeAll.
type SearchOutput struct {
	Scope   domain.SourceID
	Tracks  []*domain.Track
	Page    int
	Limit   int
	Total   int
	MaxPage int
	Pages   []*domain.Page
	Cached  bool
}

// SearchCoordinator dispatches searches to backends and reconciles the results
// with each user's per-scope state.
type SearchCoordinator struct {
	catalog  *SourceCatalog
	sessions domain.SearchSessionRepository
	recorder ports.SearchRecorder
	limit    int
}

// NewSearchCoordinator creates a new SearchCoordinator.
func NewSearchCoordinator(
	catalog *SourceCatalog,
	sessions domain.SearchSessionRepository,
	recorder ports.SearchRecorder,
	limit int,
) *SearchCoordinator {
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	return &SearchCoordinator{
		catalog:  catalog,
		sessions: sessions,
		recorder: recorder,
		limit:    limit,
	}
}

// Search runs a query against a single backend or, for domain.ScopeAll, every backend.
func (c *SearchCoordinator) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	query := domain.NewSearchQuery(input.Text, input.Page, input.Scope)
	if !query.IsValid() {
		return &SearchOutput{Scope: query.Scope, Page: query.Page}, nil
	}

	session := c.session(input.OwnerID)

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticket, cached, err := session.Begin(query, cancel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, query.Scope)
	}
	if cached != nil {
		c.recorder.RecordSearch(query.Scope, ports.OutcomeCached)
		return c.output(session, ticket, cached, nil, true), nil
	}

	if query.Scope.IsAggregate() {
		return c.searchAll(searchCtx, session, ticket), nil
	}
	return c.searchOne(searchCtx, session, ticket)
}

// searchOne searches a single backend. Failures of the current query propagate.
func (c *SearchCoordinator) searchOne(
	ctx context.Context,
	session *domain.SearchSession,
	ticket domain.SearchTicket,
) (*SearchOutput, error) {
	scope := ticket.Query.Scope

	source, err := c.catalog.Get(scope)
	if err != nil {
		session.Fail(ticket)
		return nil, err
	}

	page, err := c.callSource(ctx, source, ticket)
	if err != nil {
		cleared, current := session.Fail(ticket)
		if !current {
			return c.discard(ticket), nil
		}
		if cleared {
			slog.Debug("cleared search results after failed first page", "source", scope)
		}
		c.recorder.RecordSearch(scope, ports.OutcomeFailed)
		return nil, fmt.Errorf("search %s: %w", scope, err)
	}

	tracks, ok := session.Commit(ticket, page)
	if !ok {
		return c.discard(ticket), nil
	}

	c.recordCommit(scope, tracks)
	return c.output(session, ticket, tracks, []*domain.Page{page}, false), nil
}

// searchAll fans out to every backend in parallel. A failing backend contributes
// an empty placeholder page, so the aggregate search itself never fails.
func (c *SearchCoordinator) searchAll(
	ctx context.Context,
	session *domain.SearchSession,
	ticket domain.SearchTicket,
) *SearchOutput {
	sources := c.catalog.Sources()
	pages := make([]*domain.Page, len(sources))

	var g errgroup.Group
	for i, source := range sources {
		g.Go(func() error {
			page, err := c.callSource(ctx, source, ticket)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("backend failed during aggregate search",
						"source", source.ID(),
						"query", ticket.Query.Text,
						"error", err,
					)
				}
				page = domain.FailedPage(source.ID())
			}
			pages[i] = page
			return nil
		})
	}
	_ = g.Wait()

	tracks, ok := session.Commit(ticket, pages...)
	if !ok {
		return c.discard(ticket)
	}

	c.recordCommit(domain.ScopeAll, tracks)
	return c.output(session, ticket, tracks, pages, false)
}

// callSource performs one backend search with the ticket's paging.
func (c *SearchCoordinator) callSource(
	ctx context.Context,
	source ports.Source,
	ticket domain.SearchTicket,
) (*domain.Page, error) {
	start := time.Now()
	page, err := source.Search(ctx, ticket.Query.Text, ticket.Query.Page, ticket.Limit)
	c.recorder.RecordBackendCall(source.ID(), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if page == nil {
		page = domain.EmptyPage(source.ID(), ticket.Query.Page, ticket.Limit)
	}
	page.Source = source.ID()
	if page.List == nil {
		page.List = []*domain.Track{}
	}
	return page, nil
}

// SelectScope records the scope the user is browsing. When it differs from
// the previously selected scope, the previous scope's results are cleared.
func (c *SearchCoordinator) SelectScope(ownerID snowflake.ID, scope domain.SourceID) error {
	if scope == "" {
		scope = domain.ScopeAll
	}

	previous, err := c.session(ownerID).SwitchScope(scope)
	if err != nil {
		return fmt.Errorf("%w: %s", err, scope)
	}
	if previous == "" {
		return nil
	}

	slog.Debug("cleared results of previous scope", "previous", previous, "scope", scope)
	return c.Clear(ownerID, previous)
}

// Clear empties a scope of the user's session.
func (c *SearchCoordinator) Clear(ownerID snowflake.ID, scope domain.SourceID) error {
	session := c.sessions.Get(ownerID)
	if session == nil {
		return nil
	}
	return session.Clear(scope)
}

// ListInfo returns a snapshot of a scope of the user's session.
func (c *SearchCoordinator) ListInfo(ownerID snowflake.ID, scope domain.SourceID) (domain.ListInfo, error) {
	li, ok := c.session(ownerID).Snapshot(scope)
	if !ok {
		return domain.ListInfo{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, scope)
	}
	return li, nil
}

func (c *SearchCoordinator) session(ownerID snowflake.ID) *domain.SearchSession {
	return c.sessions.GetOrCreate(ownerID, func() *domain.SearchSession {
		return domain.NewSearchSession(ownerID, c.catalog.IDs(), c.limit)
	})
}

func (c *SearchCoordinator) discard(ticket domain.SearchTicket) *SearchOutput {
	slog.Debug("discarded stale search result",
		"scope", ticket.Query.Scope,
		"key", ticket.Query.Key(),
	)
	c.recorder.RecordSearch(ticket.Query.Scope, ports.OutcomeStale)
	return &SearchOutput{
		Scope:  ticket.Query.Scope,
		Tracks: []*domain.Track{},
		Page:   ticket.Query.Page,
		Limit:  ticket.Limit,
	}
}

func (c *SearchCoordinator) recordCommit(scope domain.SourceID, tracks []*domain.Track) {
	if len(tracks) == 0 {
		c.recorder.RecordSearch(scope, ports.OutcomeEmpty)
		return
	}
	c.recorder.RecordSearch(scope, ports.OutcomeCommitted)
}

func (c *SearchCoordinator) output(
	session *domain.SearchSession,
	ticket domain.SearchTicket,
	tracks []*domain.Track,
	pages []*domain.Page,
	cached bool,
) *SearchOutput {
	out := &SearchOutput{
		Scope:  ticket.Query.Scope,
		Tracks: tracks,
		Page:   ticket.Query.Page,
		Limit:  ticket.Limit,
		Pages:  pages,
		Cached: cached,
	}
	if li, ok := session.Snapshot(ticket.Query.Scope); ok {
		out.Total = li.Total
		out.MaxPage = li.MaxPage
		if cached {
			out.Pages = li.LastPages
		}
	}
	return out
}
