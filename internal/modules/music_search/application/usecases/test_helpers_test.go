package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/application/ports"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

const testOwner = snowflake.ID(42)

func mockTrack(source domain.SourceID, id string) *domain.Track {
	return &domain.Track{
		ID:        domain.TrackID(id),
		Title:     "Track " + id,
		Artist:    "Artist",
		SourceID:  source,
		Qualities: []domain.QualityOption{{Type: domain.DefaultQuality}, {Type: "320k"}},
	}
}

type searchCall struct {
	keyword string
	page    int
	limit   int
}

type mockSource struct {
	id         domain.SourceID
	actions    []string
	searchFunc func(ctx context.Context, keyword string, page, limit int) (*domain.Page, error)
	resolveURL string
	resolveErr error

	mu          sync.Mutex
	calls       []searchCall
	lastQuality string
}

func newMockSource(id domain.SourceID, tracks ...*domain.Track) *mockSource {
	return &mockSource{
		id:      id,
		actions: []string{domain.ActionSearchMusic, domain.ActionMusicURL},
		searchFunc: func(_ context.Context, _ string, page, limit int) (*domain.Page, error) {
			return domain.NewPage(id, tracks, len(tracks), page, limit), nil
		},
	}
}

func (m *mockSource) ID() domain.SourceID { return m.id }

func (m *mockSource) Descriptor() domain.SourceDescriptor {
	return domain.SourceDescriptor{ID: m.id, Name: string(m.id), Actions: m.actions}
}

func (m *mockSource) Search(ctx context.Context, keyword string, page, limit int) (*domain.Page, error) {
	m.mu.Lock()
	m.calls = append(m.calls, searchCall{keyword: keyword, page: page, limit: limit})
	m.mu.Unlock()
	return m.searchFunc(ctx, keyword, page, limit)
}

func (m *mockSource) ResolveURL(_ context.Context, _ *domain.Track, quality string) (string, error) {
	m.mu.Lock()
	m.lastQuality = quality
	m.mu.Unlock()
	return m.resolveURL, m.resolveErr
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockSessionRepository struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*domain.SearchSession
}

func newMockSessionRepository() *mockSessionRepository {
	return &mockSessionRepository{
		sessions: make(map[snowflake.ID]*domain.SearchSession),
	}
}

func (m *mockSessionRepository) Get(ownerID snowflake.ID) *domain.SearchSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[ownerID]
}

func (m *mockSessionRepository) GetOrCreate(
	ownerID snowflake.ID,
	create func() *domain.SearchSession,
) *domain.SearchSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[ownerID]; ok {
		return s
	}
	s := create()
	m.sessions[ownerID] = s
	return s
}

type mockRecorder struct {
	mu       sync.Mutex
	outcomes []ports.SearchOutcome
	backend  map[domain.SourceID]int
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{backend: make(map[domain.SourceID]int)}
}

func (m *mockRecorder) RecordSearch(_ domain.SourceID, outcome ports.SearchOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockRecorder) RecordBackendCall(source domain.SourceID, _ error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backend[source]++
}

func (m *mockRecorder) last() ports.SearchOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outcomes) == 0 {
		return ""
	}
	return m.outcomes[len(m.outcomes)-1]
}

func newTestCoordinator(
	sources ...ports.Source,
) (*SearchCoordinator, *mockSessionRepository, *mockRecorder) {
	catalog, err := NewSourceCatalog(sources...)
	if err != nil {
		panic(err)
	}
	repo := newMockSessionRepository()
	recorder := newMockRecorder()
	return NewSearchCoordinator(catalog, repo, recorder, 30), repo, recorder
}

func newCatalogFromMocks(mocks []*mockSource) (*SourceCatalog, error) {
	sources := make([]ports.Source, len(mocks))
	for i, m := range mocks {
		sources[i] = m
	}
	return NewSourceCatalog(sources...)
}
