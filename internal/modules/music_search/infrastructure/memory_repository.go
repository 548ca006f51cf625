package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrsearch/internal/metrics"
	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

// Compile-time check that MemoryRepository implements domain.SearchSessionRepository.
var _ domain.SearchSessionRepository = (*MemoryRepository)(nil)

type sessionEntry struct {
	session  *domain.SearchSession
	lastUsed time.Time
}

// MemoryRepository is an in-memory implementation of SearchSessionRepository.
// Sessions not accessed for longer than the idle timeout are evicted by Run.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*sessionEntry
	now      func() time.Time
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[snowflake.ID]*sessionEntry),
		now:      time.Now,
	}
}

// Get returns the session of the given user, or nil if not exists.
func (r *MemoryRepository) Get(ownerID snowflake.ID) *domain.SearchSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[ownerID]
	if !ok {
		return nil
	}
	entry.lastUsed = r.now()
	return entry.session
}

// GetOrCreate returns the session of the given user, storing the result of create if none exists.
func (r *MemoryRepository) GetOrCreate(
	ownerID snowflake.ID,
	create func() *domain.SearchSession,
) *domain.SearchSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.sessions[ownerID]; ok {
		entry.lastUsed = r.now()
		return entry.session
	}

	session := create()
	r.sessions[ownerID] = &sessionEntry{session: session, lastUsed: r.now()}
	metrics.SearchSessions.Set(float64(len(r.sessions)))
	return session
}

// Count returns the number of stored sessions.
func (r *MemoryRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle deletes every session not accessed within maxIdle and returns how many were removed.
func (r *MemoryRepository) EvictIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxIdle)
	evicted := 0
	for ownerID, entry := range r.sessions {
		if entry.lastUsed.Before(cutoff) {
			delete(r.sessions, ownerID)
			evicted++
		}
	}
	metrics.SearchSessions.Set(float64(len(r.sessions)))
	return evicted
}

// Run evicts idle sessions every interval until ctx is done.
func (r *MemoryRepository) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictIdle(maxIdle); n > 0 {
				slog.Debug("evicted idle search sessions", "count", n, "remaining", r.Count())
			}
		}
	}
}
