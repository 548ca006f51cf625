package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// SearchSessionRepository defines the interface for storing search sessions per user.
type SearchSessionRepository interface {
	// Get returns the session of the given user, or nil if not exists.
	Get(ownerID snowflake.ID) *SearchSession

	// GetOrCreate returns the session of the given user, storing the result of create if none exists.
	GetOrCreate(ownerID snowflake.ID, create func() *SearchSession) *SearchSession
}
