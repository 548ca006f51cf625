package domain

import (
	"strconv"
	"strings"
)

// SearchQuery represents one search issued against a scope.
type SearchQuery struct {
	Text  string   // The search term
	Page  int      // 1-based page number
	Scope SourceID // A backend or ScopeAll
}

// NewSearchQuery creates a SearchQuery from user input.
// Pages below 1 are treated as the first page and an empty scope selects ScopeAll.
func NewSearchQuery(text string, page int, scope SourceID) SearchQuery {
	if page < 1 {
		page = 1
	}
	if scope == "" {
		scope = ScopeAll
	}

	return SearchQuery{
		Text:  strings.TrimSpace(text),
		Page:  page,
		Scope: scope,
	}
}

// Key returns the canonical query key used to memoize results for a scope.
func (q SearchQuery) Key() string {
	return strconv.Itoa(q.Page) + "__" + q.Text
}

// IsValid returns true if the query has text to search for.
func (q SearchQuery) IsValid() bool {
	return q.Text != ""
}
