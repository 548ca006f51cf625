package domain

import (
	"maps"
	"slices"
)

// DefaultListLimit is the page size used for a scope unless configured otherwise.
const DefaultListLimit = 30

// ListInfo is the search state of one scope.
// CurrentKey and Generation change the moment a search starts;
// the remaining fields change only when a current search commits.
type ListInfo struct {
	CurrentKey   string
	CommittedKey string
	Generation   uint64
	Page         int
	Limit        int
	Total        int
	MaxPage      int
	Items        []*Track
	LastPages    []*Page          // backend pages of the latest commit, in configured order
	MaxPages     map[SourceID]int // per-backend page counts, aggregate scope only
}

func newListInfo(limit int) *ListInfo {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return &ListInfo{
		Page:  1,
		Limit: limit,
	}
}

// hasCached reports whether key was committed and is still the current key.
func (l *ListInfo) hasCached(key string) bool {
	return l.CurrentKey == key && l.CommittedKey == key && len(l.Items) > 0
}

// reset empties the list and invalidates any in-flight search.
func (l *ListInfo) reset() {
	l.CurrentKey = ""
	l.CommittedKey = ""
	l.Generation++
	l.Page = 1
	l.Total = 0
	l.MaxPage = 0
	l.Items = nil
	l.LastPages = nil
	l.MaxPages = nil
}

func (l *ListInfo) clone() ListInfo {
	c := *l
	c.Items = slices.Clone(l.Items)
	c.LastPages = slices.Clone(l.LastPages)
	if l.MaxPages != nil {
		c.MaxPages = maps.Clone(l.MaxPages)
	}
	return c
}

// appendUnique appends tracks to dst, skipping nil entries and tracks already present.
func appendUnique(dst []*Track, tracks []*Track) []*Track {
	seen := make(map[string]struct{}, len(dst)+len(tracks))
	out := make([]*Track, 0, len(dst)+len(tracks))
	for _, t := range dst {
		seen[t.Key()] = struct{}{}
		out = append(out, t)
	}
	for _, t := range tracks {
		if t == nil {
			continue
		}
		if _, ok := seen[t.Key()]; ok {
			continue
		}
		seen[t.Key()] = struct{}{}
		out = append(out, t)
	}
	return out
}
