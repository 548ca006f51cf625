package domain

import (
	"slices"
	"strings"
)

// SourceID identifies a search backend, or the aggregate scope.
type SourceID string

// ScopeAll is the synthetic scope that fans a search out to every backend.
const ScopeAll SourceID = "all"

// IsAggregate reports whether the ID names the aggregate scope.
func (id SourceID) IsAggregate() bool {
	return id == ScopeAll
}

// ParseSourceID converts user input to a SourceID. Empty input selects the aggregate scope.
func ParseSourceID(name string) SourceID {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ScopeAll
	}
	return SourceID(name)
}

// Actions a source may support.
const (
	ActionSearchMusic = "searchMusic"
	ActionMusicURL    = "musicUrl"
)

// SourceDescriptor describes a backend and the actions it supports.
type SourceDescriptor struct {
	ID        SourceID
	Name      string
	Actions   []string
	Qualities []string
}

// Supports reports whether the source handles the given action.
func (d SourceDescriptor) Supports(action string) bool {
	return slices.Contains(d.Actions, action)
}

// DefaultQuality returns the first advertised quality tier.
func (d SourceDescriptor) DefaultQuality() string {
	if len(d.Qualities) == 0 {
		return DefaultQuality
	}
	return d.Qualities[0]
}
