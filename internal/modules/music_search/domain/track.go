package domain

import (
	"strconv"
)

// DefaultQuality is the quality tier every track offers when the backend lists none.
const DefaultQuality = "128k"

// TrackID is a backend-derived identifier, stable across repeated searches.
type TrackID string

// QualityOption is one available encoding of a track.
type QualityOption struct {
	Type string
	Size string // empty when unknown
}

// Track is the canonical search result record shared by every backend.
type Track struct {
	ID              TrackID
	Title           string
	Artist          string
	SourceID        SourceID
	DurationSeconds *int   // nil when the backend did not report a duration
	ArtworkURL      string // empty when absent, otherwise absolute
	PageURL         string // link to the track on its platform, if known
	Qualities       []QualityOption
	BackendMeta     map[string]string // opaque identifiers needed to resolve a play URL
}

// Key returns an identifier unique across backends.
func (t *Track) Key() string {
	return string(t.SourceID) + ":" + string(t.ID)
}

// Meta returns a backend identifier, or empty string if absent.
func (t *Track) Meta(key string) string {
	if t.BackendMeta == nil {
		return ""
	}
	return t.BackendMeta[key]
}

// DefaultQuality returns the first quality option of the track.
func (t *Track) DefaultQuality() string {
	if len(t.Qualities) == 0 || t.Qualities[0].Type == "" {
		return DefaultQuality
	}
	return t.Qualities[0].Type
}

// HasQuality reports whether the track lists the given quality tier.
// A track without quality information accepts any tier.
func (t *Track) HasQuality(quality string) bool {
	if len(t.Qualities) == 0 {
		return true
	}
	for _, q := range t.Qualities {
		if q.Type == quality {
			return true
		}
	}
	return false
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t *Track) FormattedDuration() string {
	if t.DurationSeconds == nil {
		return "--:--"
	}

	totalSeconds := *t.DurationSeconds
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return formatTime(hours, minutes, seconds)
	}
	return formatTimeShort(minutes, seconds)
}

func formatTime(hours, minutes, seconds int) string {
	return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
}

func formatTimeShort(minutes, seconds int) string {
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
