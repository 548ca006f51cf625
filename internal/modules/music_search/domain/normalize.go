package domain

import (
	"encoding/hex"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// highlightPattern matches the keyword highlight markup some backends wrap around titles.
var highlightPattern = regexp.MustCompile(`<em[^>]*>|</em>`)

// StripHighlight removes highlight markup from a title.
func StripHighlight(title string) string {
	return highlightPattern.ReplaceAllString(title, "")
}

// AbsoluteURL upgrades a scheme-relative URL to http. Empty input stays empty.
func AbsoluteURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasPrefix(u, "//") {
		return "http:" + u
	}
	return u
}

// ParseDurationSeconds converts a backend duration into whole seconds.
// It accepts numbers and "m:ss" or "h:mm:ss" strings. Anything else yields nil.
func ParseDurationSeconds(v any) *int {
	switch d := v.(type) {
	case nil:
		return nil
	case int:
		return nonNegative(d)
	case int64:
		return nonNegative(int(d))
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil
		}
		return nonNegative(int(d))
	case string:
		return parseClock(d)
	default:
		return nil
	}
}

func parseClock(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil
		}
		total = total*60 + n
	}
	return &total
}

func nonNegative(n int) *int {
	if n < 0 {
		return nil
	}
	return &n
}

// StableID derives a deterministic identifier from item fields,
// for backends that supply no native identifier.
func StableID(source SourceID, parts ...string) TrackID {
	h := fnv.New64a()
	_, _ = h.Write([]byte(source))
	for _, part := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(part))
	}
	return TrackID(string(source) + "_" + hex.EncodeToString(h.Sum(nil)))
}
