package domain

import (
	"math"
	"testing"
)

func TestStripHighlight(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<em>foo</em>bar", "foobar"},
		{`<em class="keyword">Lemon</em> cover`, "Lemon cover"},
		{"plain title", "plain title"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripHighlight(tt.input); got != tt.want {
			t.Errorf("StripHighlight(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"//img.example/x.jpg", "http://img.example/x.jpg"},
		{"https://img.example/x.jpg", "https://img.example/x.jpg"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := AbsoluteURL(tt.input); got != tt.want {
			t.Errorf("AbsoluteURL(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  *int
	}{
		{"nil", nil, nil},
		{"minutes clock", "3:45", intPtr(225)},
		{"hours clock", "1:02:03", intPtr(3723)},
		{"digits", "90", intPtr(90)},
		{"float seconds", float64(215), intPtr(215)},
		{"int seconds", 12, intPtr(12)},
		{"negative", -1, nil},
		{"garbage", "abc", nil},
		{"empty string", "", nil},
		{"NaN", math.NaN(), nil},
		{"unsupported type", []string{"1"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDurationSeconds(tt.input)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expected nil, got %d", *got)
			case tt.want != nil && got == nil:
				t.Errorf("expected %d, got nil", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("expected %d, got %d", *tt.want, *got)
			}
		})
	}
}

func TestStableID(t *testing.T) {
	a := StableID("bi", "title", "artist")
	b := StableID("bi", "title", "artist")
	if a != b {
		t.Errorf("expected identical ids, got %q and %q", a, b)
	}

	if a == StableID("bi", "titleartist") {
		t.Error("expected field boundaries to affect the id")
	}
	if a == StableID("yt", "title", "artist") {
		t.Error("expected source to affect the id")
	}
	if got := string(a[:3]); got != "bi_" {
		t.Errorf("expected id prefixed with source, got %q", a)
	}
}
