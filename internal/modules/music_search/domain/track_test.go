package domain

import "testing"

func intPtr(n int) *int { return &n }

func TestTrack_FormattedDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration *int
		want     string
	}{
		{"absent duration", nil, "--:--"},
		{"zero", intPtr(0), "00:00"},
		{"under a minute", intPtr(45), "00:45"},
		{"minutes and seconds", intPtr(3*60 + 5), "03:05"},
		{"with hours", intPtr(3600 + 2*60 + 3), "01:02:03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &Track{DurationSeconds: tt.duration}
			if got := track.FormattedDuration(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTrack_Key(t *testing.T) {
	track := &Track{ID: "BV1xx", SourceID: "bi"}
	if got := track.Key(); got != "bi:BV1xx" {
		t.Errorf("expected key %q, got %q", "bi:BV1xx", got)
	}
}

func TestTrack_Meta(t *testing.T) {
	track := &Track{}
	if got := track.Meta("bvid"); got != "" {
		t.Errorf("expected empty meta on nil map, got %q", got)
	}

	track.BackendMeta = map[string]string{"bvid": "BV1xx"}
	if got := track.Meta("bvid"); got != "BV1xx" {
		t.Errorf("expected %q, got %q", "BV1xx", got)
	}
}

func TestTrack_Qualities(t *testing.T) {
	track := &Track{}
	if got := track.DefaultQuality(); got != DefaultQuality {
		t.Errorf("expected default quality %q, got %q", DefaultQuality, got)
	}
	if !track.HasQuality("flac") {
		t.Error("expected a track without qualities to accept any tier")
	}

	track.Qualities = []QualityOption{{Type: "320k"}, {Type: "128k"}}
	if got := track.DefaultQuality(); got != "320k" {
		t.Errorf("expected first quality %q, got %q", "320k", got)
	}
	if !track.HasQuality("128k") {
		t.Error("expected track to have 128k")
	}
	if track.HasQuality("flac") {
		t.Error("expected track not to have flac")
	}
}

func TestSourceDescriptor_Supports(t *testing.T) {
	d := SourceDescriptor{ID: "bi", Actions: []string{ActionSearchMusic}}

	if !d.Supports(ActionSearchMusic) {
		t.Error("expected searchMusic to be supported")
	}
	if d.Supports(ActionMusicURL) {
		t.Error("expected musicUrl to be unsupported")
	}
	if got := d.DefaultQuality(); got != DefaultQuality {
		t.Errorf("expected %q, got %q", DefaultQuality, got)
	}
}

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		input string
		want  SourceID
	}{
		{"", ScopeAll},
		{"  ", ScopeAll},
		{"all", ScopeAll},
		{"BI", "bi"},
		{" yt ", "yt"},
	}

	for _, tt := range tests {
		if got := ParseSourceID(tt.input); got != tt.want {
			t.Errorf("ParseSourceID(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}
