package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/sglre6355/sgrsearch/internal/modules/music_search/domain"
)

func TestResolveService_ResolveURL(t *testing.T) {
	tests := []struct {
		name        string
		trackKey    string
		quality     string
		actions     []string
		resolveErr  error
		wantErr     error
		wantURL     string
		wantQuality string
	}{
		{
			name:        "resolves with default quality",
			trackKey:    "bi:1",
			actions:     []string{domain.ActionSearchMusic, domain.ActionMusicURL},
			wantURL:     "https://cdn.example/1.m4a",
			wantQuality: domain.DefaultQuality,
		},
		{
			name:        "passes requested quality",
			trackKey:    "bi:1",
			quality:     "320k",
			actions:     []string{domain.ActionSearchMusic, domain.ActionMusicURL},
			wantURL:     "https://cdn.example/1.m4a",
			wantQuality: "320k",
		},
		{
			name:     "rejects quality the track does not list",
			trackKey: "bi:1",
			quality:  "flac",
			actions:  []string{domain.ActionSearchMusic, domain.ActionMusicURL},
			wantErr:  domain.ErrUnsupportedQuality,
		},
		{
			name:     "unknown track",
			trackKey: "bi:404",
			actions:  []string{domain.ActionSearchMusic, domain.ActionMusicURL},
			wantErr:  domain.ErrTrackNotFound,
		},
		{
			name:     "source without musicUrl",
			trackKey: "bi:1",
			actions:  []string{domain.ActionSearchMusic},
			wantErr:  domain.ErrUnsupportedAction,
		},
		{
			name:       "backend failure",
			trackKey:   "bi:1",
			actions:    []string{domain.ActionSearchMusic, domain.ActionMusicURL},
			resolveErr: domain.ErrNoPlayableURL,
			wantErr:    domain.ErrNoPlayableURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bi := newMockSource("bi", mockTrack("bi", "1"))
			bi.actions = tt.actions
			bi.resolveURL = "https://cdn.example/1.m4a"
			bi.resolveErr = tt.resolveErr

			coordinator, repo, _ := newTestCoordinator(bi)
			if _, err := coordinator.Search(context.Background(), SearchInput{
				OwnerID: testOwner, Text: "lemon", Page: 1, Scope: "bi",
			}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			service := NewResolveService(coordinator.catalog, repo)
			output, err := service.ResolveURL(context.Background(), ResolveURLInput{
				OwnerID:  testOwner,
				TrackKey: tt.trackKey,
				Quality:  tt.quality,
			})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				if errors.Is(err, domain.ErrUnsupportedQuality) && bi.lastQuality != "" {
					t.Errorf("expected backend not to be asked, got quality %q", bi.lastQuality)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if output.URL != tt.wantURL {
				t.Errorf("expected URL %q, got %q", tt.wantURL, output.URL)
			}
			if output.Quality != tt.wantQuality || bi.lastQuality != tt.wantQuality {
				t.Errorf("expected quality %q, got %q (backend saw %q)",
					tt.wantQuality, output.Quality, bi.lastQuality)
			}
		})
	}
}

func TestResolveService_ResolveURL_NoSession(t *testing.T) {
	bi := newMockSource("bi")
	coordinator, repo, _ := newTestCoordinator(bi)
	service := NewResolveService(coordinator.catalog, repo)

	_, err := service.ResolveURL(context.Background(), ResolveURLInput{
		OwnerID:  testOwner,
		TrackKey: "bi:1",
	})
	if !errors.Is(err, domain.ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}
