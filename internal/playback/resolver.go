/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package playback resolves a Track into a playable handle, trying a
// track's pre-resolved fields first and falling back to catalog/video-site
// search, with a circuit breaker guarding the quota-limited official API.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"soundoff/internal/model"
)

// Searcher is the outbound search capability the resolver falls back to
// when a track has no pre-resolved playback fields. Two distinct methods
// model the two collaborators spec.md §4.2 describes: a quota-free scraper
// (preferred) and the quota-limited official search API.
type Searcher interface {
	SearchScraper(ctx context.Context, query string) (videoID string, found bool, err error)
	SearchOfficial(ctx context.Context, query string) (videoID string, found bool, err error)
}

// QuotaError is returned by a Searcher when the official API rejected a
// call for exceeding its quota; the resolver trips the breaker on it.
type QuotaError struct{ Err error }

func (e *QuotaError) Error() string { return fmt.Sprintf("search quota exceeded: %v", e.Err) }
func (e *QuotaError) Unwrap() error { return e.Err }

// Resolver implements spec.md §4.2's resolution policy.
type Resolver struct {
	searcher      Searcher
	breaker       *gobreaker.CircuitBreaker[string]
	searchTimeout time.Duration
}

// Config tunes the resolver's circuit breaker and outbound timeout.
type Config struct {
	SearchTimeout    time.Duration
	BreakerCooldown  time.Duration
	BreakerThreshold uint32 // consecutive quota failures before tripping
}

func DefaultConfig() Config {
	return Config{
		SearchTimeout:    5 * time.Second,
		BreakerCooldown:  3 * time.Hour,
		BreakerThreshold: 3,
	}
}

// NewResolver builds a Resolver backed by searcher, with a process-wide
// circuit breaker over the official search API.
func NewResolver(searcher Searcher, cfg Config) *Resolver {
	settings := gobreaker.Settings{
		Name:    "official-search",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		// Only quota-exceeded failures count against the breaker; other
		// upstream errors (timeouts, 5xx) are swallowed per spec.md §7 but
		// must not themselves suppress future official-API calls.
		IsSuccessful: func(err error) bool {
			var quotaErr *QuotaError
			return err == nil || !errors.As(err, &quotaErr)
		},
	}

	return &Resolver{
		searcher:      searcher,
		breaker:       gobreaker.NewCircuitBreaker[string](settings),
		searchTimeout: cfg.SearchTimeout,
	}
}

// IsSearchDown reports whether the official-API circuit breaker is
// currently open (tripped by quota exhaustion). Once the cooldown elapses
// the breaker is half-open and this reports false, so the next official
// search probes the API again.
func (r *Resolver) IsSearchDown() bool {
	return r.breaker.State() == gobreaker.StateOpen
}

// Resolve returns a playable handle for track under mode, or
// model.PlaybackNone if no source yields one. It never returns an error:
// upstream failures are swallowed per spec.md §7, and the caller (the room
// engine) treats a "none" result as "skip this track."
func (r *Resolver) Resolve(ctx context.Context, track model.Track, mode model.Mode) model.Playback {
	switch mode {
	case model.ModeCatalogPreview:
		return r.resolveCatalogPreview(ctx, track)
	case model.ModeVideoSite:
		return r.resolveVideoSite(ctx, track)
	default:
		return model.Playback{Type: model.PlaybackNone}
	}
}

func (r *Resolver) resolveCatalogPreview(ctx context.Context, track model.Track) model.Playback {
	if track.VideoID != "" {
		return model.Playback{Type: model.PlaybackVideo, VideoID: track.VideoID}
	}
	if track.PreviewURL != "" {
		return model.Playback{Type: model.PlaybackAudio, PreviewURL: track.PreviewURL, Cover: track.Cover}
	}

	query := searchQuery(track)
	if videoID, ok := r.searchScraper(ctx, query); ok {
		return model.Playback{Type: model.PlaybackVideo, VideoID: videoID}
	}

	return model.Playback{Type: model.PlaybackNone}
}

func (r *Resolver) resolveVideoSite(ctx context.Context, track model.Track) model.Playback {
	if track.Source == string(model.ModeVideoSite) && track.VideoID != "" {
		return model.Playback{Type: model.PlaybackVideo, VideoID: track.VideoID}
	}

	query := searchQuery(track)

	if videoID, ok := r.searchScraper(ctx, query); ok {
		return model.Playback{Type: model.PlaybackVideo, VideoID: videoID}
	}

	if videoID, ok := r.searchOfficial(ctx, query); ok {
		return model.Playback{Type: model.PlaybackVideo, VideoID: videoID}
	}

	return model.Playback{Type: model.PlaybackNone}
}

func (r *Resolver) searchScraper(ctx context.Context, query string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()

	videoID, found, err := r.searcher.SearchScraper(ctx, query)
	if err != nil || !found {
		return "", false
	}
	return videoID, true
}

func (r *Resolver) searchOfficial(ctx context.Context, query string) (string, bool) {
	if r.IsSearchDown() {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()

	videoID, err := r.breaker.Execute(func() (string, error) {
		videoID, found, err := r.searcher.SearchOfficial(ctx, query)
		if err != nil {
			return "", err
		}
		if !found {
			return "", nil
		}
		return videoID, nil
	})
	if err != nil || videoID == "" {
		return "", false
	}
	return videoID, true
}

func searchQuery(track model.Track) string {
	return track.Title + " " + track.Artist
}
