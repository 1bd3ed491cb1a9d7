/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package catalog implements collab.PlaylistProvider and playback.Searcher
// against a generic catalog-preview HTTP API and a video-site search API,
// using go-resty/resty/v2 for outbound calls.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"soundoff/internal/collab"
	"soundoff/internal/model"
	"soundoff/internal/playback"
)

// Config holds the credentials and endpoints the provider needs.
type Config struct {
	CatalogBaseURL string
	CatalogAPIKey  string
	VideoAPIKey    string
	Timeout        time.Duration
}

// RestyProvider is the reference PlaylistProvider/Searcher implementation.
// It satisfies both collab.PlaylistProvider (used by the /api/parse-playlist
// REST handler) and playback.Searcher (used by the resolver's fallback
// paths) without importing either package's interface type directly — Go
// interfaces are structural, so one concrete type can serve both roles.
type RestyProvider struct {
	cfg    Config
	client *resty.Client
	tokens *playback.TokenCache
}

// NewRestyProvider builds a RestyProvider. tokens may be shared across
// providers; passing nil disables token caching (the official search call
// then uses the configured video API key directly). The scraper search
// sends no token either way.
func NewRestyProvider(cfg Config, tokens *playback.TokenCache) *RestyProvider {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(1)

	return &RestyProvider{cfg: cfg, client: client, tokens: tokens}
}

// ParsePlaylist resolves an externally-provided playlist URL into its
// source catalog, id, name, and track list.
func (p *RestyProvider) ParsePlaylist(ctx context.Context, rawURL string, songCount int) (collab.PlaylistResult, error) {
	source, playlistID, err := classifyPlaylistURL(rawURL)
	if err != nil {
		return collab.PlaylistResult{}, err
	}

	var payload struct {
		Name   string `json:"name"`
		Tracks []struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			Artist     string `json:"artist"`
			PreviewURL string `json:"previewUrl"`
			VideoID    string `json:"videoId"`
			Cover      string `json:"cover"`
		} `json:"tracks"`
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+p.cfg.CatalogAPIKey).
		SetQueryParam("playlistId", playlistID).
		SetQueryParam("limit", fmt.Sprintf("%d", songCount)).
		SetResult(&payload).
		Get(p.cfg.CatalogBaseURL + "/playlists/" + playlistID)
	if err != nil {
		return collab.PlaylistResult{}, fmt.Errorf("catalog: parse playlist: %w", err)
	}
	if resp.IsError() {
		return collab.PlaylistResult{}, fmt.Errorf("catalog: parse playlist: upstream status %d", resp.StatusCode())
	}

	tracks := make([]model.Track, 0, len(payload.Tracks))
	playable := 0
	for _, t := range payload.Tracks {
		track := model.Track{
			ID:         t.ID,
			Title:      t.Title,
			Artist:     t.Artist,
			PreviewURL: t.PreviewURL,
			VideoID:    t.VideoID,
			Cover:      t.Cover,
			Source:     source,
		}
		if track.PreviewURL != "" || track.VideoID != "" {
			playable++
		}
		tracks = append(tracks, track)
	}

	return collab.PlaylistResult{
		Source:       source,
		PlaylistID:   playlistID,
		PlaylistName: payload.Name,
		Total:        len(tracks),
		Playable:     playable,
		Tracks:       tracks,
	}, nil
}

// SearchScraper implements playback.Searcher's quota-free path.
func (p *RestyProvider) SearchScraper(ctx context.Context, query string) (string, bool, error) {
	var payload struct {
		VideoID string `json:"videoId"`
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&payload).
		Get(p.cfg.CatalogBaseURL + "/scrape/search")
	if err != nil {
		return "", false, fmt.Errorf("catalog: scraper search: %w", err)
	}
	if resp.IsError() {
		return "", false, fmt.Errorf("catalog: scraper search: upstream status %d", resp.StatusCode())
	}
	if payload.VideoID == "" {
		return "", false, nil
	}

	return payload.VideoID, true, nil
}

// SearchOfficial implements playback.Searcher's quota-limited path against
// the video-site's official search API.
func (p *RestyProvider) SearchOfficial(ctx context.Context, query string) (string, bool, error) {
	token, err := p.officialToken()
	if err != nil {
		return "", false, err
	}

	var payload struct {
		Items []struct {
			VideoID string `json:"videoId"`
		} `json:"items"`
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetQueryParam("q", query).
		SetResult(&payload).
		Get("https://video-site.example/api/v1/search")
	if err != nil {
		return "", false, fmt.Errorf("catalog: official search: %w", err)
	}
	if resp.StatusCode() == 429 {
		return "", false, &playback.QuotaError{Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if resp.IsError() {
		return "", false, fmt.Errorf("catalog: official search: upstream status %d", resp.StatusCode())
	}
	if len(payload.Items) == 0 {
		return "", false, nil
	}

	return payload.Items[0].VideoID, true, nil
}

func (p *RestyProvider) officialToken() (string, error) {
	if p.tokens == nil {
		return p.cfg.VideoAPIKey, nil
	}
	return p.tokens.Get("video-site", func() (string, time.Duration, error) {
		return p.cfg.VideoAPIKey, time.Hour, nil
	})
}

// classifyPlaylistURL recognizes which catalog a playlist URL belongs to
// and extracts its id. Unrecognized URLs are an input error (spec.md §6.1).
func classifyPlaylistURL(rawURL string) (source, playlistID string, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil || u.Host == "" {
		return "", "", fmt.Errorf("unrecognized playlist url")
	}

	host := strings.ToLower(u.Host)
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case strings.Contains(host, "catalog-preview"):
		if len(segments) < 2 {
			return "", "", fmt.Errorf("unrecognized playlist url")
		}
		return "catalog-preview", segments[len(segments)-1], nil
	case strings.Contains(host, "video-site"):
		if list := u.Query().Get("list"); list != "" {
			return "video-site", list, nil
		}
		if len(segments) < 2 {
			return "", "", fmt.Errorf("unrecognized playlist url")
		}
		return "video-site", segments[len(segments)-1], nil
	default:
		return "", "", fmt.Errorf("unrecognized playlist url")
	}
}
