/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundoff/internal/model"
)

type fakeSearcher struct {
	scraperVideoID string
	scraperFound   bool
	scraperErr     error

	officialVideoID string
	officialFound   bool
	officialErr     error

	scraperCalls  int
	officialCalls int
}

func (f *fakeSearcher) SearchScraper(ctx context.Context, query string) (string, bool, error) {
	f.scraperCalls++
	return f.scraperVideoID, f.scraperFound, f.scraperErr
}

func (f *fakeSearcher) SearchOfficial(ctx context.Context, query string) (string, bool, error) {
	f.officialCalls++
	return f.officialVideoID, f.officialFound, f.officialErr
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SearchTimeout = time.Second
	cfg.BreakerThreshold = 2
	cfg.BreakerCooldown = time.Hour
	return cfg
}

func TestResolveCatalogPreviewPrefersVideoID(t *testing.T) {
	r := NewResolver(&fakeSearcher{}, testConfig())
	track := model.Track{Title: "A", Artist: "B", VideoID: "v1", PreviewURL: "p1"}

	pb := r.Resolve(context.Background(), track, model.ModeCatalogPreview)

	assert.Equal(t, model.PlaybackVideo, pb.Type)
	assert.Equal(t, "v1", pb.VideoID)
}

func TestResolveCatalogPreviewFallsBackToPreviewURL(t *testing.T) {
	r := NewResolver(&fakeSearcher{}, testConfig())
	track := model.Track{Title: "A", Artist: "B", PreviewURL: "p1", Cover: "c1"}

	pb := r.Resolve(context.Background(), track, model.ModeCatalogPreview)

	assert.Equal(t, model.PlaybackAudio, pb.Type)
	assert.Equal(t, "p1", pb.PreviewURL)
	assert.Equal(t, "c1", pb.Cover)
}

func TestResolveCatalogPreviewSearchesScraperAsLastResort(t *testing.T) {
	fs := &fakeSearcher{scraperVideoID: "sv1", scraperFound: true}
	r := NewResolver(fs, testConfig())
	track := model.Track{Title: "A", Artist: "B"}

	pb := r.Resolve(context.Background(), track, model.ModeCatalogPreview)

	assert.Equal(t, model.PlaybackVideo, pb.Type)
	assert.Equal(t, "sv1", pb.VideoID)
	assert.Equal(t, 1, fs.scraperCalls)
	assert.Equal(t, 0, fs.officialCalls)
}

func TestResolveReturnsNoneWhenNothingMatches(t *testing.T) {
	r := NewResolver(&fakeSearcher{}, testConfig())
	track := model.Track{Title: "A", Artist: "B"}

	pb := r.Resolve(context.Background(), track, model.ModeCatalogPreview)

	assert.Equal(t, model.PlaybackNone, pb.Type)
}

func TestResolveVideoSiteUsesExistingSourceID(t *testing.T) {
	r := NewResolver(&fakeSearcher{}, testConfig())
	track := model.Track{Title: "A", Artist: "B", VideoID: "v1", Source: string(model.ModeVideoSite)}

	pb := r.Resolve(context.Background(), track, model.ModeVideoSite)

	assert.Equal(t, model.PlaybackVideo, pb.Type)
	assert.Equal(t, "v1", pb.VideoID)
}

func TestResolveVideoSiteFallsBackToOfficialAfterScraperMiss(t *testing.T) {
	fs := &fakeSearcher{officialVideoID: "ov1", officialFound: true}
	r := NewResolver(fs, testConfig())
	track := model.Track{Title: "A", Artist: "B"}

	pb := r.Resolve(context.Background(), track, model.ModeVideoSite)

	assert.Equal(t, model.PlaybackVideo, pb.Type)
	assert.Equal(t, "ov1", pb.VideoID)
	assert.Equal(t, 1, fs.scraperCalls)
	assert.Equal(t, 1, fs.officialCalls)
}

func TestBreakerTripsOnRepeatedQuotaFailures(t *testing.T) {
	fs := &fakeSearcher{officialErr: &QuotaError{Err: errors.New("quota")}}
	r := NewResolver(fs, testConfig())
	track := model.Track{Title: "A", Artist: "B"}

	require.False(t, r.IsSearchDown())

	// BreakerThreshold is 2 consecutive failures.
	r.Resolve(context.Background(), track, model.ModeVideoSite)
	r.Resolve(context.Background(), track, model.ModeVideoSite)

	assert.True(t, r.IsSearchDown())

	// Once tripped, the official API must not be called again until the
	// breaker's cooldown elapses.
	callsBefore := fs.officialCalls
	pb := r.Resolve(context.Background(), track, model.ModeVideoSite)
	assert.Equal(t, model.PlaybackNone, pb.Type)
	assert.Equal(t, callsBefore, fs.officialCalls)
}

func TestBreakerDoesNotTripOnNonQuotaErrors(t *testing.T) {
	fs := &fakeSearcher{officialErr: errors.New("transient 500")}
	r := NewResolver(fs, testConfig())
	track := model.Track{Title: "A", Artist: "B"}

	for i := 0; i < 5; i++ {
		r.Resolve(context.Background(), track, model.ModeVideoSite)
	}

	assert.False(t, r.IsSearchDown())
}
