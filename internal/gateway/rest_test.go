/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundoff/internal/collab"
	"soundoff/internal/model"
	"soundoff/internal/playback"
	"soundoff/internal/registry"
	"soundoff/internal/room"
)

type fakePlaylistProvider struct {
	result collab.PlaylistResult
	err    error
}

func (p fakePlaylistProvider) ParsePlaylist(ctx context.Context, url string, songCount int) (collab.PlaylistResult, error) {
	return p.result, p.err
}

type fakeVerifier struct {
	userID string
	ok     bool
}

func (v fakeVerifier) Verify(ctx context.Context, token string) (string, string, bool) {
	return v.userID, "", v.ok
}

type fakeStore struct {
	leaderboard []model.LeaderboardRow
	history     []model.PlaylistHistoryEntry
}

func (s *fakeStore) SaveRoom(ctx context.Context, code string, snapshot model.Snapshot) error {
	return nil
}
func (s *fakeStore) LoadRoom(ctx context.Context, code string) (model.Snapshot, bool, error) {
	return model.Snapshot{}, false, nil
}
func (s *fakeStore) DeleteRoom(ctx context.Context, code string) error { return nil }
func (s *fakeStore) IncrementLeaderboard(ctx context.Context, userID, name string, delta int) error {
	return nil
}
func (s *fakeStore) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error) {
	return s.leaderboard, nil
}
func (s *fakeStore) AppendRecentPlaylist(ctx context.Context, userID string, entry model.PlaylistHistoryEntry) error {
	s.history = append(s.history, entry)
	return nil
}
func (s *fakeStore) GetRecentPlaylists(ctx context.Context, userID string) ([]model.PlaylistHistoryEntry, error) {
	return s.history, nil
}

type nullSearcher struct{}

func (nullSearcher) SearchScraper(ctx context.Context, query string) (string, bool, error) {
	return "", false, nil
}
func (nullSearcher) SearchOfficial(ctx context.Context, query string) (string, bool, error) {
	return "", false, nil
}

func newTestGateway(playlist collab.PlaylistProvider, verifier collab.TokenVerifier, store collab.Store) *Gateway {
	reg := registry.New(room.Deps{
		Resolver: playback.NewResolver(nullSearcher{}, playback.DefaultConfig()),
		Store:    store,
	})
	return New(Config{}, reg, store, verifier, playlist, nil)
}

func TestServeParsePlaylistReturnsTracks(t *testing.T) {
	provider := fakePlaylistProvider{result: collab.PlaylistResult{
		Source:       "catalog-preview",
		PlaylistID:   "abc",
		PlaylistName: "Road Trip",
		Total:        2,
		Playable:     2,
		Tracks: []model.Track{
			{ID: "1", Title: "A", Artist: "B"},
		},
	}}
	gw := newTestGateway(provider, nil, nil)

	body, _ := json.Marshal(parsePlaylistRequest{URL: "https://catalog-preview.example/playlists/abc"})
	req := httptest.NewRequest("POST", "/api/parse-playlist", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	gw.serveParsePlaylist(rec, req, httprouter.Params{})

	require.Equal(t, 200, rec.Code)

	var resp parsePlaylistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Road Trip", resp.PlaylistName)
	assert.Equal(t, 2, resp.Playable)
}

func TestServeParsePlaylistMissingURL(t *testing.T) {
	gw := newTestGateway(fakePlaylistProvider{}, nil, nil)

	body, _ := json.Marshal(parsePlaylistRequest{})
	req := httptest.NewRequest("POST", "/api/parse-playlist", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	gw.serveParsePlaylist(rec, req, httprouter.Params{})

	assert.Equal(t, 400, rec.Code)
}

func TestServeParsePlaylistAppendsHistoryWithToken(t *testing.T) {
	provider := fakePlaylistProvider{result: collab.PlaylistResult{Source: "catalog-preview", PlaylistName: "Mix"}}
	verifier := fakeVerifier{userID: "user-1", ok: true}
	store := &fakeStore{}
	gw := newTestGateway(provider, verifier, store)

	body, _ := json.Marshal(parsePlaylistRequest{URL: "https://catalog-preview.example/playlists/abc", Token: "tok"})
	req := httptest.NewRequest("POST", "/api/parse-playlist", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	gw.serveParsePlaylist(rec, req, httprouter.Params{})

	require.Equal(t, 200, rec.Code)
	var resp parsePlaylistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.UpdatedHistory, 1)
	assert.Equal(t, "Mix", resp.UpdatedHistory[0].Name)
}

func TestServeLeaderboardReturnsRows(t *testing.T) {
	store := &fakeStore{leaderboard: []model.LeaderboardRow{{UserID: "u1", Name: "Alice", Score: 40}}}
	gw := newTestGateway(nil, nil, store)

	req := httptest.NewRequest("GET", "/api/leaderboard", nil)
	rec := httptest.NewRecorder()

	gw.serveLeaderboard(rec, req, httprouter.Params{})

	require.Equal(t, 200, rec.Code)
	var rows []model.LeaderboardRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].Name)
}

func TestServePlaylistHistoryRequiresToken(t *testing.T) {
	gw := newTestGateway(nil, fakeVerifier{ok: true}, &fakeStore{})

	req := httptest.NewRequest("GET", "/api/playlist-history", nil)
	rec := httptest.NewRecorder()

	gw.servePlaylistHistory(rec, req, httprouter.Params{})

	assert.Equal(t, 401, rec.Code)
}
