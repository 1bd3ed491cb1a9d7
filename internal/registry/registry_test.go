/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundoff/internal/collab"
	"soundoff/internal/model"
	"soundoff/internal/playback"
	"soundoff/internal/room"
)

type fakeSearcher struct{}

func (fakeSearcher) SearchScraper(ctx context.Context, query string) (string, bool, error) {
	return "", false, nil
}
func (fakeSearcher) SearchOfficial(ctx context.Context, query string) (string, bool, error) {
	return "", false, nil
}

type fakeStore struct {
	rooms map[string]model.Snapshot
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[string]model.Snapshot)}
}

func (s *fakeStore) SaveRoom(ctx context.Context, code string, snapshot model.Snapshot) error {
	s.rooms[code] = snapshot
	return nil
}

func (s *fakeStore) LoadRoom(ctx context.Context, code string) (model.Snapshot, bool, error) {
	snap, ok := s.rooms[code]
	return snap, ok, nil
}

func (s *fakeStore) DeleteRoom(ctx context.Context, code string) error {
	delete(s.rooms, code)
	return nil
}

func (s *fakeStore) IncrementLeaderboard(ctx context.Context, userID, name string, delta int) error {
	return nil
}

func (s *fakeStore) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error) {
	return nil, nil
}

func (s *fakeStore) AppendRecentPlaylist(ctx context.Context, userID string, entry model.PlaylistHistoryEntry) error {
	return nil
}

func (s *fakeStore) GetRecentPlaylists(ctx context.Context, userID string) ([]model.PlaylistHistoryEntry, error) {
	return nil, nil
}

func testDeps(store collab.Store) room.Deps {
	return room.Deps{
		Resolver: playback.NewResolver(fakeSearcher{}, playback.DefaultConfig()),
		Store:    store,
	}
}

func TestCreateAssignsUniqueCode(t *testing.T) {
	reg := New(testDeps(nil))

	h1, err := reg.Create(context.Background(), "host-1")
	require.NoError(t, err)
	h2, err := reg.Create(context.Background(), "host-2")
	require.NoError(t, err)

	assert.NotEqual(t, h1.Code(), h2.Code())
	t.Cleanup(h1.Stop)
	t.Cleanup(h2.Stop)
}

func TestGetHitsInMemoryCache(t *testing.T) {
	reg := New(testDeps(nil))
	hub, err := reg.Create(context.Background(), "host-1")
	require.NoError(t, err)
	t.Cleanup(hub.Stop)

	got, ok, err := reg.Get(context.Background(), hub.Code())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, hub, got)
}

func TestGetMissReturnsNotOK(t *testing.T) {
	reg := New(testDeps(newFakeStore()))

	_, ok, err := reg.Get(context.Background(), "NOSUCH")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetLoadsThroughStoreOnMiss(t *testing.T) {
	store := newFakeStore()
	store.rooms["LOADED"] = model.Snapshot{
		Code:       "LOADED",
		HostUserID: "host-uid",
		Players:    map[string]model.PlayerRow{},
	}

	reg := New(testDeps(store))

	hub, ok, err := reg.Get(context.Background(), "LOADED")
	require.NoError(t, err)
	require.True(t, ok)
	t.Cleanup(hub.Stop)
	assert.Equal(t, "LOADED", hub.Code())
}

func TestRemoveEvictsAfterRoomEmpties(t *testing.T) {
	reg := New(testDeps(nil))
	hub, err := reg.Create(context.Background(), "host-1")
	require.NoError(t, err)

	sendCh := make(chan room.Event, 8)
	_, joinErr := hub.JoinRoom("host-1", sendCh, "Host", "host-uid", "")
	require.Nil(t, joinErr)

	hub.Disconnect("host-1")

	_, ok, err := reg.Get(context.Background(), hub.Code())
	require.NoError(t, err)
	assert.False(t, ok)
}
