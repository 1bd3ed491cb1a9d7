package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundoff/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRoomRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snap := model.Snapshot{
		Code:       "ABCD",
		HostUserID: "user-1",
		Mode:       model.ModeCatalogPreview,
		GameType:   model.GameTypeText,
		UpdatedAt:  time.Now().Truncate(time.Second),
		Players:    map[string]model.PlayerRow{"user-1": {Name: "Alice", Score: 10}},
	}

	require.NoError(t, s.SaveRoom(ctx, "ABCD", snap))

	got, ok, err := s.LoadRoom(ctx, "ABCD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ABCD", got.Code)
	assert.Equal(t, "user-1", got.HostUserID)
	assert.Equal(t, 10, got.Players["user-1"].Score)
}

func TestLoadRoomMissingReturnsFalse(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.LoadRoom(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRoomRemovesSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRoom(ctx, "ABCD", model.Snapshot{Code: "ABCD"}))
	require.NoError(t, s.DeleteRoom(ctx, "ABCD"))

	_, ok, err := s.LoadRoom(ctx, "ABCD")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrementLeaderboardAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementLeaderboard(ctx, "user-1", "Alice", 10))
	require.NoError(t, s.IncrementLeaderboard(ctx, "user-1", "Alice", 5))

	rows, err := s.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 15, rows[0].Score)
}

func TestGetLeaderboardOrdersByScoreDescending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementLeaderboard(ctx, "user-1", "Alice", 5))
	require.NoError(t, s.IncrementLeaderboard(ctx, "user-2", "Bob", 20))

	rows, err := s.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "user-2", rows[0].UserID)
	assert.Equal(t, "user-1", rows[1].UserID)
}

func TestAppendRecentPlaylistDedupesAndCaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, s.AppendRecentPlaylist(ctx, "user-1", model.PlaylistHistoryEntry{
			URL:   "https://catalog-preview.example/playlist/" + string(rune('a'+i)),
			Name:  "list",
			Added: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := s.GetRecentPlaylists(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entries, 10)

	// Re-adding an existing URL should move it to the front, not duplicate it.
	require.NoError(t, s.AppendRecentPlaylist(ctx, "user-1", model.PlaylistHistoryEntry{
		URL:   entries[len(entries)-1].URL,
		Name:  "list",
		Added: time.Now().Add(time.Hour),
	}))

	entries2, err := s.GetRecentPlaylists(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, entries2, 10)
	assert.Equal(t, entries[len(entries)-1].URL, entries2[0].URL)
}
