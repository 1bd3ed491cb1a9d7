/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package collab defines the interfaces the core consumes from its external
// collaborators: the snapshot/leaderboard store, identity verification, and
// music-catalog playlist parsing. spec.md §1 places the systems behind
// these interfaces out of scope; internal/store, internal/auth, and
// internal/catalog provide this module's reference implementations of them.
package collab

import (
	"context"
	"time"

	"soundoff/internal/model"
)

// Store is the persistence capability backing room snapshot recovery and
// the leaderboard/history.
type Store interface {
	SaveRoom(ctx context.Context, code string, snapshot model.Snapshot) error
	LoadRoom(ctx context.Context, code string) (model.Snapshot, bool, error)
	DeleteRoom(ctx context.Context, code string) error

	// IncrementLeaderboard performs a transactional read-modify-write on
	// (score, name, lastUpdated), creating the row on first increment.
	IncrementLeaderboard(ctx context.Context, userID, name string, delta int) error
	GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error)

	// AppendRecentPlaylist deduplicates by URL, moves the most-recent entry
	// to the head, and caps history at 10.
	AppendRecentPlaylist(ctx context.Context, userID string, entry model.PlaylistHistoryEntry) error
	GetRecentPlaylists(ctx context.Context, userID string) ([]model.PlaylistHistoryEntry, error)
}

// TokenVerifier turns a bearer credential into a stable user identity.
// Verification failures are non-fatal for joining — the caller downgrades
// to an unauthenticated member rather than treating it as a hard error.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (userID, photoURL string, ok bool)
}

// PlaylistResult is what a PlaylistProvider returns for a parsed playlist
// URL.
type PlaylistResult struct {
	Source       string
	PlaylistID   string
	PlaylistName string
	Total        int
	Playable     int
	Tracks       []model.Track
}

// PlaylistProvider resolves an external playlist URL into its track list.
type PlaylistProvider interface {
	ParsePlaylist(ctx context.Context, url string, songCount int) (PlaylistResult, error)
}

// Now is a substitutable clock. No package in this module reads it:
// snapshot timestamps come from room.Deps.Now and the store stamps
// leaderboard rows with time.Now.
var Now = time.Now
