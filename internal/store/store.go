// Package store provides persistent room-snapshot, leaderboard, and playlist
// history state backed by an embedded SQLite database. It owns the database
// lifecycle and implements collab.Store for the rest of the server.
//
// Migration design: SQL statements are kept in the [migrations] slice as
// ordered strings. Each is applied exactly once; the applied version is
// tracked in the schema_migrations table. To add a migration, append a new
// string — never edit or reorder existing entries.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"soundoff/internal/model"
)

// migrations holds the ordered list of DDL statements that bring the schema
// up to date. Index i corresponds to version i+1.
var migrations = []string{
	// v1 — room snapshots, stored as a single JSON blob per room code
	`CREATE TABLE IF NOT EXISTS rooms (
		code        TEXT PRIMARY KEY,
		snapshot    TEXT NOT NULL,
		updated_at  INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
	// v2 — leaderboard
	`CREATE TABLE IF NOT EXISTS leaderboard (
		user_id      TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		score        INTEGER NOT NULL DEFAULT 0,
		last_updated INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
	// v3 — per-user playlist history
	`CREATE TABLE IF NOT EXISTS playlist_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		url        TEXT NOT NULL,
		name       TEXT NOT NULL DEFAULT '',
		source     TEXT NOT NULL DEFAULT '',
		added_at   INTEGER NOT NULL DEFAULT (unixepoch())
	)`,
	`CREATE INDEX IF NOT EXISTS idx_playlist_history_user ON playlist_history(user_id, added_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_playlist_history_user_url ON playlist_history(user_id, url)`,
	// v6 — enable WAL mode
	`PRAGMA journal_mode=WAL`,
}

// Store wraps a SQLite database and implements collab.Store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path and applies any pending
// migrations. Use ":memory:" for ephemeral in-process storage (tests).
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		log.Printf("[store] WAL mode: %v (non-fatal)", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		log.Printf("[store] busy_timeout: %v (non-fatal)", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := s.db.QueryRow(
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`,
	).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i, stmt := range migrations {
		v := i + 1
		if v <= current {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", v, err)
		}
		if _, err := s.db.Exec(
			`INSERT INTO schema_migrations(version) VALUES(?)`, v,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", v, err)
		}
		log.Printf("[store] applied migration v%d", v)
	}
	return nil
}

// SaveRoom upserts the JSON-encoded snapshot for code.
func (s *Store) SaveRoom(ctx context.Context, code string, snapshot model.Snapshot) error {
	blob, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms(code, snapshot, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		code, string(blob), snapshot.UpdatedAt.Unix(),
	)
	return err
}

// LoadRoom returns the persisted snapshot for code, or ok=false if absent.
func (s *Store) LoadRoom(ctx context.Context, code string) (model.Snapshot, bool, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM rooms WHERE code = ?`, code,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}

	var snapshot model.Snapshot
	if err := json.Unmarshal([]byte(blob), &snapshot); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, true, nil
}

// DeleteRoom removes the persisted snapshot for code. Deleting an absent
// code is not an error.
func (s *Store) DeleteRoom(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code)
	return err
}

// IncrementLeaderboard adds delta to userID's running score, creating the
// row on first increment and refreshing the display name each time.
func (s *Store) IncrementLeaderboard(ctx context.Context, userID, name string, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leaderboard(user_id, name, score, last_updated) VALUES(?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			score = score + excluded.score,
			name = excluded.name,
			last_updated = excluded.last_updated`,
		userID, name, delta, time.Now().Unix(),
	)
	return err
}

// GetLeaderboard returns the top limit rows by score descending.
func (s *Store) GetLeaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, name, score, last_updated FROM leaderboard ORDER BY score DESC, last_updated ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LeaderboardRow
	for rows.Next() {
		var r model.LeaderboardRow
		var updated int64
		if err := rows.Scan(&r.UserID, &r.Name, &r.Score, &updated); err != nil {
			return nil, err
		}
		r.LastUpdated = time.Unix(updated, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// AppendRecentPlaylist records entry for userID, deduplicating by URL (a
// re-add moves the existing row to the front) and capping history at 10.
func (s *Store) AppendRecentPlaylist(ctx context.Context, userID string, entry model.PlaylistHistoryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlist_history WHERE user_id = ? AND url = ?`, userID, entry.URL,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO playlist_history(user_id, url, name, source, added_at) VALUES(?, ?, ?, ?, ?)`,
		userID, entry.URL, entry.Name, entry.Source, entry.Added.Unix(),
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlist_history WHERE user_id = ? AND id NOT IN (
			SELECT id FROM playlist_history WHERE user_id = ? ORDER BY added_at DESC LIMIT 10
		)`, userID, userID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecentPlaylists returns userID's playlist history, most recent first.
func (s *Store) GetRecentPlaylists(ctx context.Context, userID string) ([]model.PlaylistHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, name, source, added_at FROM playlist_history WHERE user_id = ? ORDER BY added_at DESC LIMIT 10`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlaylistHistoryEntry
	for rows.Next() {
		var e model.PlaylistHistoryEntry
		var added int64
		if err := rows.Scan(&e.URL, &e.Name, &e.Source, &added); err != nil {
			return nil, err
		}
		e.Added = time.Unix(added, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
