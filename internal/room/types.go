/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package room implements the per-room game engine: membership, host
// handover, the round state machine, and the two answer-arbitration
// protocols (text-guess and buzzer-queue). Each room runs as its own
// goroutine (a Hub, generalizing the teacher's one-hub-per-game actor) so
// that all mutating operations on one room are serialized while distinct
// rooms proceed fully in parallel.
package room

import (
	"time"

	"soundoff/internal/model"
)

// ConnHandle identifies a single live connection. It is transient — it
// exists only for the lifetime of one WebSocket session — as opposed to a
// Member's UserID, which survives reconnects.
type ConnHandle string

// Member is a participant in a room, keyed primarily by its current
// ConnHandle in the Room.Members map, with a stable UserID carried along
// when known so it survives a reconnect under a new ConnHandle.
type Member struct {
	DisplayName string
	Score       int
	UserID      string
	AvatarURL   string
}

// BuzzEntry is one waiting member in the buzzer queue.
type BuzzEntry struct {
	ConnHandle ConnHandle
	Name       string
	ArrivedAt  time.Time
}

// Buzzer tracks first-come-first-served arbitration for the active round in
// buzzer game type. It exists only after the first buzz.
type Buzzer struct {
	FirstBuzzAt       time.Time
	CurrentHolder     ConnHandle
	CurrentHolderName string
	Queue             []BuzzEntry
}

// holds reports whether handle currently occupies the holder slot or the
// queue — used to enforce at-most-once membership across both.
func (b *Buzzer) holds(handle ConnHandle) bool {
	if b == nil {
		return false
	}
	if b.CurrentHolder == handle {
		return true
	}
	for _, e := range b.Queue {
		if e.ConnHandle == handle {
			return true
		}
	}
	return false
}

// Round is a single track's playthrough and its arbitration state.
type Round struct {
	StartedAt time.Time
	Track     model.Track
	Playback  model.Playback
	Answer    model.Answer
	Solved    bool
	Paused    bool
	Hint      model.Hint
	Buzzer    *Buzzer
}

// Room is the authoritative state of one game session. It is exclusively
// owned and mutated by its Hub's run loop; nothing outside that goroutine
// may touch it directly.
type Room struct {
	Code         string
	HostConn     ConnHandle
	HostUser     string
	Members      map[ConnHandle]*Member
	JoinOrder    []ConnHandle
	Mode         model.Mode
	GameType     model.GameType
	Tracks       []model.Track
	RoundIndex   int
	CurrentRound *Round
	SkipVotes    map[ConnHandle]bool
	AnswersKnown bool
}

func newRoom(code string, hostConn ConnHandle) *Room {
	return &Room{
		Code:      code,
		HostConn:  hostConn,
		Members:   make(map[ConnHandle]*Member),
		SkipVotes: make(map[ConnHandle]bool),
	}
}
