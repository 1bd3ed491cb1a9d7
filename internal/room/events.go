/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"time"

	"soundoff/internal/model"
)

// Event is anything broadcast or privately sent to a connection. Every
// concrete event type below carries its own "type" field so the gateway
// can marshal it straight to JSON without a wrapping envelope, mirroring
// the teacher's tagged outbound messages.
type Event any

// PlayerView is one row of a room's scoreboard as sent to clients.
type PlayerView struct {
	ConnHandle string `json:"connHandle"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
}

// RoundView is the client-visible projection of the active round — it
// never reveals the answer.
type RoundView struct {
	StartedAt time.Time      `json:"startedAt"`
	Hint      model.Hint     `json:"hint"`
	Playback  model.Playback `json:"playback"`
	Paused    bool           `json:"paused"`
	Buzzer    *BuzzerView    `json:"buzzer,omitempty"`
}

// BuzzerView is the client-visible projection of the buzzer queue.
type BuzzerView struct {
	CurrentHolder     string   `json:"currentHolder"`
	CurrentHolderName string   `json:"currentHolderName"`
	Queue             []string `json:"queue"`
}

// RoomStateEvent is re-broadcast after every mutation that changes
// externally visible room state. Seq lets clients discard a stale
// snapshot that arrives after a fresher one.
type RoomStateEvent struct {
	Type         string       `json:"type"`
	Seq          uint64       `json:"seq"`
	Code         string       `json:"code"`
	HostConn     string       `json:"hostConn"`
	Players      []PlayerView `json:"players"`
	SkipVotes    int          `json:"skipVotes"`
	HasTracks    bool         `json:"hasTracks"`
	GameStarted  bool         `json:"gameStarted"`
	GameType     string       `json:"gameType"`
	RoundCount   int          `json:"roundCount"`
	CurrentRound *RoundView   `json:"currentRound,omitempty"`
}

type GameStartedEvent struct {
	Type     string `json:"type"`
	Mode     string `json:"mode"`
	GameType string `json:"gameType"`
}

type RoundStartEvent struct {
	Type      string         `json:"type"`
	Mode      string         `json:"mode"`
	GameType  string         `json:"gameType"`
	StartedAt time.Time      `json:"startedAt"`
	Hint      model.Hint     `json:"hint"`
	Playback  model.Playback `json:"playback"`
}

type RoundEndEvent struct {
	Type      string       `json:"type"`
	Winner    string       `json:"winner,omitempty"`
	Answer    model.Answer `json:"answer"`
	ElapsedMs int64        `json:"elapsedMs"`
	Scores    []PlayerView `json:"scores"`
	Skipped   bool         `json:"skipped,omitempty"`
}

type GameOverEvent struct {
	Type   string       `json:"type"`
	Scores []PlayerView `json:"scores"`
}

type ChatEvent struct {
	Type   string    `json:"type"`
	Name   string    `json:"name,omitempty"`
	Text   string    `json:"text"`
	System bool      `json:"system,omitempty"`
	At     time.Time `json:"at"`
}

type BuzzedEvent struct {
	Type string    `json:"type"`
	ID   string    `json:"id"`
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

type QueueUpdatedEvent struct {
	Type  string   `json:"type"`
	Queue []string `json:"queue"`
}

type BuzzClearedEvent struct {
	Type string `json:"type"`
}

type PausePlaybackEvent struct {
	Type string `json:"type"`
}

type ResumePlaybackEvent struct {
	Type string `json:"type"`
}

type KickedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
