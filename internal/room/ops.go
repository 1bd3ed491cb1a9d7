/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"soundoff/internal/model"
	"soundoff/internal/text"
)

const maxDisplayNameRunes = 32

// JoinResult is what a successful JoinRoom reports back to the caller.
type JoinResult struct {
	AssignedName string
	IsHost       bool
}

// JoinRoom implements §4.4.1's join sequence: host reattach/adoption,
// identity migration from a stale handle, or fresh member creation with
// name-collision suffixing. userID/photoURL are already-verified (or empty,
// for an unauthenticated join) — token verification happens in the
// gateway, outside this room's goroutine.
func (h *Hub) JoinRoom(conn ConnHandle, send chan<- Event, requestedName, userID, photoURL string) (JoinResult, *EngineError) {
	val, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room

		if userID != "" {
			switch {
			case userID == r.HostUser:
				r.HostConn = conn
			case r.HostUser == "" && conn == r.HostConn:
				r.HostUser = userID
			}
		}

		var member *Member
		if userID != "" {
			for handle, m := range r.Members {
				if handle == conn || m.UserID != userID {
					continue
				}
				member = m
				delete(r.Members, handle)
				r.JoinOrder = removeHandle(r.JoinOrder, handle)
				h.unregisterConn(handle)
				break
			}
		}

		fresh := member == nil
		if fresh {
			member = &Member{}
		}
		member.UserID = userID
		if photoURL != "" {
			member.AvatarURL = photoURL
		}
		if member.DisplayName == "" {
			member.DisplayName = uniqueJoinName(r, normalizeName(requestedName))
		}

		r.Members[conn] = member
		r.JoinOrder = append(r.JoinOrder, conn)
		h.registerConn(conn, send)

		h.broadcast(ChatEvent{
			Type:   "chat",
			Text:   member.DisplayName + " joined the room",
			System: true,
			At:     h.deps.now(),
		})
		h.persist()
		h.broadcastRoomState()

		return JoinResult{AssignedName: member.DisplayName, IsHost: r.HostConn == conn}, nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	return val.(JoinResult), nil
}

// SetName renames the caller's member, trimming to 32 code points and
// suffixing a random 1–99 tiebreaker on collision.
func (h *Hub) SetName(conn ConnHandle, name string) (string, *EngineError) {
	val, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		m, ok := r.Members[conn]
		if !ok {
			return nil, errNoSuchMember
		}

		base := normalizeName(name)
		m.DisplayName = uniqueSetName(r, conn, base)

		h.persist()
		h.broadcastRoomState()
		return m.DisplayName, nil
	})
	if err != nil {
		return "", err
	}
	return val.(string), nil
}

// Disconnect removes conn's member, transfers host if needed, and tidies
// any buzzer state it held.
func (h *Hub) Disconnect(conn ConnHandle) {
	h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		m, ok := r.Members[conn]
		if !ok {
			return nil, nil
		}

		delete(r.Members, conn)
		r.JoinOrder = removeHandle(r.JoinOrder, conn)
		h.unregisterConn(conn)
		delete(r.SkipVotes, conn)

		h.cleanupBuzzer(conn)

		h.broadcast(ChatEvent{
			Type:   "chat",
			Text:   m.DisplayName + " left the room",
			System: true,
			At:     h.deps.now(),
		})

		if r.HostConn == conn && len(r.JoinOrder) > 0 {
			r.HostConn = r.JoinOrder[0]
		}

		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
}

// KickPlayer forces target out of the room (host-only).
func (h *Hub) KickPlayer(conn ConnHandle, target ConnHandle) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}
		if _, ok := r.Members[target]; !ok {
			return nil, errNoSuchMember
		}

		h.sendTo(target, KickedEvent{Type: "kicked", Message: "You have been removed by the host."})
		delete(r.Members, target)
		r.JoinOrder = removeHandle(r.JoinOrder, target)
		h.unregisterConn(target)
		delete(r.SkipVotes, target)
		h.cleanupBuzzer(target)

		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// StartGame shuffles tracks and opens the room for nextRound (host-only).
func (h *Hub) StartGame(conn ConnHandle, mode model.Mode, tracks []model.Track, gameType model.GameType) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}
		if len(tracks) == 0 {
			return nil, errNoTracks
		}

		r.Mode = mode
		r.GameType = gameType
		r.Tracks = shuffleTracks(tracks)
		r.AnswersKnown = true
		r.RoundIndex = 0
		r.CurrentRound = nil
		r.SkipVotes = make(map[ConnHandle]bool)

		h.persist()
		h.broadcast(GameStartedEvent{Type: "gameStarted", Mode: string(mode), GameType: string(gameType)})
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// NextRound resolves playback for successive tracks starting at
// RoundIndex, skipping any that resolve to none, and commits the first
// success as the new current round (host-only).
func (h *Hub) NextRound(ctx context.Context, conn ConnHandle) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}

		if r.RoundIndex >= len(r.Tracks) {
			h.endGame()
			return nil, nil
		}

		for idx := r.RoundIndex; idx < len(r.Tracks); idx++ {
			track := r.Tracks[idx]
			pb := h.deps.Resolver.Resolve(ctx, track, r.Mode)
			if pb.Type == model.PlaybackNone {
				continue
			}

			r.RoundIndex = idx + 1
			r.SkipVotes = make(map[ConnHandle]bool)
			titleLen := utf8.RuneCountInString(track.Title)
			artistLen := utf8.RuneCountInString(track.Artist)
			r.CurrentRound = &Round{
				StartedAt: h.deps.now(),
				Track:     track,
				Playback:  pb,
				Answer:    model.Answer{Title: track.Title, Artist: track.Artist},
				Hint:      model.Hint{TitleLen: titleLen, ArtistLen: artistLen},
			}

			h.persist()
			h.broadcast(RoundStartEvent{
				Type:      "roundStart",
				Mode:      string(r.Mode),
				GameType:  string(r.GameType),
				StartedAt: r.CurrentRound.StartedAt,
				Hint:      r.CurrentRound.Hint,
				Playback:  pb,
			})
			h.broadcastRoomState()
			return nil, nil
		}

		r.RoundIndex = len(r.Tracks)
		h.endGame()
		return nil, nil
	})
	return err
}

func (h *Hub) endGame() {
	r := h.room
	r.CurrentRound = nil
	h.persist()
	h.broadcast(GameOverEvent{Type: "gameOver", Scores: r.playerViews()})
	h.broadcastRoomState()
}

// PauseRound / ResumeRound toggle the active round's paused flag (host-only).
func (h *Hub) PauseRound(conn ConnHandle) *EngineError {
	return h.toggleRoundPause(conn, true)
}

func (h *Hub) ResumeRound(conn ConnHandle) *EngineError {
	return h.toggleRoundPause(conn, false)
}

func (h *Hub) toggleRoundPause(conn ConnHandle, paused bool) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}
		if !activeRound(r) {
			return nil, errNoActiveRound
		}

		r.CurrentRound.Paused = paused
		h.persist()
		if paused {
			h.broadcast(PausePlaybackEvent{Type: "pausePlayback"})
		} else {
			h.broadcast(ResumePlaybackEvent{Type: "resumePlayback"})
		}
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// VoteSkip registers conn's vote to skip the active round, ending it
// without a winner once a strict majority of members have voted.
func (h *Hub) VoteSkip(conn ConnHandle) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !activeRound(r) {
			return nil, errNoActiveRound
		}
		if _, ok := r.Members[conn]; !ok {
			return nil, errNoSuchMember
		}

		r.SkipVotes[conn] = true

		if 2*len(r.SkipVotes) > len(r.Members) {
			rd := r.CurrentRound
			rd.Solved = true
			h.broadcast(RoundEndEvent{
				Type:      "roundEnd",
				Answer:    rd.Answer,
				ElapsedMs: h.deps.now().Sub(rd.StartedAt).Milliseconds(),
				Scores:    r.playerViews(),
				Skipped:   true,
			})
			r.SkipVotes = make(map[ConnHandle]bool)
		}

		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// Guess evaluates a free-form text-mode answer (text game type only).
func (h *Hub) Guess(conn ConnHandle, guessText string) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if r.GameType != model.GameTypeText {
			return nil, errWrongGameType
		}
		if !activeRound(r) {
			return nil, errNoActiveRound
		}
		m, ok := r.Members[conn]
		if !ok {
			return nil, errNoSuchMember
		}

		rd := r.CurrentRound
		result := text.MatchDetailed("", guessText, rd.Answer.Artist, rd.Answer.Title)

		points := 0
		switch {
		case result.ArtistCorrect && result.TitleCorrect:
			points = 10
		case result.TitleCorrect:
			points = 5
		}
		if points == 0 {
			return nil, nil
		}

		rd.Solved = true
		m.Score += points
		h.creditLeaderboard(m, points)

		h.broadcast(RoundEndEvent{
			Type:      "roundEnd",
			Winner:    m.DisplayName,
			Answer:    rd.Answer,
			ElapsedMs: h.deps.now().Sub(rd.StartedAt).Milliseconds(),
			Scores:    r.playerViews(),
		})
		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// Buzz registers conn's buzz in buzzer mode: the first buzz of a round
// seizes the floor and pauses playback; later buzzes queue up FIFO;
// duplicate buzzes from an already-queued/holding connection are no-ops.
func (h *Hub) Buzz(conn ConnHandle) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if r.GameType != model.GameTypeBuzzer {
			return nil, errWrongGameType
		}
		if !activeRound(r) {
			return nil, errNoActiveRound
		}
		m, ok := r.Members[conn]
		if !ok {
			return nil, errNoSuchMember
		}

		rd := r.CurrentRound
		now := h.deps.now()

		if rd.Buzzer == nil {
			rd.Buzzer = &Buzzer{FirstBuzzAt: now, CurrentHolder: conn, CurrentHolderName: m.DisplayName}
			rd.Paused = true

			h.broadcast(PausePlaybackEvent{Type: "pausePlayback"})
			h.broadcast(BuzzedEvent{Type: "buzzed", ID: string(conn), Name: m.DisplayName, At: now})
			h.broadcast(QueueUpdatedEvent{Type: "queueUpdated"})
			h.persist()
			h.broadcastRoomState()
			return nil, nil
		}

		if rd.Buzzer.holds(conn) {
			return nil, nil
		}

		rd.Buzzer.Queue = append(rd.Buzzer.Queue, BuzzEntry{ConnHandle: conn, Name: m.DisplayName, ArrivedAt: now})
		h.broadcast(QueueUpdatedEvent{Type: "queueUpdated", Queue: queueNames(rd.Buzzer)})
		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// PassBuzzer rotates the buzzer queue's head into the holder slot, or
// clears the buzzer and resumes playback once the queue is empty
// (host-only).
func (h *Hub) PassBuzzer(conn ConnHandle) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}
		if !activeRound(r) || r.CurrentRound.Buzzer == nil {
			return nil, errNoActiveRound
		}

		rd := r.CurrentRound
		if len(rd.Buzzer.Queue) > 0 {
			head := rd.Buzzer.Queue[0]
			rd.Buzzer.Queue = rd.Buzzer.Queue[1:]
			rd.Buzzer.CurrentHolder = head.ConnHandle
			rd.Buzzer.CurrentHolderName = head.Name

			h.broadcast(BuzzedEvent{Type: "buzzed", ID: string(head.ConnHandle), Name: head.Name, At: h.deps.now()})
			h.broadcast(QueueUpdatedEvent{Type: "queueUpdated", Queue: queueNames(rd.Buzzer)})
			h.broadcast(PausePlaybackEvent{Type: "pausePlayback"})
		} else {
			rd.Buzzer = nil
			rd.Paused = false
			h.broadcast(BuzzClearedEvent{Type: "buzzCleared"})
			h.broadcast(ResumePlaybackEvent{Type: "resumePlayback"})
		}

		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// AwardPoints / DeductPoints adjust a named member's score by pts (0 means
// the default of 10). Deductions clamp at zero (host-only).
func (h *Hub) AwardPoints(conn ConnHandle, playerName string, pts int) *EngineError {
	return h.adjustPoints(conn, playerName, pts, 1)
}

func (h *Hub) DeductPoints(conn ConnHandle, playerName string, pts int) *EngineError {
	return h.adjustPoints(conn, playerName, pts, -1)
}

func (h *Hub) adjustPoints(conn ConnHandle, playerName string, pts int, sign int) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}
		if pts <= 0 {
			pts = 10
		}

		var m *Member
		for _, cand := range r.Members {
			if cand.DisplayName == playerName {
				m = cand
				break
			}
		}
		if m == nil {
			return nil, errNoSuchMember
		}

		before := m.Score
		m.Score += sign * pts
		if m.Score < 0 {
			m.Score = 0
		}
		h.creditLeaderboard(m, m.Score-before)

		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// EndRoundManual ends the active buzzer-mode round immediately, crediting
// no points automatically — the host awards them separately (host-only).
func (h *Hub) EndRoundManual(conn ConnHandle) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}
		if !activeRound(r) {
			return nil, errNoActiveRound
		}

		rd := r.CurrentRound
		rd.Solved = true

		winner := ""
		var elapsed int64
		now := h.deps.now()
		if rd.Buzzer != nil {
			winner = rd.Buzzer.CurrentHolderName
			elapsed = rd.Buzzer.FirstBuzzAt.Sub(rd.StartedAt).Milliseconds()
		} else {
			elapsed = now.Sub(rd.StartedAt).Milliseconds()
		}

		h.broadcast(RoundEndEvent{
			Type:      "roundEnd",
			Winner:    winner,
			Answer:    rd.Answer,
			ElapsedMs: elapsed,
			Scores:    r.playerViews(),
		})
		h.persist()
		h.broadcastRoomState()
		return nil, nil
	})
	return err
}

// HostVerifyGuess is advisory: it reports whether a spoken answer would
// match, without altering room state (host-only).
func (h *Hub) HostVerifyGuess(conn ConnHandle, artist, title string) (text.DetailedResult, *EngineError) {
	val, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		if !isHost(r, conn) {
			return nil, errNotHost
		}
		if !activeRound(r) {
			return nil, errNoActiveRound
		}

		rd := r.CurrentRound
		return text.MatchDetailed(artist, title, rd.Answer.Artist, rd.Answer.Title), nil
	})
	if err != nil {
		return text.DetailedResult{}, err
	}
	return val.(text.DetailedResult), nil
}

// Chat relays a member's chat line to the room; system lines are emitted
// internally and never take this path.
func (h *Hub) Chat(conn ConnHandle, text string) *EngineError {
	_, err := h.submit(func(h *Hub) (any, *EngineError) {
		r := h.room
		m, ok := r.Members[conn]
		if !ok {
			return nil, errNoSuchMember
		}

		h.broadcast(ChatEvent{Type: "chat", Name: m.DisplayName, Text: text, At: h.deps.now()})
		return nil, nil
	})
	return err
}

// cleanupBuzzer handles a departing connection's buzzer-queue membership:
// rotating the holder slot if it held the floor, or removing it from the
// waiting queue otherwise.
func (h *Hub) cleanupBuzzer(conn ConnHandle) {
	r := h.room
	if r.CurrentRound == nil || r.CurrentRound.Buzzer == nil {
		return
	}
	b := r.CurrentRound.Buzzer

	if b.CurrentHolder == conn {
		if len(b.Queue) > 0 {
			head := b.Queue[0]
			b.Queue = b.Queue[1:]
			b.CurrentHolder = head.ConnHandle
			b.CurrentHolderName = head.Name
			h.broadcast(BuzzedEvent{Type: "buzzed", ID: string(head.ConnHandle), Name: head.Name, At: h.deps.now()})
			h.broadcast(QueueUpdatedEvent{Type: "queueUpdated", Queue: queueNames(b)})
		} else {
			r.CurrentRound.Buzzer = nil
			r.CurrentRound.Paused = false
			h.broadcast(BuzzClearedEvent{Type: "buzzCleared"})
			h.broadcast(ResumePlaybackEvent{Type: "resumePlayback"})
		}
		return
	}

	for i, e := range b.Queue {
		if e.ConnHandle == conn {
			b.Queue = append(b.Queue[:i], b.Queue[i+1:]...)
			h.broadcast(QueueUpdatedEvent{Type: "queueUpdated", Queue: queueNames(b)})
			return
		}
	}
}

func queueNames(b *Buzzer) []string {
	names := make([]string, 0, len(b.Queue))
	for _, e := range b.Queue {
		names = append(names, e.Name)
	}
	return names
}

func activeRound(r *Room) bool {
	return r.CurrentRound != nil && !r.CurrentRound.Solved
}

func isHost(r *Room, conn ConnHandle) bool {
	return r.HostConn == conn
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > maxDisplayNameRunes {
		runes = runes[:maxDisplayNameRunes]
	}
	name = strings.TrimSpace(string(runes))
	if name == "" {
		name = "Player"
	}
	return name
}

func uniqueJoinName(r *Room, base string) string {
	if !nameTaken(r, "", base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s#%d", base, n)
		if !nameTaken(r, "", candidate) {
			return candidate
		}
	}
}

func uniqueSetName(r *Room, self ConnHandle, base string) string {
	if !nameTaken(r, self, base) {
		return base
	}
	for attempt := 0; attempt < 100; attempt++ {
		candidate := fmt.Sprintf("%s#%d", base, randIntn(99)+1)
		if !nameTaken(r, self, candidate) {
			return candidate
		}
	}
	return fmt.Sprintf("%s#%d", base, randIntn(100000))
}

func nameTaken(r *Room, self ConnHandle, name string) bool {
	for handle, m := range r.Members {
		if handle == self {
			continue
		}
		if m.DisplayName == name {
			return true
		}
	}
	return false
}

func removeHandle(handles []ConnHandle, target ConnHandle) []ConnHandle {
	for i, h := range handles {
		if h == target {
			return append(handles[:i], handles[i+1:]...)
		}
	}
	return handles
}

// shuffleTracks returns a uniformly-shuffled copy of tracks using a
// Fisher-Yates shuffle backed by crypto/rand.
func shuffleTracks(tracks []model.Track) []model.Track {
	shuffled := make([]model.Track, len(tracks))
	copy(shuffled, tracks)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := randIntn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

func randIntn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
