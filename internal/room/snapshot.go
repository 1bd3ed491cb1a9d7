/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"time"

	"soundoff/internal/model"
)

// pendingPrefix marks a synthetic connection handle for a member
// reconstructed from a snapshot whose owner has not yet reconnected.
const pendingPrefix = "pending-"

func pendingHandle(userID string) ConnHandle {
	return ConnHandle(pendingPrefix + userID)
}

// toSnapshot flattens a live Room into its durable projection: code, host
// user id, mode, game type, round index, tracks, answersKnown, the current
// round, and a userId -> {name, score} map derived from members.
func toSnapshot(r *Room, now time.Time) model.Snapshot {
	players := make(map[string]model.PlayerRow, len(r.Members))
	for _, m := range r.Members {
		key := m.UserID
		if key == "" {
			continue
		}
		players[key] = model.PlayerRow{Name: m.DisplayName, Score: m.Score}
	}

	snap := model.Snapshot{
		Code:         r.Code,
		HostUserID:   r.HostUser,
		Mode:         r.Mode,
		GameType:     r.GameType,
		RoundIndex:   r.RoundIndex,
		Tracks:       r.Tracks,
		AnswersKnown: r.AnswersKnown,
		Players:      players,
		UpdatedAt:    now,
	}

	if r.CurrentRound != nil {
		snap.CurrentRound = roundSnapshot(r.CurrentRound)
	}

	return snap
}

func roundSnapshot(rd *Round) *model.RoundSnapshot {
	rs := &model.RoundSnapshot{
		StartedAt: rd.StartedAt,
		Track:     rd.Track,
		Playback:  rd.Playback,
		Answer:    rd.Answer,
		Solved:    rd.Solved,
		Paused:    rd.Paused,
		Hint:      rd.Hint,
	}
	if rd.Buzzer != nil {
		rs.HasBuzzer = true
		rs.FirstBuzzAt = rd.Buzzer.FirstBuzzAt
		rs.CurrentHolderName = rd.Buzzer.CurrentHolderName
	}
	return rs
}

// fromSnapshot reconstructs a Room for the registry's load-through path.
// Members get synthetic "pending-<uid>" handles since the persisted state
// carries no live connections.
func fromSnapshot(snap model.Snapshot) *Room {
	r := &Room{
		Code:         snap.Code,
		HostUser:     snap.HostUserID,
		Members:      make(map[ConnHandle]*Member, len(snap.Players)),
		Mode:         snap.Mode,
		GameType:     snap.GameType,
		Tracks:       snap.Tracks,
		RoundIndex:   snap.RoundIndex,
		AnswersKnown: snap.AnswersKnown,
		SkipVotes:    make(map[ConnHandle]bool),
	}

	for uid, row := range snap.Players {
		handle := pendingHandle(uid)
		r.Members[handle] = &Member{DisplayName: row.Name, Score: row.Score, UserID: uid}
		if uid == snap.HostUserID {
			r.HostConn = handle
		}
	}

	if snap.CurrentRound != nil {
		r.CurrentRound = roundFromSnapshot(snap.CurrentRound)
	}

	return r
}

func roundFromSnapshot(rs *model.RoundSnapshot) *Round {
	rd := &Round{
		StartedAt: rs.StartedAt,
		Track:     rs.Track,
		Playback:  rs.Playback,
		Answer:    rs.Answer,
		Solved:    rs.Solved,
		Paused:    rs.Paused,
		Hint:      rs.Hint,
	}
	if rs.HasBuzzer {
		rd.Buzzer = &Buzzer{
			FirstBuzzAt:       rs.FirstBuzzAt,
			CurrentHolderName: rs.CurrentHolderName,
		}
	}
	return rd
}

// stateEvent builds the client-facing RoomStateEvent projection of r.
func (r *Room) stateEvent(seq uint64) RoomStateEvent {
	ev := RoomStateEvent{
		Type:        "roomState",
		Seq:         seq,
		Code:        r.Code,
		HostConn:    string(r.HostConn),
		Players:     r.playerViews(),
		SkipVotes:   len(r.SkipVotes),
		HasTracks:   len(r.Tracks) > 0,
		GameStarted: r.AnswersKnown,
		GameType:    string(r.GameType),
		RoundCount:  len(r.Tracks),
	}
	if r.CurrentRound != nil {
		ev.CurrentRound = r.currentRoundView()
	}
	return ev
}

func (r *Room) playerViews() []PlayerView {
	views := make([]PlayerView, 0, len(r.Members))
	for handle, m := range r.Members {
		views = append(views, PlayerView{
			ConnHandle: string(handle),
			Name:       m.DisplayName,
			Score:      m.Score,
		})
	}
	return views
}

func (r *Room) currentRoundView() *RoundView {
	rd := r.CurrentRound
	view := &RoundView{
		StartedAt: rd.StartedAt,
		Hint:      rd.Hint,
		Playback:  rd.Playback,
		Paused:    rd.Paused,
	}
	if rd.Buzzer != nil {
		bv := &BuzzerView{
			CurrentHolder:     string(rd.Buzzer.CurrentHolder),
			CurrentHolderName: rd.Buzzer.CurrentHolderName,
		}
		for _, e := range rd.Buzzer.Queue {
			bv.Queue = append(bv.Queue, e.Name)
		}
		view.Buzzer = bv
	}
	return view
}
