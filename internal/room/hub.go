/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"context"
	"log/slog"
	"time"

	"soundoff/internal/collab"
	"soundoff/internal/model"
	"soundoff/internal/playback"
)

// Deps bundles a Hub's collaborators — the playback resolver, the
// durability store, and a clock seam for deterministic tests.
type Deps struct {
	Resolver *playback.Resolver
	Store    collab.Store
	Now      func() time.Time
	Logger   *slog.Logger

	// OnEmpty is invoked from the hub goroutine once an operation leaves the
	// room with no members, before that operation's caller gets its reply,
	// so the registry can evict it from the live map.
	OnEmpty func(code string)
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

type opRequest struct {
	fn    func(h *Hub) (any, *EngineError)
	reply chan opResult
}

type opResult struct {
	val any
	err *EngineError
}

// Hub is one room's dedicated actor: every mutating operation is submitted
// over ops and executed by Run in a single goroutine, so the room's state
// never needs its own mutex. This generalizes the teacher's per-kind
// register/unreg/joins/mods/guesses channels into one typed command queue.
type Hub struct {
	deps  Deps
	room  *Room
	ops   chan opRequest
	conns map[ConnHandle]chan<- Event
	seq   uint64
	stop  chan struct{}
}

// NewHub creates a Hub for a freshly-created room with hostConn as its
// initial host connection. Call Run in its own goroutine to start it.
func NewHub(code string, hostConn ConnHandle, deps Deps) *Hub {
	return &Hub{
		deps:  deps,
		room:  newRoom(code, hostConn),
		ops:   make(chan opRequest),
		conns: make(map[ConnHandle]chan<- Event),
		stop:  make(chan struct{}),
	}
}

// NewHubFromSnapshot rebuilds a Hub from a persisted snapshot (registry
// load-through path). No connections are registered yet — members reflect
// the "pending-<uid>" sentinel handles until their owners reconnect.
func NewHubFromSnapshot(snapshot model.Snapshot, deps Deps) *Hub {
	return &Hub{
		deps:  deps,
		room:  fromSnapshot(snapshot),
		ops:   make(chan opRequest),
		conns: make(map[ConnHandle]chan<- Event),
		stop:  make(chan struct{}),
	}
}

// Code returns the room's short code.
func (h *Hub) Code() string { return h.room.Code }

// Run processes commands until Stop is called or the room empties out.
// It must be started in its own goroutine exactly once.
func (h *Hub) Run() {
	for {
		select {
		case req := <-h.ops:
			val, err := req.fn(h)
			if len(h.room.Members) == 0 {
				if h.deps.OnEmpty != nil {
					h.deps.OnEmpty(h.room.Code)
				}
				req.reply <- opResult{val: val, err: err}
				return
			}
			req.reply <- opResult{val: val, err: err}
		case <-h.stop:
			return
		}
	}
}

// Stop halts the hub's run loop without waiting for the room to empty —
// used when the registry needs to forcibly reclaim resources (e.g. server
// shutdown).
func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) submit(fn func(h *Hub) (any, *EngineError)) (any, *EngineError) {
	reply := make(chan opResult, 1)
	h.ops <- opRequest{fn: fn, reply: reply}
	res := <-reply
	return res.val, res.err
}

// registerConn attaches a connection's outbound event channel so it
// receives broadcasts. Operations call this as part of join/reattach.
func (h *Hub) registerConn(conn ConnHandle, send chan<- Event) {
	h.conns[conn] = send
}

func (h *Hub) unregisterConn(conn ConnHandle) {
	delete(h.conns, conn)
}

func (h *Hub) broadcast(ev Event) {
	for _, ch := range h.conns {
		select {
		case ch <- ev:
		default:
			// Slow consumer — drop rather than block the room's goroutine.
		}
	}
}

func (h *Hub) sendTo(conn ConnHandle, ev Event) {
	ch, ok := h.conns[conn]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}

func (h *Hub) broadcastRoomState() {
	h.seq++
	h.broadcast(h.room.stateEvent(h.seq))
}

// persist writes the room's current snapshot to the store. Failures are
// logged but never roll back the in-memory mutation — availability is
// prioritized over durability, per the store's failure semantics.
func (h *Hub) persist() {
	if h.deps.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := h.deps.Store.SaveRoom(ctx, h.room.Code, toSnapshot(h.room, h.deps.now())); err != nil {
		h.deps.logger().Warn("room snapshot persist failed", "code", h.room.Code, "error", err)
	}
}

func (h *Hub) creditLeaderboard(m *Member, delta int) {
	if h.deps.Store == nil || m.UserID == "" || delta == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := h.deps.Store.IncrementLeaderboard(ctx, m.UserID, m.DisplayName, delta); err != nil {
		h.deps.logger().Warn("leaderboard increment failed", "user", m.UserID, "error", err)
	}
}
