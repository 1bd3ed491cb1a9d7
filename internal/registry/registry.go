/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package registry is the process-wide mapping from room code to live room
// state: load-through from the snapshot store on a cache miss, write-through
// persistence on every mutation (handled by the Hub itself), and eviction
// once a room empties out. It generalizes the teacher's GameManager
// (hub-per-game map with idle reaping) to load-through/create-on-demand
// semantics.
package registry

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	"soundoff/internal/room"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

// Registry owns the code -> *room.Hub map. Access to the map itself is
// serialized by a short-held mutex; once a Hub is located, all further
// serialization for that room happens inside the Hub's own goroutine.
type Registry struct {
	deps room.Deps
	mu   sync.Mutex
	hubs map[string]*room.Hub
}

// New builds a Registry. deps is used as the template for every Hub it
// creates or reconstructs (deps.OnEmpty is overwritten per Hub so the
// registry always hears about evictions).
func New(deps room.Deps) *Registry {
	return &Registry{
		deps: deps,
		hubs: make(map[string]*room.Hub),
	}
}

// Get returns the live Hub for code, loading it through the Store on a
// cache miss. ok is false if no such room exists anywhere.
func (reg *Registry) Get(ctx context.Context, code string) (*room.Hub, bool, error) {
	reg.mu.Lock()
	hub, ok := reg.hubs[code]
	reg.mu.Unlock()
	if ok {
		return hub, true, nil
	}

	if reg.deps.Store == nil {
		return nil, false, nil
	}

	snapshot, found, err := reg.deps.Store.LoadRoom(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("registry: load room %s: %w", code, err)
	}
	if !found {
		return nil, false, nil
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if hub, ok := reg.hubs[code]; ok {
		// Lost the race to another loader; use theirs.
		return hub, true, nil
	}

	hub = room.NewHubFromSnapshot(snapshot, reg.hubDeps())
	reg.hubs[code] = hub
	go hub.Run()
	return hub, true, nil
}

// Create allocates a fresh room code, builds its Hub with hostConn as the
// initial host connection, and inserts it into the registry. Create itself
// writes no snapshot; the room is first persisted by the Hub on its first
// mutation (normally the creator's join).
func (reg *Registry) Create(ctx context.Context, hostConn room.ConnHandle) (*room.Hub, error) {
	code := reg.newCode()

	hub := room.NewHub(code, hostConn, reg.hubDeps())

	reg.mu.Lock()
	reg.hubs[code] = hub
	reg.mu.Unlock()

	go hub.Run()
	return hub, nil
}

// hubDeps returns reg.deps with OnEmpty bound to this registry's eviction.
func (reg *Registry) hubDeps() room.Deps {
	d := reg.deps
	d.OnEmpty = reg.remove
	return d
}

func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.hubs, code)
}

// newCode generates a random 6-character uppercase code, collision-checked
// against rooms currently held in memory.
func (reg *Registry) newCode() string {
	for {
		code := randomCode()

		reg.mu.Lock()
		_, exists := reg.hubs[code]
		reg.mu.Unlock()

		if !exists {
			return code
		}
	}
}

func randomCode() string {
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			buf[i] = codeAlphabet[0]
			continue
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}
