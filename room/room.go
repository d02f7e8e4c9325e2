// Package room maps room identifiers to exactly one active game instance
// and serializes all access to it. A room with no game does not exist in
// the registry; a room whose first creation is still fetching external
// content holds its lock, so concurrent joins wait and never observe a
// partially built instance.
package room

import (
	"context"
	"sync"
	"time"

	"github.com/pairplay/gameserver/content"
	"github.com/pairplay/gameserver/game"
)

// Room pairs a game instance with the mutex that serializes actions on it.
type Room struct {
	ID string

	mu         sync.Mutex
	game       game.GameState
	removed    bool
	lastActive time.Time
}

// Manager is the process-wide room registry.
type Manager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	provider content.Provider
}

func NewManager(provider content.Provider) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		provider: provider,
	}
}

// get returns the room entry without creating one.
func (m *Manager) get(roomID string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// getOrCreateShell returns the room entry, inserting an empty shell when
// absent. The shell only becomes visible as a real room once a game is
// installed; a failed creation removes it again.
func (m *Manager) getOrCreateShell(roomID string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		return r
	}
	r := &Room{ID: roomID, lastActive: time.Now()}
	m.rooms[roomID] = r
	return r
}

// removeShell unregisters a shell whose creation failed. The caller holds
// r.mu, which protects the removed flag; waiters parked on the same shell
// observe it and go back to getOrCreateShell instead of installing a game
// into an entry the registry no longer contains.
func (m *Manager) removeShell(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.game == nil {
		r.removed = true
		delete(m.rooms, r.ID)
	}
}

// lockLive acquires the room lock, retrying on a fresh shell whenever the
// one it parked on was unregistered by a failed creation in the meantime.
// The returned room is locked and guaranteed to still be in the registry.
func (m *Manager) lockLive(roomID string) *Room {
	for {
		r := m.getOrCreateShell(roomID)
		r.mu.Lock()
		if !r.removed {
			return r
		}
		r.mu.Unlock()
	}
}

// Create builds a game of the requested type for roomID, replacing any
// existing instance (a hard reset). Creation runs under the room lock;
// for content-backed variants this is where concurrent joins block until
// the board is ready or the creation has failed.
func (m *Manager) Create(ctx context.Context, roomID, gameType string, opts game.Options) (game.GameState, error) {
	r := m.lockLive(roomID)
	defer r.mu.Unlock()

	g, err := game.New(ctx, roomID, gameType, opts, m.provider)
	if err != nil {
		m.removeShell(r)
		return nil, err
	}
	r.game = g
	r.lastActive = time.Now()
	return g, nil
}

// Join runs fn against the room's game, creating a game of gameType first
// when the room does not exist yet. This is the create-on-demand path the
// dispatcher uses for join actions.
func (m *Manager) Join(ctx context.Context, roomID, gameType string, fn func(g game.GameState) error) error {
	r := m.lockLive(roomID)
	defer r.mu.Unlock()

	if r.game == nil {
		g, err := game.New(ctx, roomID, gameType, game.Options{}, m.provider)
		if err != nil {
			m.removeShell(r)
			return err
		}
		r.game = g
	}
	r.lastActive = time.Now()
	return fn(r.game)
}

// With runs fn against the room's game under the room lock. Returns
// game.ErrGameNotFound when the room does not exist.
func (m *Manager) With(roomID string, fn func(g game.GameState) error) error {
	r, ok := m.get(roomID)
	if !ok {
		return game.ErrGameNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed || r.game == nil {
		return game.ErrGameNotFound
	}
	r.lastActive = time.Now()
	return fn(r.game)
}

// Switch replaces the room's game with a fresh instance of gameType while
// re-attaching the existing role -> connection bindings. All variant state
// is discarded.
func (m *Manager) Switch(ctx context.Context, roomID, gameType string) (game.GameState, error) {
	r, ok := m.get(roomID)
	if !ok {
		return nil, game.ErrGameNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed || r.game == nil {
		return nil, game.ErrGameNotFound
	}

	players := r.game.Players()
	g, err := game.New(ctx, roomID, gameType, game.Options{}, m.provider)
	if err != nil {
		return nil, err
	}
	for role, connID := range players {
		g.AddPlayer(role, connID)
	}
	r.game = g
	r.lastActive = time.Now()
	return g, nil
}

// Get returns the room's game instance, if any.
func (m *Manager) Get(roomID string) (game.GameState, bool) {
	r, ok := m.get(roomID)
	if !ok {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.removed || r.game == nil {
		return nil, false
	}
	return r.game, true
}

func (m *Manager) Has(roomID string) bool {
	_, ok := m.Get(roomID)
	return ok
}

// Delete evicts the room. Returns false when it did not exist. Lock order
// is room before registry, same as removeShell.
func (m *Manager) Delete(roomID string) bool {
	r, ok := m.get(roomID)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[roomID] != r {
		return false
	}
	r.removed = true
	delete(m.rooms, roomID)
	return true
}

// RoomIDs lists all registered rooms.
func (m *Manager) RoomIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// SweepIdle evicts rooms whose last action is older than idle and returns
// the evicted IDs. Wired to the scheduler as the external lifecycle policy.
func (m *Manager) SweepIdle(idle time.Duration) []string {
	cutoff := time.Now().Add(-idle)

	// Snapshot first so no room lock is ever taken while the registry
	// lock is held; room creation acquires them in the opposite order.
	m.mu.RLock()
	candidates := make(map[string]*Room, len(m.rooms))
	for id, r := range m.rooms {
		candidates[id] = r
	}
	m.mu.RUnlock()

	var evicted []string
	for id, r := range candidates {
		r.mu.Lock()
		if r.game != nil && r.lastActive.Before(cutoff) {
			m.mu.Lock()
			if cur, ok := m.rooms[id]; ok && cur == r {
				r.removed = true
				delete(m.rooms, id)
				evicted = append(evicted, id)
			}
			m.mu.Unlock()
		}
		r.mu.Unlock()
	}
	return evicted
}
