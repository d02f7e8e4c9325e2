package room

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pairplay/gameserver/content"
	"github.com/pairplay/gameserver/game"
)

func newTestManager() *Manager {
	return NewManager(content.NewStaticProvider())
}

func TestManager_CreateAndGet(t *testing.T) {
	manager := newTestManager()

	g, err := manager.Create(context.Background(), "room1", game.TypeTicTacToe, game.Options{})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if g.ID() != "room1" {
		t.Errorf("Expected game ID room1, got %s", g.ID())
	}

	got, exists := manager.Get("room1")
	if !exists {
		t.Fatal("Get should find the created room")
	}
	if got != g {
		t.Error("Get should return the same game instance")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 room, got %d", manager.Count())
	}
}

func TestManager_CreateUnknownType(t *testing.T) {
	manager := newTestManager()

	if _, err := manager.Create(context.Background(), "room1", "chess", game.Options{}); err == nil {
		t.Fatal("Unknown game type should be rejected")
	}
	if manager.Has("room1") {
		t.Error("Failed creation must not leave a room behind")
	}
}

func TestManager_JoinCreatesOnDemand(t *testing.T) {
	manager := newTestManager()

	err := manager.Join(context.Background(), "room1", game.TypePuzzle, func(g game.GameState) error {
		g.AddPlayer(game.RoleHe, "conn1")
		return nil
	})
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	g, exists := manager.Get("room1")
	if !exists {
		t.Fatal("Join should have created the room")
	}
	if g.Type() != game.TypePuzzle {
		t.Errorf("Expected puzzle, got %s", g.Type())
	}
	if !g.HasPlayer(game.RoleHe) {
		t.Error("Join callback changes should persist")
	}
}

func TestManager_WithUnknownRoom(t *testing.T) {
	manager := newTestManager()

	err := manager.With("ghost", func(g game.GameState) error { return nil })
	if err != game.ErrGameNotFound {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}

func TestManager_SwitchPreservesPlayers(t *testing.T) {
	manager := newTestManager()

	manager.Create(context.Background(), "room1", game.TypeTicTacToe, game.Options{})
	manager.With("room1", func(g game.GameState) error {
		g.AddPlayer(game.RoleHe, "conn1")
		g.AddPlayer(game.RoleShe, "conn2")
		return nil
	})

	g, err := manager.Switch(context.Background(), "room1", game.TypeNumberGuess)
	if err != nil {
		t.Fatalf("Switch failed: %v", err)
	}
	if g.Type() != game.TypeNumberGuess {
		t.Errorf("Expected numberguess, got %s", g.Type())
	}

	players := g.Players()
	if players[game.RoleHe] != "conn1" || players[game.RoleShe] != "conn2" {
		t.Errorf("Switch must carry the player map over, got %v", players)
	}
	if g.Winner() != game.OutcomeUnset {
		t.Error("Fresh instance must have no winner")
	}
}

func TestManager_SwitchUnknownRoom(t *testing.T) {
	manager := newTestManager()

	if _, err := manager.Switch(context.Background(), "ghost", game.TypePuzzle); err != game.ErrGameNotFound {
		t.Errorf("Expected ErrGameNotFound, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := newTestManager()
	manager.Create(context.Background(), "room1", game.TypeTicTacToe, game.Options{})

	if !manager.Delete("room1") {
		t.Fatal("Delete should report success for an existing room")
	}
	if manager.Delete("room1") {
		t.Error("Second delete should report false")
	}
	if manager.Has("room1") {
		t.Error("Deleted room should be gone")
	}
}

// slowProvider stalls every riddle fetch so tests can observe creation in
// progress.
type slowProvider struct {
	delay time.Duration
	inner content.Provider
}

func (p *slowProvider) Riddle(ctx context.Context) (content.Riddle, error) {
	time.Sleep(p.delay)
	return p.inner.Riddle(ctx)
}

func TestManager_ConcurrentJoinWaitsForCreation(t *testing.T) {
	manager := NewManager(&slowProvider{delay: time.Millisecond, inner: content.NewStaticProvider()})

	const joiners = 8
	var wg sync.WaitGroup
	errs := make(chan error, joiners)

	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := game.RoleHe
			if i%2 == 1 {
				role = game.RoleShe
			}
			errs <- manager.Join(context.Background(), "room1", game.TypeCoopDice, func(g game.GameState) error {
				// Every joiner must observe a fully built instance.
				snap := g.Serialize()
				board, ok := snap["board"].([]game.Tile)
				if !ok || len(board) != 36 {
					return fmt.Errorf("joiner %d saw a partial board", i)
				}
				g.AddPlayer(role, fmt.Sprintf("conn%d", i))
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if manager.Count() != 1 {
		t.Errorf("All joiners share one room, got %d", manager.Count())
	}
}

func TestManager_FailedCreationLeavesNoRoom(t *testing.T) {
	manager := NewManager(nil)

	err := manager.Join(context.Background(), "room1", game.TypeCoopDice, func(g game.GameState) error {
		return nil
	})
	if err == nil {
		t.Fatal("Creation without a provider should fail")
	}
	if manager.Has("room1") {
		t.Error("Failed creation must not leave a room behind")
	}

	// The room ID stays usable for another game type.
	if _, err := manager.Create(context.Background(), "room1", game.TypeTicTacToe, game.Options{}); err != nil {
		t.Fatalf("Room ID should be reusable after a failed creation: %v", err)
	}
}

// gatedFailProvider blocks the first fetch until released, then fails every
// call, so tests can hold a creation in flight and make it fail on cue.
type gatedFailProvider struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedFailProvider) Riddle(ctx context.Context) (content.Riddle, error) {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	return content.Riddle{}, fmt.Errorf("content source down")
}

func TestManager_QueuedJoinSurvivesFailedCreation(t *testing.T) {
	provider := &gatedFailProvider{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	manager := NewManager(provider)

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- manager.Join(context.Background(), "room1", game.TypeCoopDice, func(g game.GameState) error {
			return nil
		})
	}()
	<-provider.entered

	// Queue a second joiner on the shell while the first creation is
	// still in flight, then let that creation fail.
	secondErr := make(chan error, 1)
	go func() {
		secondErr <- manager.Join(context.Background(), "room1", game.TypeTicTacToe, func(g game.GameState) error {
			g.AddPlayer(game.RoleShe, "conn2")
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)
	close(provider.release)

	if err := <-firstErr; err == nil {
		t.Fatal("First creation should fail")
	}
	if err := <-secondErr; err != nil {
		t.Fatalf("Queued join should retry on a fresh shell: %v", err)
	}

	// A successful join must leave the room registered.
	g, exists := manager.Get("room1")
	if !exists {
		t.Fatal("Room is missing from the registry after a successful join")
	}
	if g.Type() != game.TypeTicTacToe {
		t.Errorf("Expected the retried join's game type, got %s", g.Type())
	}
	if !g.HasPlayer(game.RoleShe) {
		t.Error("Player binding from the successful join is lost")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 registered room, got %d", manager.Count())
	}
}

func TestManager_SweepIdle(t *testing.T) {
	manager := newTestManager()
	manager.Create(context.Background(), "stale", game.TypeTicTacToe, game.Options{})
	manager.Create(context.Background(), "fresh", game.TypeTicTacToe, game.Options{})

	// Backdate the stale room.
	r, _ := manager.get("stale")
	r.lastActive = time.Now().Add(-2 * time.Hour)

	evicted := manager.SweepIdle(time.Hour)
	if len(evicted) != 1 || evicted[0] != "stale" {
		t.Fatalf("Expected [stale], got %v", evicted)
	}
	if manager.Has("stale") {
		t.Error("Stale room should be evicted")
	}
	if !manager.Has("fresh") {
		t.Error("Fresh room should survive the sweep")
	}
}
