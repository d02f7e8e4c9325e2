package game

import (
	"context"
	"math/rand"
)

const puzzleSize = 4

// Puzzle is the cooperative sliding puzzle: both players rearrange the
// same 4x4 tile grid by swapping tiles until it matches the solved order.
type Puzzle struct {
	BaseGame
	totalTiles int
	tiles      []int
	solved     []int
	ready      map[Role]bool
	started    bool
	imageURL   string
}

func NewPuzzle(roomID string) *Puzzle {
	g := &Puzzle{
		BaseGame:   newBaseGame(roomID, TypePuzzle),
		totalTiles: puzzleSize * puzzleSize,
	}
	g.start()
	return g
}

func (g *Puzzle) start() {
	g.tiles = make([]int, g.totalTiles)
	g.solved = make([]int, g.totalTiles)
	for i := range g.tiles {
		g.tiles[i] = i
		g.solved[i] = i
	}
	g.ready = map[Role]bool{RoleHe: false, RoleShe: false}
	g.started = false
	g.imageURL = ""
	g.winner = OutcomeUnset
}

func (g *Puzzle) Reset(ctx context.Context) error {
	g.start()
	return nil
}

// SelectImage picks the picture the tiles are cut from. Only allowed
// before the puzzle starts.
func (g *Puzzle) SelectImage(role Role, url string) error {
	if url == "" {
		return invalidf("Image URL required")
	}
	if g.started {
		return policyf("Game already started")
	}
	g.imageURL = url
	return nil
}

// SetReady flips the role's ready flag. The puzzle starts the moment both
// flags are set and stays started until an explicit reset.
func (g *Puzzle) SetReady(role Role) (started bool, err error) {
	g.ready[role] = true
	if g.ready[RoleHe] && g.ready[RoleShe] {
		g.started = true
	}
	return g.started, nil
}

// Shuffle applies a uniform Fisher-Yates permutation to the tiles. An image
// must already be selected.
func (g *Puzzle) Shuffle() error {
	if g.imageURL == "" {
		return policyf("Image not selected yet")
	}
	for i := len(g.tiles) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		g.tiles[i], g.tiles[j] = g.tiles[j], g.tiles[i]
	}
	return nil
}

// Swap exchanges two tiles. Solving the grid ends the game with a
// cooperative win.
func (g *Puzzle) Swap(a, b int) (solved bool, err error) {
	if !g.started {
		return false, policyf("Puzzle not started yet")
	}
	if g.winner != OutcomeUnset {
		return false, policyf("Puzzle already solved!")
	}
	if a < 0 || a >= g.totalTiles || b < 0 || b >= g.totalTiles {
		return false, invalidf("Invalid tile index")
	}

	g.tiles[a], g.tiles[b] = g.tiles[b], g.tiles[a]

	if g.isSolved() {
		g.winner = OutcomeBoth
	}
	return g.isSolved(), nil
}

func (g *Puzzle) isSolved() bool {
	for i, v := range g.tiles {
		if v != g.solved[i] {
			return false
		}
	}
	return true
}

func (g *Puzzle) Serialize() Snapshot {
	tiles := make([]int, len(g.tiles))
	copy(tiles, g.tiles)
	return g.snapshot(Snapshot{
		"tiles":       tiles,
		"solvedTiles": g.solved,
		"ready":       map[Role]bool{RoleHe: g.ready[RoleHe], RoleShe: g.ready[RoleShe]},
		"started":     g.started,
		"imageUrl":    g.imageURL,
	})
}
