package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/pairplay/gameserver/content"
)

// seqProvider hands out unique riddles with predictable answers.
type seqProvider struct {
	n    int
	fail bool
}

func (p *seqProvider) Riddle(ctx context.Context) (content.Riddle, error) {
	if p.fail {
		return content.Riddle{}, fmt.Errorf("provider down")
	}
	p.n++
	return content.Riddle{
		Question: fmt.Sprintf("riddle %d", p.n),
		Answer:   fmt.Sprintf("answer %d", p.n),
	}, nil
}

func newTestCoopDice(t *testing.T) *CoopDice {
	t.Helper()
	g, err := NewCoopDice(context.Background(), "room1", &seqProvider{})
	if err != nil {
		t.Fatalf("NewCoopDice failed: %v", err)
	}
	return g
}

func TestCoopDice_BoardGeneration(t *testing.T) {
	g := newTestCoopDice(t)

	if len(g.board) != boardTiles {
		t.Fatalf("Expected %d tiles, got %d", boardTiles, len(g.board))
	}

	puzzles := 0
	for _, tile := range g.board {
		if tile.Type == "puzzle" {
			puzzles++
			if tile.Riddle == "" || tile.answer == "" || tile.Monster == "" {
				t.Errorf("Puzzle tile %d is missing riddle, answer or monster", tile.ID)
			}
		}
	}
	if puzzles != puzzleTileTarget {
		t.Errorf("Expected %d puzzle tiles, got %d", puzzleTileTarget, puzzles)
	}

	if g.board[0].Type != "normal" {
		t.Error("Start tile must stay normal")
	}
	if g.board[goalTileID].Type != "normal" {
		t.Error("Goal tile must stay normal")
	}

	if g.turnsLeft != startingTurns {
		t.Errorf("Expected %d turns, got %d", startingTurns, g.turnsLeft)
	}
	if g.pawns[RoleHe].Pos != (Position{0, 0}) || g.pawns[RoleShe].Pos != (Position{0, 0}) {
		t.Error("Both pawns should start at (0,0)")
	}
}

func TestCoopDice_CreationFailsWithoutContent(t *testing.T) {
	_, err := NewCoopDice(context.Background(), "room1", &seqProvider{fail: true})
	if err == nil {
		t.Fatal("Creation should fail when the provider yields nothing")
	}
	gerr, ok := err.(*Error)
	if !ok || gerr.Code != CodeContentSource {
		t.Errorf("Expected a content source error, got %v", err)
	}
}

func TestCoopDice_MoveRequiresRollAndRange(t *testing.T) {
	g := newTestCoopDice(t)

	if err := g.Move(RoleHe, 1); err == nil {
		t.Fatal("Move before rolling should fail")
	}

	roll := 2
	g.pawns[RoleHe].CurrentRoll = &roll

	// Tile 35 is (5,5), Manhattan distance 10 from the start.
	if err := g.Move(RoleHe, goalTileID); err == nil {
		t.Fatal("Move beyond the roll should fail")
	}
	if g.pawns[RoleHe].Pos != (Position{0, 0}) {
		t.Error("Rejected move must not change the position")
	}
	if g.pawns[RoleHe].CurrentRoll == nil {
		t.Error("Rejected move must not consume the roll")
	}

	if err := g.Move(RoleHe, -1); err == nil {
		t.Error("Negative tile should be rejected")
	}
	if err := g.Move(RoleHe, boardTiles); err == nil {
		t.Error("Out-of-range tile should be rejected")
	}
}

func TestCoopDice_MoveOntoNormalTileEndsTurn(t *testing.T) {
	g := newTestCoopDice(t)

	// Find a normal tile away from the start and reach it exactly.
	target := -1
	for _, tile := range g.board {
		if tile.ID != 0 && tile.ID != goalTileID && tile.Type == "normal" {
			target = tile.ID
			break
		}
	}
	if target == -1 {
		t.Fatal("Board has no normal tile")
	}

	roll := g.board[target].X + g.board[target].Y
	g.pawns[RoleHe].CurrentRoll = &roll
	if err := g.Move(RoleHe, target); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if g.pawns[RoleHe].CurrentRoll != nil {
		t.Error("Move should consume the roll")
	}
	if g.currentTurn != RoleShe {
		t.Errorf("Turn should pass to she, got %s", g.currentTurn)
	}
	if g.turnsLeft != startingTurns-1 {
		t.Errorf("Expected %d turns left, got %d", startingTurns-1, g.turnsLeft)
	}
}

func puzzleTileNear(t *testing.T, g *CoopDice) *Tile {
	t.Helper()
	for i := range g.board {
		if g.board[i].Type == "puzzle" {
			return &g.board[i]
		}
	}
	t.Fatal("Board has no puzzle tile")
	return nil
}

func stepOntoPuzzle(t *testing.T, g *CoopDice) *Tile {
	t.Helper()
	tile := puzzleTileNear(t, g)
	roll := tile.X + tile.Y // distance from (0,0)
	g.pawns[RoleHe].CurrentRoll = &roll
	if err := g.Move(RoleHe, tile.ID); err != nil {
		t.Fatalf("Move onto puzzle tile failed: %v", err)
	}
	if g.activePuzzle == nil {
		t.Fatal("Stepping onto an unsolved puzzle tile should open it")
	}
	return tile
}

func TestCoopDice_SolvePuzzle(t *testing.T) {
	g := newTestCoopDice(t)
	tile := stepOntoPuzzle(t, g)

	if g.activePuzzle.Solver != RoleHe {
		t.Errorf("Solver should be the mover, got %s", g.activePuzzle.Solver)
	}
	if err := g.Solve(RoleShe, tile.answer); err == nil {
		t.Error("Only the solver may answer")
	}

	// The comparison is case and whitespace insensitive.
	if err := g.Solve(RoleHe, "  "+strings.ToUpper(tile.answer)+" "); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if !g.board[tile.ID].Solved {
		t.Error("Solved tile should be marked")
	}
	if g.activePuzzle != nil {
		t.Error("Active puzzle should be cleared")
	}
	if g.currentTurn != RoleShe {
		t.Error("Solving ends the turn")
	}
}

func TestCoopDice_FailedPuzzleRespawns(t *testing.T) {
	g := newTestCoopDice(t)
	stepOntoPuzzle(t, g)

	for i := 0; i < puzzleAttempts-1; i++ {
		if err := g.Solve(RoleHe, "wrong"); err != nil {
			t.Fatalf("Solve attempt %d failed: %v", i, err)
		}
		if g.activePuzzle == nil {
			t.Fatal("Puzzle should stay open while attempts remain")
		}
	}

	if err := g.Solve(RoleHe, "still wrong"); err != nil {
		t.Fatalf("Final attempt failed: %v", err)
	}
	if g.activePuzzle != nil {
		t.Error("Puzzle should close after the last attempt")
	}
	if g.pawns[RoleHe].Pos != (Position{0, 0}) {
		t.Errorf("Solver should respawn at start, got %v", g.pawns[RoleHe].Pos)
	}
	if g.currentTurn != RoleShe {
		t.Error("Failing the puzzle ends the turn")
	}
}

func TestCoopDice_FrozenSkipsTurn(t *testing.T) {
	g := newTestCoopDice(t)
	g.pawns[RoleHe].Frozen = true

	if err := g.Roll(RoleHe); err != nil {
		t.Fatalf("Roll failed: %v", err)
	}
	if g.pawns[RoleHe].Frozen {
		t.Error("Freeze should clear after the skipped turn")
	}
	if g.pawns[RoleHe].CurrentRoll != nil {
		t.Error("Skipped turn must not produce a roll")
	}
	if g.currentTurn != RoleShe {
		t.Error("Skipped turn passes play on")
	}
}

func TestCoopDice_TurnExhaustionLoses(t *testing.T) {
	g := newTestCoopDice(t)
	g.turnsLeft = 1

	g.pawns[RoleHe].Frozen = true
	if err := g.Roll(RoleHe); err != nil {
		t.Fatalf("Roll failed: %v", err)
	}

	if g.gameStatus != "lost" {
		t.Errorf("Expected lost, got %q", g.gameStatus)
	}
	if g.Winner() != OutcomeLost {
		t.Errorf("Expected %q outcome, got %q", OutcomeLost, g.Winner())
	}
	if err := g.Roll(RoleShe); err == nil {
		t.Error("Actions after the loss should fail")
	}
}

func TestCoopDice_BothAtGoalWins(t *testing.T) {
	g := newTestCoopDice(t)
	goal := Position{boardSize - 1, boardSize - 1}
	g.pawns[RoleShe].Pos = goal
	g.pawns[RoleHe].Pos = Position{4, 5}

	roll := 1
	g.pawns[RoleHe].CurrentRoll = &roll
	if err := g.Move(RoleHe, goalTileID); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if g.gameStatus != "won" {
		t.Errorf("Expected won, got %q", g.gameStatus)
	}
	if g.Winner() != OutcomeBoth {
		t.Errorf("Expected cooperative win, got %q", g.Winner())
	}
}

func TestCoopDice_AnswersNeverSerialized(t *testing.T) {
	g := newTestCoopDice(t)
	stepOntoPuzzle(t, g)

	raw, err := json.Marshal(g.Serialize())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(raw), "answer") {
		t.Error("Snapshot must not carry riddle answers")
	}
	if !strings.Contains(string(raw), `"pawns"`) {
		t.Error("Snapshot should carry the pawns map")
	}
	if !strings.Contains(string(raw), `"players"`) {
		t.Error("Snapshot should keep the players map alongside pawns")
	}
}

func TestCoopDice_FailedResetKeepsState(t *testing.T) {
	provider := &seqProvider{}
	g, err := NewCoopDice(context.Background(), "room1", provider)
	if err != nil {
		t.Fatalf("NewCoopDice failed: %v", err)
	}

	g.turnsLeft = 7
	before := make([]Tile, len(g.board))
	copy(before, g.board)

	provider.fail = true
	if err := g.Reset(context.Background()); err == nil {
		t.Fatal("Reset should fail when the provider is down")
	}

	if g.turnsLeft != 7 {
		t.Error("Failed reset must leave the countdown untouched")
	}
	for i := range before {
		if g.board[i].Riddle != before[i].Riddle {
			t.Fatal("Failed reset must leave the board untouched")
		}
	}
}
