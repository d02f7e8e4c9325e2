package game

import (
	"context"
	"testing"
)

func TestTicTacToe_InitialState(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)

	if g.Type() != TypeTicTacToe {
		t.Errorf("Expected type %s, got %s", TypeTicTacToe, g.Type())
	}
	if g.currentTurn != RoleHe {
		t.Errorf("Expected he to start, got %s", g.currentTurn)
	}
	if g.chooser != RoleShe {
		t.Errorf("Expected she to be the chooser, got %s", g.chooser)
	}
	if g.Winner() != OutcomeUnset {
		t.Errorf("Expected no winner, got %s", g.Winner())
	}
}

func TestTicTacToe_CorrectGuessUnlocksMove(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)

	if err := g.ChooseBall(RoleShe, "red"); err != nil {
		t.Fatalf("ChooseBall failed: %v", err)
	}

	correct, err := g.GuessBall(RoleHe, "red")
	if err != nil {
		t.Fatalf("GuessBall failed: %v", err)
	}
	if !correct {
		t.Fatal("Expected guess to be correct")
	}
	if !g.moveAllowed {
		t.Fatal("Correct guess should unlock the move")
	}

	if err := g.MakeMove(RoleHe, 4); err != nil {
		t.Fatalf("MakeMove failed: %v", err)
	}
	if g.board[4] != "X" {
		t.Errorf("Expected X at center, got %q", g.board[4])
	}
	if g.currentTurn != RoleShe {
		t.Errorf("Expected turn to pass to she, got %s", g.currentTurn)
	}
	if g.moveAllowed {
		t.Error("Move permission should be consumed by the move")
	}
}

func TestTicTacToe_WrongGuessSwitchesTurn(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)

	if err := g.ChooseBall(RoleShe, "blue"); err != nil {
		t.Fatalf("ChooseBall failed: %v", err)
	}

	correct, err := g.GuessBall(RoleHe, "green")
	if err != nil {
		t.Fatalf("GuessBall failed: %v", err)
	}
	if correct {
		t.Fatal("Expected guess to be wrong")
	}
	if g.currentTurn != RoleShe {
		t.Errorf("Wrong guess should hand the turn over, got %s", g.currentTurn)
	}
	if g.chooser != RoleHe {
		t.Errorf("Chooser should follow the turn, got %s", g.chooser)
	}
	if g.chosenBall != "" {
		t.Error("Pending choice should be cleared after a guess")
	}
	if g.moveAllowed {
		t.Error("Wrong guess must not allow a move")
	}
}

func TestTicTacToe_ChoiceClearedAfterCorrectGuess(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)

	g.ChooseBall(RoleShe, "green")
	g.GuessBall(RoleHe, "green")

	if g.chosenBall != "" {
		t.Error("Pending choice should be cleared even on a correct guess")
	}
	// A second guess before a new choice must be rejected.
	if _, err := g.GuessBall(RoleHe, "green"); err == nil {
		t.Error("Guess without a pending choice should fail")
	}
}

func TestTicTacToe_MoveGatedByGuess(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)

	if err := g.MakeMove(RoleHe, 0); err == nil {
		t.Fatal("Move without a correct guess should fail")
	}
}

func TestTicTacToe_ChooseBallValidation(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)

	if err := g.ChooseBall(RoleHe, "red"); err == nil {
		t.Error("Only the chooser may pick a ball")
	}
	if err := g.ChooseBall(RoleShe, "purple"); err == nil {
		t.Error("Invalid color should be rejected")
	}
	if err := g.ChooseBall(RoleShe, "red"); err != nil {
		t.Fatalf("Valid choice failed: %v", err)
	}
	if err := g.ChooseBall(RoleShe, "blue"); err == nil {
		t.Error("Second choice before resolution should be rejected")
	}
}

func TestTicTacToe_BallValueWithheldFromSnapshot(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)
	g.ChooseBall(RoleShe, "red")

	snap := g.Serialize()
	if snap["ballChosen"] != true {
		t.Error("Snapshot should expose that a choice exists")
	}
	for key, value := range snap {
		if s, ok := value.(string); ok && s == "red" {
			t.Errorf("Snapshot leaks the chosen ball via key %q", key)
		}
	}
}

func TestTicTacToe_WinEndsGame(t *testing.T) {
	g := NewTicTacToe("room1", RoleHe)

	// Drive he to a top-row win, alternating with she elsewhere.
	heMoves := []int{0, 1, 2}
	sheMoves := []int{3, 4}
	for i := 0; i < 3; i++ {
		g.ChooseBall(RoleShe, "red")
		g.GuessBall(RoleHe, "red")
		if err := g.MakeMove(RoleHe, heMoves[i]); err != nil {
			t.Fatalf("he move %d failed: %v", heMoves[i], err)
		}
		if g.Winner() != OutcomeUnset {
			break
		}
		g.ChooseBall(RoleHe, "blue")
		g.GuessBall(RoleShe, "blue")
		if err := g.MakeMove(RoleShe, sheMoves[i]); err != nil {
			t.Fatalf("she move %d failed: %v", sheMoves[i], err)
		}
	}

	if g.Winner() != OutcomeHe {
		t.Fatalf("Expected he to win, got %q", g.Winner())
	}

	// Terminal state must reject further actions.
	if err := g.ChooseBall(RoleShe, "red"); err == nil {
		t.Error("ChooseBall after game over should fail")
	}
	if _, err := g.GuessBall(RoleHe, "red"); err == nil {
		t.Error("GuessBall after game over should fail")
	}
	if err := g.MakeMove(RoleHe, 8); err == nil {
		t.Error("MakeMove after game over should fail")
	}
}

func TestTicTacToe_ResetClearsEverything(t *testing.T) {
	g := NewTicTacToe("room1", RoleShe)
	g.AddPlayer(RoleHe, "conn1")
	g.ChooseBall(RoleHe, "red")

	if err := g.Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if g.currentTurn != RoleHe {
		t.Errorf("Reset should restore he as starter, got %s", g.currentTurn)
	}
	if g.chosenBall != "" {
		t.Error("Reset should clear the pending choice")
	}
	if !g.HasPlayer(RoleHe) {
		t.Error("Reset must not drop players")
	}
}
