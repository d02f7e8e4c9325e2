package game

import "context"

// TicTacToe is a 3x3 turn game gated by a hidden ball choice: before the
// player whose turn it is may place a mark, they must guess which ball the
// other player secretly picked. A wrong guess hands the turn over.
type TicTacToe struct {
	BaseGame
	board       [9]string // "", "X" (he) or "O" (she)
	currentTurn Role
	chooser     Role
	chosenBall  string
	moveAllowed bool
}

var ballColors = []string{"green", "red", "blue"}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

func NewTicTacToe(roomID string, starter Role) *TicTacToe {
	g := &TicTacToe{BaseGame: newBaseGame(roomID, TypeTicTacToe)}
	g.start(starter)
	return g
}

func (g *TicTacToe) start(starter Role) {
	g.board = [9]string{}
	g.currentTurn = starter
	g.chooser = starter.Other()
	g.chosenBall = ""
	g.moveAllowed = false
	g.winner = OutcomeUnset
}

func (g *TicTacToe) Reset(ctx context.Context) error {
	g.start(RoleHe)
	return nil
}

// ChooseBall records the chooser's secret pick. The value is withheld from
// snapshots until resolved; the room only learns that a choice exists.
func (g *TicTacToe) ChooseBall(role Role, color string) error {
	if g.winner != OutcomeUnset {
		return ErrGameOver
	}
	if role != g.chooser {
		return policyf("Only the chooser may pick a ball")
	}
	if !validBall(color) {
		return invalidf("Invalid color")
	}
	if g.chosenBall != "" {
		return policyf("Ball already chosen")
	}
	g.chosenBall = color
	g.moveAllowed = false
	return nil
}

// GuessBall resolves the pending choice. A correct guess unlocks a move for
// the current player; a wrong one swaps turn and chooser. The pending
// choice is cleared either way.
func (g *TicTacToe) GuessBall(role Role, color string) (bool, error) {
	if g.winner != OutcomeUnset {
		return false, ErrGameOver
	}
	if role != g.currentTurn {
		return false, ErrNotYourTurn
	}
	if g.chosenBall == "" {
		return false, policyf("No ball chosen yet")
	}
	if g.moveAllowed {
		return false, policyf("Already guessed correctly, make your move!")
	}

	correct := g.chosenBall == color
	g.chosenBall = ""

	if correct {
		g.moveAllowed = true
	} else {
		g.switchTurns()
		g.moveAllowed = false
	}
	return correct, nil
}

// MakeMove places the current player's mark on an empty cell. Only valid
// after a correct guess.
func (g *TicTacToe) MakeMove(role Role, index int) error {
	if g.winner != OutcomeUnset {
		return ErrGameOver
	}
	if !g.moveAllowed {
		return policyf("Move not allowed. Guess the ball first!")
	}
	if role != g.currentTurn {
		return ErrNotYourTurn
	}
	if index < 0 || index > 8 {
		return invalidf("Invalid index")
	}
	if g.board[index] != "" {
		return policyf("Cell already filled")
	}

	g.board[index] = markFor(role)
	g.moveAllowed = false
	g.chosenBall = ""

	if winner := g.checkWinner(); winner != OutcomeUnset {
		g.winner = winner
	} else {
		g.switchTurns()
	}
	return nil
}

func (g *TicTacToe) switchTurns() {
	g.currentTurn = g.currentTurn.Other()
	g.chooser = g.currentTurn.Other()
}

func (g *TicTacToe) checkWinner() Outcome {
	for _, line := range winLines {
		a, b, c := line[0], line[1], line[2]
		if g.board[a] != "" && g.board[a] == g.board[b] && g.board[a] == g.board[c] {
			if g.board[a] == "X" {
				return OutcomeHe
			}
			return OutcomeShe
		}
	}
	for _, cell := range g.board {
		if cell == "" {
			return OutcomeUnset
		}
	}
	return OutcomeDraw
}

func (g *TicTacToe) Serialize() Snapshot {
	return g.snapshot(Snapshot{
		"board":       g.board[:],
		"currentTurn": g.currentTurn,
		"chooser":     g.chooser,
		// The pending ball value never goes over the wire, only the fact
		// that a choice exists.
		"ballChosen":  g.chosenBall != "",
		"moveAllowed": g.moveAllowed,
	})
}

func markFor(role Role) string {
	if role == RoleHe {
		return "X"
	}
	return "O"
}

func validBall(color string) bool {
	for _, c := range ballColors {
		if c == color {
			return true
		}
	}
	return false
}
