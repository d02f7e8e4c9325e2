package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pairplay/gameserver/content"
)

const (
	boardSize        = 6
	boardTiles       = boardSize * boardSize
	goalTileID       = boardTiles - 1
	puzzleTileTarget = 15
	// How many provider calls board generation may spend collecting
	// puzzleTileTarget unique riddles before giving up.
	riddleFetchBudget = puzzleTileTarget * 4
	startingTurns     = 30
	puzzleAttempts    = 3
	maxLogEntries     = 10
)

var monsterNames = []string{
	"Swamp Beast", "Venomous Snake", "Giant Spider", "Ancient Treant",
	"Shadow Stalker", "Jungle Guardian", "Rabid Wolf", "Poison Frog",
}

// Tile is one board cell. Puzzle tiles carry a riddle guarded by a monster.
// The answer is kept server-side and never serialized.
type Tile struct {
	ID      int    `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Type    string `json:"type"` // "normal" or "puzzle"
	Riddle  string `json:"riddle,omitempty"`
	Monster string `json:"monster,omitempty"`
	Solved  bool   `json:"solved,omitempty"`

	answer string
}

// Position is a board coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pawn is the per-role movement state.
type Pawn struct {
	Pos         Position `json:"pos"`
	CurrentRoll *int     `json:"currentRoll"`
	Frozen      bool     `json:"frozen"`
}

// ActivePuzzle is the riddle currently blocking the board. Only the role
// that stepped on the tile may answer.
type ActivePuzzle struct {
	TileID       int    `json:"tileId"`
	Riddle       string `json:"riddle"`
	Monster      string `json:"monster"`
	Solver       Role   `json:"solver"`
	AttemptsLeft int    `json:"attemptsLeft"`
}

// CoopDice is the cooperative board adventure: both players race a shared
// turn countdown from (0,0) to (5,5) across a 6x6 board seeded with riddle
// tiles from an external content provider.
type CoopDice struct {
	BaseGame
	provider content.Provider

	board        []Tile
	pawns        map[Role]*Pawn
	currentTurn  Role
	turnsLeft    int
	gameStatus   string // "playing", "won" or "lost"
	activePuzzle *ActivePuzzle
	logs         []string
}

// NewCoopDice builds the variant and generates its board. Content loading
// may fail; no instance is returned in that case.
func NewCoopDice(ctx context.Context, roomID string, provider content.Provider) (*CoopDice, error) {
	g := &CoopDice{
		BaseGame: newBaseGame(roomID, TypeCoopDice),
		provider: provider,
	}
	if err := g.Reset(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Reset regenerates the board from the content provider. The new board is
// fully assembled before it replaces the old state, so a failed reset never
// publishes a partial board.
func (g *CoopDice) Reset(ctx context.Context) error {
	board, err := g.generateBoard(ctx)
	if err != nil {
		return err
	}

	g.board = board
	g.pawns = map[Role]*Pawn{
		RoleHe:  {Pos: Position{0, 0}},
		RoleShe: {Pos: Position{0, 0}},
	}
	g.currentTurn = RoleHe
	g.turnsLeft = startingTurns
	g.gameStatus = "playing"
	g.activePuzzle = nil
	g.logs = []string{"Welcome to the Jungle Playground!"}
	g.winner = OutcomeUnset
	return nil
}

// generateBoard fetches unique riddles within a bounded call budget and
// scatters them over random non-start, non-goal cells.
func (g *CoopDice) generateBoard(ctx context.Context) ([]Tile, error) {
	if g.provider == nil {
		return nil, contentf("No content provider configured")
	}

	riddles := make([]content.Riddle, 0, puzzleTileTarget)
	seen := make(map[string]bool)
	for calls := 0; len(riddles) < puzzleTileTarget; calls++ {
		if calls >= riddleFetchBudget {
			return nil, contentf("Board generation failed: got %d of %d riddles", len(riddles), puzzleTileTarget)
		}
		riddle, err := g.provider.Riddle(ctx)
		if err != nil {
			continue
		}
		if seen[riddle.Question] {
			continue
		}
		seen[riddle.Question] = true
		riddle.Answer = content.Normalize(riddle.Answer)
		riddles = append(riddles, riddle)
	}

	tiles := make([]Tile, boardTiles)
	for y := 0; y < boardSize; y++ {
		for x := 0; x < boardSize; x++ {
			id := y*boardSize + x
			tiles[id] = Tile{ID: id, X: x, Y: y, Type: "normal"}
		}
	}

	// Pick puzzle cells between start (0) and goal (35), exclusive.
	spots := make(map[int]bool)
	for len(spots) < puzzleTileTarget {
		spots[rand.Intn(boardTiles-2)+1] = true
	}

	i := 0
	for id := range spots {
		tiles[id].Type = "puzzle"
		tiles[id].Riddle = riddles[i].Question
		tiles[id].answer = riddles[i].Answer
		tiles[id].Monster = monsterNames[rand.Intn(len(monsterNames))]
		i++
	}
	return tiles, nil
}

// Roll produces this turn's die value. A frozen player skips the turn
// instead: the freeze clears and play passes on.
func (g *CoopDice) Roll(role Role) error {
	if g.gameStatus != "playing" {
		return ErrGameOver
	}
	if role != g.currentTurn {
		return ErrNotYourTurn
	}
	pawn := g.pawns[role]
	if pawn.CurrentRoll != nil {
		return policyf("Already rolled this turn")
	}

	if pawn.Frozen {
		g.addLog(fmt.Sprintf("%s is frozen! Skip turn.", displayName(role)))
		pawn.Frozen = false
		g.endTurn()
		return nil
	}

	roll := rand.Intn(6) + 1
	pawn.CurrentRoll = &roll
	g.addLog(fmt.Sprintf("%s rolled a %d", displayName(role), roll))
	return nil
}

// Move walks the pawn to targetID. The Manhattan distance must not exceed
// the pending roll; the roll is consumed either way the move lands.
func (g *CoopDice) Move(role Role, targetID int) error {
	if g.gameStatus != "playing" {
		return ErrGameOver
	}
	if role != g.currentTurn {
		return ErrNotYourTurn
	}
	pawn := g.pawns[role]
	if pawn.CurrentRoll == nil {
		return policyf("Roll the dice first")
	}
	if targetID < 0 || targetID >= boardTiles {
		return invalidf("Invalid tile")
	}

	target := &g.board[targetID]
	distance := abs(target.X-pawn.Pos.X) + abs(target.Y-pawn.Pos.Y)
	if distance > *pawn.CurrentRoll {
		return policyf("Too far: distance %d exceeds roll %d", distance, *pawn.CurrentRoll)
	}

	pawn.Pos = Position{target.X, target.Y}
	pawn.CurrentRoll = nil
	g.addLog(fmt.Sprintf("%s moved to (%d, %d)", displayName(role), target.X, target.Y))

	if target.ID == goalTileID {
		g.addLog(fmt.Sprintf("%s reached the extraction point!", displayName(role)))
		g.checkWin()
		g.endTurn()
		return nil
	}

	if target.Type == "puzzle" && !target.Solved {
		g.activePuzzle = &ActivePuzzle{
			TileID:       target.ID,
			Riddle:       target.Riddle,
			Monster:      target.Monster,
			Solver:       role,
			AttemptsLeft: puzzleAttempts,
		}
		g.addLog(fmt.Sprintf("A %s blocks the path!", target.Monster))
		return nil
	}

	g.endTurn()
	return nil
}

// Solve answers the active riddle. Running out of attempts sends the solver
// back to the start.
func (g *CoopDice) Solve(role Role, answer string) error {
	if g.activePuzzle == nil {
		return policyf("No puzzle to solve")
	}
	if g.activePuzzle.Solver != role {
		return policyf("This puzzle is not yours to solve")
	}

	tile := &g.board[g.activePuzzle.TileID]
	if content.Normalize(answer) == tile.answer {
		g.addLog(fmt.Sprintf("%s defeated! You survive.", g.activePuzzle.Monster))
		tile.Solved = true
		g.activePuzzle = nil
		g.endTurn()
		return nil
	}

	g.activePuzzle.AttemptsLeft--
	if g.activePuzzle.AttemptsLeft <= 0 {
		g.addLog(fmt.Sprintf("The %s got you! Respawning at start...", g.activePuzzle.Monster))
		g.pawns[role].Pos = Position{0, 0}
		g.activePuzzle = nil
		g.endTurn()
		return nil
	}

	g.addLog(fmt.Sprintf("Wrong! The monster growls. %d attempts left.", g.activePuzzle.AttemptsLeft))
	return nil
}

func (g *CoopDice) endTurn() {
	g.turnsLeft--
	if g.turnsLeft <= 0 {
		g.gameStatus = "lost"
		g.winner = OutcomeLost
		g.addLog("Time ran out! Game Over")
		return
	}
	g.currentTurn = g.currentTurn.Other()
}

func (g *CoopDice) checkWin() {
	he := g.pawns[RoleHe].Pos
	she := g.pawns[RoleShe].Pos
	goal := Position{boardSize - 1, boardSize - 1}
	if he == goal && she == goal {
		g.gameStatus = "won"
		g.winner = OutcomeBoth
		g.addLog("YOU BOTH MADE IT! VICTORY!")
	}
}

func (g *CoopDice) addLog(msg string) {
	g.logs = append([]string{msg}, g.logs...)
	if len(g.logs) > maxLogEntries {
		g.logs = g.logs[:maxLogEntries]
	}
}

func (g *CoopDice) Serialize() Snapshot {
	board := make([]Tile, len(g.board))
	copy(board, g.board)

	pawns := map[Role]Pawn{
		RoleHe:  *g.pawns[RoleHe],
		RoleShe: *g.pawns[RoleShe],
	}

	logs := make([]string, len(g.logs))
	copy(logs, g.logs)

	var active *ActivePuzzle
	if g.activePuzzle != nil {
		cp := *g.activePuzzle
		active = &cp
	}

	return g.snapshot(Snapshot{
		"board":        board,
		"pawns":        pawns,
		"currentTurn":  g.currentTurn,
		"turnsLeft":    g.turnsLeft,
		"gameStatus":   g.gameStatus,
		"activePuzzle": active,
		"logs":         logs,
	})
}

func displayName(role Role) string {
	if role == RoleHe {
		return "He"
	}
	return "She"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
