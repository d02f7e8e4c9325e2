package game

import (
	"context"

	"github.com/pairplay/gameserver/content"
)

// Role identifies one of the two fixed participants of a room.
type Role string

const (
	RoleHe  Role = "he"
	RoleShe Role = "she"
)

// ValidRole reports whether r is one of the two playable roles.
func ValidRole(r Role) bool {
	return r == RoleHe || r == RoleShe
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleHe {
		return RoleShe
	}
	return RoleHe
}

// Outcome is the terminal result of a game. The empty string means the game
// is still open. Once set it is only cleared by a reset or a game switch.
type Outcome string

const (
	OutcomeUnset Outcome = ""
	OutcomeHe    Outcome = "he"
	OutcomeShe   Outcome = "she"
	OutcomeDraw  Outcome = "draw"
	OutcomeBoth  Outcome = "both"
	// OutcomeLost marks a cooperative defeat (nobody won).
	OutcomeLost Outcome = "none"
)

// Snapshot is the serialized public state of a game instance. It is what
// gets broadcast to the room after every accepted action.
type Snapshot map[string]any

// GameState is the contract every game variant satisfies. Instances are not
// safe for concurrent use; the room layer serializes access.
type GameState interface {
	ID() string
	Type() string
	AddPlayer(role Role, connID string)
	RemovePlayer(role Role)
	HasPlayer(role Role) bool
	Players() map[Role]string
	Winner() Outcome
	// Reset re-initializes to the variant's starting state. For variants
	// that source board content externally it may block on the context and
	// fail; on failure the previous state is left intact.
	Reset(ctx context.Context) error
	Serialize() Snapshot
}

// BaseGame carries the fields and player bookkeeping shared by all
// variants. Variants embed it and build their snapshots on top of
// snapshot().
type BaseGame struct {
	id       string
	gameType string
	players  map[Role]string
	winner   Outcome
}

func newBaseGame(roomID, gameType string) BaseGame {
	return BaseGame{
		id:       roomID,
		gameType: gameType,
		players:  make(map[Role]string),
	}
}

func (b *BaseGame) ID() string {
	return b.id
}

func (b *BaseGame) Type() string {
	return b.gameType
}

func (b *BaseGame) AddPlayer(role Role, connID string) {
	b.players[role] = connID
}

func (b *BaseGame) RemovePlayer(role Role) {
	delete(b.players, role)
}

func (b *BaseGame) HasPlayer(role Role) bool {
	_, ok := b.players[role]
	return ok
}

// Players returns a copy of the role -> connection map.
func (b *BaseGame) Players() map[Role]string {
	players := make(map[Role]string, len(b.players))
	for role, connID := range b.players {
		players[role] = connID
	}
	return players
}

func (b *BaseGame) Winner() Outcome {
	return b.winner
}

// snapshot merges variant fields over the common ones. Variant keys win on
// collision, which lets a variant shadow a base field deliberately.
func (b *BaseGame) snapshot(extra Snapshot) Snapshot {
	s := Snapshot{
		"id":       b.id,
		"gameType": b.gameType,
		"players":  b.Players(),
		"winner":   b.winner,
	}
	for k, v := range extra {
		s[k] = v
	}
	return s
}

// Options carries per-variant creation parameters.
type Options struct {
	// Starter is the role that moves first in turn-based variants.
	// Defaults to RoleHe.
	Starter Role
}

// New constructs a game instance of the requested type. The context bounds
// any external content loading the variant needs; on failure no instance is
// returned.
func New(ctx context.Context, roomID, gameType string, opts Options, provider content.Provider) (GameState, error) {
	starter := opts.Starter
	if !ValidRole(starter) {
		starter = RoleHe
	}

	switch gameType {
	case TypeTicTacToe:
		return NewTicTacToe(roomID, starter), nil
	case TypePuzzle:
		return NewPuzzle(roomID), nil
	case TypeNumberGuess:
		return NewNumberGuess(roomID), nil
	case TypeCoopDice:
		return NewCoopDice(ctx, roomID, provider)
	default:
		return nil, invalidf("Unknown game type: %s", gameType)
	}
}

// Game type tags.
const (
	TypeTicTacToe   = "tictactoe"
	TypePuzzle      = "puzzle"
	TypeNumberGuess = "numberguess"
	TypeCoopDice    = "coopdice"
)

// KnownType reports whether gameType names one of the four variants.
func KnownType(gameType string) bool {
	switch gameType {
	case TypeTicTacToe, TypePuzzle, TypeNumberGuess, TypeCoopDice:
		return true
	}
	return false
}
