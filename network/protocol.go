package network

import "encoding/json"

// Client -> server events.
const (
	EventJoinRoom    = "join_room"
	EventChooseBall  = "choose_ball"
	EventGuessBall   = "guess_ball"
	EventMakeMove    = "make_move"
	EventSelectImage = "puzzle_select_image"
	EventReady       = "puzzle_ready"
	EventSwap        = "puzzle_swap"
	EventShuffle     = "puzzle_shuffle"
	EventGuessNumber = "guess_number"
	EventGameAction  = "game_action"
	EventResetGame   = "reset_game"
	EventSwitchGame  = "switch_game"
	EventLeaveRoom   = "leave_room"
)

// Server -> client events.
const (
	EventAck         = "ack"
	EventGameState   = "game_state"
	EventBallChosen  = "ball_chosen"
	EventGuessResult = "guess_result"
)

// Envelope is the JSON frame clients send. Seq correlates the ack.
type Envelope struct {
	Event string          `json:"event"`
	Seq   int64           `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Ack is the per-action response returned to the originating connection.
type Ack struct {
	Event   string         `json:"event"` // always EventAck
	Seq     int64          `json:"seq,omitempty"`
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Push is a server-initiated broadcast frame.
type Push struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
