// Package dispatch connects inbound player actions to game mutation and
// outbound state broadcasts. Every action is authorized against the
// session's trusted role, routed to the matching variant operation under
// the room's lock, and on success the new canonical snapshot is broadcast
// to the whole room.
package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pairplay/gameserver/game"
	"github.com/pairplay/gameserver/logger"
	"github.com/pairplay/gameserver/monitor"
	"github.com/pairplay/gameserver/network"
	"github.com/pairplay/gameserver/room"
	"github.com/pairplay/gameserver/session"
)

// Broadcaster delivers an event to every connection joined to a room.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, data any) error
}

// Capability sets per variant. The dispatcher checks these instead of the
// game type tag, so an action sent to the wrong variant fails cleanly.
type ballGame interface {
	ChooseBall(role game.Role, color string) error
	GuessBall(role game.Role, color string) (bool, error)
	MakeMove(role game.Role, index int) error
}

type puzzleGame interface {
	SelectImage(role game.Role, url string) error
	SetReady(role game.Role) (bool, error)
	Shuffle() error
	Swap(a, b int) (bool, error)
}

type guessingGame interface {
	MakeGuess(role game.Role, value int) error
}

type adventureGame interface {
	Roll(role game.Role) error
	Move(role game.Role, targetID int) error
	Solve(role game.Role, answer string) error
}

type Dispatcher struct {
	rooms       *room.Manager
	broadcaster Broadcaster
	metrics     *monitor.Monitor // optional

	mu sync.Mutex
	// Reverse index connection -> room -> role, so disconnect cleanup does
	// not scan the whole registry.
	occupancy map[string]map[string]game.Role
}

func NewDispatcher(rooms *room.Manager, broadcaster Broadcaster, metrics *monitor.Monitor) *Dispatcher {
	return &Dispatcher{
		rooms:       rooms,
		broadcaster: broadcaster,
		metrics:     metrics,
		occupancy:   make(map[string]map[string]game.Role),
	}
}

type joinPayload struct {
	RoomID   string    `json:"roomId"`
	Role     game.Role `json:"role"`
	GameType string    `json:"gameType"`
}

type ballPayload struct {
	RoomID string    `json:"roomId"`
	Role   game.Role `json:"role"`
	Color  string    `json:"color"`
}

type movePayload struct {
	RoomID string    `json:"roomId"`
	Role   game.Role `json:"role"`
	Index  int       `json:"index"`
}

type imagePayload struct {
	RoomID   string    `json:"roomId"`
	Role     game.Role `json:"role"`
	ImageURL string    `json:"imageUrl"`
}

type readyPayload struct {
	RoomID string    `json:"roomId"`
	Role   game.Role `json:"role"`
}

type swapPayload struct {
	RoomID string    `json:"roomId"`
	Role   game.Role `json:"role"`
	IndexA int       `json:"indexA"`
	IndexB int       `json:"indexB"`
}

type numberPayload struct {
	RoomID string      `json:"roomId"`
	Role   game.Role   `json:"role"`
	Guess  json.Number `json:"guess"`
}

type actionPayload struct {
	RoomID   string    `json:"roomId"`
	Role     game.Role `json:"role"`
	Action   string    `json:"action"`
	TargetID *int      `json:"targetId"`
	Answer   string    `json:"answer"`
}

type switchPayload struct {
	RoomID   string    `json:"roomId"`
	Role     game.Role `json:"role"`
	GameType string    `json:"gameType"`
}

type leavePayload struct {
	RoomID string    `json:"roomId"`
	Role   game.Role `json:"role"`
}

// Dispatch handles one envelope and returns the ack for the originating
// connection. Broadcasts only happen for accepted actions.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, env *network.Envelope) network.Ack {
	start := time.Now()
	data, err := d.handle(ctx, sess, env)
	if d.metrics != nil {
		d.metrics.IncActions()
		d.metrics.ObserveActionLatency(time.Since(start))
	}

	ack := network.Ack{Event: network.EventAck, Seq: env.Seq, Success: err == nil, Data: data}
	if err != nil {
		ack.Message = rejectionMessage(env.Event, sess.ID, err)
	}
	return ack
}

func rejectionMessage(event, connID string, err error) string {
	if gerr, ok := err.(*game.Error); ok {
		return gerr.Message
	}
	logger.Log.Errorf("Internal error handling %s from %s: %v", event, connID, err)
	return "Internal server error"
}

func (d *Dispatcher) handle(ctx context.Context, sess *session.Session, env *network.Envelope) (map[string]any, error) {
	switch env.Event {
	case network.EventJoinRoom:
		return d.handleJoin(ctx, sess, env.Data)
	case network.EventChooseBall:
		return d.handleChooseBall(sess, env.Data)
	case network.EventGuessBall:
		return d.handleGuessBall(sess, env.Data)
	case network.EventMakeMove:
		return d.handleMakeMove(sess, env.Data)
	case network.EventSelectImage:
		return d.handleSelectImage(sess, env.Data)
	case network.EventReady:
		return d.handleReady(sess, env.Data)
	case network.EventSwap:
		return d.handleSwap(sess, env.Data)
	case network.EventShuffle:
		return d.handleShuffle(sess, env.Data)
	case network.EventGuessNumber:
		return d.handleGuessNumber(sess, env.Data)
	case network.EventGameAction:
		return d.handleGameAction(ctx, sess, env.Data)
	case network.EventResetGame:
		return d.handleResetGame(ctx, sess, env.Data)
	case network.EventSwitchGame:
		return d.handleSwitchGame(ctx, sess, env.Data)
	case network.EventLeaveRoom:
		return d.handleLeave(sess, env.Data)
	default:
		return nil, &game.Error{Code: game.CodeInvalidInput, Message: "Unknown event: " + env.Event}
	}
}

// authorize validates the claimed role and checks it against the trusted
// role from session identity. A mismatch is rejected before any game logic
// runs.
func (d *Dispatcher) authorize(sess *session.Session, role game.Role) error {
	if !game.ValidRole(role) {
		return &game.Error{Code: game.CodeInvalidInput, Message: "Invalid role"}
	}
	if sess.Role != "" && sess.Role != string(role) {
		return &game.Error{Code: game.CodePolicyViolation, Message: "Role mismatch with session"}
	}
	return nil
}

func decode[T any](data json.RawMessage) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, &game.Error{Code: game.CodeInvalidInput, Message: "Missing payload"}
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, &game.Error{Code: game.CodeInvalidInput, Message: "Malformed payload"}
	}
	return payload, nil
}

func (d *Dispatcher) handleJoin(ctx context.Context, sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[joinPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}
	gameType := p.GameType
	if gameType == "" {
		gameType = game.TypeTicTacToe
	}
	if !game.KnownType(gameType) {
		return nil, &game.Error{Code: game.CodeInvalidInput, Message: "Unknown game type: " + gameType}
	}

	var snap game.Snapshot
	err = d.rooms.Join(ctx, p.RoomID, gameType, func(g game.GameState) error {
		g.AddPlayer(p.Role, sess.ID)
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.bind(sess.ID, p.RoomID, p.Role)
	d.updateRoomGauge()
	d.broadcastState(p.RoomID, snap)
	return map[string]any{"game": snap}, nil
}

func (d *Dispatcher) handleChooseBall(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[ballPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		bg, ok := g.(ballGame)
		if !ok {
			return game.WrongGameType(game.TypeTicTacToe)
		}
		if err := bg.ChooseBall(p.Role, p.Color); err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The choice itself stays secret; the room only learns it happened.
	d.broadcast(p.RoomID, network.EventBallChosen, map[string]any{"chooser": p.Role})
	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

func (d *Dispatcher) handleGuessBall(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[ballPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	var correct bool
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		bg, ok := g.(ballGame)
		if !ok {
			return game.WrongGameType(game.TypeTicTacToe)
		}
		var err error
		correct, err = bg.GuessBall(p.Role, p.Color)
		if err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcast(p.RoomID, network.EventGuessResult, map[string]any{"correct": correct})
	d.broadcastState(p.RoomID, snap)
	return map[string]any{"correct": correct}, nil
}

func (d *Dispatcher) handleMakeMove(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[movePayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		bg, ok := g.(ballGame)
		if !ok {
			return game.WrongGameType(game.TypeTicTacToe)
		}
		if err := bg.MakeMove(p.Role, p.Index); err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

func (d *Dispatcher) handleSelectImage(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[imagePayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		pg, ok := g.(puzzleGame)
		if !ok {
			return game.WrongGameType(game.TypePuzzle)
		}
		if err := pg.SelectImage(p.Role, p.ImageURL); err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

func (d *Dispatcher) handleReady(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[readyPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	var started bool
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		pg, ok := g.(puzzleGame)
		if !ok {
			return game.WrongGameType(game.TypePuzzle)
		}
		var err error
		started, err = pg.SetReady(p.Role)
		if err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return map[string]any{"started": started}, nil
}

func (d *Dispatcher) handleSwap(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[swapPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	var solved bool
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		pg, ok := g.(puzzleGame)
		if !ok {
			return game.WrongGameType(game.TypePuzzle)
		}
		var err error
		solved, err = pg.Swap(p.IndexA, p.IndexB)
		if err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return map[string]any{"solved": solved}, nil
}

func (d *Dispatcher) handleShuffle(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[readyPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		pg, ok := g.(puzzleGame)
		if !ok {
			return game.WrongGameType(game.TypePuzzle)
		}
		if err := pg.Shuffle(); err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

func (d *Dispatcher) handleGuessNumber(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[numberPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}
	value, convErr := p.Guess.Int64()
	if convErr != nil {
		return nil, &game.Error{Code: game.CodeInvalidInput, Message: "Invalid number"}
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		gg, ok := g.(guessingGame)
		if !ok {
			return game.WrongGameType(game.TypeNumberGuess)
		}
		if err := gg.MakeGuess(p.Role, int(value)); err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

func (d *Dispatcher) handleGameAction(ctx context.Context, sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[actionPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		ag, ok := g.(adventureGame)
		if !ok {
			return game.WrongGameType(game.TypeCoopDice)
		}
		switch p.Action {
		case "roll":
			if err := ag.Roll(p.Role); err != nil {
				return err
			}
		case "move":
			if p.TargetID == nil {
				return &game.Error{Code: game.CodeInvalidInput, Message: "Target tile required"}
			}
			if err := ag.Move(p.Role, *p.TargetID); err != nil {
				return err
			}
		case "solve":
			if err := ag.Solve(p.Role, p.Answer); err != nil {
				return err
			}
		case "reset":
			if err := g.Reset(ctx); err != nil {
				return err
			}
		default:
			return &game.Error{Code: game.CodeInvalidInput, Message: "Unknown action: " + p.Action}
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

func (d *Dispatcher) handleResetGame(ctx context.Context, sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[readyPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		if err := g.Reset(ctx); err != nil {
			return err
		}
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

func (d *Dispatcher) handleSwitchGame(ctx context.Context, sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[switchPayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}
	if !game.KnownType(p.GameType) {
		return nil, &game.Error{Code: game.CodeInvalidInput, Message: "Invalid game type"}
	}

	g, err := d.rooms.Switch(ctx, p.RoomID, p.GameType)
	if err != nil {
		return nil, err
	}

	d.broadcastState(p.RoomID, g.Serialize())
	return nil, nil
}

func (d *Dispatcher) handleLeave(sess *session.Session, data json.RawMessage) (map[string]any, error) {
	p, err := decode[leavePayload](data)
	if err != nil {
		return nil, err
	}
	if err := d.authorize(sess, p.Role); err != nil {
		return nil, err
	}

	var snap game.Snapshot
	err = d.rooms.With(p.RoomID, func(g game.GameState) error {
		g.RemovePlayer(p.Role)
		snap = g.Serialize()
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.unbind(sess.ID, p.RoomID)
	d.broadcastState(p.RoomID, snap)
	return nil, nil
}

// Disconnect removes the connection from every room it occupies and
// broadcasts each affected room's updated snapshot.
func (d *Dispatcher) Disconnect(connID string) {
	d.mu.Lock()
	bindings := d.occupancy[connID]
	delete(d.occupancy, connID)
	d.mu.Unlock()

	for roomID := range bindings {
		var snap game.Snapshot
		err := d.rooms.With(roomID, func(g game.GameState) error {
			for role, cid := range g.Players() {
				if cid == connID {
					g.RemovePlayer(role)
				}
			}
			snap = g.Serialize()
			return nil
		})
		if err != nil {
			continue // room already evicted
		}
		d.broadcastState(roomID, snap)
	}
}

// EvictIdle applies the idle-room policy and prunes the reverse index.
func (d *Dispatcher) EvictIdle(idle time.Duration) {
	evicted := d.rooms.SweepIdle(idle)
	if len(evicted) == 0 {
		return
	}

	d.mu.Lock()
	for _, bindings := range d.occupancy {
		for _, roomID := range evicted {
			delete(bindings, roomID)
		}
	}
	d.mu.Unlock()

	logger.Log.Infof("Evicted %d idle rooms", len(evicted))
	d.updateRoomGauge()
}

func (d *Dispatcher) bind(connID, roomID string, role game.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.occupancy[connID] == nil {
		d.occupancy[connID] = make(map[string]game.Role)
	}
	d.occupancy[connID][roomID] = role
}

func (d *Dispatcher) unbind(connID, roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.occupancy[connID], roomID)
}

func (d *Dispatcher) broadcastState(roomID string, snap game.Snapshot) {
	d.broadcast(roomID, network.EventGameState, map[string]any{"game": snap})
}

func (d *Dispatcher) broadcast(roomID, event string, data any) {
	if err := d.broadcaster.BroadcastToRoom(roomID, event, data); err != nil {
		logger.Log.Warnf("Broadcast %s to room %s failed: %v", event, roomID, err)
	}
	if d.metrics != nil {
		d.metrics.IncBroadcasts()
	}
}

func (d *Dispatcher) updateRoomGauge() {
	if d.metrics != nil {
		d.metrics.SetActiveRooms(d.rooms.Count())
	}
}
