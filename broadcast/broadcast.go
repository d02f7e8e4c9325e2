package broadcast

import (
	"errors"

	"github.com/pairplay/gameserver/network"
	"github.com/pairplay/gameserver/room"
	"github.com/pairplay/gameserver/session"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomBroadcaster fans a push frame out to every connection bound to a
// room's player slots. Connections that fail to send are skipped; the
// disconnect path cleans them up.
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID, event string, data any) error {
	g, exists := b.roomManager.Get(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	push := network.Push{Event: event, Data: data}
	for _, connID := range g.Players() {
		s, ok := b.sessionManager.Get(connID)
		if !ok {
			continue
		}
		if err := s.Send(push); err != nil {
			continue
		}
	}
	return nil
}

// BroadcastToAll sends the frame to every live session regardless of room.
func (b *RoomBroadcaster) BroadcastToAll(event string, data any) error {
	push := network.Push{Event: event, Data: data}
	for _, s := range b.sessionManager.All() {
		if err := s.Send(push); err != nil {
			continue
		}
	}
	return nil
}

// BroadcastToRole sends the frame to every session authenticated as role.
func (b *RoomBroadcaster) BroadcastToRole(role, event string, data any) error {
	push := network.Push{Event: event, Data: data}
	for _, s := range b.sessionManager.GetByRole(role) {
		if err := s.Send(push); err != nil {
			continue
		}
	}
	return nil
}
