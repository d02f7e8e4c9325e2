// Package rpc exposes a small net/rpc admin surface for operational
// inspection of rooms and sessions.
package rpc

import (
	"net"
	"net/rpc"

	"github.com/pairplay/gameserver/logger"
	"github.com/pairplay/gameserver/room"
	"github.com/pairplay/gameserver/session"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes registry inspection and eviction. Methods follow
// the net/rpc signature rules.
type AdminService struct {
	rooms    *room.Manager
	sessions *session.Manager
}

func NewAdminService(rooms *room.Manager, sessions *session.Manager) *AdminService {
	return &AdminService{rooms: rooms, sessions: sessions}
}

type ListRoomsArgs struct{}

type RoomInfo struct {
	RoomID   string
	GameType string
	Players  map[string]string
	Winner   string
}

type ListRoomsReply struct {
	Rooms []RoomInfo
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	for _, id := range a.rooms.RoomIDs() {
		g, ok := a.rooms.Get(id)
		if !ok {
			continue
		}
		players := make(map[string]string)
		for role, connID := range g.Players() {
			players[string(role)] = connID
		}
		reply.Rooms = append(reply.Rooms, RoomInfo{
			RoomID:   id,
			GameType: g.Type(),
			Players:  players,
			Winner:   string(g.Winner()),
		})
	}
	return nil
}

type EvictRoomArgs struct {
	RoomID string
}

type EvictRoomReply struct {
	Evicted bool
}

func (a *AdminService) EvictRoom(args *EvictRoomArgs, reply *EvictRoomReply) error {
	reply.Evicted = a.rooms.Delete(args.RoomID)
	return nil
}

type StatsArgs struct{}

type StatsReply struct {
	Sessions int
	Rooms    int
}

func (a *AdminService) Stats(args *StatsArgs, reply *StatsReply) error {
	reply.Sessions = a.sessions.Count()
	reply.Rooms = a.rooms.Count()
	return nil
}
