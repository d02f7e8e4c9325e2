// Package server hosts the websocket endpoint, the REST API, and the
// background lifecycle tasks.
package server

import (
	"context"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pairplay/gameserver/auth"
	"github.com/pairplay/gameserver/broadcast"
	"github.com/pairplay/gameserver/config"
	"github.com/pairplay/gameserver/content"
	"github.com/pairplay/gameserver/dispatch"
	"github.com/pairplay/gameserver/logger"
	"github.com/pairplay/gameserver/monitor"
	"github.com/pairplay/gameserver/network"
	"github.com/pairplay/gameserver/persistence"
	"github.com/pairplay/gameserver/room"
	gameserver_rpc "github.com/pairplay/gameserver/rpc"
	"github.com/pairplay/gameserver/services"
	"github.com/pairplay/gameserver/session"
	"github.com/pairplay/gameserver/timer"
)

type GameServer struct {
	cfg            *config.Config
	mux            *http.ServeMux
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	dispatcher     *dispatch.Dispatcher
	authService    *auth.Service
	questions      *services.QuestionService
	moods          *services.MoodService
	mon            *monitor.Monitor
	rpcServer      *gameserver_rpc.Server
	timers         *timer.Scheduler
	shutdownChan   chan struct{}
}

func NewGameServer(cfg *config.Config, db persistence.Store, provider content.Provider) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		mux:            http.NewServeMux(),
		roomManager:    room.NewManager(provider),
		sessionManager: session.NewManager(),
		mon:            monitor.NewMonitor("pairplay"),
		timers:         timer.NewScheduler(),
		shutdownChan:   make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == cfg.Server.ClientOrigin
		},
	}

	s.authService = auth.NewService(
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL,
		cfg.Auth.CookieName,
		cfg.Auth.Secure,
		cfg.Auth.HePassword,
		cfg.Auth.ShePassword,
	)
	s.questions = services.NewQuestionService(db)
	s.moods = services.NewMoodService(db)

	broadcaster := broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	s.dispatcher = dispatch.NewDispatcher(s.roomManager, broadcaster, s.mon)

	rpcServer, err := gameserver_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(gameserver_rpc.NewAdminService(s.roomManager, s.sessionManager))

	s.registerRoutes()
	return s
}

func (s *GameServer) registerRoutes() {
	limiter := newRateLimiter(s.cfg.RateLimit)

	s.mux.HandleFunc("/ws", s.handleWebSocket)

	api := func(h http.HandlerFunc) http.Handler {
		return s.withCORS(limiter.limitAPI(h))
	}
	authRoute := func(h http.HandlerFunc) http.Handler {
		return s.withCORS(limiter.limitAuth(h))
	}

	s.mux.Handle("/auth/unlock", authRoute(s.handleUnlock))
	s.mux.Handle("/auth/status", api(s.handleAuthStatus))
	s.mux.Handle("/auth/logout", api(s.handleLogout))

	s.mux.Handle("/api/questions/ask", api(s.requireRole(s.handleAskQuestion)))
	s.mux.Handle("/api/questions/mine", api(s.requireRole(s.handleMyQuestions)))
	s.mux.Handle("/api/questions/theirs", api(s.requireRole(s.handleTheirQuestions)))
	s.mux.Handle("/api/questions/answer", api(s.requireRole(s.handleAnswerQuestion)))

	s.mux.Handle("/api/moods/save", api(s.requireRole(s.handleSaveMood)))
	s.mux.Handle("/api/moods/today", api(s.requireRole(s.handleMoodToday)))
	s.mux.Handle("/api/moods/partner-today", api(s.requireRole(s.handlePartnerMoodToday)))
	s.mux.Handle("/api/moods/history", api(s.requireRole(s.handleMoodHistory)))
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()
	s.mon.StartServer(s.cfg.Server.MetricsAddress)

	s.timers.Every(s.cfg.Rooms.SweepInterval, func() {
		s.dispatcher.EvictIdle(s.cfg.Rooms.IdleTimeout)
	})

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, s.mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.timers.Stop()
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Role is taken from the cookie before the upgrade so the connection
	// carries a trusted claim from the start.
	role := s.authService.RoleFromRequest(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn, role)
}

func (s *GameServer) handleConnection(conn *websocket.Conn, role string) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	sess.Role = role
	s.sessionManager.Add(sess)
	s.mon.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s, role: %q", wsConn.RemoteAddr(), sess.GetID(), role)

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.dispatcher.Disconnect(sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.mon.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			env, err := wsConn.ReadEnvelope()
			if err != nil {
				return
			}
			sess.Touch()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			ack := s.dispatcher.Dispatch(ctx, sess, env)
			cancel()

			if err := sess.Send(ack); err != nil {
				return
			}
		}
	}
}
