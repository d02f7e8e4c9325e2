package main

import (
	"github.com/pairplay/gameserver/config"
	"github.com/pairplay/gameserver/content"
	"github.com/pairplay/gameserver/logger"
	"github.com/pairplay/gameserver/persistence"
	"github.com/pairplay/gameserver/server"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	var db persistence.Store
	pg := cfg.Database.Postgres
	switch pg.Driver {
	case "pq":
		db, err = persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		db, err = persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Log.Info("Database connection successful.")

	// Riddle source for the board adventure. Falls back to the embedded
	// pool when no external API is configured.
	var provider content.Provider = content.NewStaticProvider()
	if cfg.Content.URL != "" {
		provider = content.NewHTTPProvider(cfg.Content.URL, cfg.Content.Timeout)
		logger.Log.Infof("Using riddle API at %s", cfg.Content.URL)
	}

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, db, provider)
	defer gameServer.Shutdown()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
