// cmd/server/main.go
package main

import (
	"net/http"

	_ "github.com/joho/godotenv/autoload"

	"github.com/arcadehall/pong-service/internal/config"
	"github.com/arcadehall/pong-service/internal/game"
	"github.com/arcadehall/pong-service/internal/handlers"
	"github.com/arcadehall/pong-service/internal/history"
	"github.com/arcadehall/pong-service/internal/logging"
	"github.com/arcadehall/pong-service/internal/middleware"
	"github.com/arcadehall/pong-service/internal/tournament"
)

func main() {
	cfg := config.Load()

	logger := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	manager := game.NewManager(cfg.Game, logger)

	if cfg.RedisAddr != "" {
		rec, err := history.Connect(cfg.RedisAddr, cfg.RedisDB, cfg.HistoryQueue)
		if err != nil {
			logger.Fatalf("match-history feed unavailable: %v", err)
		}
		defer rec.Close()
		manager.SetRecorder(rec)
		logger.Infof("match-history feed connected at %s", cfg.RedisAddr)
	}

	tournaments := tournament.NewStore()

	logRequests := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", handlers.PingHandler)

	mux.Handle("/game/ws", http.HandlerFunc(handlers.GameWSHandler(logger, manager)))

	mux.Handle("/tournament/create", logRequests(http.HandlerFunc(handlers.CreateTournamentHandler(tournaments))))
	mux.Handle("/tournament/join", logRequests(http.HandlerFunc(handlers.JoinTournamentHandler(tournaments))))
	mux.Handle("/tournament/start", logRequests(http.HandlerFunc(handlers.StartTournamentHandler(tournaments))))
	mux.Handle("/tournament/list", logRequests(http.HandlerFunc(handlers.ListTournamentsHandler(tournaments))))

	logger.Infof("pong service listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
