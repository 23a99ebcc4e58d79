// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/codecollab/codecollab/internal/auth"
	"github.com/codecollab/codecollab/internal/bus"
	"github.com/codecollab/codecollab/internal/cache"
	"github.com/codecollab/codecollab/internal/database"
	"github.com/codecollab/codecollab/internal/executor"
	"github.com/codecollab/codecollab/internal/handlers"
	"github.com/codecollab/codecollab/internal/judge"
	"github.com/codecollab/codecollab/internal/middleware"
	"github.com/codecollab/codecollab/internal/presence"
	"github.com/codecollab/codecollab/internal/protocol"
	"github.com/codecollab/codecollab/internal/room"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init: %v", err)
	}
	if err := database.ConnectDB(); err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.DB.Close()
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, verdict history disabled: %v", err)
		cache.Rdb = nil
	}

	registry := room.NewRegistry()
	tracker := presence.NewTracker()
	b := bus.New()
	engine := judge.NewEngine(executor.NewHTTPGatewayFromEnv())

	proto := protocol.NewHandler(logger, registry, tracker, b, engine,
		protocol.ProblemStoreFunc(database.GetProblemByID))
	proto.OnVerdict = func(roomID string, res judge.Result) {
		record := cache.VerdictRecord{
			RoomID:    roomID,
			Verdict:   res.Verdict,
			Details:   res.Details,
			Timestamp: time.Now().Unix(),
		}
		if err := cache.PublishVerdict(context.Background(), record); err != nil {
			logger.Warnf("verdict history publish failed: %v", err)
		}
	}

	srv := handlers.NewServer(logger, registry, tracker, b, proto)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/api/users", srv.CreateUserHandler)
	mux.HandleFunc("/api/users/login", srv.LoginHandler)

	// room endpoints
	mux.HandleFunc("/api/rooms", srv.CreateRoomHandler)
	mux.HandleFunc("/api/rooms/", srv.RoomHandler)

	// problem catalog
	mux.HandleFunc("/api/problems", srv.ListProblemsHandler)
	mux.HandleFunc("/api/problems/", srv.GetProblemHandler)

	mux.HandleFunc("/health", srv.HealthHandler)

	// room websocket
	mux.Handle("/ws", srv.WSHandler())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	// No Read/WriteTimeout on the server: websocket sessions are long-lived
	// and the write pump applies its own per-frame deadlines.
	server := &http.Server{
		Handler: middleware.LogMiddleware(logger)(mux),
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
}
