package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"side-stacker-server/internal/advisor"
	"side-stacker-server/internal/config"
	"side-stacker-server/internal/repository/postgres"
	redisrepo "side-stacker-server/internal/repository/redis"
	"side-stacker-server/internal/service/bot"
	"side-stacker-server/internal/service/cleanup"
	"side-stacker-server/internal/service/game"
	transportHttp "side-stacker-server/internal/transport/http"
	"side-stacker-server/internal/transport/http/middleware"
	"side-stacker-server/internal/transport/websocket"
	"side-stacker-server/pkg/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.LoadConfig()

	db, err := postgres.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()
	log.Println("Database connected successfully")

	gameRepo := postgres.NewGameRepo(db)

	var cache game.SnapshotCache
	if redisClient := redisrepo.Connect(cfg.RedisAddr, cfg.RedisPassword); redisClient != nil {
		defer redisClient.Close()
		cache = redisrepo.NewSnapshotCache(redisClient)
	}

	// Medium tier consults the remote suggestion service, hard tier a
	// trained move scorer. Either may be unavailable; the bot engine
	// falls back to its heuristic scorer on its own.
	remote := advisor.NewRemote(cfg.AdvisorBaseURL, cfg.AdvisorAPIKey, cfg.AdvisorModel, cfg.AdvisorTimeout)
	var learned advisor.Advisor
	if model, err := advisor.LoadModel(cfg.ModelWeightsPath); err != nil {
		log.Printf("[BOT] Learned advisor disabled: %v", err)
	} else {
		learned = model
	}
	engine := bot.New(remote, learned, cfg.AdvisorTimeout)

	hub := websocket.NewHub()
	manager := game.NewSessionManager(gameRepo, cache, hub, engine, game.Options{
		AIDelay:     cfg.AIMoveDelay,
		LockTimeout: cfg.SessionLockTimeout,
	})

	cleanupWorker := cleanup.NewWorker(manager, gameRepo)
	cleanupWorker.Start()

	tokens := auth.NewTokenManager(cfg.JWTSecret, 7*24*time.Hour)
	gameHandler := transportHttp.NewGameHandler(manager, cache, tokens)
	wsHandler := websocket.NewHandler(hub, manager, tokens)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.POST("/api/games", gameHandler.CreateGame)
	router.GET("/api/games/:id", gameHandler.GetGame)
	router.POST("/api/games/:id/join", gameHandler.JoinGame)
	router.GET("/ws/:id", wsHandler.Serve)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
