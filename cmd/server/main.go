package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/playmatatu/slamdunk/internal/api"
	"github.com/playmatatu/slamdunk/internal/config"
	"github.com/playmatatu/slamdunk/internal/database"
	"github.com/playmatatu/slamdunk/internal/game"
	"github.com/playmatatu/slamdunk/internal/migrations"
	"github.com/playmatatu/slamdunk/internal/redis"
	"github.com/playmatatu/slamdunk/internal/ws"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "slamdunk"})
	log.SetDefault(logger)

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("unknown LOG_LEVEL, keeping info", "value", cfg.LogLevel)
	}

	// Run migrations on start if requested
	if cfg.MigrateOnStart {
		log.Info("running DB migrations on startup")
		if err := migrations.RunMigrations(cfg.DatabaseURL, migrations.DefaultDir); err != nil {
			log.Fatal("failed to run migrations", "error", err)
		}
	}

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to Redis", "error", err)
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn("REDIS_URL is empty; tables live in this process only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize table manager and route its motion commands to the websocket hub
	game.InitializeManager(db, rdb, cfg)
	game.Manager.SetSink(ws.TableHub)
	go game.Manager.StartMotionTicker(ctx)

	// Wire Redis and start the table event subscriber in the WS layer
	if rdb != nil {
		ws.SetRedisClient(rdb)
		ws.StartTableEventSubscriber(ctx)
	}

	// Start idle worker for closing abandoned tables
	game.StartIdleWorker(ctx, game.Manager, rdb, cfg)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	api.SetupRoutes(router, cfg)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		log.Info("starting slamdunk server", "port", port, "profile", cfg.TuningProfile, "strict", cfg.StrictInvariants)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
