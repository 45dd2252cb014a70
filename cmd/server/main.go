package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/training-platform/internal/config"
	"github.com/iliyamo/training-platform/internal/database"
	"github.com/iliyamo/training-platform/internal/handler"
	"github.com/iliyamo/training-platform/internal/queue"
	"github.com/iliyamo/training-platform/internal/repository"
	"github.com/iliyamo/training-platform/internal/router"
	"github.com/iliyamo/training-platform/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	// Background consumer writes registration audit entries; it keeps
	// reconnecting on its own and never takes the server down.
	go func() {
		if err := queue.StartAccountConsumer(); err != nil {
			log.Printf("account consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	auth := handler.NewAuthHandler(cfg, users, service.NewQueuePublisher())

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
