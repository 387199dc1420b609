package main // Entry point package

import (
	"context" // context for the schema bootstrap
	"log"     // Logging library

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/staff-access-control/internal/config"     // Internal config loader
	"github.com/iliyamo/staff-access-control/internal/database"   // MySQL connection helper
	"github.com/iliyamo/staff-access-control/internal/handler"    // HTTP handlers
	"github.com/iliyamo/staff-access-control/internal/middleware" // Access guard and rate limiting
	"github.com/iliyamo/staff-access-control/internal/queue"      // Auth event consumer
	"github.com/iliyamo/staff-access-control/internal/repository" // DB repositories
	"github.com/iliyamo/staff-access-control/internal/router"     // Route registration
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env vars directly

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, sessions)
	userHandler := handler.NewUserHandler(cfg, users, sessions)
	sessionHandler := handler.NewSessionHandler(sessions)

	// Redis is optional: when unreachable the login rate limiter disables
	// itself and everything else keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; login rate limiting disabled")
	}
	guard := middleware.Authenticate(cfg.JWTSecret, users)
	loginLimit := middleware.LoginRateLimit(config.LoadLoginRateConfig(), rdb)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, guard, loginLimit)
	router.RegisterAdmin(e, userHandler, sessionHandler, guard)

	// The audit consumer runs for the lifetime of the process and
	// reconnects on its own; a missing broker only costs the audit log.
	go func() {
		if err := queue.StartAuthConsumer(); err != nil {
			log.Printf("auth consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
