package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/parkwise/parkwise/internal/config"
	"github.com/parkwise/parkwise/internal/database"
	"github.com/parkwise/parkwise/internal/garage"
	"github.com/parkwise/parkwise/internal/handler"
	"github.com/parkwise/parkwise/internal/logger"
	"github.com/parkwise/parkwise/internal/queue"
	"github.com/parkwise/parkwise/internal/repository"
	"github.com/parkwise/parkwise/internal/repository/memory"
	"github.com/parkwise/parkwise/internal/repository/mysql"
	"github.com/parkwise/parkwise/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	zlog := logger.New(cfg.Env)
	defer func() { _ = zlog.Sync() }()

	// Pick the store backend.  MySQL is the default; the in-memory
	// store backs local development and demos without a database.
	var stores repository.Stores
	switch cfg.StoreDriver {
	case "memory":
		stores = memory.New().Stores()
		zlog.Warn("using in-memory store, all data is lost on restart")
	case "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		stores = mysql.NewStores(db)
	default:
		log.Fatalf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	// Event publishing and the activity log consumer only run when a
	// broker is configured.
	var events garage.EventSink
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL, zlog)
		go func() {
			if err := queue.StartActivityConsumer(cfg.AMQPURL); err != nil {
				zlog.Errorw("activity consumer stopped", "error", err)
			}
		}()
	}

	svc := garage.NewService(stores, garage.Options{
		Events:          events,
		Logger:          zlog,
		OpTimeout:       cfg.OpTimeout,
		ReserveAttempts: cfg.ReserveAttempts,
	})

	e := echo.New()
	e.HideBanner = true

	rdb := config.NewRedisClient() // nil disables rate limiting and caching
	if rdb == nil {
		zlog.Warn("redis unavailable, rate limiting and response caching disabled")
	}

	router.Register(e, router.Deps{
		Auth:    handler.NewAuthHandler(cfg, stores.Attendants),
		Admin:   handler.NewAdminHandler(stores.Garages, stores.Spots),
		Parking: handler.NewParkingHandler(svc),
		Cfg:     cfg,
		Redis:   rdb,
	})

	addr := ":" + cfg.Port
	zlog.Infow("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
