package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Abinaav-K876/market-crash/internal/config"
	marketHttp "github.com/Abinaav-K876/market-crash/internal/modules/market/adapter/http"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/clock"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/domain"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/engine"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/lock"
	marketDB "github.com/Abinaav-K876/market-crash/internal/modules/market/repository/db"
	marketMemory "github.com/Abinaav-K876/market-crash/internal/modules/market/repository/memory"
	marketRedis "github.com/Abinaav-K876/market-crash/internal/modules/market/repository/redis"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/session"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/usecase"
	"github.com/Abinaav-K876/market-crash/internal/modules/market/ws"
	"github.com/Abinaav-K876/market-crash/pkg/logger"
	"github.com/Abinaav-K876/market-crash/pkg/netutil"
)

func main() {
	pprofPort := flag.String("pprof-port", "", "Port to run pprof server on (e.g., 6060)")
	background := flag.Bool("d", false, "Run in background mode (disable console logging)")
	flag.Parse()

	cfg := config.LoadMarketConfig()

	logger.InitWithFile("logs/market/server.log", cfg.Server.LogLevel, "json", !*background)

	if *pprofPort != "" {
		go func() {
			addr := "localhost:" + *pprofPort
			logger.InfoGlobal().Str("addr", addr).Msg("Starting pprof server")
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.ErrorGlobal().Err(err).Msg("Failed to start pprof server")
			}
		}()
	}

	fmt.Println("Starting Market Crash server... Logs are being written to logs/market/server.log (rotating)")
	logger.InfoGlobal().Str("repo_type", cfg.RepoType).Msg("Starting Market Crash server...")

	// 1. Storage
	store, cleanup := buildStore(cfg)
	defer cleanup()

	// 2. Core services
	locker := lock.NewRoomLocker()

	marketUC := usecase.NewMarketUseCase(store, locker, usecase.Config{
		OpeningPrice: cfg.Game.StartPrice,
		StartingCash: cfg.Game.StartCash,
		MaxRounds:    cfg.Game.MaxRounds,
		TickInterval: cfg.Game.TickInterval,
	})

	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.TTL)

	// 3. WebSocket hub
	hub := ws.NewHub()
	go hub.Run()
	events := ws.NewEventBroadcaster(hub)

	// 4. Market clock
	marketClock := clock.New(store, locker, engine.NewSource(), cfg.Game.TickInterval, cfg.Game.MaxRounds)
	marketClock.SetBroadcaster(events)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		marketClock.Start(context.Background())
	}()
	logger.InfoGlobal().Msg("Market clock started")

	// 5. HTTP server
	handler := marketHttp.NewHandler(marketUC, sessions, hub, events)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	handler.RegisterRoutes(api)
	handler.RegisterWebSocket(router)

	lis, port, err := netutil.ListenWithFallback(cfg.Server.Port)
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to listen")
	}

	srv := &http.Server{
		Handler: router,
	}

	logger.InfoGlobal().
		Int("port", port).
		Str("api_url", fmt.Sprintf("http://localhost:%d/api/rooms", port)).
		Str("ws_url", fmt.Sprintf("ws://localhost:%d/ws/rooms/ROOM_ID?token=YOUR_TOKEN", port)).
		Msg("Market Crash server running")

	go func() {
		if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
			logger.FatalGlobal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoGlobal().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorGlobal().Err(err).Msg("HTTP server forced to shutdown")
	}

	logger.InfoGlobal().Msg("Waiting for current tick cycle to finish...")
	marketClock.Stop()
	wg.Wait()

	logger.InfoGlobal().Msg("Closing all WebSocket connections...")
	hub.Shutdown()

	logger.InfoGlobal().Msg("Server exited properly")
}

// buildStore selects the storage backend from REPO_TYPE
func buildStore(cfg *config.MarketConfig) (domain.Store, func()) {
	switch cfg.RepoType {
	case "db":
		sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to open database")
		}

		// Postgres default max_connections is usually 100.
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(time.Hour)

		if err := sqlDB.Ping(); err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to ping database")
		}

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
			Logger: logger.NewGormLogger(),
		})
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to initialize ORM")
		}

		if err := marketDB.Migrate(db); err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to run migrations")
		}

		logger.InfoGlobal().Msg("Storage: Postgres")
		return marketDB.NewStore(db), func() { sqlDB.Close() }

	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr: cfg.Redis.Addr(),
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to ping redis")
		}
		logger.InfoGlobal().Msg("Storage: Redis")
		return marketRedis.NewStore(rdb), func() { rdb.Close() }

	default:
		logger.InfoGlobal().Msg("Storage: Memory")
		return marketMemory.NewStore(), func() {}
	}
}
