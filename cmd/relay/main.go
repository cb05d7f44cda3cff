package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamasit07/duelsync/internal/config"
	"github.com/iamasit07/duelsync/internal/repository/postgres"
	"github.com/iamasit07/duelsync/internal/repository/redis"
	"github.com/iamasit07/duelsync/internal/service/cleanup"
	"github.com/iamasit07/duelsync/internal/service/room"
	transportHttp "github.com/iamasit07/duelsync/internal/transport/http"
	"github.com/iamasit07/duelsync/internal/transport/http/middleware"
	"github.com/iamasit07/duelsync/internal/transport/websocket"
	"github.com/iamasit07/duelsync/pkg/auth"
)

func main() {
	boot := zap.NewExample()
	config.LoadEnv(boot)
	cfg := config.LoadRelayConfig()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		boot.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Persistence (optional)
	var db *sql.DB
	var matchRepo *postgres.MatchRepo
	if cfg.DatabaseURL != "" {
		db, err = postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{
			MaxOpenConns:       cfg.DBMaxOpenConns,
			MaxIdleConns:       cfg.DBMaxIdleConns,
			ConnMaxLifetimeMin: cfg.DBConnMaxLifetimeMin,
		})
		if err != nil {
			logger.Fatal("database unreachable", zap.Error(err))
		}

		logger.Info("running database migrations")
		if err := postgres.RunMigrations(ctx, db); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		matchRepo = postgres.NewMatchRepo(db)
	} else {
		logger.Warn("DATABASE_URL not set, match results will not be stored")
	}

	// 2. Room cache (optional)
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, cfg.RedisPassword, logger)
	if err != nil {
		logger.Warn("redis unavailable, rooms stay in memory", zap.Error(err))
	}
	var cache room.CacheRepository
	if redisClient != nil {
		cache = redis.NewRedisCache(redisClient)
	}

	// 3. Services
	tickets := auth.NewTicketIssuer(cfg.JWTSecret, cfg.TicketTTL)
	rooms := room.NewService(tickets, cache, cfg.RoomIdleTTL, logger)
	connManager := websocket.NewConnectionManager()

	go cleanup.NewWorker(rooms, cfg.CleanupInterval, logger).Start(ctx)

	// 4. Transport
	var store websocket.MatchStore
	var lister transportHttp.MatchLister
	if matchRepo != nil {
		store, lister = matchRepo, matchRepo
	}
	wsHandler := websocket.NewHandler(connManager, rooms, store, middleware.OriginChecker(cfg.AllowedOrigins), logger)

	gin.SetMode(gin.ReleaseMode)
	router := transportHttp.NewRouter(transportHttp.Handlers{
		Rooms:     transportHttp.NewRoomHandler(rooms, logger),
		History:   transportHttp.NewHistoryHandler(lister, logger),
		Status:    transportHttp.NewStatusHandler(rooms, connManager),
		WebSocket: gin.WrapF(wsHandler.HandleWebSocket),
	}, middleware.CORSMiddleware(cfg.AllowedOrigins, logger))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("relay starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("relay is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := shutdown(shutdownCtx, srv, db, redisClient); err != nil {
		logger.Error("unclean shutdown", zap.Error(err))
	}
}

func shutdown(ctx context.Context, srv *http.Server, db *sql.DB, rdb *goredis.Client) error {
	err := srv.Shutdown(ctx)
	if db != nil {
		err = multierr.Append(err, db.Close())
	}
	if rdb != nil {
		err = multierr.Append(err, rdb.Close())
	}
	return err
}
