package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crossx/internal/assetstore"
	"crossx/internal/clock"
	"crossx/internal/config"
	"crossx/internal/handler"
	"crossx/internal/middleware"
	"crossx/internal/repository"
	"crossx/internal/service"
	"crossx/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger := logger.New(cfg.Log.Level)

	// Redis опционален: без него не работает только rate limit
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(context.Background()).Err(); err != nil {
			appLogger.Fatal("Failed to connect to Redis", "error", err)
		}
		appLogger.Info("Redis connection established")
	}

	// Инициализация репозиториев
	repos, closeStore := openRepositories(cfg, rdb, appLogger)
	defer closeStore()

	// Хранилище ассетов
	assets, err := assetstore.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to init asset store", "error", err)
	}
	appLogger.Info("Asset store initialized", "backend", cfg.Assets.Backend)

	// Инициализация сервисов
	services := service.NewServices(repos, assets, cfg, clock.Real(), appLogger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	services.Sweeper.Start(ctx)

	// Инициализация handlers и роутера
	handlers := handler.NewHandlers(services, cfg, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)
	router := handler.NewRouter(handlers, rateLimitMiddleware, cfg, appLogger)

	// Запуск HTTP сервера
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting server", "addr", srv.Addr, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err)
	}
	services.Sweeper.Stop()

	appLogger.Info("Server exited")
}

// openRepositories подключает выбранное хранилище и применяет миграции
func openRepositories(cfg *config.Config, rdb *redis.Client, log logger.Logger) (*repository.Repositories, func()) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		if err := repository.MigratePostgres(cfg.Store.DSN); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}

		poolCfg, err := pgxpool.ParseConfig(cfg.Store.DSN)
		if err != nil {
			log.Fatal("Failed to parse database DSN", "error", err)
		}
		poolCfg.MaxConns = int32(cfg.Store.MaxConnections)

		dbPool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		if err := dbPool.Ping(context.Background()); err != nil {
			log.Fatal("Failed to ping database", "error", err)
		}
		log.Info("Database connection established")

		return repository.NewPostgresRepositories(dbPool, rdb, log), dbPool.Close

	case config.StoreBackendSQLite:
		db, err := repository.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open sqlite database", "error", err, "path", cfg.Store.SQLitePath)
		}
		log.Info("SQLite database opened", "path", cfg.Store.SQLitePath)

		return repository.NewSQLiteRepositories(db, rdb, log), closeDB(db, log)

	default:
		return repository.NewMemoryRepositories(rdb, log), func() {}
	}
}

func closeDB(db *sql.DB, log logger.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}
}
