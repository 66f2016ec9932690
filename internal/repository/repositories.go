package repository

import (
	"database/sql"

	"crossx/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Repositories struct {
	Room      RoomRepository
	Text      TextRepository
	Image     ImageRepository
	RateLimit RateLimitRepository
}

func NewPostgresRepositories(db *pgxpool.Pool, rdb *redis.Client, log logger.Logger) *Repositories {
	repos := &Repositories{
		Room:  NewRoomRepository(db, log),
		Text:  NewTextRepository(db, log),
		Image: NewImageRepository(db, log),
	}
	attachRateLimit(repos, rdb, log)
	log.Info("Postgres repositories initialized")
	return repos
}

func NewSQLiteRepositories(db *sql.DB, rdb *redis.Client, log logger.Logger) *Repositories {
	repos := &Repositories{
		Room:  NewSQLiteRoomRepository(db, log),
		Text:  NewSQLiteTextRepository(db, log),
		Image: NewSQLiteImageRepository(db, log),
	}
	attachRateLimit(repos, rdb, log)
	log.Info("SQLite repositories initialized")
	return repos
}

// NewMemoryRepositories - хранилище в памяти процесса, данные не переживают рестарт
func NewMemoryRepositories(rdb *redis.Client, log logger.Logger) *Repositories {
	repos := &Repositories{
		Room:  NewMemoryRoomRepository(),
		Text:  NewMemoryTextRepository(),
		Image: NewMemoryImageRepository(),
	}
	attachRateLimit(repos, rdb, log)
	log.Warn("Using in-memory repositories, data will not survive restart")
	return repos
}

func attachRateLimit(repos *Repositories, rdb *redis.Client, log logger.Logger) {
	if rdb == nil {
		log.Warn("Redis is not configured, rate limiting disabled")
		return
	}
	repos.RateLimit = NewRateLimitRepository(rdb, log)
}
