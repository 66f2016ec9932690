package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendSQLite   = "sqlite"
	StoreBackendMemory   = "memory"

	AssetBackendCloudinary = "cloudinary"
	AssetBackendLocal      = "local"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Store       StoreConfig
	Redis       RedisConfig
	Rooms       RoomsConfig
	Assets      AssetsConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PublicURL - внешний адрес сервера, используется в ссылках на комнаты и локальные загрузки
	PublicURL      string
	MaxUploadBytes int64
}

type StoreConfig struct {
	Backend        string
	DSN            string
	SQLitePath     string
	MaxConnections int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled - Redis опционален, без него rate limit отключается
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type RoomsConfig struct {
	TTL                  time.Duration
	SweepInterval        time.Duration
	CreateLimitPerMinute int
	UploadLimitPerMinute int
}

type AssetsConfig struct {
	Backend           string
	UploadDir         string
	MaxImageDimension int
	Cloudinary        CloudinaryConfig
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	// Загрузка .env файла (если существует)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 3001),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			PublicURL:      strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:3001"), "/"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 10<<20)),
		},
		Store: StoreConfig{
			Backend:        strings.ToLower(getEnv("STORE_BACKEND", StoreBackendMemory)),
			DSN:            getEnv("DATABASE_DSN", ""),
			SQLitePath:     getEnv("SQLITE_PATH", "crossx.db"),
			MaxConnections: getEnvAsInt("DATABASE_MAX_CONNECTIONS", 25),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Rooms: RoomsConfig{
			TTL:                  getEnvAsDuration("ROOM_TTL", 5*time.Minute),
			SweepInterval:        getEnvAsDuration("SWEEP_INTERVAL", time.Minute),
			CreateLimitPerMinute: getEnvAsInt("CREATE_LIMIT_PER_MINUTE", 30),
			UploadLimitPerMinute: getEnvAsInt("UPLOAD_LIMIT_PER_MINUTE", 60),
		},
		Assets: AssetsConfig{
			Backend:           strings.ToLower(getEnv("ASSET_BACKEND", AssetBackendLocal)),
			UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxImageDimension: getEnvAsInt("MAX_IMAGE_DIMENSION", 2048),
			Cloudinary: CloudinaryConfig{
				CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
				APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
				APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
				Folder:    getEnv("CLOUDINARY_FOLDER", "cross-x"),
			},
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Rooms.TTL <= 0 {
		return fmt.Errorf("ROOM_TTL must be positive")
	}
	if c.Rooms.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}

	switch c.Store.Backend {
	case StoreBackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("database DSN must be set for postgres backend")
		}
	case StoreBackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set for sqlite backend")
		}
	case StoreBackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Assets.Backend {
	case AssetBackendCloudinary:
		cl := c.Assets.Cloudinary
		if cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "" {
			return fmt.Errorf("cloudinary credentials must be set")
		}
	case AssetBackendLocal:
		if c.Assets.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR must be set for local asset backend")
		}
	default:
		return fmt.Errorf("unknown ASSET_BACKEND %q", c.Assets.Backend)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
