package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Events   EventsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SyncLogFilePath    string
	CorsAllowedOrigins string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type CacheConfig struct {
	RedisURL    string
	NoteListTTL time.Duration
}

type EventsConfig struct {
	NatsURL          string
	NoteChangedTopic string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SyncLogFilePath:    getEnv("SYNC_LOG_FILE_PATH", "logs/sync.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Cache: CacheConfig{
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
			NoteListTTL: time.Duration(getEnvAsInt("NOTE_LIST_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Events: EventsConfig{
			NatsURL:          getEnv("NATS_URL", ""),
			NoteChangedTopic: getEnv("NOTE_EVENTS_TOPIC", "NOTE_CHANGED"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
