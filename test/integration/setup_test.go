package integration

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"notesync-be/internal/bootstrap"
	"notesync-be/internal/config"
	"notesync-be/internal/model"
	"notesync-be/internal/server"
	"notesync-be/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "integration-secret"

type testEnv struct {
	app     *fiber.App
	baseURL string
}

// newTestEnv boots the full server against DB_CONNECTION_STRING and serves it on a
// loopback port. Redis and NATS stay off so the test only needs Postgres.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Note{}))

	logDir := t.TempDir()
	cfg := &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			LogFilePath:        filepath.Join(logDir, "app.log"),
			SyncLogFilePath:    filepath.Join(logDir, "sync.log"),
			CorsAllowedOrigins: "*",
		},
		Database: config.DatabaseConfig{Connection: dsn},
		Auth:     config.AuthConfig{JwtSecret: jwtSecret},
		Cache:    config.CacheConfig{NoteListTTL: time.Minute},
		Events:   config.EventsConfig{NoteChangedTopic: "NOTE_CHANGED"},
	}

	container := bootstrap.NewContainer(db, cfg)
	t.Cleanup(container.Close)
	srv := server.New(cfg, container)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.GetApp().Listener(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return &testEnv{
		app:     srv.GetApp(),
		baseURL: "http://" + ln.Addr().String() + "/api",
	}
}

// newUser mints a token for a fresh user id; nothing else identifies a user here.
func newUser(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	userId := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return userId, token
}
