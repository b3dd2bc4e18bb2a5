package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"notesync-be/internal/cache"
	"notesync-be/internal/dto"
	"notesync-be/internal/pkg/logger"
	"notesync-be/internal/repository/unitofwork"
	"notesync-be/internal/service"
	"notesync-be/pkg/database"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var (
	categories = []string{"work", "home", "study", ""}
	statuses   = []string{"draft", "active", "done"}
)

// Seeds demo notes for one user: go run ./cmd/seed <user-id> [count]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	if len(os.Args) < 2 {
		log.Fatal("Usage: seed <user-id> [count]")
	}
	userId, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatal("Error: invalid user id:", err)
	}
	count := 30
	if len(os.Args) > 2 {
		if count, err = strconv.Atoi(os.Args[2]); err != nil || count < 1 {
			log.Fatal("Error: count must be a positive number")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	nop := logger.NewNopLogger()

	// Go through the service so positions and cache invalidation match the API.
	var listCache cache.NoteListCache = cache.NoopNoteListCache{}
	if url := os.Getenv("REDIS_URL"); url != "" {
		if opt, err := redis.ParseURL(url); err == nil {
			rdb := redis.NewClient(opt)
			defer rdb.Close()
			listCache = cache.NewRedisNoteListCache(rdb, time.Minute, nop)
		}
	}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	notes := service.NewNoteService(
		unitofwork.NewRepositoryFactory(db),
		listCache,
		service.NewPublisherService("NOTE_CHANGED", pubSub),
		nop,
	)

	ctx := context.Background()
	for i := 1; i <= count; i++ {
		res, err := notes.Create(ctx, userId, &dto.CreateNoteRequest{
			Title:    fmt.Sprintf("Demo note %02d", i),
			Content:  fmt.Sprintf("Seeded content for note %d.", i),
			Category: categories[i%len(categories)],
			Status:   statuses[i%len(statuses)],
		})
		if err != nil {
			log.Fatalf("Error: seeding note %d failed: %v", i, err)
		}
		log.Printf("Seeded %s at position %d", res.Title, res.Position)
	}

	log.Printf("Success: %d notes seeded for %s", count, userId)
}
