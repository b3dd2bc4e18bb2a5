package main

import (
	"log"
	"os"
	"strings"

	"notesync-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type positionStats struct {
	UserId            string
	Notes             int64
	DistinctPositions int64
	MinPos            int
	MaxPos            int
	Duplicates        int64
}

// Reports per-user ordering health. Page-local reorders may leave gaps or ties;
// both are legal, ties fall back to creation time.
//
//	go run ./cmd/verify_data_integrity [user-id]
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	query := db.Table("notes").
		Select(`user_id,
			COUNT(*) AS notes,
			COUNT(DISTINCT position) AS distinct_positions,
			MIN(position) AS min_pos,
			MAX(position) AS max_pos,
			COUNT(*) - COUNT(DISTINCT position) AS duplicates`).
		Group("user_id").
		Order("user_id")

	if len(os.Args) > 1 {
		userId, err := uuid.Parse(os.Args[1])
		if err != nil {
			log.Fatal("Error: invalid user id:", err)
		}
		query = query.Where("user_id = ?", userId)
	}

	var stats []positionStats
	if err := query.Scan(&stats).Error; err != nil {
		log.Fatal("Query failed:", err)
	}

	log.Printf("🔍 POSITION INTEGRITY CHECK: %d users", len(stats))
	var flagged int
	for _, s := range stats {
		gaps := int64(s.MaxPos-s.MinPos+1) - s.DistinctPositions
		log.Println(strings.Repeat("─", 50))
		log.Printf("User: %s", s.UserId)
		log.Printf("    Notes: %d, positions %d..%d", s.Notes, s.MinPos, s.MaxPos)
		log.Printf("    Gaps: %d, Duplicates: %d", gaps, s.Duplicates)
		if s.MinPos < 0 {
			log.Printf("    ⚠ negative position")
			flagged++
		}
	}

	if flagged > 0 {
		log.Printf("%d users have negative positions", flagged)
		os.Exit(1)
	}
	log.Println("Success: no negative positions")
}
