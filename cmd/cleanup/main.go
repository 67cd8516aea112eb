package main

import (
	"context"
	"flag"
	"log"
	"time"

	"hana-assistant-be/internal/config"
	"hana-assistant-be/internal/repository/implementation"
	"hana-assistant-be/pkg/database"
)

// Deletes postgres transcripts that were not written for longer than the
// history TTL (or -older-than).
func main() {
	cfg := config.Load()

	olderThan := flag.Duration("older-than", cfg.Assistant.HistoryTTL, "delete transcripts untouched for this long")
	flag.Parse()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}

	repo := implementation.NewTranscriptRepository(db)
	cutoff := time.Now().Add(-*olderThan)

	deleted, err := repo.PurgeBefore(context.Background(), cutoff)
	if err != nil {
		log.Fatalf("Purge failed: %v", err)
	}
	log.Printf("Deleted %d transcripts untouched since %s", deleted, cutoff.Format(time.RFC3339))
}
