package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/database"
	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/logger"
	"github.com/3stan1104/GeneFlow/internal/maintenance"
	"github.com/3stan1104/GeneFlow/internal/model"
)

// Resets every student document to the schema default. Destructive, so
// it asks before sweeping.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	store := docstore.NewPostgresStore(pool)

	fmt.Println("=== Backfill Student Documents ===")
	fmt.Println("This resets EVERY student document to the schema default.")
	fmt.Print("Type 'yes' to continue: ")

	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.TrimSpace(answer) != "yes" {
		fmt.Println("Aborted.")
		return
	}

	result, err := maintenance.ForEachDocument(ctx, store, model.CollectionStudents, maintenance.BackfillDefaults(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Backfill failed")
	}

	fmt.Printf("\nBackfill complete! Updated %d, skipped %d, commits %d.\n", result.Updated, result.Skipped, result.Commits)
}
