package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/database"
	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/logger"
	"github.com/3stan1104/GeneFlow/internal/maintenance"
	"github.com/3stan1104/GeneFlow/internal/model"
)

// Sets tutorialCompleted on every student document.
func main() {
	var completed bool
	flag.BoolVar(&completed, "completed", false, "Value to write into tutorialCompleted")
	flag.Parse()

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

	result, err := maintenance.ForEachDocument(ctx, store, model.CollectionStudents, maintenance.BackfillTutorial(completed), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Tutorial backfill failed")
	}

	fmt.Printf("Tutorial backfill complete! Updated %d, skipped %d, commits %d.\n", result.Updated, result.Skipped, result.Commits)
}
