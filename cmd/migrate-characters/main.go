package main

import (
	"context"
	"fmt"
	"time"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/database"
	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/logger"
	"github.com/3stan1104/GeneFlow/internal/maintenance"
	"github.com/3stan1104/GeneFlow/internal/model"
)

// Converts old nested character structures to the flat shape. Safe to
// run repeatedly; already-migrated documents are skipped.
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

	result, err := maintenance.ForEachDocument(ctx, store, model.CollectionStudents, maintenance.MigrateCharacters(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Character migration failed")
	}

	fmt.Printf("Character migration complete! Migrated %d, already flat %d, commits %d.\n", result.Updated, result.Skipped, result.Commits)
}
