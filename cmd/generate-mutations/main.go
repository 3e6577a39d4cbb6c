package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/database"
	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/logger"
	"github.com/3stan1104/GeneFlow/internal/maintenance"
	"github.com/3stan1104/GeneFlow/internal/model"
)

// Assigns random cured/failed mutation counters to every student.
func main() {
	var maxCured, maxFailed int
	flag.IntVar(&maxCured, "max-cured", 10, "Maximum cured mutation count")
	flag.IntVar(&maxFailed, "max-failed", 5, "Maximum failed mutation count")
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

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	result, err := maintenance.ForEachDocument(ctx, store, model.CollectionStudents, maintenance.RandomMutations(rng, maxCured, maxFailed), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Mutation generation failed")
	}

	fmt.Printf("Mutation counters assigned! Updated %d, commits %d.\n", result.Updated, result.Commits)
}
