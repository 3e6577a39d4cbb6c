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

// Regenerates every student's character from the parts catalog.
func main() {
	var mutationChance float64
	var maxMutations int
	flag.Float64Var(&mutationChance, "mutation-chance", 0.3, "Per-slot probability of a mutated part (0-1)")
	flag.IntVar(&maxMutations, "max-mutations", 3, "Maximum mutated parts per character")
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
	result, err := maintenance.ForEachDocument(ctx, store, model.CollectionStudents, maintenance.RandomCharacters(rng, mutationChance, maxMutations), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Character generation failed")
	}

	fmt.Printf("Characters regenerated! Updated %d, commits %d.\n", result.Updated, result.Commits)
}
