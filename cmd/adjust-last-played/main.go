package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
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

// Assigns every student document a random lastPlayedAt inside a prompted
// date window. Used to rehearse the dashboard with plausible activity.
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
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Adjust Last Played Timestamps ===")

	start, err := promptDate(reader, "Start date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	end, err := promptDate(reader, "End date (YYYY-MM-DD): ")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if !end.After(start) {
		fmt.Println("Error: end date must be after start date")
		return
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	result, err := maintenance.ForEachDocument(ctx, store, model.CollectionStudents, maintenance.AdjustLastPlayed(rng, start, end), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Adjustment failed")
	}

	fmt.Printf("\nAdjustment complete! Updated %d, commits %d.\n", result.Updated, result.Commits)
}

func promptDate(reader *bufio.Reader, prompt string) (time.Time, error) {
	fmt.Print(prompt)
	raw, _ := reader.ReadString('\n')
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}
