package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/database"
	"github.com/3stan1104/GeneFlow/internal/docstore"
	"github.com/3stan1104/GeneFlow/internal/identity"
	"github.com/3stan1104/GeneFlow/internal/logger"
	"github.com/3stan1104/GeneFlow/internal/service"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	provider := identity.NewPostgresProvider(pool, rdb, cfg.BcryptCost, cfg.ResetLinkBaseURL, log)
	store := docstore.NewPostgresStore(pool)
	userService := service.NewUserService(provider, store, rdb, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Ensure Admin Account ===")

	fmt.Printf("Enter Email (default %s): ", cfg.SetupAdminEmail)
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		email = cfg.SetupAdminEmail
	}

	fmt.Printf("Enter Display Name (default %s): ", cfg.SetupAdminName)
	displayName, _ := reader.ReadString('\n')
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = cfg.SetupAdminName
	}

	fmt.Print("Enter Password (empty uses configured default): ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println() // Newline after password input
	if password == "" {
		password = cfg.SetupAdminPassword
	}
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	uid, created, err := userService.EnsureAdmin(ctx, email, password, displayName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure admin")
	}

	if created {
		fmt.Printf("\nSuccess! Admin '%s' created with UID: %s\n", email, uid)
	} else {
		fmt.Printf("\nAdmin '%s' already existed (UID: %s); admin claim verified.\n", email, uid)
	}
}
