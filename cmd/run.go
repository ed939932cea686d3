package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"sennabot/bot"
	"sennabot/config"
	"sennabot/database"
	"sennabot/events"
	"sennabot/service"
	"sennabot/store"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting sennabot...")

	// Load configuration
	cfg := config.Get()

	// Pick the persistence backend: Postgres when a database is
	// configured, JSON blob files otherwise.
	var backend store.Backend
	var db *database.DB
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to database...")
		var err error
		db, err = database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		backend = store.NewPostgresBackend(db)
		log.Println("Database connection established successfully")
	} else {
		log.Printf("Using file storage at %s", cfg.DataDir)
		fileBackend, err := store.NewFileBackend(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to initialize file storage: %w", err)
		}
		backend = fileBackend
	}

	// Initialize the guild store
	guildStore := store.New(backend, store.Options{
		CacheTTL: cfg.CacheTTL,
		LockWait: cfg.LockWait,
	})

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize services
	log.Println("Initializing services...")
	economyService := service.NewEconomyService(guildStore, eventBus)
	injuryService := service.NewInjuryService(guildStore, eventBus)
	prisonService := service.NewPrisonService(guildStore, eventBus)
	activityService := service.NewActivityService(guildStore, prisonService, eventBus)
	challengeService := service.NewChallengeService(guildStore, eventBus)
	log.Println("Services initialized successfully")

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:           cfg.DiscordToken,
		GuildID:         cfg.DiscordGuildID,
		EconomyGuildIDs: cfg.EconomyGuildIDs,
	}
	discordBot, err := bot.New(botConfig, economyService, injuryService, prisonService, activityService, challengeService, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// Sweep expired sentences in the background
	stopReleases := bot.StartReleaseWorker(ctx, guildStore, prisonService, cfg.ReleaseSweepInterval)

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")
	stopReleases()

	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if db != nil {
		log.Println("Closing database connection...")
		db.Close()
	}

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
