package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string

	// Persistence configuration. When DatabaseURL is empty guild records
	// are kept as JSON blobs under DataDir.
	DatabaseURL string
	DataDir     string

	// Store tuning
	CacheTTL time.Duration
	LockWait time.Duration

	// Guilds allowed to use the economy. Empty means every guild.
	EconomyGuildIDs []int64

	// ReleaseSweepInterval is how often expired prison sentences are
	// cleared in the background.
	ReleaseSweepInterval time.Duration

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),

		// Persistence
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     os.Getenv("DATA_DIR"),

		// Store defaults
		CacheTTL: 300 * time.Second,
		LockWait: 3 * time.Second,

		ReleaseSweepInterval: time.Minute,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.DataDir == "" {
		config.DataDir = "data"
	}

	// Override defaults if environment variables are set
	if ttl := os.Getenv("CACHE_TTL_SECONDS"); ttl != "" {
		if parsed, err := strconv.Atoi(ttl); err == nil && parsed > 0 {
			config.CacheTTL = time.Duration(parsed) * time.Second
		}
	}
	if wait := os.Getenv("LOCK_WAIT_SECONDS"); wait != "" {
		if parsed, err := strconv.Atoi(wait); err == nil && parsed > 0 {
			config.LockWait = time.Duration(parsed) * time.Second
		}
	}
	if interval := os.Getenv("RELEASE_SWEEP_SECONDS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.ReleaseSweepInterval = time.Duration(parsed) * time.Second
		}
	}

	// Parse the economy guild whitelist
	if guildIDs := os.Getenv("ECONOMY_GUILD_IDS"); guildIDs != "" {
		for _, idStr := range strings.Split(guildIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				config.EconomyGuildIDs = append(config.EconomyGuildIDs, id)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
	}

	return config, nil
}

// GuildAllowed reports whether the guild may use the economy commands.
func (c *Config) GuildAllowed(guildID int64) bool {
	if len(c.EconomyGuildIDs) == 0 {
		return true
	}
	for _, id := range c.EconomyGuildIDs {
		if id == guildID {
			return true
		}
	}
	return false
}
