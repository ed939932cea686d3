package bot

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/bwmarrin/discordgo"

	"sennabot/bot/common"
	"sennabot/bot/features/activities"
	"sennabot/bot/features/balance"
	"sennabot/bot/features/prison"
	"sennabot/bot/features/status"
	"sennabot/events"
	"sennabot/models"
	"sennabot/service"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string

	// EconomyGuildIDs restricts economy commands to these guilds. Empty
	// allows every guild the bot is in.
	EconomyGuildIDs []int64
}

type Bot struct {
	config           Config
	session          *discordgo.Session
	challengeService service.ChallengeService
	eventBus         *events.Bus

	balanceFeature    *balance.Feature
	activitiesFeature *activities.Feature
	prisonFeature     *prison.Feature
	statusFeature     *status.Feature
}

func New(config Config, economyService service.EconomyService, injuryService service.InjuryService, prisonService service.PrisonService, activityService service.ActivityService, challengeService service.ChallengeService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged

	bot := &Bot{
		config:            config,
		session:           dg,
		challengeService:  challengeService,
		eventBus:          eventBus,
		balanceFeature:    balance.New(economyService),
		activitiesFeature: activities.New(activityService, economyService, prisonService),
		prisonFeature:     prison.New(prisonService, activityService, economyService),
		statusFeature:     status.New(economyService, injuryService, prisonService, challengeService),
	}

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	// Every balance change is a potential wealth-cap crossing. The
	// challenge service filters out ineligible users and collapses
	// concurrent triggers, so firing on every event is safe.
	eventBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.BalanceChangeEvent)
		if !ok {
			return
		}
		result, err := challengeService.TriggerForTarget(ctx, e.GuildID, e.UserID)
		if err != nil {
			log.WithFields(log.Fields{
				"guildID": e.GuildID,
				"userID":  e.UserID,
			}).WithError(err).Error("Balance challenge trigger failed")
			return
		}
		if result != nil {
			bot.announceChallenge(result)
		}
	})

	eventBus.Subscribe(events.EventTypeUserReleased, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.UserReleasedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"guildID": e.GuildID,
			"userID":  e.UserID,
			"escaped": e.Escaped,
		}).Info("User released from prison")
	})

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// guildAllowed reports whether the guild may use the economy.
func (b *Bot) guildAllowed(guildID int64) bool {
	if len(b.config.EconomyGuildIDs) == 0 {
		return true
	}
	for _, id := range b.config.EconomyGuildIDs {
		if id == guildID {
			return true
		}
	}
	return false
}

// announceChallenge posts the outcome of a balance challenge to the
// guild's system channel.
func (b *Bot) announceChallenge(result *models.ChallengeResult) {
	log.WithFields(log.Fields{
		"guildID": result.GuildID,
		"userID":  result.UserID,
		"won":     result.Won,
		"rounds":  result.Rounds,
	}).Info("Balance challenge resolved")

	guild, err := b.session.Guild(strconv.FormatInt(result.GuildID, 10))
	if err != nil || guild.SystemChannelID == "" {
		return
	}

	mention := fmt.Sprintf("<@%d>", result.UserID)
	var message string
	if result.Won {
		message = fmt.Sprintf("🏆 %s was summoned by the house over their fortune and won %d-%d! They take **%s** coins and the house will never call on them again.",
			mention, result.UserWins, result.HouseWins, common.FormatBalance(result.Amount))
	} else {
		message = fmt.Sprintf("🃏 %s was summoned by the house over their fortune and lost %d-%d. **%s** coins forfeited, off to **%s**, and everyone else answers for it in **%s**.",
			mention, result.UserWins, result.HouseWins, common.FormatBalance(result.Amount),
			result.PrisonTier, models.ChallengeFalloutTier)
	}
	if _, err := b.session.ChannelMessageSend(guild.SystemChannelID, message); err != nil {
		log.WithError(err).Warn("Failed to announce balance challenge")
	}
}
