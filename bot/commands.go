package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"sennabot/bot/common"
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Check your pockets and savings",
		},
		{
			Name:        "deposit",
			Description: "Move coins from your pockets into savings",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "amount",
					Description: "Number of coins, or 'all'",
					Required:    true,
				},
			},
		},
		{
			Name:        "withdraw",
			Description: "Move coins from savings into your pockets",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "amount",
					Description: "Number of coins, or 'all'",
					Required:    true,
				},
			},
		},
		{
			Name:        "donate",
			Description: "Give coins from your pockets to another player",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Amount to donate",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Player to donate to",
					Required:    true,
				},
			},
		},
		{
			Name:        "work",
			Description: "Put in an honest shift for a modest payout",
		},
		{
			Name:        "crime",
			Description: "Risk a crime for a bigger score",
		},
		{
			Name:        "rob",
			Description: "Try to rob another player's pockets",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Player to rob",
					Required:    true,
				},
			},
		},
		{
			Name:        "prison",
			Description: "Check your sentence and escape odds",
		},
		{
			Name:        "escape",
			Description: "Attempt a prison break",
		},
		{
			Name:        "status",
			Description: "Your full standing: coins, health, liberty",
		},
		{
			Name:        "see_mortician",
			Description: "Pay the mortician to patch up your injuries",
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !b.guildAllowed(guildID) {
		common.RespondWithError(s, i, "The economy isn't open in this server.")
		return
	}

	name := i.ApplicationCommandData().Name

	// A pending balance challenge freezes the books until it resolves.
	if name != "balance" && name != "status" && name != "prison" {
		pending, err := b.challengeService.InChallenge(context.Background(), guildID, userID)
		if err != nil {
			log.Errorf("Error checking challenge state for user %d: %v", userID, err)
			common.RespondWithError(s, i, common.MessageFor(err))
			return
		}
		if pending {
			common.RespondWithError(s, i, "The house is dealing your challenge. The books are frozen until it resolves.")
			return
		}
	}

	switch name {
	case "balance", "deposit", "withdraw", "donate":
		b.balanceFeature.HandleCommand(s, i)
	case "work", "crime", "rob":
		b.activitiesFeature.HandleCommand(s, i)
	case "prison", "escape":
		b.prisonFeature.HandleCommand(s, i)
	case "status", "see_mortician":
		b.statusFeature.HandleCommand(s, i)
	}
}
