package prison

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"sennabot/bot/common"
	"sennabot/models"
)

func (f *Feature) handlePrisonStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	status, err := f.prisonService.CheckPrisonStatus(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error checking prison status for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}
	if status == nil {
		if err := common.RespondEphemeral(s, i, "You're a free citizen. For now."); err != nil {
			log.Errorf("Error responding to prison command: %v", err)
		}
		return
	}

	chance, _, err := f.prisonService.EscapeChance(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error computing escape chance for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	message := fmt.Sprintf("You're serving time in **%s**. Release %s. Escape chance: **%d%%**.",
		status.Tier, common.FormatDiscordTimestamp(time.Unix(status.ReleaseAt, 0), "R"), chance)
	if err := common.Respond(s, i, message); err != nil {
		log.Errorf("Error responding to prison command: %v", err)
	}
}

func (f *Feature) handleEscape(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	status, err := f.prisonService.CheckPrisonStatus(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error checking prison status for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}
	if status == nil {
		common.RespondWithError(s, i, "You're not in prison.")
		return
	}

	ready, remaining, err := f.economyService.HandleCooldown(ctx, guildID, userID, "escape", models.EscapeCooldown)
	if err != nil {
		log.Errorf("Error handling escape cooldown for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}
	if !ready {
		common.RespondWithError(s, i, fmt.Sprintf("The guards are still on alert. Wait %s.", common.FormatDuration(remaining)))
		return
	}

	result, err := f.activityService.ResolveEscape(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error resolving escape for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	if err := common.Respond(s, i, describeEscape(result)); err != nil {
		log.Errorf("Error responding to escape command: %v", err)
	}
}

func describeEscape(result *models.EscapeResult) string {
	if result.Escaped {
		return fmt.Sprintf("🏃 You slipped out of **%s**! (%d%% chance and you made it count.)", result.Tier, result.Chance)
	}

	message := fmt.Sprintf("🚨 Caught climbing the wall of **%s** (%d%% chance).", result.Tier, result.Chance)
	if result.SavingsPenalty > 0 {
		message += fmt.Sprintf(" The guards shook you down for **%s** coins.", common.FormatBalance(result.SavingsPenalty))
	}
	if result.InjuryAdded {
		message += fmt.Sprintf(" You were roughed up: **%s**.", result.NewInjuryTier)
	}
	if result.SentenceExtended > 0 {
		message += fmt.Sprintf(" Your sentence grew by %s.", common.FormatDuration(result.SentenceExtended))
	}
	return message
}
