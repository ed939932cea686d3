package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"sennabot/bot/common"
	"sennabot/models"
)

func (f *Feature) handleActivity(s *discordgo.Session, i *discordgo.InteractionCreate, kind models.ActivityKind) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	if !f.gate(ctx, s, i, guildID, userID, kind) {
		return
	}

	result, err := f.activityService.ResolveActivity(ctx, kind, guildID, userID)
	if err != nil {
		log.Errorf("Error resolving %s for user %d: %v", kind, userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	if err := common.Respond(s, i, f.describeOutcome(kind, result)); err != nil {
		log.Errorf("Error responding to %s command: %v", kind, err)
	}
}

func (f *Feature) handleRob(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var targetRaw string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "user" {
			targetRaw = opt.UserValue(nil).ID
		}
	}
	targetID, err := common.ParseSnowflake(targetRaw)
	if err != nil {
		common.RespondWithError(s, i, "I don't know who that is.")
		return
	}

	if !f.gate(ctx, s, i, guildID, userID, models.ActivityRob) {
		return
	}

	result, err := f.activityService.ResolveRob(ctx, guildID, userID, targetID)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	var message string
	if result.Outcome == models.OutcomeSuccess {
		message = fmt.Sprintf("You crept up on <@%s> and made off with **%s** coins.",
			targetRaw, common.FormatBalance(result.Stolen))
	} else {
		message = "The heist went sideways. " + f.describeFailure(result)
	}
	if err := common.Respond(s, i, message); err != nil {
		log.Errorf("Error responding to rob command: %v", err)
	}
}

// gate runs the checks shared by every activity: not imprisoned, and the
// activity cooldown (stretched by injuries) has elapsed.
func (f *Feature) gate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID int64, kind models.ActivityKind) bool {
	status, err := f.prisonService.CheckPrisonStatus(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error checking prison status for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return false
	}
	if status != nil {
		common.RespondWithError(s, i, fmt.Sprintf("You're locked up in **%s** until %s. Try `/escape`.",
			status.Tier, common.FormatDiscordTimestamp(time.Unix(status.ReleaseAt, 0), "R")))
		return false
	}

	cfg := models.ActivityConfigs[kind]
	ready, remaining, err := f.economyService.HandleCooldown(ctx, guildID, userID, string(kind), cfg.Cooldown)
	if err != nil {
		log.Errorf("Error handling %s cooldown for user %d: %v", kind, userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return false
	}
	if !ready {
		common.RespondWithError(s, i, fmt.Sprintf("You need to lay low for another %s.", common.FormatDuration(remaining)))
		return false
	}
	return true
}

func (f *Feature) describeOutcome(kind models.ActivityKind, result *models.ActivityResult) string {
	if result.Outcome == models.OutcomeSuccess {
		verb := "worked an honest shift"
		if kind == models.ActivityCrime {
			verb = "pulled off the job"
		}
		if result.Critical {
			return fmt.Sprintf("💰 **Critical!** You %s and a x%d windfall nets you **%s** coins.",
				verb, result.Multiplier, common.FormatBalance(result.Payout))
		}
		return fmt.Sprintf("You %s and earned **%s** coins.", verb, common.FormatBalance(result.Payout))
	}
	return f.describeFailure(result)
}

func (f *Feature) describeFailure(result *models.ActivityResult) string {
	switch result.Outcome {
	case models.OutcomeDeath:
		return fmt.Sprintf("💀 You didn't make it. Your pockets (**%s** coins) were scattered and the reaper took **%s** from your savings.",
			common.FormatBalance(result.PocketsCleared), common.FormatBalance(result.SavingsPenalty))
	case models.OutcomeInjury:
		return fmt.Sprintf("🩹 You got hurt and paid a **%s** coin fine. Injury status: **%s** (%d).",
			common.FormatBalance(result.Fine), result.InjuryTier, result.Injuries)
	case models.OutcomePrison:
		release := common.FormatDiscordTimestamp(time.Unix(result.ReleaseAt, 0), "R")
		if result.DeathCommuted {
			return fmt.Sprintf("💀 You should have died, but with nothing worth taking you were thrown into **%s** instead. Release %s.",
				result.PrisonTier, release)
		}
		return fmt.Sprintf("🚔 You were caught and locked up in **%s**. Release %s.", result.PrisonTier, release)
	}
	return "Nothing happened. That's suspicious."
}
