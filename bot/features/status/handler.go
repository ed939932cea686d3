package status

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"sennabot/bot/common"
)

func (f *Feature) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	pockets, err := f.economyService.GetPockets(ctx, guildID, userID)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}
	savings, err := f.economyService.GetSavings(ctx, guildID, userID)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}
	injuries, tier, err := f.injuryService.Status(ctx, guildID, userID)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}
	prisonStatus, err := f.prisonService.CheckPrisonStatus(ctx, guildID, userID)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	pendingChallenge, err := f.challengeService.InChallenge(ctx, guildID, userID)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	health := "Healthy"
	if tier != nil {
		health = fmt.Sprintf("%s (%d injuries, heal for %s coins)",
			tier.Name, injuries, common.FormatBalance(tier.HealCost))
	}
	liberty := "Free"
	if pendingChallenge {
		liberty = "Summoned by the house"
	}
	if prisonStatus != nil {
		liberty = fmt.Sprintf("%s, release %s", prisonStatus.Tier,
			common.FormatDiscordTimestamp(time.Unix(prisonStatus.ReleaseAt, 0), "R"))
	}

	displayName := common.GetDisplayName(s, i.GuildID, i.Member.User.ID)
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s's standing", displayName),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Pockets", Value: common.FormatBalance(pockets), Inline: true},
			{Name: "Savings", Value: common.FormatBalance(savings), Inline: true},
			{Name: "Total", Value: common.FormatBalance(pockets + savings), Inline: true},
			{Name: "Health", Value: health},
			{Name: "Liberty", Value: liberty},
		},
		Color: 0x3498db,
	}
	if err := common.RespondWithEmbed(s, i, embed); err != nil {
		log.Errorf("Error responding to status command: %v", err)
	}
}

func (f *Feature) handleSeeMortician(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	cost, tier, err := f.injuryService.Heal(ctx, guildID, userID)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	message := fmt.Sprintf("🩺 The mortician patched up your **%s** for **%s** coins. Good as new.",
		tier, common.FormatBalance(cost))
	if err := common.Respond(s, i, message); err != nil {
		log.Errorf("Error responding to see_mortician command: %v", err)
	}
}
