package balance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"sennabot/bot/common"
)

func (f *Feature) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	pockets, err := f.economyService.GetPockets(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error getting pockets for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}
	savings, err := f.economyService.GetSavings(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Error getting savings for user %d: %v", userID, err)
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	displayName := common.GetDisplayName(s, i.GuildID, i.Member.User.ID)
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s's balance", displayName),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Pockets", Value: common.FormatBalance(pockets), Inline: true},
			{Name: "Savings", Value: common.FormatBalance(savings), Inline: true},
			{Name: "Total", Value: common.FormatBalance(pockets + savings), Inline: true},
		},
		Color: 0x2ecc71,
	}
	if err := common.RespondWithEmbed(s, i, embed); err != nil {
		log.Errorf("Error responding to balance command: %v", err)
	}
}

func (f *Feature) handleDeposit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	amount, err := f.resolveAmount(ctx, i, func() (int64, error) {
		return f.economyService.GetPockets(ctx, guildID, userID)
	})
	if err != nil {
		common.RespondWithError(s, i, "Give me a number of coins, or `all`.")
		return
	}

	pockets, savings, err := f.economyService.Deposit(ctx, guildID, userID, amount)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	message := fmt.Sprintf("Deposited **%s** coins. Pockets: **%s**, savings: **%s**.",
		common.FormatBalance(amount), common.FormatBalance(pockets), common.FormatBalance(savings))
	if err := common.Respond(s, i, message); err != nil {
		log.Errorf("Error responding to deposit command: %v", err)
	}
}

func (f *Feature) handleWithdraw(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	amount, err := f.resolveAmount(ctx, i, func() (int64, error) {
		return f.economyService.GetSavings(ctx, guildID, userID)
	})
	if err != nil {
		common.RespondWithError(s, i, "Give me a number of coins, or `all`.")
		return
	}

	pockets, savings, err := f.economyService.Withdraw(ctx, guildID, userID, amount)
	if err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	message := fmt.Sprintf("Withdrew **%s** coins. Pockets: **%s**, savings: **%s**.",
		common.FormatBalance(amount), common.FormatBalance(pockets), common.FormatBalance(savings))
	if err := common.Respond(s, i, message); err != nil {
		log.Errorf("Error responding to withdraw command: %v", err)
	}
}

func (f *Feature) handleDonate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := common.InteractionIDs(i)
	if err != nil {
		log.Errorf("Error parsing interaction IDs: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var amount int64
	var targetID string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "amount":
			amount = opt.IntValue()
		case "user":
			targetID = opt.UserValue(nil).ID
		}
	}

	target, err := common.ParseSnowflake(targetID)
	if err != nil {
		common.RespondWithError(s, i, "I don't know who that is.")
		return
	}

	if err := f.economyService.Donate(ctx, guildID, userID, target, amount); err != nil {
		common.RespondWithError(s, i, common.MessageFor(err))
		return
	}

	message := fmt.Sprintf("Donated **%s** coins to <@%s>.", common.FormatBalance(amount), targetID)
	if err := common.Respond(s, i, message); err != nil {
		log.Errorf("Error responding to donate command: %v", err)
	}
}

// resolveAmount reads the "amount" string option, accepting a positive
// integer or the word "all" resolved against the caller's balance.
func (f *Feature) resolveAmount(ctx context.Context, i *discordgo.InteractionCreate, all func() (int64, error)) (int64, error) {
	raw := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "amount" {
			raw = opt.StringValue()
		}
	}
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "all" {
		return all()
	}
	return strconv.ParseInt(raw, 10, 64)
}
