package balance

import (
	"github.com/bwmarrin/discordgo"

	"sennabot/service"
)

type Feature struct {
	economyService service.EconomyService
}

func New(economyService service.EconomyService) *Feature {
	return &Feature{
		economyService: economyService,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "balance":
		f.handleBalance(s, i)
	case "deposit":
		f.handleDeposit(s, i)
	case "withdraw":
		f.handleWithdraw(s, i)
	case "donate":
		f.handleDonate(s, i)
	}
}
