package status

import (
	"github.com/bwmarrin/discordgo"

	"sennabot/service"
)

type Feature struct {
	economyService   service.EconomyService
	injuryService    service.InjuryService
	prisonService    service.PrisonService
	challengeService service.ChallengeService
}

func New(economyService service.EconomyService, injuryService service.InjuryService, prisonService service.PrisonService, challengeService service.ChallengeService) *Feature {
	return &Feature{
		economyService:   economyService,
		injuryService:    injuryService,
		prisonService:    prisonService,
		challengeService: challengeService,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "status":
		f.handleStatus(s, i)
	case "see_mortician":
		f.handleSeeMortician(s, i)
	}
}
