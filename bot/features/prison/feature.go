package prison

import (
	"github.com/bwmarrin/discordgo"

	"sennabot/service"
)

type Feature struct {
	prisonService   service.PrisonService
	activityService service.ActivityService
	economyService  service.EconomyService
}

func New(prisonService service.PrisonService, activityService service.ActivityService, economyService service.EconomyService) *Feature {
	return &Feature{
		prisonService:   prisonService,
		activityService: activityService,
		economyService:  economyService,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "prison":
		f.handlePrisonStatus(s, i)
	case "escape":
		f.handleEscape(s, i)
	}
}
