package activities

import (
	"github.com/bwmarrin/discordgo"

	"sennabot/models"
	"sennabot/service"
)

type Feature struct {
	activityService service.ActivityService
	economyService  service.EconomyService
	prisonService   service.PrisonService
}

func New(activityService service.ActivityService, economyService service.EconomyService, prisonService service.PrisonService) *Feature {
	return &Feature{
		activityService: activityService,
		economyService:  economyService,
		prisonService:   prisonService,
	}
}

func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Name {
	case "work":
		f.handleActivity(s, i, models.ActivityWork)
	case "crime":
		f.handleActivity(s, i, models.ActivityCrime)
	case "rob":
		f.handleRob(s, i)
	}
}
