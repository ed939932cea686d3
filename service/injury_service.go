package service

import (
	"context"
	"time"

	"sennabot/events"
	"sennabot/models"
)

type injuryService struct {
	store  GuildStore
	events EventPublisher
	now    func() time.Time
}

// NewInjuryService creates a new injury service.
func NewInjuryService(store GuildStore, publisher EventPublisher) InjuryService {
	return &injuryService{
		store:  store,
		events: publisher,
		now:    time.Now,
	}
}

func (s *injuryService) Status(ctx context.Context, guildID, userID int64) (int, *models.InjuryTier, error) {
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return 0, nil, err
	}
	user, ok := record[userID]
	if !ok {
		return 0, nil, nil
	}
	return user.Injuries, models.TierFor(user.Injuries), nil
}

func (s *injuryService) HealCost(injuries int) int64 {
	tier := models.TierFor(injuries)
	if tier == nil {
		return 0
	}
	return tier.HealCost
}

func (s *injuryService) Heal(ctx context.Context, guildID, userID int64) (int64, string, error) {
	var cost int64
	var tierName string
	var pockets, savings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		if user.IsImprisoned(s.now()) {
			switch user.Prison.Tier {
			case models.NoHealPrisonTier, models.HarshestPrisonTier:
				return ErrHealBlocked
			}
		}
		tier := models.TierFor(user.Injuries)
		if tier == nil {
			return ErrNotInjured
		}
		if user.Pockets < 0 {
			return ErrNegativePockets
		}
		if user.TotalFunds() < tier.HealCost {
			return ErrInsufficientFunds
		}
		cost, tierName = tier.HealCost, tier.Name
		if user.Pockets >= cost {
			user.Pockets -= cost
		} else {
			user.Savings -= cost - user.Pockets
			user.Pockets = 0
		}
		user.HealInjuries()
		pockets, savings = user.Pockets, user.Savings
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	if s.events != nil {
		s.events.Publish(ctx, events.BalanceChangeEvent{
			GuildID: guildID,
			UserID:  userID,
			Pockets: pockets,
			Savings: savings,
			Total:   pockets + savings,
			Reason:  "heal",
		})
	}
	return cost, tierName, nil
}
