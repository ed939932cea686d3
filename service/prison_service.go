package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"sennabot/events"
	"sennabot/models"
)

type prisonService struct {
	store  GuildStore
	events EventPublisher
	now    func() time.Time
	roll   func(n int) int // uniform draw in [1, n]
}

// NewPrisonService creates a new prison service.
func NewPrisonService(store GuildStore, publisher EventPublisher) PrisonService {
	return &prisonService{
		store:  store,
		events: publisher,
		now:    time.Now,
		roll:   defaultRoll,
	}
}

func defaultRoll(n int) int {
	return rand.Intn(n) + 1
}

func (s *prisonService) SelectTier() models.PrisonTier {
	draw := s.roll(100)
	acc := 0
	for _, tier := range models.PrisonTiers {
		acc += tier.Weight
		if draw <= acc {
			return tier
		}
	}
	return models.PrisonTiers[len(models.PrisonTiers)-1]
}

func (s *prisonService) Incarcerate(ctx context.Context, guildID, userID int64, tier string, sentence time.Duration) (int64, error) {
	if models.PrisonTierByName(tier) == nil {
		return 0, fmt.Errorf("unknown prison tier %q", tier)
	}
	releaseAt := s.now().Add(sentence).Unix()
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		user.Prison = &models.PrisonStatus{Tier: tier, ReleaseAt: releaseAt}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if s.events != nil {
		s.events.Publish(ctx, events.UserIncarceratedEvent{
			GuildID:   guildID,
			UserID:    userID,
			Tier:      tier,
			ReleaseAt: releaseAt,
		})
	}
	return releaseAt, nil
}

func (s *prisonService) CheckPrisonStatus(ctx context.Context, guildID, userID int64) (*models.PrisonStatus, error) {
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return nil, err
	}
	user, ok := record[userID]
	if !ok || !user.IsImprisoned(s.now()) {
		return nil, nil
	}
	status := *user.Prison
	return &status, nil
}

func (s *prisonService) EscapeChance(ctx context.Context, guildID, userID int64) (int, string, error) {
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return 0, "", err
	}
	user, ok := record[userID]
	if !ok || !user.IsImprisoned(s.now()) {
		return 0, "", ErrNotImprisoned
	}
	tier := models.PrisonTierByName(user.Prison.Tier)
	if tier == nil {
		return 0, "", fmt.Errorf("unknown prison tier %q", user.Prison.Tier)
	}
	return escapeChance(tier, user.Injuries), tier.Name, nil
}

func (s *prisonService) AttemptEscape(ctx context.Context, guildID, userID int64) (*models.EscapeResult, error) {
	result := &models.EscapeResult{}
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		if !user.IsImprisoned(s.now()) {
			return ErrNotImprisoned
		}
		tier := models.PrisonTierByName(user.Prison.Tier)
		if tier == nil {
			return fmt.Errorf("unknown prison tier %q", user.Prison.Tier)
		}
		result.Tier = tier.Name
		result.Chance = escapeChance(tier, user.Injuries)
		result.Escaped = s.roll(100) <= result.Chance
		if !result.Escaped {
			return errNoChanges
		}
		user.Prison = nil
		return nil
	})
	if err != nil && !errors.Is(err, errNoChanges) {
		return nil, err
	}
	if result.Escaped && s.events != nil {
		s.events.Publish(ctx, events.UserReleasedEvent{
			GuildID: guildID,
			UserID:  userID,
			Escaped: true,
		})
	}
	return result, nil
}

func (s *prisonService) Release(ctx context.Context, guildID, userID int64) (bool, error) {
	released := false
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user, ok := record[userID]
		if !ok || user.Prison == nil {
			return errNoChanges
		}
		user.Prison = nil
		released = true
		return nil
	})
	if err != nil && !errors.Is(err, errNoChanges) {
		return false, err
	}
	if released && s.events != nil {
		s.events.Publish(ctx, events.UserReleasedEvent{
			GuildID: guildID,
			UserID:  userID,
		})
	}
	return released, nil
}

func (s *prisonService) ExtendSentence(ctx context.Context, guildID, userID int64, extra time.Duration) error {
	return s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user, ok := record[userID]
		if !ok || user.Prison == nil {
			return ErrNotImprisoned
		}
		user.Prison.ReleaseAt += int64(extra / time.Second)
		return nil
	})
}

func (s *prisonService) ProcessReleases(ctx context.Context, guildID int64) (int, error) {
	var released []int64
	now := s.now().Unix()
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		for userID, user := range record {
			if user.Prison != nil && now >= user.Prison.ReleaseAt {
				user.Prison = nil
				released = append(released, userID)
			}
		}
		if len(released) == 0 {
			return errNoChanges
		}
		return nil
	})
	if err != nil && !errors.Is(err, errNoChanges) {
		return 0, err
	}
	if s.events != nil {
		for _, userID := range released {
			s.events.Publish(ctx, events.UserReleasedEvent{
				GuildID: guildID,
				UserID:  userID,
			})
		}
	}
	return len(released), nil
}

// escapeChance combines the tier base chance with the user's injury
// modifier, clamped to the legal range.
func escapeChance(tier *models.PrisonTier, injuries int) int {
	chance := tier.EscapeChance + models.TierFor(injuries).EscapeModifier()
	if chance < models.MinEscapeChance {
		chance = models.MinEscapeChance
	}
	if chance > models.MaxEscapeChance {
		chance = models.MaxEscapeChance
	}
	return chance
}
