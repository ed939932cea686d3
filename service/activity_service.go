package service

import (
	"context"
	"math/rand"
	"time"

	"sennabot/events"
	"sennabot/models"
)

type activityService struct {
	store  GuildStore
	prison PrisonService
	events EventPublisher
	now    func() time.Time
	roll   func(n int) int // uniform draw in [1, n]

	// rollRange draws uniformly from [lo, hi].
	rollRange func(lo, hi int64) int64
}

// NewActivityService creates a new activity service.
func NewActivityService(store GuildStore, prison PrisonService, publisher EventPublisher) ActivityService {
	return &activityService{
		store:     store,
		prison:    prison,
		events:    publisher,
		now:       time.Now,
		roll:      defaultRoll,
		rollRange: defaultRollRange,
	}
}

func defaultRollRange(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + rand.Int63n(hi-lo+1)
}

func (s *activityService) ResolveActivity(ctx context.Context, kind models.ActivityKind, guildID, userID int64) (*models.ActivityResult, error) {
	cfg, ok := models.ActivityConfigs[kind]
	if !ok || kind == models.ActivityRob {
		return nil, ErrUnknownActivity
	}
	result := &models.ActivityResult{Kind: kind}
	var pockets, savings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		tier := models.TierFor(user.Injuries)
		if s.drawSuccess(cfg, tier) {
			s.resolveSuccess(cfg, tier, user, result)
		} else {
			s.resolveFailure(tier, user, result)
		}
		pockets, savings = user.Pockets, user.Savings
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishOutcome(ctx, guildID, userID, pockets, savings, result)
	return result, nil
}

func (s *activityService) ResolveRob(ctx context.Context, guildID, robberID, targetID int64) (*models.ActivityResult, error) {
	if robberID == targetID {
		return nil, ErrSelfTransfer
	}
	cfg := models.ActivityConfigs[models.ActivityRob]
	result := &models.ActivityResult{Kind: models.ActivityRob}
	now := s.now().Unix()
	var pockets, savings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		robber := record.GetOrCreate(robberID)
		target := record.GetOrCreate(targetID)
		if target.LastRobbed > 0 {
			elapsed := time.Duration(now-target.LastRobbed) * time.Second
			if elapsed < models.RobVictimProtection {
				return &RobProtectedError{Remaining: models.RobVictimProtection - elapsed}
			}
		}
		tier := models.TierFor(robber.Injuries)
		if !s.drawSuccess(cfg, tier) {
			s.resolveFailure(tier, robber, result)
			pockets, savings = robber.Pockets, robber.Savings
			return nil
		}
		if target.Pockets < models.RobMinAmount {
			return ErrTargetBroke
		}
		lo := target.Pockets * models.RobStealMinPct / 100
		hi := target.Pockets * models.RobStealMaxPct / 100
		stolen := s.rollRange(lo, hi)
		if stolen < models.RobMinAmount {
			stolen = models.RobMinAmount
		}
		if stolen > target.Pockets {
			stolen = target.Pockets
		}
		target.Pockets -= stolen
		target.LastRobbed = now
		robber.Pockets += stolen
		result.Outcome = models.OutcomeSuccess
		result.Stolen = stolen
		result.Payout = stolen
		pockets, savings = robber.Pockets, robber.Savings
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishOutcome(ctx, guildID, robberID, pockets, savings, result)
	return result, nil
}

func (s *activityService) ResolveEscape(ctx context.Context, guildID, userID int64) (*models.EscapeResult, error) {
	result, err := s.prison.AttemptEscape(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if result.Escaped {
		return result, nil
	}
	var pockets, savings int64
	err = s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		s.applyEscapePenalty(result.Tier, user, result)
		pockets, savings = user.Pockets, user.Savings
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.SavingsPenalty > 0 && s.events != nil {
		s.events.Publish(ctx, events.BalanceChangeEvent{
			GuildID: guildID,
			UserID:  userID,
			Pockets: pockets,
			Savings: savings,
			Total:   pockets + savings,
			Reason:  "escape_penalty",
		})
	}
	return result, nil
}

// drawSuccess rolls the activity's effective fail rate. An activity with
// no base fail rate always succeeds, injuries notwithstanding.
func (s *activityService) drawSuccess(cfg models.ActivityConfig, tier *models.InjuryTier) bool {
	if cfg.BaseFailRate == 0 {
		return true
	}
	failRate := tier.ModifyFailRate(cfg.BaseFailRate)
	if failRate > models.MaxEffectiveFailRate {
		failRate = models.MaxEffectiveFailRate
	}
	return s.roll(100) <= 100-failRate
}

func (s *activityService) resolveSuccess(cfg models.ActivityConfig, tier *models.InjuryTier, user *models.UserRecord, result *models.ActivityResult) {
	payout := tier.ModifyEarnings(s.rollRange(cfg.PayoutMin, cfg.PayoutMax))
	if s.roll(100) <= models.CriticalSuccessChance {
		result.Critical = true
		result.Multiplier = int(s.rollRange(models.CriticalMultiplierMin, models.CriticalMultiplierMax))
		payout *= int64(result.Multiplier)
	}
	user.Pockets += payout
	result.Outcome = models.OutcomeSuccess
	result.Payout = payout
}

// resolveFailure draws the failure sub-outcome. Death and prison grow
// with the injury tier and injury takes whatever share remains.
func (s *activityService) resolveFailure(tier *models.InjuryTier, user *models.UserRecord, result *models.ActivityResult) {
	deathChance := models.DeathChance
	prisonChance := models.PrisonChance
	if tier != nil {
		deathChance += tier.DeathChanceDelta
		prisonChance += tier.PrisonChanceDelta
	}
	injuryChance := 100 - deathChance - prisonChance
	if injuryChance < 0 {
		injuryChance = 0
	}
	draw := s.roll(100)
	switch {
	case draw <= deathChance:
		s.resolveDeath(user, result)
	case draw <= deathChance+injuryChance:
		s.resolveInjury(user, result)
	default:
		s.resolvePrison(user, result)
	}
}

func (s *activityService) resolveDeath(user *models.UserRecord, result *models.ActivityResult) {
	penalty := int64(float64(user.Savings) * models.DeathSavingsPenalty)
	if penalty <= 0 {
		// nothing for the reaper to collect, commute to a sentence instead
		releaseAt := s.now().Add(models.PrisonSentence).Unix()
		user.Prison = &models.PrisonStatus{Tier: models.DefaultDeathPrisonTier, ReleaseAt: releaseAt}
		result.Outcome = models.OutcomePrison
		result.PrisonTier = models.DefaultDeathPrisonTier
		result.ReleaseAt = releaseAt
		result.DeathCommuted = true
		return
	}
	result.Outcome = models.OutcomeDeath
	result.PocketsCleared = user.Pockets
	result.SavingsPenalty = penalty
	user.Pockets = 0
	user.Savings -= penalty
}

func (s *activityService) resolveInjury(user *models.UserRecord, result *models.ActivityResult) {
	fine := s.rollRange(models.FineMin, models.FineMax)
	user.Pockets -= fine
	result.Outcome = models.OutcomeInjury
	result.Fine = fine
	result.Injuries = user.AddInjury()
	if tier := models.TierFor(user.Injuries); tier != nil {
		result.InjuryTier = tier.Name
	}
}

func (s *activityService) resolvePrison(user *models.UserRecord, result *models.ActivityResult) {
	tier := s.prison.SelectTier()
	releaseAt := s.now().Add(models.PrisonSentence).Unix()
	user.Prison = &models.PrisonStatus{Tier: tier.Name, ReleaseAt: releaseAt}
	result.Outcome = models.OutcomePrison
	result.PrisonTier = tier.Name
	result.ReleaseAt = releaseAt
}

// applyEscapePenalty hands out the per-tier consequence of a failed
// escape attempt.
func (s *activityService) applyEscapePenalty(tierName string, user *models.UserRecord, result *models.EscapeResult) {
	before := user.Injuries
	switch tierName {
	case "Officer Group":
		// the guards let it slide
	case "Old Guards":
		user.Savings -= 5
		result.SavingsPenalty = 5
	case "Soldat Brigade":
		user.Savings -= 10
		result.SavingsPenalty = 10
	case "Lancer Legion":
		user.Savings -= 15
		result.SavingsPenalty = 15
		user.AddInjury()
	case "Rook Division":
		if user.Prison != nil {
			user.Prison.ReleaseAt += int64(15 * time.Minute / time.Second)
			result.SentenceExtended = 15 * time.Minute
		}
		user.AddInjury()
	case models.NoHealPrisonTier:
		if user.Injuries >= models.MaxInjuries {
			user.Savings -= 20
			result.SavingsPenalty = 20
		} else if user.Injuries == models.MaxInjuries-1 {
			user.Injuries = models.MaxInjuries
			user.Injured = true
		} else {
			user.Injuries = models.MaxInjuries - 1
			user.Injured = true
		}
	case models.HarshestPrisonTier:
		penalty := user.Savings / 4
		if penalty > 0 {
			user.Savings -= penalty
			result.SavingsPenalty = penalty
		}
	}
	if user.Injuries > before {
		result.InjuryAdded = true
	}
	if tier := models.TierFor(user.Injuries); tier != nil {
		result.NewInjuryTier = tier.Name
	}
}

func (s *activityService) publishOutcome(ctx context.Context, guildID, userID, pockets, savings int64, result *models.ActivityResult) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, events.BalanceChangeEvent{
		GuildID: guildID,
		UserID:  userID,
		Pockets: pockets,
		Savings: savings,
		Total:   pockets + savings,
		Reason:  string(result.Kind),
	})
	if result.PrisonTier != "" {
		s.events.Publish(ctx, events.UserIncarceratedEvent{
			GuildID:   guildID,
			UserID:    userID,
			Tier:      result.PrisonTier,
			ReleaseAt: result.ReleaseAt,
		})
	}
}
