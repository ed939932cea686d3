package service

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"sennabot/events"
	"sennabot/models"
)

// errNotEligible aborts a challenge trigger that found no qualifying user.
var errNotEligible = errors.New("not eligible for balance challenge")

type challengeService struct {
	store  GuildStore
	events EventPublisher
	now    func() time.Time

	mu       sync.Mutex
	inflight map[int64]struct{}

	// playSeries runs the best-of series and reports the score.
	playSeries func() (userWins, houseWins, rounds int)
}

// NewChallengeService creates a new balance challenge service.
func NewChallengeService(store GuildStore, publisher EventPublisher) ChallengeService {
	return &challengeService{
		store:      store,
		events:     publisher,
		now:        time.Now,
		inflight:   make(map[int64]struct{}),
		playSeries: playBlackjackSeries,
	}
}

func (s *challengeService) TriggerForTarget(ctx context.Context, guildID, userID int64) (*models.ChallengeResult, error) {
	if !s.begin(userID) {
		return nil, nil
	}
	defer s.finish(userID)

	// Eligibility and the in_challenge mark happen under the guild lock so
	// concurrent triggers collapse to a single evaluation.
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user, ok := record[userID]
		if !ok || user.InChallenge || user.BeatChallenge {
			return errNotEligible
		}
		if user.TotalFunds() < models.ChallengeThreshold {
			return errNotEligible
		}
		user.InChallenge = true
		return nil
	})
	if errors.Is(err, errNotEligible) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	userWins, houseWins, rounds := s.playSeries()
	result := &models.ChallengeResult{
		GuildID:   guildID,
		UserID:    userID,
		Won:       userWins > houseWins,
		UserWins:  userWins,
		HouseWins: houseWins,
		Rounds:    rounds,
		Amount:    models.ChallengeStake,
	}

	if err := s.applyResult(ctx, result); err != nil {
		s.clearFlag(ctx, guildID, userID)
		return nil, err
	}
	s.publishResult(ctx, result)
	return result, nil
}

func (s *challengeService) InChallenge(ctx context.Context, guildID, userID int64) (bool, error) {
	s.mu.Lock()
	_, pending := s.inflight[userID]
	s.mu.Unlock()
	if pending {
		return true, nil
	}
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return false, err
	}
	user, ok := record[userID]
	return ok && user.InChallenge, nil
}

// applyResult settles the stake and, on a loss, incarcerates the loser
// and everyone else in the guild.
func (s *challengeService) applyResult(ctx context.Context, result *models.ChallengeResult) error {
	now := s.now().Unix()
	return s.store.Update(ctx, result.GuildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(result.UserID)
		user.InChallenge = false
		if result.Won {
			user.Savings += models.ChallengeStake
			user.BeatChallenge = true
			return nil
		}
		user.Savings -= models.ChallengeStake
		user.Prison = &models.PrisonStatus{
			Tier:      models.HarshestPrisonTier,
			ReleaseAt: now + int64(models.PrisonSentence/time.Second),
		}
		result.PrisonTier = models.HarshestPrisonTier
		result.Incarcerated = result.Incarcerated[:0]
		for userID, other := range record {
			if userID == result.UserID {
				continue
			}
			other.Prison = &models.PrisonStatus{
				Tier:      models.ChallengeFalloutTier,
				ReleaseAt: now + int64(models.ChallengeFalloutSentence/time.Second),
			}
			result.Incarcerated = append(result.Incarcerated, userID)
		}
		return nil
	})
}

func (s *challengeService) publishResult(ctx context.Context, result *models.ChallengeResult) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, events.ChallengeResolvedEvent{
		GuildID: result.GuildID,
		UserID:  result.UserID,
		Won:     result.Won,
	})
	if result.Won {
		return
	}
	now := s.now().Unix()
	s.events.Publish(ctx, events.UserIncarceratedEvent{
		GuildID:   result.GuildID,
		UserID:    result.UserID,
		Tier:      models.HarshestPrisonTier,
		ReleaseAt: now + int64(models.PrisonSentence/time.Second),
	})
	for _, userID := range result.Incarcerated {
		s.events.Publish(ctx, events.UserIncarceratedEvent{
			GuildID:   result.GuildID,
			UserID:    userID,
			Tier:      models.ChallengeFalloutTier,
			ReleaseAt: now + int64(models.ChallengeFalloutSentence/time.Second),
		})
	}
}

// begin claims the single-flight slot for the user.
func (s *challengeService) begin(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[userID]; ok {
		return false
	}
	s.inflight[userID] = struct{}{}
	return true
}

func (s *challengeService) finish(userID int64) {
	s.mu.Lock()
	delete(s.inflight, userID)
	s.mu.Unlock()
}

// clearFlag is a best-effort unwind so a failed settlement does not
// leave the user stuck in_challenge.
func (s *challengeService) clearFlag(ctx context.Context, guildID, userID int64) {
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user, ok := record[userID]
		if !ok || !user.InChallenge {
			return errNoChanges
		}
		user.InChallenge = false
		return nil
	})
	if err != nil && !errors.Is(err, errNoChanges) {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"user_id":  userID,
		}).WithError(err).Error("Failed to clear in_challenge flag")
	}
}
