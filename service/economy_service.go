package service

import (
	"context"
	"errors"
	"time"

	"sennabot/events"
	"sennabot/models"
)

type economyService struct {
	store  GuildStore
	events EventPublisher
	now    func() time.Time
}

// NewEconomyService creates a new economy service.
func NewEconomyService(store GuildStore, publisher EventPublisher) EconomyService {
	return &economyService{
		store:  store,
		events: publisher,
		now:    time.Now,
	}
}

func (s *economyService) GetPockets(ctx context.Context, guildID, userID int64) (int64, error) {
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return 0, err
	}
	user, ok := record[userID]
	if !ok {
		return 0, nil
	}
	return user.Pockets, nil
}

func (s *economyService) GetSavings(ctx context.Context, guildID, userID int64) (int64, error) {
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return 0, err
	}
	user, ok := record[userID]
	if !ok {
		return models.StartingSavings, nil
	}
	return user.Savings, nil
}

func (s *economyService) TotalFunds(ctx context.Context, guildID, userID int64) (int64, error) {
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return 0, err
	}
	user, ok := record[userID]
	if !ok {
		return models.StartingSavings, nil
	}
	return user.TotalFunds(), nil
}

func (s *economyService) UpdatePockets(ctx context.Context, guildID, userID, delta int64) (int64, error) {
	var pockets, savings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		user.Pockets += delta
		pockets, savings = user.Pockets, user.Savings
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.publishBalanceChange(ctx, guildID, userID, pockets, savings, "pockets_update")
	return pockets, nil
}

func (s *economyService) UpdateSavings(ctx context.Context, guildID, userID, delta int64) (int64, error) {
	var pockets, savings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		user.Savings += delta
		pockets, savings = user.Pockets, user.Savings
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.publishBalanceChange(ctx, guildID, userID, pockets, savings, "savings_update")
	return savings, nil
}

func (s *economyService) CheckCooldown(ctx context.Context, guildID, userID int64, name string, base time.Duration) (bool, time.Duration, error) {
	record, err := s.store.Load(ctx, guildID)
	if err != nil {
		return false, 0, err
	}
	user, ok := record[userID]
	if !ok {
		return true, 0, nil
	}
	return cooldownState(user, name, base, s.now())
}

func (s *economyService) SetCooldown(ctx context.Context, guildID, userID int64, name string) error {
	return s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		user.Cooldowns[name] = s.now().Unix()
		return nil
	})
}

func (s *economyService) HandleCooldown(ctx context.Context, guildID, userID int64, name string, base time.Duration) (bool, time.Duration, error) {
	var ready bool
	var remaining time.Duration
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		effective := models.TierFor(user.Injuries).ModifyCooldown(base)
		var err error
		ready, remaining, err = cooldownState(user, name, effective, s.now())
		if err != nil {
			return err
		}
		if !ready {
			return errNoChanges
		}
		user.Cooldowns[name] = s.now().Unix()
		return nil
	})
	if err != nil && !errors.Is(err, errNoChanges) {
		return false, 0, err
	}
	return ready, remaining, nil
}

func (s *economyService) Deposit(ctx context.Context, guildID, userID, amount int64) (int64, int64, error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	var pockets, savings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		if user.Pockets < 0 {
			return ErrNegativePockets
		}
		if user.Pockets < amount {
			return ErrInsufficientFunds
		}
		user.Pockets -= amount
		user.Savings += amount
		pockets, savings = user.Pockets, user.Savings
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	s.publishBalanceChange(ctx, guildID, userID, pockets, savings, "deposit")
	return pockets, savings, nil
}

func (s *economyService) Withdraw(ctx context.Context, guildID, userID, amount int64) (int64, int64, error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	var pockets, savings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		user := record.GetOrCreate(userID)
		if user.Savings < 0 {
			return ErrNegativeSavings
		}
		if user.Savings < amount {
			return ErrInsufficientFunds
		}
		user.Savings -= amount
		user.Pockets += amount
		pockets, savings = user.Pockets, user.Savings
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	s.publishBalanceChange(ctx, guildID, userID, pockets, savings, "withdraw")
	return pockets, savings, nil
}

func (s *economyService) Donate(ctx context.Context, guildID, fromUserID, toUserID, amount int64) error {
	if fromUserID == toUserID {
		return ErrSelfTransfer
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	var donorPockets, donorSavings, targetPockets, targetSavings int64
	err := s.store.Update(ctx, guildID, func(record models.GuildRecord) error {
		donor := record.GetOrCreate(fromUserID)
		if donor.Pockets < 0 {
			return ErrNegativePockets
		}
		if donor.Savings < 0 {
			return ErrNegativeSavings
		}
		if donor.Pockets < amount {
			return ErrInsufficientFunds
		}
		target := record.GetOrCreate(toUserID)
		donor.Pockets -= amount
		target.Pockets += amount
		donorPockets, donorSavings = donor.Pockets, donor.Savings
		targetPockets, targetSavings = target.Pockets, target.Savings
		return nil
	})
	if err != nil {
		return err
	}
	s.publishBalanceChange(ctx, guildID, fromUserID, donorPockets, donorSavings, "donate_out")
	s.publishBalanceChange(ctx, guildID, toUserID, targetPockets, targetSavings, "donate_in")
	return nil
}

func (s *economyService) publishBalanceChange(ctx context.Context, guildID, userID, pockets, savings int64, reason string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, events.BalanceChangeEvent{
		GuildID: guildID,
		UserID:  userID,
		Pockets: pockets,
		Savings: savings,
		Total:   pockets + savings,
		Reason:  reason,
	})
}

// cooldownState reports whether the named cooldown has elapsed against
// the given effective duration.
func cooldownState(user *models.UserRecord, name string, effective time.Duration, now time.Time) (bool, time.Duration, error) {
	last, ok := user.Cooldowns[name]
	if !ok {
		return true, 0, nil
	}
	elapsed := now.Sub(time.Unix(last, 0))
	if elapsed >= effective {
		return true, 0, nil
	}
	return false, effective - elapsed, nil
}
