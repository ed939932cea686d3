package service

import (
	"context"
	"time"

	"sennabot/events"
	"sennabot/models"
)

// GuildStore is the locked persistence surface services mutate guild
// records through. Implemented by store.Store.
type GuildStore interface {
	// Load returns a snapshot of the guild record. The caller owns the copy.
	Load(ctx context.Context, guildID int64) (models.GuildRecord, error)

	// Update applies fn to the guild record under the guild lock and
	// persists the result. If fn returns an error nothing is saved.
	Update(ctx context.Context, guildID int64, fn func(record models.GuildRecord) error) error

	// Guilds lists every guild known to the backend.
	Guilds(ctx context.Context) ([]int64, error)

	// InvalidateCache drops any cached copy of the guild record.
	InvalidateCache(guildID int64)
}

// EventPublisher decouples services from the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// EconomyService manages the dual-balance ledger and activity cooldowns.
type EconomyService interface {
	// GetPockets returns the user's pocket balance, 0 if the user is unknown.
	GetPockets(ctx context.Context, guildID, userID int64) (int64, error)

	// GetSavings returns the user's savings balance, or the starting
	// savings grant if the user is unknown.
	GetSavings(ctx context.Context, guildID, userID int64) (int64, error)

	// TotalFunds returns pockets plus savings.
	TotalFunds(ctx context.Context, guildID, userID int64) (int64, error)

	// UpdatePockets adds delta to the pocket balance unconditionally and
	// returns the new balance. Balances may go negative.
	UpdatePockets(ctx context.Context, guildID, userID, delta int64) (int64, error)

	// UpdateSavings adds delta to the savings balance unconditionally and
	// returns the new balance.
	UpdateSavings(ctx context.Context, guildID, userID, delta int64) (int64, error)

	// CheckCooldown reports whether the named cooldown has elapsed and, if
	// not, how long remains. It never mutates state.
	CheckCooldown(ctx context.Context, guildID, userID int64, name string, base time.Duration) (ready bool, remaining time.Duration, err error)

	// SetCooldown stamps the named cooldown with the current time.
	SetCooldown(ctx context.Context, guildID, userID int64, name string) error

	// HandleCooldown atomically checks the named cooldown, with the user's
	// injury multiplier applied to base, and stamps it when ready.
	HandleCooldown(ctx context.Context, guildID, userID int64, name string, base time.Duration) (ready bool, remaining time.Duration, err error)

	// Deposit moves amount from pockets into savings.
	Deposit(ctx context.Context, guildID, userID, amount int64) (pockets, savings int64, err error)

	// Withdraw moves amount from savings into pockets.
	Withdraw(ctx context.Context, guildID, userID, amount int64) (pockets, savings int64, err error)

	// Donate transfers amount from one user's pockets to another's.
	Donate(ctx context.Context, guildID, fromUserID, toUserID, amount int64) error
}

// InjuryService manages accumulated injuries and healing.
type InjuryService interface {
	// Status returns the user's injury count and tier (nil when healthy).
	Status(ctx context.Context, guildID, userID int64) (injuries int, tier *models.InjuryTier, err error)

	// HealCost returns the cost of healing at the given injury count.
	HealCost(injuries int) int64

	// Heal clears all injuries, debiting pockets first then savings.
	Heal(ctx context.Context, guildID, userID int64) (cost int64, tier string, err error)
}

// PrisonService manages incarceration, sentences and escapes.
type PrisonService interface {
	// SelectTier draws a prison tier by weight.
	SelectTier() models.PrisonTier

	// Incarcerate places the user in the named tier for the given sentence
	// and returns the release timestamp.
	Incarcerate(ctx context.Context, guildID, userID int64, tier string, sentence time.Duration) (releaseAt int64, err error)

	// CheckPrisonStatus returns the user's prison status, or nil when the
	// user is free or the sentence has expired.
	CheckPrisonStatus(ctx context.Context, guildID, userID int64) (*models.PrisonStatus, error)

	// EscapeChance returns the user's current escape chance and tier name.
	EscapeChance(ctx context.Context, guildID, userID int64) (chance int, tier string, err error)

	// AttemptEscape rolls an escape attempt and clears the sentence on
	// success. Failure consequences are applied by the activity engine.
	AttemptEscape(ctx context.Context, guildID, userID int64) (*models.EscapeResult, error)

	// Release frees the user regardless of remaining sentence.
	Release(ctx context.Context, guildID, userID int64) (released bool, err error)

	// ExtendSentence pushes the release timestamp further out.
	ExtendSentence(ctx context.Context, guildID, userID int64, extra time.Duration) error

	// ProcessReleases frees every user in the guild whose sentence has
	// expired and returns how many were released.
	ProcessReleases(ctx context.Context, guildID int64) (released int, err error)
}

// ActivityService resolves economy activities and escape attempts,
// including their failure sub-outcomes.
type ActivityService interface {
	// ResolveActivity runs a solo activity (work or crime) to completion.
	ResolveActivity(ctx context.Context, kind models.ActivityKind, guildID, userID int64) (*models.ActivityResult, error)

	// ResolveRob runs a robbery attempt against another user.
	ResolveRob(ctx context.Context, guildID, robberID, targetID int64) (*models.ActivityResult, error)

	// ResolveEscape runs an escape attempt, applying the tier penalty on
	// failure.
	ResolveEscape(ctx context.Context, guildID, userID int64) (*models.EscapeResult, error)
}

// ChallengeService runs the balance challenge with single-flight
// semantics per user.
type ChallengeService interface {
	// TriggerForTarget evaluates eligibility and, when eligible, plays the
	// challenge to completion. Returns nil when the user is not eligible
	// or a challenge is already in flight for them.
	TriggerForTarget(ctx context.Context, guildID, userID int64) (*models.ChallengeResult, error)

	// InChallenge reports whether a challenge is pending for the user.
	InChallenge(ctx context.Context, guildID, userID int64) (bool, error)
}
