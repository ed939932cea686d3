package models

import "time"

// ActivityKind identifies a risk-bearing economy command.
type ActivityKind string

const (
	ActivityWork  ActivityKind = "work"
	ActivityCrime ActivityKind = "crime"
	ActivityRob   ActivityKind = "rob"
)

// ActivityConfig holds the tunables for one activity.
type ActivityConfig struct {
	Kind         ActivityKind
	Cooldown     time.Duration
	PayoutMin    int64
	PayoutMax    int64
	BaseFailRate int // percent; 0 means the activity cannot fail
}

// ActivityConfigs is the static activity table.
var ActivityConfigs = map[ActivityKind]ActivityConfig{
	ActivityWork: {
		Kind:      ActivityWork,
		Cooldown:  60 * time.Second,
		PayoutMin: 4,
		PayoutMax: 12,
	},
	ActivityCrime: {
		Kind:         ActivityCrime,
		Cooldown:     75 * time.Second,
		PayoutMin:    15,
		PayoutMax:    35,
		BaseFailRate: 51,
	},
	ActivityRob: {
		Kind:         ActivityRob,
		Cooldown:     300 * time.Second,
		BaseFailRate: 55,
	},
}

// Outcome resolution constants.
const (
	// MaxEffectiveFailRate leaves a slim chance of success no matter how
	// injured the user is.
	MaxEffectiveFailRate = 95

	// CriticalSuccessChance is the percent chance of a critical success.
	CriticalSuccessChance = 2
	CriticalMultiplierMin = 3
	CriticalMultiplierMax = 5

	// Failure sub-outcome base shares, percent. Injury takes the remainder
	// after tier deltas are applied to death and prison.
	DeathChance  = 15
	InjuryChance = 65
	PrisonChance = 20

	// FineMin and FineMax bound the fine paid on an injury outcome.
	FineMin = 5
	FineMax = 30

	// DeathSavingsPenalty is the fraction of savings collected as the
	// reaper's tax on a death outcome.
	DeathSavingsPenalty = 0.10
)

// Rob constants.
const (
	RobMinAmount        = 15
	RobStealMinPct      = 60
	RobStealMaxPct      = 80
	RobVictimProtection = 600 * time.Second
	EscapeCooldown      = 120 * time.Second
)

// Outcome is the resolved result class of an activity invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDeath   Outcome = "death"
	OutcomeInjury  Outcome = "injury"
	OutcomePrison  Outcome = "prison"
)

// ActivityResult describes one resolved activity invocation.
type ActivityResult struct {
	Kind    ActivityKind
	Outcome Outcome

	// Success path.
	Payout     int64
	Critical   bool
	Multiplier int

	// Failure path.
	Fine           int64 // injury outcome
	InjuryTier     string
	Injuries       int
	PocketsCleared int64 // death outcome
	SavingsPenalty int64
	PrisonTier     string // prison outcome, or the death substitution tier
	ReleaseAt      int64
	DeathCommuted  bool // death outcome converted to prison, nothing to tax

	// Rob success details.
	Stolen int64
}

// EscapeResult describes one escape attempt against the current prison tier.
type EscapeResult struct {
	Escaped bool
	Chance  int
	Tier    string

	// Failure penalties, per tier.
	SavingsPenalty   int64
	InjuryAdded      bool
	NewInjuryTier    string
	SentenceExtended time.Duration
}
