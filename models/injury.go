package models

import "time"

// InjuryTier is a severity bucket derived from the accumulated injury count.
// All rate modifiers are applied on top of an activity's base values.
type InjuryTier struct {
	Name               string
	Threshold          int // minimum injury count for this tier
	CooldownMultiplier float64
	FailRateDelta      int     // added to the base fail rate, percent
	EarningsPenalty    float64 // fraction of earnings lost
	DeathChanceDelta   int     // added to the death sub-outcome share
	PrisonChanceDelta  int     // added to the prison sub-outcome share
	EscapeDelta        int     // added to the prison escape chance
	HealCost           int64
}

// InjuryTiers is the static injury tier table, ordered by threshold.
var InjuryTiers = []InjuryTier{
	{
		Name:               "Light Injury",
		Threshold:          1,
		CooldownMultiplier: 1.2,
		EscapeDelta:        -3,
		HealCost:           10,
	},
	{
		Name:               "Moderate Injury",
		Threshold:          2,
		CooldownMultiplier: 1.2,
		FailRateDelta:      10,
		EscapeDelta:        -5,
		HealCost:           15,
	},
	{
		Name:               "Needs Surgery",
		Threshold:          3,
		CooldownMultiplier: 1.2,
		FailRateDelta:      10,
		EarningsPenalty:    0.2,
		DeathChanceDelta:   15,
		PrisonChanceDelta:  20,
		EscapeDelta:        -15,
		HealCost:           30,
	},
	{
		Name:               "Critical Condition",
		Threshold:          4,
		CooldownMultiplier: 1.2,
		FailRateDelta:      25,
		EarningsPenalty:    0.2,
		DeathChanceDelta:   25,
		PrisonChanceDelta:  30,
		EscapeDelta:        -25,
		HealCost:           50,
	},
}

// TierFor returns the highest injury tier matching the given injury count,
// or nil for a healthy user.
func TierFor(injuries int) *InjuryTier {
	for i := len(InjuryTiers) - 1; i >= 0; i-- {
		if injuries >= InjuryTiers[i].Threshold {
			return &InjuryTiers[i]
		}
	}
	return nil
}

// ModifyCooldown applies the tier's cooldown multiplier. A nil tier leaves
// the base cooldown unchanged.
func (t *InjuryTier) ModifyCooldown(base time.Duration) time.Duration {
	if t == nil {
		return base
	}
	return time.Duration(float64(base) * t.CooldownMultiplier)
}

// ModifyFailRate applies the tier's fail-rate delta to a base percentage.
func (t *InjuryTier) ModifyFailRate(base int) int {
	if t == nil {
		return base
	}
	return base + t.FailRateDelta
}

// ModifyEarnings applies the tier's earnings penalty to a payout.
func (t *InjuryTier) ModifyEarnings(amount int64) int64 {
	if t == nil {
		return amount
	}
	return int64(float64(amount) * (1.0 - t.EarningsPenalty))
}

// EscapeModifier returns the escape-chance delta for the tier. A nil tier
// contributes nothing.
func (t *InjuryTier) EscapeModifier() int {
	if t == nil {
		return 0
	}
	return t.EscapeDelta
}
