package models

import "time"

// PrisonTier is a weighted incarceration category. Selection weights across
// the table sum to 100.
type PrisonTier struct {
	Name         string
	Weight       int
	EscapeChance int // base escape chance, percent
}

// PrisonTiers is the static prison tier table, harshest last.
var PrisonTiers = []PrisonTier{
	{Name: "Officer Group", Weight: 35, EscapeChance: 75},
	{Name: "Old Guards", Weight: 20, EscapeChance: 65},
	{Name: "Soldat Brigade", Weight: 15, EscapeChance: 50},
	{Name: "Lancer Legion", Weight: 10, EscapeChance: 40},
	{Name: "Rook Division", Weight: 10, EscapeChance: 40},
	{Name: "Mortician Wing", Weight: 5, EscapeChance: 25},
	{Name: "Jaeger Camp", Weight: 5, EscapeChance: 10},
}

const (
	// HarshestPrisonTier is where balance challenge losers are sent.
	HarshestPrisonTier = "Jaeger Camp"

	// ChallengeFalloutTier is where everyone else in the guild is sent when
	// a balance challenge is lost.
	ChallengeFalloutTier = "Rook Division"

	// NoHealPrisonTier blocks mortician visits while serving time there.
	NoHealPrisonTier = "Mortician Wing"

	// DefaultDeathPrisonTier substitutes for a death outcome when the
	// reaper's tax cannot be collected.
	DefaultDeathPrisonTier = "Officer Group"
)

const (
	// PrisonSentence is the standard incarceration duration.
	PrisonSentence = time.Hour

	// ChallengeFalloutSentence is served by bystanders after a lost
	// balance challenge.
	ChallengeFalloutSentence = 6 * time.Hour

	// MinEscapeChance and MaxEscapeChance clamp the computed escape chance.
	MinEscapeChance = 5
	MaxEscapeChance = 100
)

// PrisonTierByName returns the tier with the given name, or nil.
func PrisonTierByName(name string) *PrisonTier {
	for i := range PrisonTiers {
		if PrisonTiers[i].Name == name {
			return &PrisonTiers[i]
		}
	}
	return nil
}
