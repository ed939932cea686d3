package models

import (
	"time"
)

// StartingSavings is the balance seeded into a newly created user record.
const StartingSavings = 50

// MaxInjuries caps the injury counter at the highest injury tier threshold.
const MaxInjuries = 4

// PrisonStatus records an active incarceration for a user.
type PrisonStatus struct {
	Tier      string `json:"tier"`
	ReleaseAt int64  `json:"release_at"`
}

// UserRecord holds one user's economy state within a guild.
// Pockets and savings are tracked independently and may both go negative;
// callers enforce insufficient-funds policy before mutating.
type UserRecord struct {
	Pockets       int64            `json:"pockets"`
	Savings       int64            `json:"savings"`
	Cooldowns     map[string]int64 `json:"cooldowns"`
	Injured       bool             `json:"injured"`
	Injuries      int              `json:"injuries"`
	Prison        *PrisonStatus    `json:"prison"`
	LastRobbed    int64            `json:"last_robbed"`
	InChallenge   bool             `json:"in_challenge"`
	BeatChallenge bool             `json:"beat_balance_challenge"`
}

// NewUserRecord creates a user record with default values.
func NewUserRecord() *UserRecord {
	return &UserRecord{
		Savings:   StartingSavings,
		Cooldowns: make(map[string]int64),
	}
}

// TotalFunds returns pockets plus savings.
func (u *UserRecord) TotalFunds() int64 {
	return u.Pockets + u.Savings
}

// IsImprisoned reports whether the user has an unserved prison sentence.
func (u *UserRecord) IsImprisoned(now time.Time) bool {
	return u.Prison != nil && now.Unix() < u.Prison.ReleaseAt
}

// AddInjury increments the injury counter up to MaxInjuries and marks the
// user injured. Returns the new injury count.
func (u *UserRecord) AddInjury() int {
	if u.Injuries < MaxInjuries {
		u.Injuries++
	}
	u.Injured = true
	return u.Injuries
}

// HealInjuries clears all injuries.
func (u *UserRecord) HealInjuries() {
	u.Injuries = 0
	u.Injured = false
}

// Clone returns a deep copy of the user record.
func (u *UserRecord) Clone() *UserRecord {
	cp := *u
	cp.Cooldowns = make(map[string]int64, len(u.Cooldowns))
	for name, ts := range u.Cooldowns {
		cp.Cooldowns[name] = ts
	}
	if u.Prison != nil {
		prison := *u.Prison
		cp.Prison = &prison
	}
	return &cp
}

// GuildRecord is the full record set of one guild, keyed by user ID.
// Integer keys marshal as JSON strings, matching the on-disk blob format.
type GuildRecord map[int64]*UserRecord

// NewGuildRecord creates an empty guild record.
func NewGuildRecord() GuildRecord {
	return make(GuildRecord)
}

// GetOrCreate returns the record for userID, materializing it with default
// values on first access.
func (g GuildRecord) GetOrCreate(userID int64) *UserRecord {
	user, ok := g[userID]
	if !ok {
		user = NewUserRecord()
		g[userID] = user
	}
	return user
}

// Clone returns a deep copy of the guild record.
func (g GuildRecord) Clone() GuildRecord {
	cp := make(GuildRecord, len(g))
	for id, user := range g {
		cp[id] = user.Clone()
	}
	return cp
}
