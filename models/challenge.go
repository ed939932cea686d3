package models

// Balance challenge constants. The challenge fires when a user's total
// funds reach the wealth cap and they have not already beaten the house.
const (
	ChallengeThreshold = 15000
	ChallengeStake     = 1000

	// ChallengeWinsNeeded ends the best-of-5 series.
	ChallengeWinsNeeded = 3
)

// ChallengeResult describes one completed balance challenge series.
type ChallengeResult struct {
	GuildID int64
	UserID  int64
	Won     bool

	UserWins  int
	HouseWins int
	Rounds    int

	// Won: stake credited to savings. Lost: stake debited, the user is sent
	// to the harshest tier and every other guild member to the fallout tier.
	Amount       int64
	PrisonTier   string
	Incarcerated []int64 // bystanders imprisoned on a loss
}
