package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sennabot/models"
	"sennabot/store"
)

// rollSeq returns a roll stub that replays the given draws in order.
func rollSeq(draws ...int) func(int) int {
	i := 0
	return func(n int) int {
		d := draws[i%len(draws)]
		i++
		return d
	}
}

func newActivityFixture(t *testing.T) (*store.Store, *activityService, *prisonService) {
	t.Helper()
	st := newTestStore(t)
	prison := NewPrisonService(st, nil).(*prisonService)
	activity := NewActivityService(st, prison, nil).(*activityService)
	return st, activity, prison
}

func seedUser(t *testing.T, st *store.Store, userID int64, mutate func(*models.UserRecord)) {
	t.Helper()
	err := st.Update(context.Background(), testGuildID, func(record models.GuildRecord) error {
		mutate(record.GetOrCreate(userID))
		return nil
	})
	require.NoError(t, err)
}

func TestActivityService_Work_AlwaysSucceeds(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)

	seedUser(t, st, testUserID, func(u *models.UserRecord) { u.Injuries = 4 })

	// Work has no base fail rate, so no success draw happens at all.
	// Injuries only dampen the payout.
	svc.roll = rollSeq(100)
	svc.rollRange = func(lo, hi int64) int64 { return hi }

	result, err := svc.ResolveActivity(ctx, models.ActivityWork, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	// 12 at the 20% critical-condition earnings penalty
	assert.Equal(t, int64(9), result.Payout)
}

func TestActivityService_Crime_EffectiveFailRate(t *testing.T) {
	ctx := context.Background()

	// Base 51 plus the critical-condition delta of 25 gives an effective
	// fail rate of 76, leaving a 24-point success band. A draw of 80
	// fails; the failure draw of 10 then selects the death sub-outcome
	// (boundary at 15 + 25 = 40).
	st, svc, _ := newActivityFixture(t)
	seedUser(t, st, testUserID, func(u *models.UserRecord) {
		u.Injuries = 4
		u.Pockets = 100
		u.Savings = 500
	})
	svc.roll = rollSeq(80, 10)

	result, err := svc.ResolveActivity(ctx, models.ActivityCrime, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeDeath, result.Outcome)
	assert.Equal(t, int64(100), result.PocketsCleared)
	assert.Equal(t, int64(50), result.SavingsPenalty)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	user := record[testUserID]
	assert.Equal(t, int64(0), user.Pockets)
	assert.Equal(t, int64(450), user.Savings)
}

func TestActivityService_FailRate_CappedAtNinetyFive(t *testing.T) {
	_, svc, _ := newActivityFixture(t)

	// No configured activity plus tier deltas reaches the cap, so probe
	// the draw directly with an over-the-top base rate. The cap keeps a
	// five-point success band open.
	cfg := models.ActivityConfig{BaseFailRate: 120}

	svc.roll = rollSeq(5)
	assert.True(t, svc.drawSuccess(cfg, nil))

	svc.roll = rollSeq(6)
	assert.False(t, svc.drawSuccess(cfg, nil))
}

func TestActivityService_SubOutcomeShares_CoverHundred(t *testing.T) {
	// For every injury tier the death, injury and prison shares must
	// partition the whole draw range.
	for injuries := 0; injuries <= 4; injuries++ {
		tier := models.TierFor(injuries)
		death := models.DeathChance
		prison := models.PrisonChance
		if tier != nil {
			death += tier.DeathChanceDelta
			prison += tier.PrisonChanceDelta
		}
		injury := 100 - death - prison
		assert.GreaterOrEqual(t, injury, 0, "injuries=%d", injuries)
		assert.Equal(t, 100, death+injury+prison, "injuries=%d", injuries)
	}
}

func TestActivityService_Death_CommutedWhenBroke(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)
	seedUser(t, st, testUserID, func(u *models.UserRecord) { u.Savings = 0 })

	// draw 60 fails against crime's base 51, draw 10 selects death
	svc.roll = rollSeq(60, 10)

	result, err := svc.ResolveActivity(ctx, models.ActivityCrime, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomePrison, result.Outcome)
	assert.True(t, result.DeathCommuted)
	assert.Equal(t, models.DefaultDeathPrisonTier, result.PrisonTier)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	require.NotNil(t, record[testUserID].Prison)
	assert.Equal(t, models.DefaultDeathPrisonTier, record[testUserID].Prison.Tier)
}

func TestActivityService_Injury_FineAndCounter(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)

	// draw 60 fails, draw 50 lands in the injury band (16..80 when healthy)
	svc.roll = rollSeq(60, 50)
	svc.rollRange = func(lo, hi int64) int64 { return 20 }

	result, err := svc.ResolveActivity(ctx, models.ActivityCrime, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeInjury, result.Outcome)
	assert.Equal(t, int64(20), result.Fine)
	assert.Equal(t, 1, result.Injuries)
	assert.Equal(t, "Light Injury", result.InjuryTier)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(-20), record[testUserID].Pockets)
	assert.True(t, record[testUserID].Injured)
}

func TestActivityService_Prison_SelectsWeightedTier(t *testing.T) {
	ctx := context.Background()
	st, svc, prison := newActivityFixture(t)

	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	// draw 60 fails, draw 90 lands in the prison band, the shared roll
	// then draws 90 again for tier selection (Rook Division)
	svc.roll = rollSeq(60, 90)
	prison.roll = rollSeq(90)

	result, err := svc.ResolveActivity(ctx, models.ActivityCrime, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomePrison, result.Outcome)
	assert.Equal(t, "Rook Division", result.PrisonTier)
	assert.Equal(t, now.Add(models.PrisonSentence).Unix(), result.ReleaseAt)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	require.NotNil(t, record[testUserID].Prison)
	assert.Equal(t, "Rook Division", record[testUserID].Prison.Tier)
}

func TestActivityService_CriticalSuccess(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newActivityFixture(t)

	// success draw 10, critical draw 2
	svc.roll = rollSeq(10, 2)
	svc.rollRange = func(lo, hi int64) int64 { return hi }

	result, err := svc.ResolveActivity(ctx, models.ActivityCrime, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.True(t, result.Critical)
	assert.Equal(t, 5, result.Multiplier)
	assert.Equal(t, int64(35*5), result.Payout)
}

func TestActivityService_Rob_Success(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)
	seedUser(t, st, otherUserID, func(u *models.UserRecord) { u.Pockets = 100 })

	svc.roll = rollSeq(40)
	svc.rollRange = func(lo, hi int64) int64 { return hi }

	result, err := svc.ResolveRob(ctx, testGuildID, testUserID, otherUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, int64(80), result.Stolen)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(80), record[testUserID].Pockets)
	assert.Equal(t, int64(20), record[otherUserID].Pockets)
	assert.NotZero(t, record[otherUserID].LastRobbed)
}

func TestActivityService_Rob_MinimumSteal(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)
	seedUser(t, st, otherUserID, func(u *models.UserRecord) { u.Pockets = 16 })

	svc.roll = rollSeq(40)
	svc.rollRange = func(lo, hi int64) int64 { return lo }

	result, err := svc.ResolveRob(ctx, testGuildID, testUserID, otherUserID)
	assert.NoError(t, err)
	// 60% of 16 is under the floor, the minimum applies instead
	assert.Equal(t, int64(models.RobMinAmount), result.Stolen)
}

func TestActivityService_Rob_TargetBroke(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)
	seedUser(t, st, otherUserID, func(u *models.UserRecord) { u.Pockets = 10 })

	svc.roll = rollSeq(40)

	_, err := svc.ResolveRob(ctx, testGuildID, testUserID, otherUserID)
	assert.ErrorIs(t, err, ErrTargetBroke)
}

func TestActivityService_Rob_VictimProtection(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)

	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	seedUser(t, st, otherUserID, func(u *models.UserRecord) {
		u.Pockets = 100
		u.LastRobbed = now.Add(-5 * time.Minute).Unix()
	})

	_, err := svc.ResolveRob(ctx, testGuildID, testUserID, otherUserID)
	var protected *RobProtectedError
	require.ErrorAs(t, err, &protected)
	assert.Equal(t, 5*time.Minute, protected.Remaining)

	// The window reopens after ten minutes.
	svc.roll = rollSeq(40)
	svc.rollRange = func(lo, hi int64) int64 { return lo }
	now = now.Add(6 * time.Minute)

	result, err := svc.ResolveRob(ctx, testGuildID, testUserID, otherUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
}

func TestActivityService_Rob_SelfTarget(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newActivityFixture(t)

	_, err := svc.ResolveRob(ctx, testGuildID, testUserID, testUserID)
	assert.ErrorIs(t, err, ErrSelfTransfer)
}

func TestActivityService_Rob_FailurePunishesRobber(t *testing.T) {
	ctx := context.Background()
	st, svc, _ := newActivityFixture(t)
	seedUser(t, st, otherUserID, func(u *models.UserRecord) { u.Pockets = 100 })

	// draw 60 misses rob's 45-point success band, draw 50 selects injury
	svc.roll = rollSeq(60, 50)
	svc.rollRange = func(lo, hi int64) int64 { return 10 }

	result, err := svc.ResolveRob(ctx, testGuildID, testUserID, otherUserID)
	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeInjury, result.Outcome)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), record[otherUserID].Pockets)
	assert.Equal(t, 1, record[testUserID].Injuries)
}

func TestActivityService_ResolveEscape_Penalties(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		tier           string
		savingsPenalty int64
		injuryAdded    bool
		extended       time.Duration
	}{
		{tier: "Officer Group"},
		{tier: "Old Guards", savingsPenalty: 5},
		{tier: "Soldat Brigade", savingsPenalty: 10},
		{tier: "Lancer Legion", savingsPenalty: 15, injuryAdded: true},
		{tier: "Rook Division", injuryAdded: true, extended: 15 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.tier, func(t *testing.T) {
			st, svc, prison := newActivityFixture(t)
			prison.roll = rollSeq(100) // escape always fails

			releaseAt, err := prison.Incarcerate(ctx, testGuildID, testUserID, tc.tier, time.Hour)
			require.NoError(t, err)

			result, err := svc.ResolveEscape(ctx, testGuildID, testUserID)
			assert.NoError(t, err)
			assert.False(t, result.Escaped)
			assert.Equal(t, tc.tier, result.Tier)
			assert.Equal(t, tc.savingsPenalty, result.SavingsPenalty)
			assert.Equal(t, tc.injuryAdded, result.InjuryAdded)
			assert.Equal(t, tc.extended, result.SentenceExtended)

			record, err := st.Load(ctx, testGuildID)
			require.NoError(t, err)
			user := record[testUserID]
			assert.Equal(t, int64(models.StartingSavings)-tc.savingsPenalty, user.Savings)
			if tc.extended > 0 {
				assert.Equal(t, releaseAt+int64(tc.extended/time.Second), user.Prison.ReleaseAt)
			}
		})
	}
}

func TestActivityService_ResolveEscape_MorticianWingInjuries(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name           string
		startInjuries  int
		wantInjuries   int
		savingsPenalty int64
	}{
		{name: "healthy jumps to needs surgery", startInjuries: 0, wantInjuries: 3},
		{name: "needs surgery worsens to critical", startInjuries: 3, wantInjuries: 4},
		{name: "critical pays instead", startInjuries: 4, wantInjuries: 4, savingsPenalty: 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, svc, prison := newActivityFixture(t)
			prison.roll = rollSeq(100)

			seedUser(t, st, testUserID, func(u *models.UserRecord) {
				u.Injuries = tc.startInjuries
				u.Injured = tc.startInjuries > 0
			})
			_, err := prison.Incarcerate(ctx, testGuildID, testUserID, models.NoHealPrisonTier, time.Hour)
			require.NoError(t, err)

			result, err := svc.ResolveEscape(ctx, testGuildID, testUserID)
			assert.NoError(t, err)
			assert.Equal(t, tc.savingsPenalty, result.SavingsPenalty)

			record, err := st.Load(ctx, testGuildID)
			require.NoError(t, err)
			assert.Equal(t, tc.wantInjuries, record[testUserID].Injuries)
		})
	}
}

func TestActivityService_ResolveEscape_JaegerCampQuartersSavings(t *testing.T) {
	ctx := context.Background()
	st, svc, prison := newActivityFixture(t)
	prison.roll = rollSeq(100)

	seedUser(t, st, testUserID, func(u *models.UserRecord) { u.Savings = 1000 })
	_, err := prison.Incarcerate(ctx, testGuildID, testUserID, models.HarshestPrisonTier, time.Hour)
	require.NoError(t, err)

	result, err := svc.ResolveEscape(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Equal(t, int64(250), result.SavingsPenalty)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), record[testUserID].Savings)
}

func TestActivityService_ResolveEscape_Success(t *testing.T) {
	ctx := context.Background()
	st, svc, prison := newActivityFixture(t)
	prison.roll = rollSeq(1)

	_, err := prison.Incarcerate(ctx, testGuildID, testUserID, "Officer Group", time.Hour)
	require.NoError(t, err)

	result, err := svc.ResolveEscape(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.True(t, result.Escaped)
	assert.Equal(t, 75, result.Chance)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Nil(t, record[testUserID].Prison)
	assert.Equal(t, int64(models.StartingSavings), record[testUserID].Savings)
}
