package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sennabot/models"
)

func TestPrisonService_SelectTier_WeightBoundaries(t *testing.T) {
	svc := NewPrisonService(newTestStore(t), nil).(*prisonService)

	cases := []struct {
		draw int
		tier string
	}{
		{1, "Officer Group"},
		{35, "Officer Group"},
		{36, "Old Guards"},
		{55, "Old Guards"},
		{56, "Soldat Brigade"},
		{70, "Soldat Brigade"},
		{71, "Lancer Legion"},
		{80, "Lancer Legion"},
		{81, "Rook Division"},
		{90, "Rook Division"},
		{91, "Mortician Wing"},
		{95, "Mortician Wing"},
		{96, "Jaeger Camp"},
		{100, "Jaeger Camp"},
	}
	for _, tc := range cases {
		svc.roll = func(n int) int { return tc.draw }
		assert.Equal(t, tc.tier, svc.SelectTier().Name, "draw %d", tc.draw)
	}
}

func TestPrisonService_TierWeightsSumToHundred(t *testing.T) {
	total := 0
	for _, tier := range models.PrisonTiers {
		total += tier.Weight
	}
	assert.Equal(t, 100, total)
}

func TestPrisonService_Incarcerate_And_Status(t *testing.T) {
	ctx := context.Background()
	svc := NewPrisonService(newTestStore(t), nil).(*prisonService)

	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	releaseAt, err := svc.Incarcerate(ctx, testGuildID, testUserID, "Old Guards", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), releaseAt)

	status, err := svc.CheckPrisonStatus(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, "Old Guards", status.Tier)
	assert.Equal(t, releaseAt, status.ReleaseAt)

	// An expired sentence reads as free.
	now = now.Add(2 * time.Hour)
	status, err = svc.CheckPrisonStatus(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.Nil(t, status)
}

func TestPrisonService_Incarcerate_UnknownTier(t *testing.T) {
	ctx := context.Background()
	svc := NewPrisonService(newTestStore(t), nil)

	_, err := svc.Incarcerate(ctx, testGuildID, testUserID, "Gulag", time.Hour)
	assert.Error(t, err)
}

func TestPrisonService_EscapeChance_Clamped(t *testing.T) {
	// Jaeger Camp base 10 with critical injuries (-25) clamps to the floor.
	tier := models.PrisonTierByName(models.HarshestPrisonTier)
	require.NotNil(t, tier)
	assert.Equal(t, models.MinEscapeChance, escapeChance(tier, 4))

	// Officer Group base 75 stays unmodified for a healthy user.
	officer := models.PrisonTierByName("Officer Group")
	require.NotNil(t, officer)
	assert.Equal(t, 75, escapeChance(officer, 0))

	// Moderate injuries shave their delta off the base.
	assert.Equal(t, 70, escapeChance(officer, 2))
}

func TestPrisonService_AttemptEscape_Success(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewPrisonService(st, nil).(*prisonService)
	svc.roll = func(n int) int { return 1 }

	_, err := svc.Incarcerate(ctx, testGuildID, testUserID, "Soldat Brigade", time.Hour)
	require.NoError(t, err)

	result, err := svc.AttemptEscape(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.True(t, result.Escaped)
	assert.Equal(t, "Soldat Brigade", result.Tier)
	assert.Equal(t, 50, result.Chance)

	status, err := svc.CheckPrisonStatus(ctx, testGuildID, testUserID)
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestPrisonService_AttemptEscape_Failure_KeepsSentence(t *testing.T) {
	ctx := context.Background()
	svc := NewPrisonService(newTestStore(t), nil).(*prisonService)
	svc.roll = func(n int) int { return 100 }

	_, err := svc.Incarcerate(ctx, testGuildID, testUserID, "Soldat Brigade", time.Hour)
	require.NoError(t, err)

	result, err := svc.AttemptEscape(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.False(t, result.Escaped)

	status, err := svc.CheckPrisonStatus(ctx, testGuildID, testUserID)
	require.NoError(t, err)
	assert.NotNil(t, status)
}

func TestPrisonService_AttemptEscape_NotImprisoned(t *testing.T) {
	ctx := context.Background()
	svc := NewPrisonService(newTestStore(t), nil)

	_, err := svc.AttemptEscape(ctx, testGuildID, testUserID)
	assert.ErrorIs(t, err, ErrNotImprisoned)
}

func TestPrisonService_ExtendSentence(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewPrisonService(st, nil)

	releaseAt, err := svc.Incarcerate(ctx, testGuildID, testUserID, "Rook Division", time.Hour)
	require.NoError(t, err)

	err = svc.ExtendSentence(ctx, testGuildID, testUserID, 15*time.Minute)
	assert.NoError(t, err)

	status, err := svc.CheckPrisonStatus(ctx, testGuildID, testUserID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, releaseAt+int64(15*time.Minute/time.Second), status.ReleaseAt)
}

func TestPrisonService_ProcessReleases(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewPrisonService(st, nil).(*prisonService)

	now := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return now }

	err := st.Update(ctx, testGuildID, func(record models.GuildRecord) error {
		record.GetOrCreate(testUserID).Prison = &models.PrisonStatus{
			Tier:      "Old Guards",
			ReleaseAt: now.Add(-time.Minute).Unix(),
		}
		record.GetOrCreate(otherUserID).Prison = &models.PrisonStatus{
			Tier:      "Old Guards",
			ReleaseAt: now.Add(time.Hour).Unix(),
		}
		return nil
	})
	require.NoError(t, err)

	released, err := svc.ProcessReleases(ctx, testGuildID)
	assert.NoError(t, err)
	assert.Equal(t, 1, released)

	record, err := st.Load(ctx, testGuildID)
	require.NoError(t, err)
	assert.Nil(t, record[testUserID].Prison)
	assert.NotNil(t, record[otherUserID].Prison)

	// A second sweep finds nothing to do.
	released, err = svc.ProcessReleases(ctx, testGuildID)
	assert.NoError(t, err)
	assert.Zero(t, released)
}

func TestPrisonService_Release(t *testing.T) {
	ctx := context.Background()
	svc := NewPrisonService(newTestStore(t), nil)

	released, err := svc.Release(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.False(t, released)

	_, err = svc.Incarcerate(ctx, testGuildID, testUserID, "Officer Group", time.Hour)
	require.NoError(t, err)

	released, err = svc.Release(ctx, testGuildID, testUserID)
	assert.NoError(t, err)
	assert.True(t, released)
}
