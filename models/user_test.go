package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildRecord_UnmarshalLegacyBlob(t *testing.T) {
	blob := `{
        "123456789": {
            "pockets": 250,
            "savings": 4000,
            "cooldowns": {"work": 1700000000, "crime": 1700000030},
            "injured": true,
            "injuries": 3,
            "prison": {"tier": "Mortician Wing", "release_at": 1700003600},
            "last_robbed": 1699999000,
            "in_challenge": false,
            "beat_balance_challenge": true
        }
    }`

	record := NewGuildRecord()
	require.NoError(t, json.Unmarshal([]byte(blob), &record))

	user, ok := record[123456789]
	require.True(t, ok)
	assert.Equal(t, int64(250), user.Pockets)
	assert.Equal(t, int64(4000), user.Savings)
	assert.Equal(t, int64(1700000030), user.Cooldowns["crime"])
	assert.True(t, user.Injured)
	assert.Equal(t, 3, user.Injuries)
	require.NotNil(t, user.Prison)
	assert.Equal(t, "Mortician Wing", user.Prison.Tier)
	assert.Equal(t, int64(1700003600), user.Prison.ReleaseAt)
	assert.Equal(t, int64(1699999000), user.LastRobbed)
	assert.True(t, user.BeatChallenge)
}

func TestGuildRecord_MarshalKeysAsStrings(t *testing.T) {
	record := NewGuildRecord()
	record.GetOrCreate(987654321)

	data, err := json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"987654321"`)
}

func TestUserRecord_Defaults(t *testing.T) {
	user := NewUserRecord()
	assert.Equal(t, int64(0), user.Pockets)
	assert.Equal(t, int64(StartingSavings), user.Savings)
	assert.NotNil(t, user.Cooldowns)
	assert.False(t, user.Injured)
	assert.Nil(t, user.Prison)
}

func TestUserRecord_AddInjury_Caps(t *testing.T) {
	user := NewUserRecord()
	for i := 0; i < 10; i++ {
		user.AddInjury()
	}
	assert.Equal(t, MaxInjuries, user.Injuries)
	assert.True(t, user.Injured)
}

func TestUserRecord_IsImprisoned(t *testing.T) {
	now := time.Unix(1700000000, 0)
	user := NewUserRecord()
	assert.False(t, user.IsImprisoned(now))

	user.Prison = &PrisonStatus{Tier: "Old Guards", ReleaseAt: now.Add(time.Hour).Unix()}
	assert.True(t, user.IsImprisoned(now))
	assert.False(t, user.IsImprisoned(now.Add(2*time.Hour)))
}

func TestGuildRecord_CloneIsolation(t *testing.T) {
	record := NewGuildRecord()
	user := record.GetOrCreate(1)
	user.Pockets = 100
	user.Cooldowns["work"] = 1700000000
	user.Prison = &PrisonStatus{Tier: "Old Guards", ReleaseAt: 1700003600}

	cp := record.Clone()
	cp[1].Pockets = 999
	cp[1].Cooldowns["work"] = 1
	cp[1].Prison.Tier = "Jaeger Camp"

	assert.Equal(t, int64(100), record[1].Pockets)
	assert.Equal(t, int64(1700000000), record[1].Cooldowns["work"])
	assert.Equal(t, "Old Guards", record[1].Prison.Tier)
}
