package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "0", FormatBalance(0))
	assert.Equal(t, "950", FormatBalance(950))
	assert.Equal(t, "1,000", FormatBalance(1000))
	assert.Equal(t, "15,000", FormatBalance(15000))
	assert.Equal(t, "1,234,567", FormatBalance(1234567))
	assert.Equal(t, "-1,250", FormatBalance(-1250))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m", FormatDuration(2*time.Minute))
	assert.Equal(t, "1h 4m 30s", FormatDuration(time.Hour+4*time.Minute+30*time.Second))
	assert.Equal(t, "0s", FormatDuration(-time.Minute))
}

func TestFormatDiscordTimestamp(t *testing.T) {
	ts := time.Unix(1700003600, 0)
	assert.Equal(t, "<t:1700003600:R>", FormatDiscordTimestamp(ts, "R"))
}
