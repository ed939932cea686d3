package common

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// ParseSnowflake converts a Discord string ID to int64.
func ParseSnowflake(id string) (int64, error) {
	parsed, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid discord id %q: %w", id, err)
	}
	return parsed, nil
}

// InteractionIDs extracts the guild and invoking user IDs from an
// interaction.
func InteractionIDs(i *discordgo.InteractionCreate) (guildID, userID int64, err error) {
	guildID, err = ParseSnowflake(i.GuildID)
	if err != nil {
		return 0, 0, err
	}
	if i.Member == nil || i.Member.User == nil {
		return 0, 0, fmt.Errorf("interaction has no member")
	}
	userID, err = ParseSnowflake(i.Member.User.ID)
	if err != nil {
		return 0, 0, err
	}
	return guildID, userID, nil
}
