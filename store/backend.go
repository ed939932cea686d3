package store

import (
	"context"
	"errors"
	"fmt"

	"sennabot/models"
)

// ErrContention is returned when a guild lock could not be acquired within
// the store's soft wait budget. Callers should ask the user to retry.
var ErrContention = errors.New("guild lock wait exceeded")

// CorruptDataError reports a persisted guild blob that could not be decoded
// from either the primary or the backup location.
type CorruptDataError struct {
	GuildID int64
	Err     error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt record for guild %d: %v", e.GuildID, e.Err)
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}

// Backend reads and writes a guild's record set as a single blob on durable
// storage. Implementations keep one generation of backup and must never
// leave a partially written primary copy behind.
type Backend interface {
	// Read returns the guild's record set, or an empty record set if the
	// guild has never been written.
	Read(ctx context.Context, guildID int64) (models.GuildRecord, error)

	// Write replaces the guild's record set, preserving the previous
	// version as the backup generation.
	Write(ctx context.Context, guildID int64, record models.GuildRecord) error

	// Guilds lists every guild ID present in the backend.
	Guilds(ctx context.Context) ([]int64, error)
}
