package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"sennabot/database"
	"sennabot/models"
)

// PostgresBackend stores each guild's record set as a JSONB blob in the
// guild_records table, with the previous generation kept in a backup
// column. The write moves data to backup and replaces data in one
// transaction, so a failed write leaves the previous blob intact.
type PostgresBackend struct {
	db *database.DB
}

// NewPostgresBackend creates a backend on an existing connection pool.
func NewPostgresBackend(db *database.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Read loads a guild's record set. A missing row yields an empty record
// set. A corrupt primary blob falls back to the backup column; if that also
// fails the guild is reinitialized empty and the corruption logged loudly.
func (b *PostgresBackend) Read(ctx context.Context, guildID int64) (models.GuildRecord, error) {
	var data, backup []byte
	err := b.db.QueryRow(ctx,
		`SELECT data, backup FROM guild_records WHERE guild_id = $1`,
		guildID,
	).Scan(&data, &backup)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewGuildRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read guild %d record: %w", guildID, err)
	}

	record := models.NewGuildRecord()
	decodeErr := json.Unmarshal(data, &record)
	if decodeErr == nil {
		return record, nil
	}

	corrupt := &CorruptDataError{GuildID: guildID, Err: decodeErr}
	log.WithFields(log.Fields{
		"guildID": guildID,
		"error":   decodeErr,
	}).Error("Guild record is corrupt, attempting backup restore")

	if backup != nil {
		record = models.NewGuildRecord()
		if backupErr := json.Unmarshal(backup, &record); backupErr == nil {
			log.WithField("guildID", guildID).Warn("Restored guild record from backup")
			return record, nil
		}
	}

	log.WithField("guildID", guildID).Error("Backup restore failed, reinitializing empty guild record")
	return models.NewGuildRecord(), corrupt
}

// Write saves a guild's record set, rotating the previous blob into the
// backup column within a single transaction.
func (b *PostgresBackend) Write(ctx context.Context, guildID int64, record models.GuildRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode guild %d record: %w", guildID, err)
	}

	return b.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO guild_records (guild_id, data, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (guild_id) DO UPDATE
			SET backup = guild_records.data,
			    data = EXCLUDED.data,
			    updated_at = NOW()`,
			guildID, data,
		)
		if err != nil {
			return fmt.Errorf("failed to write guild %d record: %w", guildID, err)
		}
		return nil
	})
}

// Guilds lists every guild with a stored record.
func (b *PostgresBackend) Guilds(ctx context.Context) ([]int64, error) {
	rows, err := b.db.Query(ctx, `SELECT guild_id FROM guild_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan guild id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
