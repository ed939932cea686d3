package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"sennabot/models"
)

// FileBackend stores each guild's record set as <dir>/<guildID>.json with a
// sibling .backup one generation deep. Writes go through a temp file and an
// atomic rename, so a failed write leaves the previous file intact.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir, creating the
// directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(guildID int64) string {
	return filepath.Join(b.dir, fmt.Sprintf("%d.json", guildID))
}

// Read loads a guild's record set. A missing file yields an empty record
// set. A corrupt primary falls back to the backup generation; if that also
// fails the guild is reinitialized empty and the corruption logged loudly.
func (b *FileBackend) Read(ctx context.Context, guildID int64) (models.GuildRecord, error) {
	path := b.path(guildID)

	record, err := decodeRecordFile(path)
	if err == nil {
		return record, nil
	}
	if os.IsNotExist(err) {
		return models.NewGuildRecord(), nil
	}

	corrupt := &CorruptDataError{GuildID: guildID, Err: err}
	log.WithFields(log.Fields{
		"guildID": guildID,
		"path":    path,
		"error":   err,
	}).Error("Guild record is corrupt, attempting backup restore")

	record, backupErr := decodeRecordFile(path + ".backup")
	if backupErr == nil {
		log.WithField("guildID", guildID).Warn("Restored guild record from backup")
		return record, nil
	}

	log.WithFields(log.Fields{
		"guildID": guildID,
		"error":   backupErr,
	}).Error("Backup restore failed, reinitializing empty guild record")
	return models.NewGuildRecord(), corrupt
}

// Write saves a guild's record set atomically, copying the previous file to
// the backup location first.
func (b *FileBackend) Write(ctx context.Context, guildID int64, record models.GuildRecord) error {
	path := b.path(guildID)

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, path+".backup"); err != nil {
			log.WithFields(log.Fields{
				"guildID": guildID,
				"error":   err,
			}).Warn("Failed to write backup generation")
		}
	}

	data, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode guild %d record: %w", guildID, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write guild %d record: %w", guildID, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync guild %d record: %w", guildID, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace guild %d record: %w", guildID, err)
	}
	return nil
}

// Guilds lists every guild with a record file in the data directory.
func (b *FileBackend) Guilds(ctx context.Context) ([]int64, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	var ids []int64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func decodeRecordFile(path string) (models.GuildRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	record := models.NewGuildRecord()
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
