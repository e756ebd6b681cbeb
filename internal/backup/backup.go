// Package backup snapshots a stream and its consumers into a versioned JSON
// blob, restores such blobs by upserting against the broker, and lists what
// has been stored. The blob store and the broker client are injected so the
// logic is independent of both.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shubhamrasal/jsmcp/internal/models"
	natsclient "github.com/shubhamrasal/jsmcp/internal/nats"
)

// Admin is the slice of the JetStream client the backup manager needs.
type Admin interface {
	GetStreamInfo(ctx context.Context, name string) (*models.Stream, error)
	ListConsumers(ctx context.Context, streamName string) ([]*models.Consumer, error)
	UpsertStream(ctx context.Context, cfg models.StreamConfig) (*models.Stream, error)
	UpsertConsumer(ctx context.Context, streamName string, cfg models.ConsumerConfig) (*models.Consumer, error)
}

// Manager performs backup, restore, and listing against an injected broker
// client and blob store.
type Manager struct {
	admin Admin
	store natsclient.BlobStore
	log   *slog.Logger
	now   func() time.Time
}

// NewManager wires a backup manager. A nil logger falls back to the default.
func NewManager(admin Admin, store natsclient.BlobStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{admin: admin, store: store, log: log, now: time.Now}
}

// Backup snapshots the named stream plus all of its consumers and writes the
// blob. It returns the blob name.
func (m *Manager) Backup(ctx context.Context, streamName string) (string, error) {
	stream, err := m.admin.GetStreamInfo(ctx, streamName)
	if err != nil {
		return "", err
	}
	consumers, err := m.admin.ListConsumers(ctx, streamName)
	if err != nil {
		return "", err
	}

	ts := m.now().UTC()
	b := models.Backup{
		Stream: models.BackupStream{
			Config: stream.Config,
			State:  stream.State,
		},
		Timestamp: ts.Format(time.RFC3339),
		Version:   models.BackupVersion,
	}
	for _, c := range consumers {
		b.Consumers = append(b.Consumers, models.BackupConsumer{
			Name:   c.Name,
			Config: c.Config,
			State: models.ConsumerState{
				Delivered:      c.Delivered,
				AckFloor:       c.AckFloor,
				NumPending:     c.NumPending,
				NumAckPending:  c.NumAckPending,
				NumRedelivered: c.NumRedelivered,
			},
		})
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize backup: %w", err)
	}

	name := EncodeName(streamName, ts)
	if err := m.store.Put(ctx, name, data); err != nil {
		return "", err
	}

	m.log.Info("stream backed up",
		"stream", streamName,
		"backup", name,
		"consumers", len(b.Consumers),
		"bytes", len(data))
	return name, nil
}

// Restore fetches the named blob, validates its schema version, and upserts
// the stream and every consumer it records. Version validation happens
// before any broker mutation.
func (m *Manager) Restore(ctx context.Context, name string) (*models.Backup, error) {
	data, err := m.store.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	var b models.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse backup '%s': %w", name, err)
	}
	if b.Version != models.BackupVersion {
		return nil, fmt.Errorf("backup '%s' has unsupported version '%s' (want '%s')",
			name, b.Version, models.BackupVersion)
	}

	if _, err := m.admin.UpsertStream(ctx, b.Stream.Config); err != nil {
		return nil, err
	}
	for _, c := range b.Consumers {
		if _, err := m.admin.UpsertConsumer(ctx, b.Stream.Config.Name, c.Config); err != nil {
			return nil, fmt.Errorf("failed to restore consumer '%s': %w", c.Name, err)
		}
	}

	m.log.Info("stream restored",
		"stream", b.Stream.Config.Name,
		"backup", name,
		"consumers", len(b.Consumers))
	return &b, nil
}

// List enumerates backups for the given stream, most recent first.
func (m *Manager) List(ctx context.Context, streamName string) ([]models.BackupEntry, error) {
	blobs, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	var entries []models.BackupEntry
	for _, blob := range blobs {
		stream, ts, err := ParseName(blob.Name)
		if err != nil || stream != streamName {
			continue
		}
		entries = append(entries, models.BackupEntry{
			Name:      blob.Name,
			Stream:    stream,
			Timestamp: ts,
			Size:      blob.Size,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// Closest returns the entry whose timestamp is nearest to the target.
// Entries must be sorted most recent first, as List returns them. When two
// entries are equidistant the more recent one wins (it is encountered first
// in the sort order).
func Closest(entries []models.BackupEntry, target time.Time) (models.BackupEntry, bool) {
	if len(entries) == 0 {
		return models.BackupEntry{}, false
	}

	best := entries[0]
	bestDiff := absDuration(best.Timestamp.Sub(target))
	for _, e := range entries[1:] {
		if diff := absDuration(e.Timestamp.Sub(target)); diff < bestDiff {
			best, bestDiff = e, diff
		}
	}
	return best, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
