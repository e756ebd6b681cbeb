package nats

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

// ErrConsumersAttached is returned by DeleteStream when the stream still has
// consumers and force was not set.
var ErrConsumersAttached = errors.New("stream has attached consumers")

// ListStreams returns a list of all streams
func (c *Client) ListStreams(ctx context.Context) ([]*models.Stream, error) {
	var streams []*models.Stream

	lister := c.js.ListStreams(ctx)
	for info := range lister.Info() {
		streams = append(streams, convertStreamInfo(info))
	}
	if err := lister.Err(); err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}

	return streams, nil
}

// GetStreamInfo returns detailed information about a stream
func (c *Client) GetStreamInfo(ctx context.Context, name string) (*models.Stream, error) {
	s, err := c.js.Stream(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return convertStreamInfo(info), nil
}

// CreateStream creates a new stream from the given descriptor
func (c *Client) CreateStream(ctx context.Context, cfg models.StreamConfig) (*models.Stream, error) {
	jsCfg, err := toJetStreamConfig(cfg)
	if err != nil {
		return nil, err
	}

	s, err := c.js.CreateStream(ctx, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return convertStreamInfo(info), nil
}

// UpsertStream updates the stream if it exists, creating it otherwise.
func (c *Client) UpsertStream(ctx context.Context, cfg models.StreamConfig) (*models.Stream, error) {
	jsCfg, err := toJetStreamConfig(cfg)
	if err != nil {
		return nil, err
	}

	s, err := c.js.CreateOrUpdateStream(ctx, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return convertStreamInfo(info), nil
}

// UpdateStream merges the supplied fields over the existing descriptor.
// Nil fields in the update leave the current value unchanged.
func (c *Client) UpdateStream(ctx context.Context, name string, upd models.StreamUpdate) (*models.Stream, error) {
	s, err := c.js.Stream(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	cfg := info.Config
	if upd.Subjects != nil {
		cfg.Subjects = upd.Subjects
	}
	if upd.Retention != nil {
		r, err := parseRetention(*upd.Retention)
		if err != nil {
			return nil, err
		}
		cfg.Retention = r
	}
	if upd.Replicas != nil {
		cfg.Replicas = *upd.Replicas
	}
	if upd.MaxAge != nil {
		cfg.MaxAge = *upd.MaxAge
	}
	if upd.MaxMessages != nil {
		cfg.MaxMsgs = *upd.MaxMessages
	}
	if upd.MaxBytes != nil {
		cfg.MaxBytes = *upd.MaxBytes
	}
	if upd.MaxMsgSize != nil {
		cfg.MaxMsgSize = *upd.MaxMsgSize
	}
	if upd.Discard != nil {
		d, err := parseDiscard(*upd.Discard)
		if err != nil {
			return nil, err
		}
		cfg.Discard = d
	}

	updated, err := c.js.UpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to update stream: %w", err)
	}
	newInfo, err := updated.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return convertStreamInfo(newInfo), nil
}

// AddSubjects unions the given subjects into the stream's subject set.
// Already-present subjects are not duplicated.
func (c *Client) AddSubjects(ctx context.Context, name string, subjects []string) (*models.Stream, error) {
	return c.mutateSubjects(ctx, name, func(current []string) ([]string, error) {
		return unionSubjects(current, subjects), nil
	})
}

// RemoveSubjects removes the given subjects from the stream's subject set.
func (c *Client) RemoveSubjects(ctx context.Context, name string, subjects []string) (*models.Stream, error) {
	return c.mutateSubjects(ctx, name, func(current []string) ([]string, error) {
		kept := subtractSubjects(current, subjects)
		if len(kept) == 0 {
			return nil, fmt.Errorf("removing %v would leave stream '%s' with no subjects", subjects, name)
		}
		return kept, nil
	})
}

// unionSubjects merges add into current, skipping subjects already present.
func unionSubjects(current, add []string) []string {
	merged := slices.Clone(current)
	for _, s := range add {
		if !slices.Contains(merged, s) {
			merged = append(merged, s)
		}
	}
	return merged
}

// subtractSubjects returns current without the subjects listed in remove.
func subtractSubjects(current, remove []string) []string {
	var kept []string
	for _, s := range current {
		if !slices.Contains(remove, s) {
			kept = append(kept, s)
		}
	}
	return kept
}

func (c *Client) mutateSubjects(ctx context.Context, name string, fn func([]string) ([]string, error)) (*models.Stream, error) {
	s, err := c.js.Stream(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	cfg := info.Config
	cfg.Subjects, err = fn(cfg.Subjects)
	if err != nil {
		return nil, err
	}

	updated, err := c.js.UpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to update stream subjects: %w", err)
	}
	newInfo, err := updated.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return convertStreamInfo(newInfo), nil
}

// AddSourceStream appends a source stream to the stream's source list.
func (c *Client) AddSourceStream(ctx context.Context, name string, source models.StreamSource) (*models.Stream, error) {
	s, err := c.js.Stream(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	cfg := info.Config
	for _, src := range cfg.Sources {
		if src.Name == source.Name {
			return nil, fmt.Errorf("source stream '%s' already configured on '%s'", source.Name, name)
		}
	}
	cfg.Sources = append(cfg.Sources, &jetstream.StreamSource{
		Name:          source.Name,
		OptStartSeq:   source.StartSeq,
		FilterSubject: source.FilterSubject,
	})

	updated, err := c.js.UpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to add source stream: %w", err)
	}
	newInfo, err := updated.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return convertStreamInfo(newInfo), nil
}

// RemoveSourceStream removes a source stream by name. Removing a source that
// is not configured is an error.
func (c *Client) RemoveSourceStream(ctx context.Context, name, sourceName string) (*models.Stream, error) {
	s, err := c.js.Stream(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	cfg := info.Config
	var kept []*jetstream.StreamSource
	found := false
	for _, src := range cfg.Sources {
		if src.Name == sourceName {
			found = true
			continue
		}
		kept = append(kept, src)
	}
	if !found {
		return nil, fmt.Errorf("source stream '%s' is not configured on '%s'", sourceName, name)
	}
	cfg.Sources = kept

	updated, err := c.js.UpdateStream(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to remove source stream: %w", err)
	}
	newInfo, err := updated.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}
	return convertStreamInfo(newInfo), nil
}

// DeleteStream deletes a stream. Unless force is set, deletion is refused
// while consumers are still attached.
func (c *Client) DeleteStream(ctx context.Context, name string, force bool) error {
	if !force {
		info, err := c.GetStreamInfo(ctx, name)
		if err != nil {
			return err
		}
		if err := guardStreamDelete(name, info.State.Consumers, force); err != nil {
			return err
		}
	}

	if err := c.js.DeleteStream(ctx, name); err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}
	return nil
}

// guardStreamDelete refuses an unforced delete while consumers remain
// attached.
func guardStreamDelete(name string, consumers int, force bool) error {
	if force || consumers == 0 {
		return nil
	}
	return fmt.Errorf("%w: stream '%s' has %d consumer(s), pass force to delete anyway",
		ErrConsumersAttached, name, consumers)
}

// PurgeStream purges messages from a stream, optionally scoped by the filter.
// An olderThan bound is translated into an up-to-sequence bound by scanning
// forward from the first sequence until a message younger than the cutoff is
// found.
func (c *Client) PurgeStream(ctx context.Context, name string, filter models.PurgeFilter) (uint64, error) {
	s, err := c.js.Stream(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get stream info: %w", err)
	}
	before := info.State.Msgs

	upToSeq := filter.UpToSeq
	if filter.OlderThan > 0 {
		cutoffSeq, err := c.seqYoungerThan(ctx, s, info, time.Now().Add(-filter.OlderThan))
		if err != nil {
			return 0, err
		}
		if cutoffSeq == 0 {
			// Nothing is older than the cutoff.
			return 0, nil
		}
		upToSeq = combineUpToSeq(upToSeq, cutoffSeq)
	}

	var opts []jetstream.StreamPurgeOpt
	if filter.Subject != "" {
		opts = append(opts, jetstream.WithPurgeSubject(filter.Subject))
	}
	if upToSeq > 0 {
		opts = append(opts, jetstream.WithPurgeSequence(upToSeq))
	}
	if filter.Keep > 0 {
		opts = append(opts, jetstream.WithPurgeKeep(filter.Keep))
	}

	if err := s.Purge(ctx, opts...); err != nil {
		return 0, fmt.Errorf("failed to purge stream: %w", err)
	}

	after, err := s.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get stream info: %w", err)
	}
	if after.State.Msgs > before {
		return 0, nil
	}
	return before - after.State.Msgs, nil
}

// combineUpToSeq intersects an explicit up-to-sequence bound with the bound
// derived from an older-than cutoff. A message is purged only when it
// satisfies every supplied filter, so the smaller bound wins.
func combineUpToSeq(upToSeq, cutoffSeq uint64) uint64 {
	if upToSeq == 0 || cutoffSeq < upToSeq {
		return cutoffSeq
	}
	return upToSeq
}

// seqYoungerThan finds the first sequence whose message is at or after the
// cutoff; purging up to (excluding) that sequence removes everything older.
func (c *Client) seqYoungerThan(ctx context.Context, s jetstream.Stream, info *jetstream.StreamInfo, cutoff time.Time) (uint64, error) {
	if info.State.Msgs == 0 {
		return 0, nil
	}
	bound := scanForCutoff(func(seq uint64) (time.Time, error) {
		msg, err := s.GetMsg(ctx, seq)
		if err != nil {
			return time.Time{}, err
		}
		return msg.Time, nil
	}, info.State.FirstSeq, info.State.LastSeq, cutoff)
	return bound, nil
}

// scanForCutoff walks [first, last] and returns the exclusive purge bound for
// "older than cutoff": the first sequence whose message is at or after the
// cutoff, or last+1 when every message was verified older. The bound only
// advances past sequences whose age was actually verified; sequences that
// fail to fetch are skipped, and once maxConsecutiveFails are hit in a row
// the scan stops. Unverified messages are never inside the bound.
func scanForCutoff(timeAt func(uint64) (time.Time, error), first, last uint64, cutoff time.Time) uint64 {
	bound := first
	failCount := 0
	for seq := first; seq <= last; seq++ {
		if failCount >= maxConsecutiveFails {
			return bound
		}
		ts, err := timeAt(seq)
		if err != nil {
			failCount++
			continue
		}
		failCount = 0
		if !ts.Before(cutoff) {
			return seq
		}
		bound = seq + 1
	}
	return bound
}

// convertStreamInfo converts a JetStream StreamInfo to our models.Stream
func convertStreamInfo(info *jetstream.StreamInfo) *models.Stream {
	var sources []models.StreamSource
	for _, src := range info.Config.Sources {
		if src == nil {
			continue
		}
		sources = append(sources, models.StreamSource{
			Name:          src.Name,
			StartSeq:      src.OptStartSeq,
			FilterSubject: src.FilterSubject,
		})
	}

	return &models.Stream{
		Name:      info.Config.Name,
		Subjects:  info.Config.Subjects,
		Messages:  info.State.Msgs,
		Bytes:     info.State.Bytes,
		Consumers: info.State.Consumers,
		Config: models.StreamConfig{
			Name:         info.Config.Name,
			Subjects:     info.Config.Subjects,
			Retention:    retentionString(info.Config.Retention),
			Storage:      storageString(info.Config.Storage),
			Replicas:     info.Config.Replicas,
			MaxAge:       info.Config.MaxAge,
			MaxMessages:  info.Config.MaxMsgs,
			MaxBytes:     info.Config.MaxBytes,
			MaxMsgSize:   info.Config.MaxMsgSize,
			MaxConsumers: info.Config.MaxConsumers,
			Discard:      discardString(info.Config.Discard),
			Sealed:       info.Config.Sealed,
			DenyDelete:   info.Config.DenyDelete,
			DenyPurge:    info.Config.DenyPurge,
			Sources:      sources,
		},
		State: models.StreamState{
			Messages:   info.State.Msgs,
			Bytes:      info.State.Bytes,
			FirstSeq:   info.State.FirstSeq,
			FirstTime:  info.State.FirstTime,
			LastSeq:    info.State.LastSeq,
			LastTime:   info.State.LastTime,
			Consumers:  info.State.Consumers,
			NumDeleted: uint64(info.State.NumDeleted),
		},
	}
}

// toJetStreamConfig converts a models.StreamConfig to the JetStream form
func toJetStreamConfig(cfg models.StreamConfig) (jetstream.StreamConfig, error) {
	storage, err := parseStorage(cfg.Storage)
	if err != nil {
		return jetstream.StreamConfig{}, err
	}
	retention, err := parseRetention(cfg.Retention)
	if err != nil {
		return jetstream.StreamConfig{}, err
	}
	discard, err := parseDiscard(cfg.Discard)
	if err != nil {
		return jetstream.StreamConfig{}, err
	}

	replicas := cfg.Replicas
	if replicas == 0 {
		replicas = 1
	}

	var sources []*jetstream.StreamSource
	for _, src := range cfg.Sources {
		sources = append(sources, &jetstream.StreamSource{
			Name:          src.Name,
			OptStartSeq:   src.StartSeq,
			FilterSubject: src.FilterSubject,
		})
	}

	return jetstream.StreamConfig{
		Name:         cfg.Name,
		Subjects:     cfg.Subjects,
		Storage:      storage,
		Retention:    retention,
		Discard:      discard,
		Replicas:     replicas,
		MaxAge:       cfg.MaxAge,
		MaxMsgs:      cfg.MaxMessages,
		MaxBytes:     cfg.MaxBytes,
		MaxMsgSize:   cfg.MaxMsgSize,
		MaxConsumers: cfg.MaxConsumers,
		DenyDelete:   cfg.DenyDelete,
		DenyPurge:    cfg.DenyPurge,
		Sources:      sources,
	}, nil
}

// Canonical lowercase policy names. These round-trip through parseStorage
// and friends, so backup blobs restore without translation.
func storageString(s jetstream.StorageType) string {
	if s == jetstream.MemoryStorage {
		return "memory"
	}
	return "file"
}

func retentionString(r jetstream.RetentionPolicy) string {
	switch r {
	case jetstream.InterestPolicy:
		return "interest"
	case jetstream.WorkQueuePolicy:
		return "workqueue"
	default:
		return "limits"
	}
}

func discardString(d jetstream.DiscardPolicy) string {
	if d == jetstream.DiscardNew {
		return "new"
	}
	return "old"
}

func parseStorage(s string) (jetstream.StorageType, error) {
	switch s {
	case "", "file":
		return jetstream.FileStorage, nil
	case "memory":
		return jetstream.MemoryStorage, nil
	default:
		return jetstream.FileStorage, fmt.Errorf("unknown storage type '%s' (use file or memory)", s)
	}
}

func parseRetention(s string) (jetstream.RetentionPolicy, error) {
	switch s {
	case "", "limits":
		return jetstream.LimitsPolicy, nil
	case "interest":
		return jetstream.InterestPolicy, nil
	case "workqueue":
		return jetstream.WorkQueuePolicy, nil
	default:
		return jetstream.LimitsPolicy, fmt.Errorf("unknown retention policy '%s' (use limits, interest or workqueue)", s)
	}
}

func parseDiscard(s string) (jetstream.DiscardPolicy, error) {
	switch s {
	case "", "old":
		return jetstream.DiscardOld, nil
	case "new":
		return jetstream.DiscardNew, nil
	default:
		return jetstream.DiscardOld, fmt.Errorf("unknown discard policy '%s' (use old or new)", s)
	}
}
