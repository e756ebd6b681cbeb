package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

// ListConsumers returns a list of all consumers for a stream
func (c *Client) ListConsumers(ctx context.Context, streamName string) ([]*models.Consumer, error) {
	s, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}

	var consumers []*models.Consumer
	lister := s.ListConsumers(ctx)
	for info := range lister.Info() {
		consumers = append(consumers, convertConsumerInfo(info))
	}
	if err := lister.Err(); err != nil {
		return nil, fmt.Errorf("failed to list consumers: %w", err)
	}

	return consumers, nil
}

// GetConsumerInfo returns detailed information about a consumer
func (c *Client) GetConsumerInfo(ctx context.Context, streamName, consumerName string) (*models.Consumer, error) {
	cons, err := c.js.Consumer(ctx, streamName, consumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer: %w", err)
	}
	info, err := cons.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info: %w", err)
	}
	return convertConsumerInfo(info), nil
}

// CreateConsumer adds a new consumer to a stream
func (c *Client) CreateConsumer(ctx context.Context, streamName string, cfg models.ConsumerConfig) (*models.Consumer, error) {
	jsCfg, err := toJetStreamConsumerConfig(cfg)
	if err != nil {
		return nil, err
	}

	cons, err := c.js.CreateConsumer(ctx, streamName, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	info, err := cons.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info: %w", err)
	}
	return convertConsumerInfo(info), nil
}

// UpsertConsumer adds a consumer, falling back to an update when a consumer
// with the same name already exists with a different configuration.
func (c *Client) UpsertConsumer(ctx context.Context, streamName string, cfg models.ConsumerConfig) (*models.Consumer, error) {
	cons, err := c.CreateConsumer(ctx, streamName, cfg)
	if err == nil {
		return cons, nil
	}
	if !errors.Is(err, jetstream.ErrConsumerExists) {
		return nil, err
	}

	jsCfg, convErr := toJetStreamConsumerConfig(cfg)
	if convErr != nil {
		return nil, convErr
	}
	updated, err := c.js.UpdateConsumer(ctx, streamName, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to update consumer: %w", err)
	}
	info, err := updated.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info: %w", err)
	}
	return convertConsumerInfo(info), nil
}

// DeleteConsumer deletes a consumer from a stream
func (c *Client) DeleteConsumer(ctx context.Context, streamName, consumerName string) error {
	if err := c.js.DeleteConsumer(ctx, streamName, consumerName); err != nil {
		return fmt.Errorf("failed to delete consumer: %w", err)
	}
	return nil
}

// UpdateConsumer updates consumer delivery limits
func (c *Client) UpdateConsumer(ctx context.Context, streamName, consumerName string, maxDeliver, maxAckPending int, ackWait time.Duration) (*models.Consumer, error) {
	cons, err := c.js.Consumer(ctx, streamName, consumerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer: %w", err)
	}
	info, err := cons.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info: %w", err)
	}

	cfg := info.Config
	if maxDeliver != 0 {
		cfg.MaxDeliver = maxDeliver
	}
	if maxAckPending != 0 {
		cfg.MaxAckPending = maxAckPending
	}
	if ackWait != 0 {
		cfg.AckWait = ackWait
	}

	updated, err := c.js.UpdateConsumer(ctx, streamName, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to update consumer: %w", err)
	}
	newInfo, err := updated.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get consumer info: %w", err)
	}
	return convertConsumerInfo(newInfo), nil
}

// convertConsumerInfo converts a JetStream ConsumerInfo to our models.Consumer
func convertConsumerInfo(info *jetstream.ConsumerInfo) *models.Consumer {
	var deliveredLast time.Time
	if info.Delivered.Last != nil {
		deliveredLast = *info.Delivered.Last
	}
	var ackFloorLast time.Time
	if info.AckFloor.Last != nil {
		ackFloorLast = *info.AckFloor.Last
	}

	return &models.Consumer{
		Name:           info.Name,
		Stream:         info.Stream,
		NumPending:     info.NumPending,
		NumAckPending:  uint64(info.NumAckPending),
		NumRedelivered: uint64(info.NumRedelivered),
		NumWaiting:     info.NumWaiting,
		Delivered: models.ConsumerSeqInfo{
			Stream:   info.Delivered.Stream,
			Consumer: info.Delivered.Consumer,
			Last:     deliveredLast,
		},
		AckFloor: models.ConsumerSeqInfo{
			Stream:   info.AckFloor.Stream,
			Consumer: info.AckFloor.Consumer,
			Last:     ackFloorLast,
		},
		Config: models.ConsumerConfig{
			Name:          info.Config.Name,
			Durable:       info.Config.Durable,
			FilterSubject: info.Config.FilterSubject,
			DeliverPolicy: deliverPolicyString(info.Config.DeliverPolicy),
			AckPolicy:     ackPolicyString(info.Config.AckPolicy),
			AckWait:       info.Config.AckWait,
			MaxDeliver:    info.Config.MaxDeliver,
			ReplayPolicy:  replayPolicyString(info.Config.ReplayPolicy),
			MaxAckPending: info.Config.MaxAckPending,
			StartSeq:      info.Config.OptStartSeq,
		},
	}
}

// toJetStreamConsumerConfig converts a models.ConsumerConfig to the JetStream form
func toJetStreamConsumerConfig(cfg models.ConsumerConfig) (jetstream.ConsumerConfig, error) {
	deliver, err := parseDeliverPolicy(cfg.DeliverPolicy)
	if err != nil {
		return jetstream.ConsumerConfig{}, err
	}
	ack, err := parseAckPolicy(cfg.AckPolicy)
	if err != nil {
		return jetstream.ConsumerConfig{}, err
	}
	replay, err := parseReplayPolicy(cfg.ReplayPolicy)
	if err != nil {
		return jetstream.ConsumerConfig{}, err
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Durable
	}

	return jetstream.ConsumerConfig{
		Name:          name,
		Durable:       cfg.Durable,
		FilterSubject: cfg.FilterSubject,
		DeliverPolicy: deliver,
		AckPolicy:     ack,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliver,
		ReplayPolicy:  replay,
		MaxAckPending: cfg.MaxAckPending,
		OptStartSeq:   cfg.StartSeq,
	}, nil
}

func deliverPolicyString(p jetstream.DeliverPolicy) string {
	switch p {
	case jetstream.DeliverLastPolicy:
		return "last"
	case jetstream.DeliverNewPolicy:
		return "new"
	case jetstream.DeliverByStartSequencePolicy:
		return "by_start_sequence"
	case jetstream.DeliverByStartTimePolicy:
		return "by_start_time"
	case jetstream.DeliverLastPerSubjectPolicy:
		return "last_per_subject"
	default:
		return "all"
	}
}

func parseDeliverPolicy(s string) (jetstream.DeliverPolicy, error) {
	switch s {
	case "", "all":
		return jetstream.DeliverAllPolicy, nil
	case "last":
		return jetstream.DeliverLastPolicy, nil
	case "new":
		return jetstream.DeliverNewPolicy, nil
	case "by_start_sequence":
		return jetstream.DeliverByStartSequencePolicy, nil
	case "by_start_time":
		return jetstream.DeliverByStartTimePolicy, nil
	case "last_per_subject":
		return jetstream.DeliverLastPerSubjectPolicy, nil
	default:
		return jetstream.DeliverAllPolicy, fmt.Errorf("unknown deliver policy '%s'", s)
	}
}

func ackPolicyString(p jetstream.AckPolicy) string {
	switch p {
	case jetstream.AckNonePolicy:
		return "none"
	case jetstream.AckAllPolicy:
		return "all"
	default:
		return "explicit"
	}
}

func parseAckPolicy(s string) (jetstream.AckPolicy, error) {
	switch s {
	case "", "explicit":
		return jetstream.AckExplicitPolicy, nil
	case "none":
		return jetstream.AckNonePolicy, nil
	case "all":
		return jetstream.AckAllPolicy, nil
	default:
		return jetstream.AckExplicitPolicy, fmt.Errorf("unknown ack policy '%s'", s)
	}
}

func replayPolicyString(p jetstream.ReplayPolicy) string {
	if p == jetstream.ReplayOriginalPolicy {
		return "original"
	}
	return "instant"
}

func parseReplayPolicy(s string) (jetstream.ReplayPolicy, error) {
	switch s {
	case "", "instant":
		return jetstream.ReplayInstantPolicy, nil
	case "original":
		return jetstream.ReplayOriginalPolicy, nil
	default:
		return jetstream.ReplayInstantPolicy, fmt.Errorf("unknown replay policy '%s'", s)
	}
}
