package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

// Stop a sequence scan after this many consecutive not-found results, to
// prevent crawling large fully-purged ranges one sequence at a time.
const maxConsecutiveFails = 10

// ListMessages retrieves the last N messages from a stream
// (non-destructive read, does NOT acknowledge)
func (c *Client) ListMessages(ctx context.Context, streamName string, limit int) ([]*models.Message, error) {
	s, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	if info.State.Msgs == 0 {
		return []*models.Message{}, nil
	}

	// Calculate start sequence - get last N messages
	startSeq := info.State.FirstSeq
	if info.State.Msgs > uint64(limit) {
		startSeq = info.State.LastSeq - uint64(limit) + 1
	}

	return c.scanMessages(ctx, streamName, startSeq, info.State.LastSeq, limit)
}

// ScanMessages fetches messages in the sequence range [startSeq, endSeq],
// skipping sequences that no longer exist (deleted or purged). At most limit
// messages are returned.
func (c *Client) ScanMessages(ctx context.Context, streamName string, startSeq, endSeq uint64, limit int) ([]*models.Message, error) {
	return c.scanMessages(ctx, streamName, startSeq, endSeq, limit)
}

func (c *Client) scanMessages(ctx context.Context, streamName string, startSeq, endSeq uint64, limit int) ([]*models.Message, error) {
	s, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}

	var messages []*models.Message
	failCount := 0

	for seq := startSeq; seq <= endSeq && len(messages) < limit; seq++ {
		if failCount >= maxConsecutiveFails {
			break
		}

		msg, err := s.GetMsg(ctx, seq)
		if err != nil {
			// Message might be deleted, skip it
			failCount++
			continue
		}
		failCount = 0

		messages = append(messages, &models.Message{
			Sequence:  msg.Sequence,
			Subject:   msg.Subject,
			Data:      msg.Data,
			Headers:   msg.Header,
			Timestamp: msg.Time,
			Size:      len(msg.Data),
		})
	}

	return messages, nil
}

// GetMessage retrieves a specific message from a stream by sequence number
func (c *Client) GetMessage(ctx context.Context, streamName string, seq uint64) (*models.Message, error) {
	s, err := c.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}
	msg, err := s.GetMsg(ctx, seq)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &models.Message{
		Sequence:  msg.Sequence,
		Subject:   msg.Subject,
		Data:      msg.Data,
		Headers:   msg.Header,
		Timestamp: msg.Time,
		Size:      len(msg.Data),
	}, nil
}

// GetMessageDetail returns detailed information about a message with the
// payload pretty-printed when it parses as JSON.
func (c *Client) GetMessageDetail(ctx context.Context, streamName string, seq uint64) (*models.MessageDetail, error) {
	msg, err := c.GetMessage(ctx, streamName, seq)
	if err != nil {
		return nil, err
	}

	payload := string(msg.Data)
	var prettyJSON interface{}
	if json.Unmarshal(msg.Data, &prettyJSON) == nil {
		formatted, err := json.MarshalIndent(prettyJSON, "", "  ")
		if err == nil {
			payload = string(formatted)
		}
	}

	return &models.MessageDetail{
		Sequence:  msg.Sequence,
		Subject:   msg.Subject,
		Payload:   payload,
		Headers:   msg.Headers,
		Timestamp: msg.Timestamp,
		Size:      msg.Size,
	}, nil
}

// Publish publishes a message to a subject and waits for the stream ack.
func (c *Client) Publish(ctx context.Context, subject string, data []byte, headers map[string]string) (uint64, string, error) {
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
	}
	if len(headers) > 0 {
		msg.Header = nats.Header{}
		for k, v := range headers {
			msg.Header.Set(k, v)
		}
	}

	ack, err := c.js.PublishMsg(ctx, msg)
	if err != nil {
		return 0, "", fmt.Errorf("failed to publish message: %w", err)
	}
	return ack.Sequence, ack.Stream, nil
}
