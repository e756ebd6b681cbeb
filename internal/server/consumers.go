package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

type createConsumerInput struct {
	Stream        string `json:"stream" jsonschema:"required,Stream name"`
	Name          string `json:"name" jsonschema:"required,Durable consumer name"`
	FilterSubject string `json:"filterSubject,omitempty" jsonschema:"Only deliver messages matching this subject"`
	DeliverPolicy string `json:"deliverPolicy,omitempty" jsonschema:"Where to start: all last new by_start_sequence or by_start_time (default all)"`
	AckPolicy     string `json:"ackPolicy,omitempty" jsonschema:"Ack policy: explicit none or all (default explicit)"`
	AckWait       string `json:"ackWait,omitempty" jsonschema:"How long to wait for an ack before redelivery, e.g. 30s"`
	MaxDeliver    int    `json:"maxDeliver,omitempty" jsonschema:"Maximum delivery attempts (0 = unlimited)"`
	MaxAckPending int    `json:"maxAckPending,omitempty" jsonschema:"Maximum unacknowledged messages in flight"`
	StartSeq      uint64 `json:"startSeq,omitempty" jsonschema:"Start sequence for by_start_sequence"`
}

type consumerRefInput struct {
	Stream   string `json:"stream" jsonschema:"required,Stream name"`
	Consumer string `json:"consumer" jsonschema:"required,Consumer name"`
}

type updateConsumerInput struct {
	Stream        string `json:"stream" jsonschema:"required,Stream name"`
	Consumer      string `json:"consumer" jsonschema:"required,Consumer name"`
	MaxDeliver    int    `json:"maxDeliver,omitempty" jsonschema:"New maximum delivery attempts (omit or 0 to keep current)"`
	MaxAckPending int    `json:"maxAckPending,omitempty" jsonschema:"New maximum unacknowledged in-flight messages (omit or 0 to keep current)"`
	AckWait       string `json:"ackWait,omitempty" jsonschema:"New ack wait duration like 30s (omit to keep current)"`
}

func (s *Server) registerConsumerTools() {
	addTool(s, &mcp.Tool{
		Name:        "createConsumer",
		Description: "Create a durable consumer on a stream with the given delivery and acknowledgment policies.",
	}, func(ctx context.Context, c Client, in createConsumerInput) (string, error) {
		ackWait, err := parseOptionalDuration(in.AckWait)
		if err != nil {
			return "", err
		}

		consumer, err := c.CreateConsumer(ctx, in.Stream, models.ConsumerConfig{
			Name:          in.Name,
			Durable:       in.Name,
			FilterSubject: in.FilterSubject,
			DeliverPolicy: in.DeliverPolicy,
			AckPolicy:     in.AckPolicy,
			AckWait:       ackWait,
			MaxDeliver:    in.MaxDeliver,
			MaxAckPending: in.MaxAckPending,
			StartSeq:      in.StartSeq,
		})
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		sb.WriteString("✅ Consumer created\n\n")
		writeConsumerSummary(&sb, consumer)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "listConsumers",
		Description: "List all consumers on a stream with their delivery cursors and pending counts.",
	}, func(ctx context.Context, c Client, in streamNameInput) (string, error) {
		consumers, err := c.ListConsumers(ctx, in.Stream)
		if err != nil {
			return "", err
		}
		if len(consumers) == 0 {
			return fmt.Sprintf("📋 Stream '%s' has no consumers", in.Stream), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📋 Consumers on '%s' (%d):\n\n", in.Stream, len(consumers))
		for _, cons := range consumers {
			fmt.Fprintf(&sb, "  %s  delivered=%d  pending=%d  ack_pending=%d  redelivered=%d\n",
				cons.Name, cons.Delivered.Stream, cons.NumPending,
				cons.NumAckPending, cons.NumRedelivered)
		}
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "getConsumerInfo",
		Description: "Show a consumer's full configuration and delivery state.",
	}, func(ctx context.Context, c Client, in consumerRefInput) (string, error) {
		consumer, err := c.GetConsumerInfo(ctx, in.Stream, in.Consumer)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		sb.WriteString("📊 ")
		writeConsumerSummary(&sb, consumer)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "updateConsumer",
		Description: "Update a consumer's delivery limits. Only the supplied fields change.",
	}, func(ctx context.Context, c Client, in updateConsumerInput) (string, error) {
		ackWait, err := parseOptionalDuration(in.AckWait)
		if err != nil {
			return "", err
		}

		consumer, err := c.UpdateConsumer(ctx, in.Stream, in.Consumer, in.MaxDeliver, in.MaxAckPending, ackWait)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		sb.WriteString("✅ Consumer updated\n\n")
		writeConsumerSummary(&sb, consumer)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "deleteConsumer",
		Description: "Delete a consumer from a stream.",
	}, func(ctx context.Context, c Client, in consumerRefInput) (string, error) {
		if err := c.DeleteConsumer(ctx, in.Stream, in.Consumer); err != nil {
			return "", err
		}
		return fmt.Sprintf("🗑️ Consumer '%s' deleted from stream '%s'", in.Consumer, in.Stream), nil
	})
}
