package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/diagnose"
	"github.com/shubhamrasal/jsmcp/internal/models"
)

// Filter and search tools scan at most this many of the most recent
// sequences so a call over a large stream stays bounded.
const scanWindow = 500

type publishMessageInput struct {
	Subject string            `json:"subject" jsonschema:"required,Subject to publish to"`
	Data    string            `json:"data" jsonschema:"required,Message payload"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"Optional message headers"`
}

type viewMessageInput struct {
	Stream   string `json:"stream" jsonschema:"required,Stream name"`
	Sequence uint64 `json:"sequence" jsonschema:"required,Stream sequence number of the message"`
}

type listRecentInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream name"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Number of messages to return (default 10, max 100)"`
}

type listBySubjectInput struct {
	Stream  string `json:"stream" jsonschema:"required,Stream name"`
	Subject string `json:"subject" jsonschema:"required,Subject to match: exact or with NATS wildcards like orders.*"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum matches to return (default 10, max 100)"`
}

type searchByHeaderInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream name"`
	Header string `json:"header" jsonschema:"required,Header name to look for"`
	Value  string `json:"value,omitempty" jsonschema:"Exact header value (omit for presence-only matching)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum matches to return (default 10, max 100)"`
}

type sizeDistributionInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream name"`
	Sample int    `json:"sample,omitempty" jsonschema:"How many recent messages to sample (default 100, max 500)"`
}

func (s *Server) registerMessageTools() {
	addTool(s, &mcp.Tool{
		Name:        "publishMessage",
		Description: "Publish a message to a subject and wait for the stream acknowledgment.",
	}, func(ctx context.Context, c Client, in publishMessageInput) (string, error) {
		seq, stream, err := c.Publish(ctx, in.Subject, []byte(in.Data), in.Headers)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("📤 Published to '%s' - stored in stream '%s' at sequence %d",
			in.Subject, stream, seq), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "viewMessage",
		Description: "Show one message by stream sequence number, with the payload pretty-printed when it is JSON.",
	}, func(ctx context.Context, c Client, in viewMessageInput) (string, error) {
		msg, err := c.GetMessageDetail(ctx, in.Stream, in.Sequence)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📨 Message %d on '%s'\n", msg.Sequence, msg.Subject)
		fmt.Fprintf(&sb, "  Time: %s | Size: %s\n", formatTime(msg.Timestamp), formatBytes(uint64(msg.Size)))
		for name, values := range msg.Headers {
			fmt.Fprintf(&sb, "  Header %s: %s\n", name, strings.Join(values, ", "))
		}
		sb.WriteString("\n")
		sb.WriteString(msg.Payload)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "listRecentMessages",
		Description: "List the most recent messages in a stream. Deleted or purged sequences are skipped.",
	}, func(ctx context.Context, c Client, in listRecentInput) (string, error) {
		limit := clampLimit(in.Limit, 10, 100)
		messages, err := c.ListMessages(ctx, in.Stream, limit)
		if err != nil {
			return "", err
		}
		if len(messages) == 0 {
			return fmt.Sprintf("📭 Stream '%s' has no messages", in.Stream), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📨 Recent messages on '%s' (%d):\n\n", in.Stream, len(messages))
		for _, m := range messages {
			writeMessageLine(&sb, m)
		}
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "listMessagesBySubject",
		Description: "List messages whose subject matches an exact value or a NATS wildcard pattern, scanning the most recent 500 sequences.",
	}, func(ctx context.Context, c Client, in listBySubjectInput) (string, error) {
		matcher, err := diagnose.NewSubjectMatcher(in.Subject)
		if err != nil {
			return "", err
		}

		limit := clampLimit(in.Limit, 10, 100)
		matches, scanned, err := s.filterRecent(ctx, c, in.Stream, limit, func(m *models.Message) bool {
			return matcher.Match(m.Subject)
		})
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return fmt.Sprintf("🔍 No messages matching '%s' in the last %d sequence(s) of '%s'",
				in.Subject, scanned, in.Stream), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "🔍 Messages matching '%s' on '%s' (%d of last %d sequences):\n\n",
			in.Subject, in.Stream, len(matches), scanned)
		for _, m := range matches {
			writeMessageLine(&sb, m)
		}
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "searchMessagesByHeader",
		Description: "Find messages carrying a header, optionally with an exact value, scanning the most recent 500 sequences.",
	}, func(ctx context.Context, c Client, in searchByHeaderInput) (string, error) {
		limit := clampLimit(in.Limit, 10, 100)
		matches, scanned, err := s.filterRecent(ctx, c, in.Stream, limit, func(m *models.Message) bool {
			return diagnose.HeaderMatch(m.Headers, in.Header, in.Value)
		})
		if err != nil {
			return "", err
		}

		want := in.Header
		if in.Value != "" {
			want = fmt.Sprintf("%s=%s", in.Header, in.Value)
		}
		if len(matches) == 0 {
			return fmt.Sprintf("🔍 No messages with header %s in the last %d sequence(s) of '%s'",
				want, scanned, in.Stream), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "🔍 Messages with header %s on '%s' (%d of last %d sequences):\n\n",
			want, in.Stream, len(matches), scanned)
		for _, m := range matches {
			writeMessageLine(&sb, m)
		}
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "messageSizeDistribution",
		Description: "Histogram of payload sizes over a sample of the most recent messages.",
	}, func(ctx context.Context, c Client, in sizeDistributionInput) (string, error) {
		sample := clampLimit(in.Sample, 100, scanWindow)
		messages, err := c.ListMessages(ctx, in.Stream, sample)
		if err != nil {
			return "", err
		}
		if len(messages) == 0 {
			return fmt.Sprintf("📭 Stream '%s' has no messages to sample", in.Stream), nil
		}

		sizes := make([]int, len(messages))
		for i, m := range messages {
			sizes[i] = m.Size
		}
		stats := diagnose.SizeDistribution(sizes)

		var sb strings.Builder
		fmt.Fprintf(&sb, "📊 Size distribution on '%s' (%d message sample):\n\n", in.Stream, stats.Count)
		for _, bucket := range stats.Buckets {
			fmt.Fprintf(&sb, "  %-14s %d\n", bucket.Label, bucket.Count)
		}
		fmt.Fprintf(&sb, "\n  Min: %s | Avg: %s | Max: %s\n",
			formatBytes(uint64(stats.Min)), formatBytes(uint64(stats.Avg())), formatBytes(uint64(stats.Max)))
		return sb.String(), nil
	})
}

// filterRecent scans the most recent scanWindow sequences of a stream and
// keeps messages satisfying the predicate, newest last.
func (s *Server) filterRecent(ctx context.Context, c Client, stream string, limit int, keep func(*models.Message) bool) ([]*models.Message, uint64, error) {
	info, err := c.GetStreamInfo(ctx, stream)
	if err != nil {
		return nil, 0, err
	}
	if info.State.Messages == 0 {
		return nil, 0, nil
	}

	startSeq := info.State.FirstSeq
	if info.State.LastSeq >= scanWindow && info.State.LastSeq-scanWindow+1 > startSeq {
		startSeq = info.State.LastSeq - scanWindow + 1
	}
	scanned := info.State.LastSeq - startSeq + 1

	messages, err := c.ScanMessages(ctx, stream, startSeq, info.State.LastSeq, scanWindow)
	if err != nil {
		return nil, scanned, err
	}

	var matches []*models.Message
	for _, m := range messages {
		if keep(m) {
			matches = append(matches, m)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches, scanned, nil
}

func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
