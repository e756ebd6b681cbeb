package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/diagnose"
)

type monitorHealthInput struct {
	Stream   string `json:"stream" jsonschema:"required,Stream name"`
	Duration string `json:"duration,omitempty" jsonschema:"Length of the sampling window as a duration like 10s (default 10s, max 5m)"`
}

type metricsHistoryInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream name"`
	Window string `json:"window,omitempty" jsonschema:"How far back to query, e.g. 1h (default 1h)"`
}

func (s *Server) registerDiagnosticTools() {
	addTool(s, &mcp.Tool{
		Name:        "diagnoseStream",
		Description: "Check a stream for advisory issues: emptiness, missing consumers, and usage near configured limits.",
	}, func(ctx context.Context, c Client, in streamNameInput) (string, error) {
		stream, err := c.GetStreamInfo(ctx, in.Stream)
		if err != nil {
			return "", err
		}
		consumers, err := c.ListConsumers(ctx, in.Stream)
		if err != nil {
			return "", err
		}

		issues := diagnose.Stream(stream, consumers)

		var sb strings.Builder
		sb.WriteString("🩺 ")
		writeStreamSummary(&sb, stream)
		writeIssues(&sb, issues)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "diagnoseConsumer",
		Description: "Check a consumer for advisory issues: lag, pending and redelivered messages, inactivity, and ack-pending pressure.",
	}, func(ctx context.Context, c Client, in consumerRefInput) (string, error) {
		consumer, err := c.GetConsumerInfo(ctx, in.Stream, in.Consumer)
		if err != nil {
			return "", err
		}
		stream, err := c.GetStreamInfo(ctx, in.Stream)
		if err != nil {
			return "", err
		}

		lag := diagnose.Lag(stream.State.LastSeq, consumer.Delivered.Stream)
		issues := diagnose.Consumer(consumer, stream.State)

		var sb strings.Builder
		sb.WriteString("🩺 ")
		writeConsumerSummary(&sb, consumer)
		fmt.Fprintf(&sb, "  Lag: %d (stream head %d)\n", lag, stream.State.LastSeq)
		writeIssues(&sb, issues)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "checkConsumerLag",
		Description: "Report how far a consumer's delivered cursor trails the stream head.",
	}, func(ctx context.Context, c Client, in consumerRefInput) (string, error) {
		consumer, err := c.GetConsumerInfo(ctx, in.Stream, in.Consumer)
		if err != nil {
			return "", err
		}
		stream, err := c.GetStreamInfo(ctx, in.Stream)
		if err != nil {
			return "", err
		}

		lag := diagnose.Lag(stream.State.LastSeq, consumer.Delivered.Stream)
		status := "✅ lag is within normal range"
		if lag > diagnose.HighLag {
			status = fmt.Sprintf("⚠️ high lag (threshold %d)", diagnose.HighLag)
		}
		return fmt.Sprintf("📏 Consumer '%s' on '%s': lag=%d (delivered %d of %d)\n%s",
			in.Consumer, in.Stream, lag, consumer.Delivered.Stream, stream.State.LastSeq, status), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "monitorStreamHealth",
		Description: "Sample a stream, wait for the given window, sample again, and report throughput, per-consumer lag, and advisory issues.",
	}, func(ctx context.Context, c Client, in monitorHealthInput) (string, error) {
		window, err := parseOptionalDuration(in.Duration)
		if err != nil {
			return "", err
		}
		if window == 0 {
			window = 10 * time.Second
		}
		if window > 5*time.Minute {
			return "", fmt.Errorf("monitoring window %s exceeds the 5m maximum", window)
		}

		initial, err := c.GetStreamInfo(ctx, in.Stream)
		if err != nil {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(window):
		}

		final, err := c.GetStreamInfo(ctx, in.Stream)
		if err != nil {
			return "", err
		}
		consumers, err := c.ListConsumers(ctx, in.Stream)
		if err != nil {
			return "", err
		}

		w := diagnose.NewWindow(final.Config, initial.State, final.State, window, consumers)

		var sb strings.Builder
		fmt.Fprintf(&sb, "📈 Health window for '%s' (%s):\n\n", in.Stream, window)
		fmt.Fprintf(&sb, "  Throughput: %.1f msgs/sec, %s/sec\n", w.MessagesPerSec, formatBytes(uint64(w.BytesPerSec)))
		fmt.Fprintf(&sb, "  Messages: %d → %d | Bytes: %s → %s\n",
			w.Initial.Messages, w.Final.Messages,
			formatBytes(w.Initial.Bytes), formatBytes(w.Final.Bytes))
		if len(w.ConsumerLags) > 0 {
			sb.WriteString("  Consumer lag:\n")
			for _, cl := range w.ConsumerLags {
				fmt.Fprintf(&sb, "    %s: %d\n", cl.Name, cl.Lag)
			}
		}
		writeIssues(&sb, w.Issues)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "streamMetricsHistory",
		Description: "Query the configured metrics backend for a stream's historical ingest rates and consumer pending counts.",
	}, func(ctx context.Context, c Client, in metricsHistoryInput) (string, error) {
		window, err := parseOptionalDuration(in.Window)
		if err != nil {
			return "", err
		}

		series, err := s.history.StreamRates(ctx, in.Stream, window)
		if err != nil {
			return "", err
		}
		if len(series) == 0 {
			return fmt.Sprintf("📉 No metrics found for stream '%s'", in.Stream), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📉 Metrics history for '%s':\n", in.Stream)
		for metric, list := range series {
			fmt.Fprintf(&sb, "\n  %s:\n", metric)
			for _, ms := range list {
				if len(ms.Points) == 0 {
					continue
				}
				last := ms.Points[len(ms.Points)-1]
				fmt.Fprintf(&sb, "    %s: latest=%.2f samples=%d\n", ms.Name, last, len(ms.Points))
			}
		}
		return sb.String(), nil
	})
}
