package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatLimit(v int64) string {
	if v <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", v)
}

func formatAge(d time.Duration) string {
	if d <= 0 {
		return "unlimited"
	}
	return d.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func writeStreamSummary(sb *strings.Builder, s *models.Stream) {
	fmt.Fprintf(sb, "Stream: %s\n", s.Name)
	fmt.Fprintf(sb, "  Subjects: %s\n", strings.Join(s.Config.Subjects, ", "))
	fmt.Fprintf(sb, "  Storage: %s | Retention: %s | Discard: %s | Replicas: %d\n",
		s.Config.Storage, s.Config.Retention, s.Config.Discard, s.Config.Replicas)
	fmt.Fprintf(sb, "  Limits: max_msgs=%s max_bytes=%s max_age=%s\n",
		formatLimit(s.Config.MaxMessages), formatLimit(s.Config.MaxBytes), formatAge(s.Config.MaxAge))
	fmt.Fprintf(sb, "  Messages: %d (%s) | Consumers: %d\n",
		s.State.Messages, formatBytes(s.State.Bytes), s.State.Consumers)
	fmt.Fprintf(sb, "  Sequences: %d-%d | Last activity: %s\n",
		s.State.FirstSeq, s.State.LastSeq, formatTime(s.State.LastTime))
	if len(s.Config.Sources) > 0 {
		names := make([]string, 0, len(s.Config.Sources))
		for _, src := range s.Config.Sources {
			names = append(names, src.Name)
		}
		fmt.Fprintf(sb, "  Sources: %s\n", strings.Join(names, ", "))
	}
}

func writeConsumerSummary(sb *strings.Builder, c *models.Consumer) {
	fmt.Fprintf(sb, "Consumer: %s (stream %s)\n", c.Name, c.Stream)
	fmt.Fprintf(sb, "  Ack: %s | Deliver: %s | Replay: %s\n",
		c.Config.AckPolicy, c.Config.DeliverPolicy, c.Config.ReplayPolicy)
	if c.Config.FilterSubject != "" {
		fmt.Fprintf(sb, "  Filter: %s\n", c.Config.FilterSubject)
	}
	fmt.Fprintf(sb, "  Delivered: stream_seq=%d consumer_seq=%d\n",
		c.Delivered.Stream, c.Delivered.Consumer)
	fmt.Fprintf(sb, "  Ack floor: stream_seq=%d consumer_seq=%d\n",
		c.AckFloor.Stream, c.AckFloor.Consumer)
	fmt.Fprintf(sb, "  Pending: %d | Ack pending: %d | Redelivered: %d | Waiting pulls: %d\n",
		c.NumPending, c.NumAckPending, c.NumRedelivered, c.NumWaiting)
}

func writeMessageLine(sb *strings.Builder, m *models.Message) {
	fmt.Fprintf(sb, "  [%d] %s  %s  %s\n",
		m.Sequence, m.Subject, formatBytes(uint64(m.Size)), formatTime(m.Timestamp))
}

func writeIssues(sb *strings.Builder, issues []string) {
	if len(issues) == 0 {
		sb.WriteString("\n✅ No issues detected\n")
		return
	}
	fmt.Fprintf(sb, "\n⚠️ Issues (%d):\n", len(issues))
	for _, issue := range issues {
		fmt.Fprintf(sb, "  - %s\n", issue)
	}
}
