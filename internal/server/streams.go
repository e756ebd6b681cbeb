package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

type createStreamInput struct {
	Name        string   `json:"name" jsonschema:"required,Stream name"`
	Subjects    []string `json:"subjects" jsonschema:"required,Subjects captured by the stream (NATS wildcards allowed)"`
	Storage     string   `json:"storage,omitempty" jsonschema:"Storage backend: file or memory (default file)"`
	Retention   string   `json:"retention,omitempty" jsonschema:"Retention policy: limits interest or workqueue (default limits)"`
	Discard     string   `json:"discard,omitempty" jsonschema:"Discard policy when full: old or new (default old)"`
	Replicas    int      `json:"replicas,omitempty" jsonschema:"Replica count (default 1)"`
	MaxMessages int64    `json:"maxMessages,omitempty" jsonschema:"Maximum message count (0 = unlimited)"`
	MaxBytes    int64    `json:"maxBytes,omitempty" jsonschema:"Maximum total size in bytes (0 = unlimited)"`
	MaxAge      string   `json:"maxAge,omitempty" jsonschema:"Maximum message age as a duration like 24h (empty = unlimited)"`
}

type streamNameInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream name"`
}

type updateStreamInput struct {
	Stream      string   `json:"stream" jsonschema:"required,Stream name"`
	Subjects    []string `json:"subjects,omitempty" jsonschema:"Replace the subject set (omit to keep current)"`
	Retention   string   `json:"retention,omitempty" jsonschema:"New retention policy (omit to keep current)"`
	Discard     string   `json:"discard,omitempty" jsonschema:"New discard policy (omit to keep current)"`
	Replicas    int      `json:"replicas,omitempty" jsonschema:"New replica count (omit or 0 to keep current)"`
	MaxMessages *int64   `json:"maxMessages,omitempty" jsonschema:"New maximum message count (omit to keep current)"`
	MaxBytes    *int64   `json:"maxBytes,omitempty" jsonschema:"New maximum total bytes (omit to keep current)"`
	MaxMsgSize  *int32   `json:"maxMsgSize,omitempty" jsonschema:"New maximum single-message size in bytes (omit to keep current)"`
	MaxAge      string   `json:"maxAge,omitempty" jsonschema:"New maximum age duration like 24h (omit to keep current)"`
}

// toUpdate translates the supplied fields into a partial stream update.
// Omitted fields stay nil and leave the descriptor unchanged.
func (in updateStreamInput) toUpdate() (models.StreamUpdate, error) {
	upd := models.StreamUpdate{
		Subjects:    in.Subjects,
		MaxMessages: in.MaxMessages,
		MaxBytes:    in.MaxBytes,
		MaxMsgSize:  in.MaxMsgSize,
	}
	if in.Retention != "" {
		upd.Retention = &in.Retention
	}
	if in.Discard != "" {
		upd.Discard = &in.Discard
	}
	if in.Replicas != 0 {
		upd.Replicas = &in.Replicas
	}
	if in.MaxAge != "" {
		maxAge, err := parseOptionalDuration(in.MaxAge)
		if err != nil {
			return models.StreamUpdate{}, err
		}
		upd.MaxAge = &maxAge
	}
	return upd, nil
}

type subjectsInput struct {
	Stream   string   `json:"stream" jsonschema:"required,Stream name"`
	Subjects []string `json:"subjects" jsonschema:"required,Subjects to add or remove"`
}

type addSourceInput struct {
	Stream        string `json:"stream" jsonschema:"required,Stream name"`
	Source        string `json:"source" jsonschema:"required,Name of the stream to source messages from"`
	StartSeq      uint64 `json:"startSeq,omitempty" jsonschema:"Sequence in the source to start from (0 = beginning)"`
	FilterSubject string `json:"filterSubject,omitempty" jsonschema:"Only source messages matching this subject"`
}

type removeSourceInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream name"`
	Source string `json:"source" jsonschema:"required,Name of the source stream to remove"`
}

type deleteStreamInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream name"`
	Force  bool   `json:"force,omitempty" jsonschema:"Delete even when consumers are attached"`
}

type purgeStreamInput struct {
	Stream    string `json:"stream" jsonschema:"required,Stream name"`
	Subject   string `json:"subject,omitempty" jsonschema:"Only purge messages on this subject"`
	UpToSeq   uint64 `json:"upToSeq,omitempty" jsonschema:"Purge messages below this sequence"`
	Keep      uint64 `json:"keep,omitempty" jsonschema:"Keep the most recent N messages"`
	OlderThan string `json:"olderThan,omitempty" jsonschema:"Purge messages older than this duration like 24h"`
}

func (s *Server) registerStreamTools() {
	addTool(s, &mcp.Tool{
		Name:        "createStream",
		Description: "Create a JetStream stream with the given subjects, storage backend, limits, and replica count.",
	}, func(ctx context.Context, c Client, in createStreamInput) (string, error) {
		maxAge, err := parseOptionalDuration(in.MaxAge)
		if err != nil {
			return "", err
		}

		stream, err := c.CreateStream(ctx, models.StreamConfig{
			Name:        in.Name,
			Subjects:    in.Subjects,
			Storage:     in.Storage,
			Retention:   in.Retention,
			Discard:     in.Discard,
			Replicas:    in.Replicas,
			MaxMessages: in.MaxMessages,
			MaxBytes:    in.MaxBytes,
			MaxAge:      maxAge,
		})
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		sb.WriteString("✅ Stream created\n\n")
		writeStreamSummary(&sb, stream)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "listStreams",
		Description: "List all streams in the configured JetStream domain with message counts, sizes, and consumer counts.",
	}, func(ctx context.Context, c Client, in struct{}) (string, error) {
		streams, err := c.ListStreams(ctx)
		if err != nil {
			return "", err
		}
		if len(streams) == 0 {
			return "📋 No streams found", nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "📋 Streams (%d):\n\n", len(streams))
		for _, st := range streams {
			fmt.Fprintf(&sb, "  %s  msgs=%d  size=%s  consumers=%d  subjects=[%s]\n",
				st.Name, st.State.Messages, formatBytes(st.State.Bytes),
				st.State.Consumers, strings.Join(st.Config.Subjects, ", "))
		}
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "getStreamInfo",
		Description: "Show a stream's full configuration and current state.",
	}, func(ctx context.Context, c Client, in streamNameInput) (string, error) {
		stream, err := c.GetStreamInfo(ctx, in.Stream)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		sb.WriteString("📊 ")
		writeStreamSummary(&sb, stream)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "updateStreamConfig",
		Description: "Update stream configuration. Only the supplied fields change; everything else keeps its current value.",
	}, func(ctx context.Context, c Client, in updateStreamInput) (string, error) {
		upd, err := in.toUpdate()
		if err != nil {
			return "", err
		}

		stream, err := c.UpdateStream(ctx, in.Stream, upd)
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		sb.WriteString("✅ Stream updated\n\n")
		writeStreamSummary(&sb, stream)
		return sb.String(), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "addSubjects",
		Description: "Add subjects to a stream's subject set. Already-present subjects are not duplicated.",
	}, func(ctx context.Context, c Client, in subjectsInput) (string, error) {
		stream, err := c.AddSubjects(ctx, in.Stream, in.Subjects)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Stream '%s' now captures: %s",
			stream.Name, strings.Join(stream.Config.Subjects, ", ")), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "removeSubjects",
		Description: "Remove subjects from a stream's subject set.",
	}, func(ctx context.Context, c Client, in subjectsInput) (string, error) {
		stream, err := c.RemoveSubjects(ctx, in.Stream, in.Subjects)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Stream '%s' now captures: %s",
			stream.Name, strings.Join(stream.Config.Subjects, ", ")), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "addSourceStream",
		Description: "Add a source stream whose messages are mirrored into this stream.",
	}, func(ctx context.Context, c Client, in addSourceInput) (string, error) {
		stream, err := c.AddSourceStream(ctx, in.Stream, models.StreamSource{
			Name:          in.Source,
			StartSeq:      in.StartSeq,
			FilterSubject: in.FilterSubject,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Stream '%s' now sources from %d stream(s)",
			stream.Name, len(stream.Config.Sources)), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "removeSourceStream",
		Description: "Remove a source stream by name. Fails when the source is not configured.",
	}, func(ctx context.Context, c Client, in removeSourceInput) (string, error) {
		stream, err := c.RemoveSourceStream(ctx, in.Stream, in.Source)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("✅ Source '%s' removed from stream '%s' (%d remaining)",
			in.Source, stream.Name, len(stream.Config.Sources)), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "deleteStream",
		Description: "Delete a stream. Refused while consumers are attached unless force is set.",
	}, func(ctx context.Context, c Client, in deleteStreamInput) (string, error) {
		if err := c.DeleteStream(ctx, in.Stream, in.Force); err != nil {
			return "", err
		}
		return fmt.Sprintf("🗑️ Stream '%s' deleted", in.Stream), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "purgeStream",
		Description: "Purge messages from a stream, optionally scoped by subject, up-to-sequence, keep-last-N, or older-than-duration.",
	}, func(ctx context.Context, c Client, in purgeStreamInput) (string, error) {
		olderThan, err := parseOptionalDuration(in.OlderThan)
		if err != nil {
			return "", err
		}

		purged, err := c.PurgeStream(ctx, in.Stream, models.PurgeFilter{
			Subject:   in.Subject,
			UpToSeq:   in.UpToSeq,
			Keep:      in.Keep,
			OlderThan: olderThan,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("🧹 Purged %d message(s) from stream '%s'", purged, in.Stream), nil
	})
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration '%s': %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration '%s' must not be negative", s)
	}
	return d, nil
}
