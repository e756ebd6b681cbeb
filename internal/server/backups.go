package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/backup"
)

type backupStreamInput struct {
	Stream string `json:"stream" jsonschema:"required,Stream to back up"`
}

type restoreStreamInput struct {
	Backup string `json:"backup" jsonschema:"required,Backup blob name as reported by listBackups"`
}

type listBackupsInput struct {
	Stream     string `json:"stream" jsonschema:"required,Stream whose backups to list"`
	TargetDate string `json:"targetDate,omitempty" jsonschema:"RFC3339 date; when set only the backup closest to it is reported"`
}

func (s *Server) registerBackupTools() {
	addTool(s, &mcp.Tool{
		Name:        "backupStream",
		Description: "Snapshot a stream's configuration, state, and all consumers into a versioned JSON blob in the backup bucket.",
	}, func(ctx context.Context, c Client, in backupStreamInput) (string, error) {
		mgr, err := s.backupManager(ctx, c)
		if err != nil {
			return "", err
		}

		name, err := mgr.Backup(ctx, in.Stream)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("💾 Stream '%s' backed up as '%s'", in.Stream, name), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "restoreStream",
		Description: "Restore a stream and its consumers from a backup blob. The blob's schema version is validated before anything is changed.",
	}, func(ctx context.Context, c Client, in restoreStreamInput) (string, error) {
		mgr, err := s.backupManager(ctx, c)
		if err != nil {
			return "", err
		}

		b, err := mgr.Restore(ctx, in.Backup)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("♻️ Restored stream '%s' with %d consumer(s) from '%s' (taken %s)",
			b.Stream.Config.Name, len(b.Consumers), in.Backup, b.Timestamp), nil
	})

	addTool(s, &mcp.Tool{
		Name:        "listBackups",
		Description: "List a stream's backups most recent first, or find the single backup closest to a target date.",
	}, func(ctx context.Context, c Client, in listBackupsInput) (string, error) {
		mgr, err := s.backupManager(ctx, c)
		if err != nil {
			return "", err
		}

		entries, err := mgr.List(ctx, in.Stream)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return fmt.Sprintf("📭 No backups found for stream '%s'", in.Stream), nil
		}

		if in.TargetDate != "" {
			target, err := time.Parse(time.RFC3339, in.TargetDate)
			if err != nil {
				return "", fmt.Errorf("invalid target date '%s': %w", in.TargetDate, err)
			}
			best, ok := backup.Closest(entries, target)
			if !ok {
				return fmt.Sprintf("📭 No backups found for stream '%s'", in.Stream), nil
			}
			return fmt.Sprintf("💾 Closest backup to %s: '%s' (taken %s, %s)",
				target.Format(time.RFC3339), best.Name,
				best.Timestamp.Format(time.RFC3339), formatBytes(best.Size)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "💾 Backups for '%s' (%d, most recent first):\n\n", in.Stream, len(entries))
		for _, e := range entries {
			fmt.Fprintf(&sb, "  %s  %s  %s\n",
				e.Name, e.Timestamp.Format(time.RFC3339), formatBytes(e.Size))
		}
		return sb.String(), nil
	})
}
