package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shubhamrasal/jsmcp/internal/config"
	"github.com/shubhamrasal/jsmcp/internal/metrics"
	natsclient "github.com/shubhamrasal/jsmcp/internal/nats"
	"github.com/shubhamrasal/jsmcp/internal/server"
)

// Options are the command-line overrides applied on top of config and
// environment.
type Options struct {
	ServerURL  string
	ConfigPath string
	Transport  string
	Port       int
}

// Run starts the jsmcp server and blocks until the transport stops or the
// process is signaled.
func Run(opts Options) error {
	log := newLogger()

	cfg, err := config.Load(opts.ConfigPath, opts.ServerURL)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Transport != "" {
		cfg.Transport = config.Transport(opts.Transport)
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}

	// Verify the broker is reachable before serving; each tool invocation
	// opens its own connection afterwards.
	probe, err := natsclient.NewClient(cfg.CurrentContext(), log)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	pingErr := probe.Ping(context.Background())
	probe.Close()
	if pingErr != nil {
		return fmt.Errorf("failed to reach NATS: %w", pingErr)
	}

	history, err := metrics.NewHistory(cfg.MetricsURL)
	if err != nil {
		return fmt.Errorf("failed to configure metrics history: %w", err)
	}

	connect := func(ctx context.Context) (server.Client, error) {
		return natsclient.NewClient(cfg.CurrentContext(), log)
	}

	srv := server.New(cfg, log, history, connect)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting jsmcp",
		"context", cfg.CurrentContextName(),
		"server", cfg.CurrentContext().Server,
		"transport", cfg.Transport,
		"backups", cfg.BackupBucket != "",
		"metrics_history", history.Configured())

	return srv.Run(ctx)
}

// newLogger builds the process logger. Log output goes to stderr because
// stdout belongs to the stdio transport.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if v := os.Getenv("JSMCP_LOG_LEVEL"); v != "" {
		_ = level.UnmarshalText([]byte(v))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
