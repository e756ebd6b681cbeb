// Package server exposes JetStream administration as MCP tools and
// resources. Each tool invocation opens its own broker connection, performs
// its reads and writes, and returns a single human-readable text segment;
// broker failures become error results, never protocol faults.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/backup"
	"github.com/shubhamrasal/jsmcp/internal/config"
	"github.com/shubhamrasal/jsmcp/internal/metrics"
	"github.com/shubhamrasal/jsmcp/internal/models"
	natsclient "github.com/shubhamrasal/jsmcp/internal/nats"
)

const version = "0.1.0"

// Client is the JetStream surface the tool handlers operate on. It is
// satisfied by *natsclient.Client and faked in tests.
type Client interface {
	ListStreams(ctx context.Context) ([]*models.Stream, error)
	GetStreamInfo(ctx context.Context, name string) (*models.Stream, error)
	CreateStream(ctx context.Context, cfg models.StreamConfig) (*models.Stream, error)
	UpsertStream(ctx context.Context, cfg models.StreamConfig) (*models.Stream, error)
	UpdateStream(ctx context.Context, name string, upd models.StreamUpdate) (*models.Stream, error)
	AddSubjects(ctx context.Context, name string, subjects []string) (*models.Stream, error)
	RemoveSubjects(ctx context.Context, name string, subjects []string) (*models.Stream, error)
	AddSourceStream(ctx context.Context, name string, source models.StreamSource) (*models.Stream, error)
	RemoveSourceStream(ctx context.Context, name, sourceName string) (*models.Stream, error)
	DeleteStream(ctx context.Context, name string, force bool) error
	PurgeStream(ctx context.Context, name string, filter models.PurgeFilter) (uint64, error)

	ListConsumers(ctx context.Context, streamName string) ([]*models.Consumer, error)
	GetConsumerInfo(ctx context.Context, streamName, consumerName string) (*models.Consumer, error)
	CreateConsumer(ctx context.Context, streamName string, cfg models.ConsumerConfig) (*models.Consumer, error)
	UpsertConsumer(ctx context.Context, streamName string, cfg models.ConsumerConfig) (*models.Consumer, error)
	UpdateConsumer(ctx context.Context, streamName, consumerName string, maxDeliver, maxAckPending int, ackWait time.Duration) (*models.Consumer, error)
	DeleteConsumer(ctx context.Context, streamName, consumerName string) error

	ListMessages(ctx context.Context, streamName string, limit int) ([]*models.Message, error)
	ScanMessages(ctx context.Context, streamName string, startSeq, endSeq uint64, limit int) ([]*models.Message, error)
	GetMessage(ctx context.Context, streamName string, seq uint64) (*models.Message, error)
	GetMessageDetail(ctx context.Context, streamName string, seq uint64) (*models.MessageDetail, error)
	Publish(ctx context.Context, subject string, data []byte, headers map[string]string) (uint64, string, error)

	AccountInfo(ctx context.Context) (*models.ClusterInfo, error)
	BackupStore(ctx context.Context, bucket string) (natsclient.BlobStore, error)
	Close()
}

// Server wires the MCP tool catalogue to the broker.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Registry
	history metrics.History
	connect func(ctx context.Context) (Client, error)
	mcp     *mcp.Server
}

// New builds the server and registers all tools and resources.
func New(cfg *config.Config, log *slog.Logger, history metrics.History, connect func(ctx context.Context) (Client, error)) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		history: history,
		connect: connect,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "jsmcp",
		Version: version,
	}, &mcp.ServerOptions{
		Instructions: "jsmcp exposes NATS JetStream administration as tools: " +
			"stream and consumer lifecycle, message inspection and publishing, " +
			"health diagnostics, and stream backup/restore. All state is read " +
			"fresh from the broker on every call.",
	})

	s.registerStreamTools()
	s.registerConsumerTools()
	s.registerMessageTools()
	s.registerDiagnosticTools()
	s.registerBackupTools()
	s.registerResources()

	return s
}

// Run serves the selected transport until the context is canceled. An
// unsupported transport is a startup error; there is no silent fallback.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio:
		s.log.Info("serving MCP on stdio")
		return s.mcp.Run(ctx, &mcp.StdioTransport{})

	case config.TransportHTTP:
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.mcp
		}, nil)

		mux := http.NewServeMux()
		mux.Handle("/mcp", handler)
		mux.Handle("/metrics", s.metrics.Handler())

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", s.cfg.Port),
			Handler: mux,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		s.log.Info("serving MCP over HTTP", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http transport failed: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported transport '%s' (use stdio or http)", s.cfg.Transport)
	}
}

// addTool registers a typed tool handler wrapped with connection setup,
// metrics, and the uniform text/error envelope.
func addTool[In any](s *Server, tool *mcp.Tool, h func(ctx context.Context, c Client, in In) (string, error)) {
	mcp.AddTool(s.mcp, tool, func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		start := time.Now()
		text, err := func() (string, error) {
			c, err := s.connect(ctx)
			if err != nil {
				return "", err
			}
			defer c.Close()
			return h(ctx, c, in)
		}()
		s.metrics.ObserveTool(tool.Name, err != nil, time.Since(start))

		if err != nil {
			s.log.Warn("tool returned error", "tool", tool.Name, "error", err)
			return errorResult("%v", err), nil, nil
		}
		return successResult(text), nil, nil
	})
}

// backupManager builds the backup manager for one invocation.
func (s *Server) backupManager(ctx context.Context, c Client) (*backup.Manager, error) {
	store, err := c.BackupStore(ctx, s.cfg.BackupBucket)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(backupAdmin{c}, store, s.log), nil
}

// backupAdmin narrows Client to the surface backup.Manager needs.
type backupAdmin struct{ Client }

func successResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "❌ Error: " + fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
