package nats

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/shubhamrasal/jsmcp/internal/config"
	"github.com/shubhamrasal/jsmcp/internal/models"
)

// Client wraps a NATS connection and JetStream context
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
	log  *slog.Logger
}

// NewClient creates a new NATS client with JetStream enabled
func NewClient(ctx *config.Context, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := []nats.Option{
		nats.Name("jsmcp"),
		nats.Timeout(10 * time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "server", nc.ConnectedUrl())
		}),
	}

	// Exactly one credential mechanism is used: token, creds file, then
	// inline creds content, first non-empty wins.
	switch {
	case ctx.Token != "":
		opts = append(opts, nats.Token(ctx.Token))
	case ctx.Creds != "":
		opts = append(opts, nats.UserCredentials(ctx.Creds))
	case ctx.CredsContent != "":
		path, err := writeCredsFile(ctx.CredsContent)
		if err != nil {
			return nil, err
		}
		opts = append(opts, nats.UserCredentials(path))
	}

	nc, err := nats.Connect(ctx.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	var js jetstream.JetStream
	if ctx.Domain != "" {
		js, err = jetstream.NewWithDomain(nc, ctx.Domain)
	} else {
		js, err = jetstream.New(nc)
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{
		conn: nc,
		js:   js,
		log:  log,
	}, nil
}

// writeCredsFile stores inline credential content in a private temp file so
// it can be handed to the nats.UserCredentials option.
func writeCredsFile(content string) (string, error) {
	f, err := os.CreateTemp("", "jsmcp-*.creds")
	if err != nil {
		return "", fmt.Errorf("failed to create creds file: %w", err)
	}
	defer f.Close()

	if err := f.Chmod(0600); err != nil {
		return "", fmt.Errorf("failed to restrict creds file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		return "", fmt.Errorf("failed to write creds file: %w", err)
	}
	return f.Name(), nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// IsConnected returns true if the client is connected to NATS
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// ServerInfo returns the connected NATS server URL
func (c *Client) ServerInfo() (string, error) {
	if c.conn == nil {
		return "", fmt.Errorf("not connected")
	}
	if url := c.conn.ConnectedUrl(); url != "" {
		return url, nil
	}
	return "unknown", nil
}

// AccountInfo returns cluster-wide JetStream usage counters
func (c *Client) AccountInfo(ctx context.Context) (*models.ClusterInfo, error) {
	info, err := c.js.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	server, _ := c.ServerInfo()
	return &models.ClusterInfo{
		Server:    server,
		Streams:   info.Streams,
		Consumers: info.Consumers,
		Memory:    info.Memory,
		Store:     info.Store,
		APITotal:  info.API.Total,
		APIErrors: info.API.Errors,
	}, nil
}

// Ping checks if the connection is alive
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return fmt.Errorf("not connected")
	}

	done := make(chan error, 1)
	go func() {
		done <- c.conn.FlushTimeout(2 * time.Second)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
