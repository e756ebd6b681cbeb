package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shubhamrasal/jsmcp/internal/diagnose"
	"github.com/shubhamrasal/jsmcp/internal/models"
)

const (
	streamHealthURI   = "jsmcp://health/streams"
	consumerHealthURI = "jsmcp://health/consumers"
	clusterInfoURI    = "jsmcp://cluster/info"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         streamHealthURI,
		Name:        "stream-health",
		Description: "Aggregate health for every stream: counters plus advisory issues.",
		MIMEType:    "application/json",
	}, s.jsonResource(streamHealthURI, func(ctx context.Context, c Client) (any, error) {
		streams, err := c.ListStreams(ctx)
		if err != nil {
			return nil, err
		}

		health := make([]models.StreamHealth, 0, len(streams))
		for _, st := range streams {
			consumers, err := c.ListConsumers(ctx, st.Name)
			if err != nil {
				return nil, err
			}
			health = append(health, models.StreamHealth{
				Name:      st.Name,
				Messages:  st.State.Messages,
				Bytes:     st.State.Bytes,
				Consumers: st.State.Consumers,
				LastSeq:   st.State.LastSeq,
				Issues:    diagnose.Stream(st, consumers),
			})
		}
		return health, nil
	}))

	s.mcp.AddResource(&mcp.Resource{
		URI:         consumerHealthURI,
		Name:        "consumer-status",
		Description: "Aggregate status for every consumer on every stream, including lag.",
		MIMEType:    "application/json",
	}, s.jsonResource(consumerHealthURI, func(ctx context.Context, c Client) (any, error) {
		streams, err := c.ListStreams(ctx)
		if err != nil {
			return nil, err
		}

		var health []models.ConsumerHealth
		for _, st := range streams {
			consumers, err := c.ListConsumers(ctx, st.Name)
			if err != nil {
				return nil, err
			}
			for _, cons := range consumers {
				health = append(health, models.ConsumerHealth{
					Name:           cons.Name,
					Stream:         st.Name,
					Lag:            diagnose.Lag(st.State.LastSeq, cons.Delivered.Stream),
					NumPending:     cons.NumPending,
					NumAckPending:  cons.NumAckPending,
					NumRedelivered: cons.NumRedelivered,
					Issues:         diagnose.Consumer(cons, st.State),
				})
			}
		}
		return health, nil
	}))

	s.mcp.AddResource(&mcp.Resource{
		URI:         clusterInfoURI,
		Name:        "cluster-info",
		Description: "Cluster-wide JetStream counters: streams, consumers, storage, API stats.",
		MIMEType:    "application/json",
	}, s.jsonResource(clusterInfoURI, func(ctx context.Context, c Client) (any, error) {
		return c.AccountInfo(ctx)
	}))
}

// jsonResource wraps a payload builder with connection setup and JSON
// serialization into the resource read envelope.
func (s *Server) jsonResource(uri string, build func(ctx context.Context, c Client) (any, error)) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		c, err := s.connect(ctx)
		if err != nil {
			return nil, err
		}
		defer c.Close()

		payload, err := build(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("failed to build resource %s: %w", uri, err)
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to serialize resource %s: %w", uri, err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
