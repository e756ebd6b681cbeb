package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/shubhamrasal/jsmcp/internal/models"
)

// ErrHistoryNotConfigured is returned by the no-op history provider handed
// out when no metrics backend URL is configured.
var ErrHistoryNotConfigured = errors.New("metrics history not configured: set JSMCP_METRICS_URL")

// History queries a metrics backend for historical stream rates.
type History interface {
	StreamRates(ctx context.Context, streamName string, window time.Duration) (map[string][]models.MetricSeries, error)
	Configured() bool
}

// NewHistory returns a Prometheus-backed history when url is set, or the
// not-configured variant otherwise.
func NewHistory(url string) (History, error) {
	if url == "" {
		return noHistory{}, nil
	}

	client, err := api.NewClient(api.Config{Address: url})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &promHistory{queryAPI: v1.NewAPI(client)}, nil
}

type promHistory struct {
	queryAPI v1.API
}

func (p *promHistory) Configured() bool { return true }

// StreamRates fetches per-stream ingest rates over the window. Metric names
// follow the nats-surveyor exporter.
func (p *promHistory) StreamRates(ctx context.Context, streamName string, window time.Duration) (map[string][]models.MetricSeries, error) {
	if window <= 0 {
		window = time.Hour
	}

	end := time.Now()
	start := end.Add(-window)
	step := window / 60
	if step < time.Second {
		step = time.Second
	}

	queries := map[string]string{
		"messages_per_sec": fmt.Sprintf(`rate(nats_stream_total_messages{stream_name=%q}[5m])`, streamName),
		"bytes_per_sec":    fmt.Sprintf(`rate(nats_stream_total_bytes{stream_name=%q}[5m])`, streamName),
		"consumer_pending": fmt.Sprintf(`nats_consumer_num_pending{stream_name=%q}`, streamName),
	}

	out := make(map[string][]models.MetricSeries)
	for name, query := range queries {
		series, err := p.queryRange(ctx, query, start, end, step)
		if err != nil {
			return nil, err
		}
		if len(series) > 0 {
			out[name] = series
		}
	}
	return out, nil
}

func (p *promHistory) queryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) ([]models.MetricSeries, error) {
	result, _, err := p.queryAPI.QueryRange(ctx, query, v1.Range{
		Start: start,
		End:   end,
		Step:  step,
	})
	if err != nil {
		return nil, fmt.Errorf("metrics query failed: %w", err)
	}

	return convertToMetricSeries(result), nil
}

// convertToMetricSeries converts Prometheus results to our format
func convertToMetricSeries(value model.Value) []models.MetricSeries {
	matrix, ok := value.(model.Matrix)
	if !ok {
		return nil
	}

	var series []models.MetricSeries
	for _, sampleStream := range matrix {
		name := string(sampleStream.Metric["consumer_name"])
		if name == "" {
			name = string(sampleStream.Metric["stream_name"])
		}

		points := make([]float64, len(sampleStream.Values))
		times := make([]time.Time, len(sampleStream.Values))
		for i, sample := range sampleStream.Values {
			points[i] = float64(sample.Value)
			times[i] = sample.Timestamp.Time()
		}

		series = append(series, models.MetricSeries{
			Name:   name,
			Points: points,
			Times:  times,
		})
	}
	return series
}

// noHistory is the not-configured variant.
type noHistory struct{}

func (noHistory) Configured() bool { return false }

func (noHistory) StreamRates(context.Context, string, time.Duration) (map[string][]models.MetricSeries, error) {
	return nil, ErrHistoryNotConfigured
}
