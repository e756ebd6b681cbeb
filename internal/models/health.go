package models

import "time"

// StreamHealth is the aggregate health entry served by the streams resource.
type StreamHealth struct {
	Name      string   `json:"name"`
	Messages  uint64   `json:"messages"`
	Bytes     uint64   `json:"bytes"`
	Consumers int      `json:"consumers"`
	LastSeq   uint64   `json:"last_seq"`
	Issues    []string `json:"issues,omitempty"`
}

// ConsumerHealth is the aggregate entry served by the consumers resource.
type ConsumerHealth struct {
	Name           string   `json:"name"`
	Stream         string   `json:"stream"`
	Lag            uint64   `json:"lag"`
	NumPending     uint64   `json:"num_pending"`
	NumAckPending  uint64   `json:"num_ack_pending"`
	NumRedelivered uint64   `json:"num_redelivered"`
	Issues         []string `json:"issues,omitempty"`
}

// ClusterInfo holds cluster-wide JetStream counters.
type ClusterInfo struct {
	Server    string `json:"server"`
	Streams   int    `json:"streams"`
	Consumers int    `json:"consumers"`
	Memory    uint64 `json:"memory"`
	Store     uint64 `json:"store"`
	APITotal  uint64 `json:"api_total"`
	APIErrors uint64 `json:"api_errors"`
}

// MetricSeries represents a time-series metric from the metrics backend
type MetricSeries struct {
	Name   string      `json:"name"`
	Points []float64   `json:"points"`
	Times  []time.Time `json:"times"`
}
