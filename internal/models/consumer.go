package models

import "time"

// Consumer represents a NATS JetStream consumer
type Consumer struct {
	Name           string          `json:"name"`
	Stream         string          `json:"stream"`
	Config         ConsumerConfig  `json:"config"`
	Delivered      ConsumerSeqInfo `json:"delivered"`
	AckFloor       ConsumerSeqInfo `json:"ack_floor"`
	NumPending     uint64          `json:"num_pending"`
	NumAckPending  uint64          `json:"num_ack_pending"`
	NumRedelivered uint64          `json:"num_redelivered"`
	NumWaiting     int             `json:"num_waiting"`
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Name          string        `json:"name"`
	Durable       string        `json:"durable"`
	FilterSubject string        `json:"filter_subject"`
	DeliverPolicy string        `json:"deliver_policy"` // all, last, new, by_start_sequence, by_start_time
	AckPolicy     string        `json:"ack_policy"`     // none, all, explicit
	AckWait       time.Duration `json:"ack_wait"`
	MaxDeliver    int           `json:"max_deliver"`
	ReplayPolicy  string        `json:"replay_policy"` // instant, original
	MaxAckPending int           `json:"max_ack_pending"`
	StartSeq      uint64        `json:"start_seq,omitempty"`
}

// ConsumerSeqInfo holds sequence information
type ConsumerSeqInfo struct {
	Stream   uint64    `json:"stream_seq"`
	Consumer uint64    `json:"consumer_seq"`
	Last     time.Time `json:"last,omitempty"`
}
