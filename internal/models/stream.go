package models

import "time"

// Stream represents a NATS JetStream stream
type Stream struct {
	Name      string       `json:"name"`
	Subjects  []string     `json:"subjects"`
	Messages  uint64       `json:"messages"`
	Bytes     uint64       `json:"bytes"`
	Consumers int          `json:"consumers"`
	Config    StreamConfig `json:"config"`
	State     StreamState  `json:"state"`
}

// StreamConfig holds stream configuration
type StreamConfig struct {
	Name         string         `json:"name"`
	Subjects     []string       `json:"subjects"`
	Retention    string         `json:"retention"` // limits, interest, workqueue
	Storage      string         `json:"storage"`   // file, memory
	Replicas     int            `json:"replicas"`
	MaxAge       time.Duration  `json:"max_age"`
	MaxMessages  int64          `json:"max_messages"`
	MaxBytes     int64          `json:"max_bytes"`
	MaxMsgSize   int32          `json:"max_msg_size"`
	MaxConsumers int            `json:"max_consumers"`
	Discard      string         `json:"discard"` // old, new
	Sealed       bool           `json:"sealed,omitempty"`
	DenyDelete   bool           `json:"deny_delete,omitempty"`
	DenyPurge    bool           `json:"deny_purge,omitempty"`
	Sources      []StreamSource `json:"sources,omitempty"`
}

// StreamSource references another stream whose messages are sourced in
type StreamSource struct {
	Name          string `json:"name"`
	StartSeq      uint64 `json:"start_seq,omitempty"`
	FilterSubject string `json:"filter_subject,omitempty"`
}

// StreamState holds stream state information
type StreamState struct {
	Messages   uint64    `json:"messages"`
	Bytes      uint64    `json:"bytes"`
	FirstSeq   uint64    `json:"first_seq"`
	FirstTime  time.Time `json:"first_time"`
	LastSeq    uint64    `json:"last_seq"`
	LastTime   time.Time `json:"last_time"`
	Consumers  int       `json:"consumers"`
	NumDeleted uint64    `json:"num_deleted"`
}

// StreamUpdate carries a partial stream configuration change. Nil fields
// leave the corresponding descriptor field unchanged.
type StreamUpdate struct {
	Subjects    []string
	Retention   *string
	Replicas    *int
	MaxAge      *time.Duration
	MaxMessages *int64
	MaxBytes    *int64
	MaxMsgSize  *int32
	Discard     *string
}

// PurgeFilter scopes a stream purge. Zero values mean "no bound". Subject
// combines with either bound; the broker rejects sequence and keep together.
type PurgeFilter struct {
	Subject   string
	UpToSeq   uint64
	Keep      uint64
	OlderThan time.Duration
}
