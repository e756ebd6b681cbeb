package models

import "time"

// BackupVersion is the schema version written into every backup blob.
// Restore rejects any other value before touching the broker.
const BackupVersion = "1.0"

// Backup is a point-in-time snapshot of a stream and its consumers,
// serialized as a single JSON blob in the backup bucket.
type Backup struct {
	Stream    BackupStream     `json:"stream"`
	Consumers []BackupConsumer `json:"consumers"`
	Timestamp string           `json:"timestamp"` // ISO-8601
	Version   string           `json:"version"`
}

// BackupStream pairs a stream descriptor with its state at backup time.
type BackupStream struct {
	Config StreamConfig `json:"config"`
	State  StreamState  `json:"state"`
}

// BackupConsumer pairs a consumer descriptor with its state at backup time.
type BackupConsumer struct {
	Name   string         `json:"name"`
	Config ConsumerConfig `json:"config"`
	State  ConsumerState  `json:"state"`
}

// ConsumerState is the delivery-progress portion of a consumer snapshot.
type ConsumerState struct {
	Delivered      ConsumerSeqInfo `json:"delivered"`
	AckFloor       ConsumerSeqInfo `json:"ack_floor"`
	NumPending     uint64          `json:"num_pending"`
	NumAckPending  uint64          `json:"num_ack_pending"`
	NumRedelivered uint64          `json:"num_redelivered"`
}

// BackupEntry describes one stored backup blob.
type BackupEntry struct {
	Name      string    `json:"name"`
	Stream    string    `json:"stream"`
	Timestamp time.Time `json:"timestamp"`
	Size      uint64    `json:"size"`
}
