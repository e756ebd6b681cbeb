package models

import "time"

// Message represents a NATS message
type Message struct {
	Sequence  uint64              `json:"sequence"`
	Subject   string              `json:"subject"`
	Data      []byte              `json:"data"`
	Headers   map[string][]string `json:"headers,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Size      int                 `json:"size"`
}

// MessageDetail holds detailed message information for display
type MessageDetail struct {
	Sequence  uint64              `json:"sequence"`
	Subject   string              `json:"subject"`
	Payload   string              `json:"payload"`
	Headers   map[string][]string `json:"headers,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Size      int                 `json:"size"`
}
