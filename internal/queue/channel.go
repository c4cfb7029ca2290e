// Package queue provides the ordered work channel backing the pipeline:
// an append-only log per stage with competing consumer groups,
// acknowledgment, and at-least-once redelivery.
package queue

import (
	"context"
	"time"
)

// Stream names, one per pipeline stage boundary.
const (
	StreamIngested     = "pdf:ingested"
	StreamTextReady    = "pdf:text_ready"
	StreamSummaryReady = "pdf:summary_ready"
)

// Consumer group names.
const (
	GroupExtraction    = "text_extraction_handlers"
	GroupSummarization = "summary_handlers"
)

// Entry is one unit of work delivered from a stream.
type Entry struct {
	// ID is the channel-assigned, monotonically increasing entry ID.
	ID string
	// Fields is the flat key/value payload appended by the producer.
	Fields map[string]string
	// DeliveryCount is how many times this entry has been delivered to the
	// group, when the channel implementation tracks it (0 means unknown).
	DeliveryCount int64
}

// Channel is an ordered, append-only, multi-consumer log per pipeline stage.
//
// Delivery is at-least-once per group: an entry stays in the group's pending
// set, and is eligible for redelivery, until acknowledged. Consumers in the
// same group never hold the same unacknowledged entry concurrently.
type Channel interface {
	// Append adds an entry to the stream and returns its ID.
	Append(ctx context.Context, stream string, fields map[string]string) (string, error)

	// CreateGroup ensures the consumer group exists for the stream, creating
	// the stream itself if needed. Creating a group that already exists is a
	// no-op confirmation, never an error, and never resets the group's
	// cursor or pending set.
	CreateGroup(ctx context.Context, stream, group string) error

	// Consume delivers up to count entries not yet acknowledged by the
	// group, blocking up to block when none are available. A timeout
	// returns an empty slice and a nil error.
	Consume(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error)

	// Ack removes an entry from the group's pending set.
	Ack(ctx context.Context, stream, group, entryID string) error

	// Close releases the underlying connection.
	Close() error
}
