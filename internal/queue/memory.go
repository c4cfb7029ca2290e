package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultReclaimAfter is how long a delivered entry stays exclusive to its
// consumer before the memory channel considers the consumer dead and makes
// the entry eligible for redelivery.
const DefaultReclaimAfter = 30 * time.Second

// MemoryChannel implements Channel in process memory for development and
// tests. It models the same semantics as the Redis implementation: per-group
// cursors, pending sets, competing-consumer exclusivity, and time-based
// redelivery of unacknowledged entries.
type MemoryChannel struct {
	mu           sync.Mutex
	streams      map[string]*memoryStream
	reclaimAfter time.Duration
}

type memoryStream struct {
	entries []Entry
	nextSeq int64
	groups  map[string]*memoryGroup
}

type memoryGroup struct {
	cursor  int
	pending map[string]*pendingDelivery
}

type pendingDelivery struct {
	entry       Entry
	consumer    string
	deliveredAt time.Time
	count       int64
}

// NewMemoryChannel creates a memory channel with the default reclaim timeout.
func NewMemoryChannel() *MemoryChannel {
	return NewMemoryChannelWithReclaim(DefaultReclaimAfter)
}

// NewMemoryChannelWithReclaim creates a memory channel with a custom reclaim
// timeout. A zero timeout makes unacknowledged entries eligible for
// redelivery on the very next consume, which tests use to simulate a crashed
// consumer.
func NewMemoryChannelWithReclaim(reclaimAfter time.Duration) *MemoryChannel {
	return &MemoryChannel{
		streams:      make(map[string]*memoryStream),
		reclaimAfter: reclaimAfter,
	}
}

func (c *MemoryChannel) stream(name string) *memoryStream {
	s, ok := c.streams[name]
	if !ok {
		s = &memoryStream{groups: make(map[string]*memoryGroup)}
		c.streams[name] = s
	}
	return s
}

// Append adds an entry to the stream.
func (c *MemoryChannel) Append(_ context.Context, stream string, fields map[string]string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stream(stream)
	s.nextSeq++
	id := fmt.Sprintf("%d-0", s.nextSeq)

	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.entries = append(s.entries, Entry{ID: id, Fields: copied})

	return id, nil
}

// CreateGroup ensures the group exists. Re-creating an existing group leaves
// its cursor and pending set untouched.
func (c *MemoryChannel) CreateGroup(_ context.Context, stream, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stream(stream)
	if _, ok := s.groups[group]; !ok {
		s.groups[group] = &memoryGroup{pending: make(map[string]*pendingDelivery)}
	}
	return nil
}

// Consume delivers reclaimable pending entries first, then undelivered
// entries from the group's cursor. When nothing is available it polls until
// block elapses or the context is canceled.
func (c *MemoryChannel) Consume(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error) {
	deadline := time.Now().Add(block)

	for {
		entries, err := c.consumeOnce(stream, group, consumer, count)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			return entries, nil
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (c *MemoryChannel) consumeOnce(stream, group, consumer string, count int64) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stream(stream)
	g, ok := s.groups[group]
	if !ok {
		return nil, fmt.Errorf("no such group %q for stream %q", group, stream)
	}

	now := time.Now()
	var delivered []Entry

	// Reclaimable pending entries first, in ID order.
	var reclaimable []*pendingDelivery
	for _, p := range g.pending {
		if now.Sub(p.deliveredAt) >= c.reclaimAfter {
			reclaimable = append(reclaimable, p)
		}
	}
	sort.Slice(reclaimable, func(i, j int) bool {
		return reclaimable[i].entry.ID < reclaimable[j].entry.ID
	})

	for _, p := range reclaimable {
		if int64(len(delivered)) >= count {
			break
		}
		p.consumer = consumer
		p.deliveredAt = now
		p.count++
		e := p.entry
		e.DeliveryCount = p.count
		delivered = append(delivered, e)
	}

	// Then new entries from the cursor.
	for g.cursor < len(s.entries) && int64(len(delivered)) < count {
		e := s.entries[g.cursor]
		g.cursor++
		g.pending[e.ID] = &pendingDelivery{
			entry:       e,
			consumer:    consumer,
			deliveredAt: now,
			count:       1,
		}
		e.DeliveryCount = 1
		delivered = append(delivered, e)
	}

	return delivered, nil
}

// Ack removes an entry from the group's pending set. Acking an unknown or
// already-acked entry is a no-op, matching Redis.
func (c *MemoryChannel) Ack(_ context.Context, stream, group, entryID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stream(stream)
	g, ok := s.groups[group]
	if !ok {
		return fmt.Errorf("no such group %q for stream %q", group, stream)
	}

	delete(g.pending, entryID)
	return nil
}

// Close is a no-op for the memory channel.
func (c *MemoryChannel) Close() error {
	return nil
}

// Len reports how many entries have been appended to a stream.
func (c *MemoryChannel) Len(stream string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stream(stream).entries)
}

// PendingCount reports the size of a group's pending set.
func (c *MemoryChannel) PendingCount(stream, group string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.stream(stream).groups[group]
	if !ok {
		return 0
	}
	return len(g.pending)
}
