package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryChannelAppendConsumeAck(t *testing.T) {
	ctx := context.Background()
	ch := NewMemoryChannel()

	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))

	id1, err := ch.Append(ctx, "stream", map[string]string{"document_id": "a"})
	require.NoError(t, err)
	id2, err := ch.Append(ctx, "stream", map[string]string{"document_id": "b"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	entries, err := ch.Consume(ctx, "stream", "group", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Fields["document_id"])
	assert.Equal(t, "b", entries[1].Fields["document_id"])
	assert.Equal(t, int64(1), entries[0].DeliveryCount)

	// Both remain pending until acked
	assert.Equal(t, 2, ch.PendingCount("stream", "group"))

	require.NoError(t, ch.Ack(ctx, "stream", "group", entries[0].ID))
	assert.Equal(t, 1, ch.PendingCount("stream", "group"))

	// Acking twice is a no-op
	require.NoError(t, ch.Ack(ctx, "stream", "group", entries[0].ID))
	assert.Equal(t, 1, ch.PendingCount("stream", "group"))
}

func TestMemoryChannelCompetingConsumers(t *testing.T) {
	ctx := context.Background()
	ch := NewMemoryChannel()

	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))

	_, err := ch.Append(ctx, "stream", map[string]string{"document_id": "a"})
	require.NoError(t, err)
	_, err = ch.Append(ctx, "stream", map[string]string{"document_id": "b"})
	require.NoError(t, err)

	first, err := ch.Consume(ctx, "stream", "group", "c1", 1, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A second consumer in the same group never sees c1's pending entry.
	second, err := ch.Consume(ctx, "stream", "group", "c2", 10, 0)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
}

func TestMemoryChannelIndependentGroups(t *testing.T) {
	ctx := context.Background()
	ch := NewMemoryChannel()

	require.NoError(t, ch.CreateGroup(ctx, "stream", "g1"))
	require.NoError(t, ch.CreateGroup(ctx, "stream", "g2"))

	_, err := ch.Append(ctx, "stream", map[string]string{"document_id": "a"})
	require.NoError(t, err)

	e1, err := ch.Consume(ctx, "stream", "g1", "c", 10, 0)
	require.NoError(t, err)
	e2, err := ch.Consume(ctx, "stream", "g2", "c", 10, 0)
	require.NoError(t, err)

	// Every group observes every entry
	require.Len(t, e1, 1)
	require.Len(t, e2, 1)
	assert.Equal(t, e1[0].ID, e2[0].ID)
}

func TestMemoryChannelCreateGroupIdempotent(t *testing.T) {
	ctx := context.Background()
	ch := NewMemoryChannel()

	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))

	_, err := ch.Append(ctx, "stream", map[string]string{"document_id": "a"})
	require.NoError(t, err)

	entries, err := ch.Consume(ctx, "stream", "group", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Re-creating the group must not reset the cursor or drop pending state.
	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))

	again, err := ch.Consume(ctx, "stream", "group", "c1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 1, ch.PendingCount("stream", "group"))
}

func TestMemoryChannelReclaimsAbandonedEntries(t *testing.T) {
	ctx := context.Background()
	ch := NewMemoryChannelWithReclaim(0)

	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))

	_, err := ch.Append(ctx, "stream", map[string]string{"document_id": "a"})
	require.NoError(t, err)

	first, err := ch.Consume(ctx, "stream", "group", "crashed", 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// The crashed consumer never acks; a survivor picks the entry up with an
	// incremented delivery count.
	second, err := ch.Consume(ctx, "stream", "group", "survivor", 10, 0)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, int64(2), second[0].DeliveryCount)
}

func TestMemoryChannelConsumeBlocksUntilAppend(t *testing.T) {
	ctx := context.Background()
	ch := NewMemoryChannel()

	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = ch.Append(ctx, "stream", map[string]string{"document_id": "a"})
	}()

	entries, err := ch.Consume(ctx, "stream", "group", "c1", 10, 500*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestMemoryChannelConsumeTimesOutEmpty(t *testing.T) {
	ctx := context.Background()
	ch := NewMemoryChannel()

	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))

	entries, err := ch.Consume(ctx, "stream", "group", "c1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
