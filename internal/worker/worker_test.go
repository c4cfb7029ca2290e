package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/store"
)

type stubStage struct {
	process func(ctx context.Context, entry queue.Entry) Result
	called  int
}

func (s *stubStage) Name() string { return "stub" }

func (s *stubStage) Process(ctx context.Context, entry queue.Entry) Result {
	s.called++
	return s.process(ctx, entry)
}

func newTestWorker(stage Stage) (*Worker, *queue.MemoryChannel, *store.MemoryMetadataStore) {
	ch := queue.NewMemoryChannel()
	meta := store.NewMemoryMetadataStore()
	w := New(observability.Nop(), ch, meta, stage, Config{
		Stream:   "stream",
		Group:    "group",
		Consumer: "c1",
	})
	return w, ch, meta
}

// deliver appends fields and consumes them back so the entry is pending, the
// state a worker sees it in.
func deliver(t *testing.T, ch *queue.MemoryChannel, fields map[string]string) queue.Entry {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, ch.CreateGroup(ctx, "stream", "group"))
	_, err := ch.Append(ctx, "stream", fields)
	require.NoError(t, err)

	entries, err := ch.Consume(ctx, "stream", "group", "c1", 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}

func TestWorkerAcksOnSuccess(t *testing.T) {
	stage := &stubStage{process: func(context.Context, queue.Entry) Result {
		return Succeed()
	}}
	w, ch, meta := newTestWorker(stage)

	entry := deliver(t, ch, map[string]string{queue.FieldDocumentID: "doc-1"})
	w.handle(context.Background(), entry)

	assert.Equal(t, 1, stage.called)
	assert.Equal(t, 0, ch.PendingCount("stream", "group"))

	// Success never writes an error status
	_, err := meta.Get(context.Background(), "doc-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWorkerDropsMalformedEntry(t *testing.T) {
	stage := &stubStage{process: func(context.Context, queue.Entry) Result {
		return Succeed()
	}}
	w, ch, meta := newTestWorker(stage)

	entry := deliver(t, ch, map[string]string{"filename": "orphan.pdf"})
	w.handle(context.Background(), entry)

	// Acked without being processed and without any record mutation
	assert.Equal(t, 0, stage.called)
	assert.Equal(t, 0, ch.PendingCount("stream", "group"))

	records, err := meta.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWorkerPermanentFailureMarksErrorAndAcks(t *testing.T) {
	stage := &stubStage{process: func(context.Context, queue.Entry) Result {
		return FailPermanent(store.ErrCodeBinaryMissing, errors.New("no blob"))
	}}
	w, ch, meta := newTestWorker(stage)

	entry := deliver(t, ch, map[string]string{queue.FieldDocumentID: "doc-1"})
	w.handle(context.Background(), entry)

	assert.Equal(t, 0, ch.PendingCount("stream", "group"))

	rec, err := meta.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusError, rec.Status)
	assert.Equal(t, store.ErrCodeBinaryMissing, rec.Error)
}

func TestWorkerTransientFailureLeavesEntryPending(t *testing.T) {
	stage := &stubStage{process: func(context.Context, queue.Entry) Result {
		return FailTransient(store.ErrCodeSummaryFailed, errors.New("model unavailable"))
	}}
	w, ch, meta := newTestWorker(stage)

	entry := deliver(t, ch, map[string]string{queue.FieldDocumentID: "doc-1"})
	w.handle(context.Background(), entry)

	// Not acked: the entry remains pending for redelivery
	assert.Equal(t, 1, ch.PendingCount("stream", "group"))

	rec, err := meta.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusError, rec.Status)
	assert.Equal(t, store.ErrCodeSummaryFailed, rec.Error)
}

func TestWorkerRetrySuccessOverwritesErrorStatus(t *testing.T) {
	meta := store.NewMemoryMetadataStore()

	// A successful stage advances the record itself; the first attempt fails
	// transiently.
	attempts := 0
	stage := &stubStage{process: func(ctx context.Context, entry queue.Entry) Result {
		attempts++
		if attempts == 1 {
			return FailTransient(store.ErrCodeTextExtractionFailed, errors.New("flaky"))
		}
		_ = meta.MergeUpdate(ctx, entry.Fields[queue.FieldDocumentID], map[string]string{
			store.FieldStatus: string(store.StatusTextReady),
		})
		return Succeed()
	}}

	ch := queue.NewMemoryChannel()
	w := New(observability.Nop(), ch, meta, stage, Config{
		Stream:   "stream",
		Group:    "group",
		Consumer: "c1",
	})

	entry := deliver(t, ch, map[string]string{queue.FieldDocumentID: "doc-1"})
	w.handle(context.Background(), entry)

	rec, err := meta.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusError, rec.Status)

	// Redelivery of the same entry succeeds and the stage's own write wins
	w.handle(context.Background(), entry)

	rec, err = meta.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusTextReady, rec.Status)
	assert.Equal(t, 0, ch.PendingCount("stream", "group"))
}

func TestWorkerRunConsumesUntilCanceled(t *testing.T) {
	processed := make(chan string, 1)
	stage := &stubStage{process: func(_ context.Context, entry queue.Entry) Result {
		processed <- entry.Fields[queue.FieldDocumentID]
		return Succeed()
	}}

	ch := queue.NewMemoryChannel()
	meta := store.NewMemoryMetadataStore()
	w := New(observability.Nop(), ch, meta, stage, Config{
		Stream:   "stream",
		Group:    "group",
		Consumer: "c1",
		Block:    20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	_, err := ch.Append(ctx, "stream", map[string]string{queue.FieldDocumentID: "doc-1"})
	require.NoError(t, err)

	select {
	case docID := <-processed:
		assert.Equal(t, "doc-1", docID)
	case <-time.After(2 * time.Second):
		t.Fatal("entry was not processed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestConsumerName(t *testing.T) {
	name := ConsumerName("extraction")
	assert.True(t, strings.HasPrefix(name, "extraction-"))
	assert.NotEqual(t, "extraction-", name)
}
