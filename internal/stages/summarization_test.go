package stages

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/store"
	"github.com/docuflow-ai/summary-engine/internal/worker"
)

func newSummarizationFixture(gen GenerationService) (*Summarization, *store.MemoryMetadataStore, *queue.MemoryChannel) {
	meta := store.NewMemoryMetadataStore()
	ch := queue.NewMemoryChannel()
	stage := NewSummarization(observability.Nop(), meta, ch, gen)
	return stage, meta, ch
}

func textReadyEntry(docID, mode string) queue.Entry {
	return queue.Entry{
		ID: "1-0",
		Fields: queue.TextReadyEntry{
			DocumentID:     docID,
			ExtractionMode: mode,
		}.Fields(),
	}
}

func seedTextReady(t *testing.T, meta *store.MemoryMetadataStore, docID, text string, mode store.ExtractionMode) {
	t.Helper()
	rec := store.NewRecord(docID, "report.pdf", mode)
	rec.Status = store.StatusTextReady
	rec.Text = text
	require.NoError(t, meta.MergeUpdate(context.Background(), docID, rec.ToFields()))
}

func TestSummarizationSuccess(t *testing.T) {
	ctx := context.Background()

	var gotText string
	var gotMarkdown bool
	gen := &fakeGen{summarizeFn: func(_ context.Context, text string, markdown bool) (string, error) {
		gotText = text
		gotMarkdown = markdown
		return "a concise summary", nil
	}}
	stage, meta, ch := newSummarizationFixture(gen)

	seedTextReady(t, meta, "doc-1", "the extracted body", store.ModePlainText)

	res := stage.Process(ctx, textReadyEntry("doc-1", "plain_text"))
	assert.Equal(t, worker.Success, res.Disposition)
	assert.Equal(t, "the extracted body", gotText)
	assert.False(t, gotMarkdown)

	rec, err := meta.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusSummaryReady, rec.Status)
	assert.Equal(t, "a concise summary", rec.Summary)
	assert.Equal(t, "the extracted body", rec.Text)

	assert.Equal(t, 1, ch.Len(queue.StreamSummaryReady))
}

func TestSummarizationMarkdownFlagFromEntry(t *testing.T) {
	ctx := context.Background()

	var gotMarkdown bool
	gen := &fakeGen{summarizeFn: func(_ context.Context, _ string, markdown bool) (string, error) {
		gotMarkdown = markdown
		return "# Summary", nil
	}}
	stage, meta, _ := newSummarizationFixture(gen)

	seedTextReady(t, meta, "doc-1", "# Heading\n\nbody", store.ModeMarkdown)

	res := stage.Process(ctx, textReadyEntry("doc-1", "markdown"))
	assert.Equal(t, worker.Success, res.Disposition)
	assert.True(t, gotMarkdown)
}

func TestSummarizationMarkdownFlagFallsBackToRecord(t *testing.T) {
	ctx := context.Background()

	var gotMarkdown bool
	gen := &fakeGen{summarizeFn: func(_ context.Context, _ string, markdown bool) (string, error) {
		gotMarkdown = markdown
		return "# Summary", nil
	}}
	stage, meta, _ := newSummarizationFixture(gen)

	seedTextReady(t, meta, "doc-1", "# Heading\n\nbody", store.ModeMarkdown)

	// Entry without the mode field, as an older producer would write it
	res := stage.Process(ctx, textReadyEntry("doc-1", ""))
	assert.Equal(t, worker.Success, res.Disposition)
	assert.True(t, gotMarkdown)
}

func TestSummarizationMissingRecordIsPermanent(t *testing.T) {
	ctx := context.Background()
	stage, _, ch := newSummarizationFixture(&fakeGen{})

	res := stage.Process(ctx, textReadyEntry("doc-1", "plain_text"))
	assert.Equal(t, worker.PermanentFailure, res.Disposition)
	assert.Equal(t, store.ErrCodeMissingTextForSummary, res.Code)
	assert.Equal(t, 0, ch.Len(queue.StreamSummaryReady))
}

func TestSummarizationWhitespaceTextIsPermanent(t *testing.T) {
	ctx := context.Background()
	stage, meta, ch := newSummarizationFixture(&fakeGen{})

	seedTextReady(t, meta, "doc-1", "   \n\t  ", store.ModePlainText)

	res := stage.Process(ctx, textReadyEntry("doc-1", "plain_text"))
	assert.Equal(t, worker.PermanentFailure, res.Disposition)
	assert.Equal(t, store.ErrCodeMissingTextForSummary, res.Code)
	assert.Equal(t, 0, ch.Len(queue.StreamSummaryReady))
}

func TestSummarizationModelFailureIsTransient(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGen{summarizeFn: func(context.Context, string, bool) (string, error) {
		return "", errors.New("model unavailable")
	}}
	stage, meta, ch := newSummarizationFixture(gen)

	seedTextReady(t, meta, "doc-1", "body", store.ModePlainText)

	res := stage.Process(ctx, textReadyEntry("doc-1", "plain_text"))
	assert.Equal(t, worker.TransientFailure, res.Disposition)
	assert.Equal(t, store.ErrCodeSummaryFailed, res.Code)
	assert.Equal(t, 0, ch.Len(queue.StreamSummaryReady))
}

func TestSummarizationBlankSummaryIsTransient(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGen{summarizeFn: func(context.Context, string, bool) (string, error) {
		return "   ", nil
	}}
	stage, meta, _ := newSummarizationFixture(gen)

	seedTextReady(t, meta, "doc-1", "body", store.ModePlainText)

	res := stage.Process(ctx, textReadyEntry("doc-1", "plain_text"))
	assert.Equal(t, worker.TransientFailure, res.Disposition)
	assert.Equal(t, store.ErrCodeSummaryFailed, res.Code)
}

func TestSummarizationReprocessingIsIdempotent(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGen{summarizeFn: func(context.Context, string, bool) (string, error) {
		return "a concise summary", nil
	}}
	stage, meta, ch := newSummarizationFixture(gen)

	seedTextReady(t, meta, "doc-1", "body", store.ModePlainText)

	entry := textReadyEntry("doc-1", "plain_text")
	require.Equal(t, worker.Success, stage.Process(ctx, entry).Disposition)
	require.Equal(t, worker.Success, stage.Process(ctx, entry).Disposition)

	rec, err := meta.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusSummaryReady, rec.Status)
	assert.Equal(t, "a concise summary", rec.Summary)
	assert.Equal(t, 2, ch.Len(queue.StreamSummaryReady))
}
