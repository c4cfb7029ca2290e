package stages

import (
	"context"
	"errors"
	"strings"

	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/store"
	"github.com/docuflow-ai/summary-engine/internal/worker"
)

// Summarization consumes text-ready entries, reads the extracted text fresh
// from the metadata store (the text may be large and the store is the source
// of truth), generates a summary, advances the record to summary_ready, and
// appends a completion entry.
type Summarization struct {
	logger  *observability.Logger
	meta    store.MetadataStore
	channel queue.Channel
	gen     GenerationService
}

// NewSummarization creates the summarization stage processor.
func NewSummarization(logger *observability.Logger, meta store.MetadataStore, channel queue.Channel, gen GenerationService) *Summarization {
	return &Summarization{
		logger:  logger.WithComponent("summarization"),
		meta:    meta,
		channel: channel,
		gen:     gen,
	}
}

// Name implements worker.Stage.
func (s *Summarization) Name() string { return "summarization" }

// Process implements worker.Stage.
func (s *Summarization) Process(ctx context.Context, entry queue.Entry) worker.Result {
	ent, err := queue.ParseTextReadyEntry(entry.Fields)
	if err != nil {
		return worker.FailPermanent(store.ErrCodeSummaryFailed, err)
	}

	s.logger.Info().
		Str("document_id", ent.DocumentID).
		Msg("Generating summary")

	rec, err := s.meta.Get(ctx, ent.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		// No record means no text to summarize, and none will appear.
		return worker.FailPermanent(store.ErrCodeMissingTextForSummary, err)
	}
	if err != nil {
		return worker.FailTransient(store.ErrCodeSummaryFailed, err)
	}

	if strings.TrimSpace(rec.Text) == "" {
		return worker.FailPermanent(store.ErrCodeMissingTextForSummary, nil)
	}

	// The entry carries the mode so this stage normally never re-reads it;
	// the record is the fallback when the field is absent.
	mode := ent.ExtractionMode
	if mode == "" {
		mode = string(rec.ExtractionMode)
	}
	markdown := mode == string(store.ModeMarkdown)

	summary, err := s.gen.Summarize(ctx, rec.Text, markdown)
	if err != nil {
		return worker.FailTransient(store.ErrCodeSummaryFailed, err)
	}
	if strings.TrimSpace(summary) == "" {
		// A blank summary is not a valid output.
		return worker.FailTransient(store.ErrCodeSummaryFailed, nil)
	}

	err = s.meta.MergeUpdate(ctx, ent.DocumentID, map[string]string{
		store.FieldStatus:  string(store.StatusSummaryReady),
		store.FieldSummary: summary,
	})
	if err != nil {
		return worker.FailTransient(store.ErrCodeSummaryFailed, err)
	}

	next := queue.SummaryReadyEntry{
		DocumentID: ent.DocumentID,
		MetaKey:    ent.MetaKey,
	}
	if _, err := s.channel.Append(ctx, queue.StreamSummaryReady, next.Fields()); err != nil {
		return worker.FailTransient(store.ErrCodeSummaryFailed, err)
	}

	return worker.Succeed()
}
