// Package stages implements the pipeline's stage processors: extraction and
// summarization. Each processor plugs into the generic stage worker and
// expresses every outcome through the worker's result type.
package stages

import (
	"context"
	"errors"

	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/pdftext"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/store"
	"github.com/docuflow-ai/summary-engine/internal/worker"
)

// GenerationService is the external model boundary used by both stages.
type GenerationService interface {
	// ExtractMarkdown transcribes PDF bytes as markdown text.
	ExtractMarkdown(ctx context.Context, pdf []byte) (string, error)
	// Summarize generates a summary; markdown selects a markdown answer.
	Summarize(ctx context.Context, text string, markdown bool) (string, error)
}

// Extraction consumes ingested entries, turns the stored PDF bytes into
// text, advances the record to text_ready, and appends a text-ready entry.
//
// Re-running on an already-extracted record is safe: the text is overwritten
// with an equivalent value and a duplicate downstream entry is appended,
// which the summarization stage tolerates.
type Extraction struct {
	logger  *observability.Logger
	meta    store.MetadataStore
	bin     store.BinaryStore
	channel queue.Channel
	gen     GenerationService

	// parseText is the local plain-text strategy, replaceable in tests.
	parseText func(data []byte) (string, error)
}

// NewExtraction creates the extraction stage processor.
func NewExtraction(logger *observability.Logger, meta store.MetadataStore, bin store.BinaryStore, channel queue.Channel, gen GenerationService) *Extraction {
	return &Extraction{
		logger:    logger.WithComponent("extraction"),
		meta:      meta,
		bin:       bin,
		channel:   channel,
		gen:       gen,
		parseText: pdftext.Extract,
	}
}

// Name implements worker.Stage.
func (s *Extraction) Name() string { return "extraction" }

// Process implements worker.Stage.
func (s *Extraction) Process(ctx context.Context, entry queue.Entry) worker.Result {
	ent, err := queue.ParseIngestedEntry(entry.Fields)
	if err != nil {
		return worker.FailPermanent(store.ErrCodeTextExtractionFailed, err)
	}

	s.logger.Info().
		Str("document_id", ent.DocumentID).
		Str("extraction_mode", ent.ExtractionMode).
		Msg("Extracting text")

	data, err := s.bin.Get(ctx, ent.DocumentID)
	if errors.Is(err, store.ErrNotFound) {
		// The blob will not appear spontaneously; retrying is pointless.
		return worker.FailPermanent(store.ErrCodeBinaryMissing, err)
	}
	if err != nil {
		return worker.FailTransient(store.ErrCodeTextExtractionFailed, err)
	}

	var text string
	if ent.ExtractionMode == string(store.ModeMarkdown) {
		text, err = s.gen.ExtractMarkdown(ctx, data)
	} else {
		text, err = s.parseText(data)
	}
	if err != nil {
		return worker.FailTransient(store.ErrCodeTextExtractionFailed, err)
	}

	err = s.meta.MergeUpdate(ctx, ent.DocumentID, map[string]string{
		store.FieldStatus: string(store.StatusTextReady),
		store.FieldText:   text,
	})
	if err != nil {
		return worker.FailTransient(store.ErrCodeTextExtractionFailed, err)
	}

	next := queue.TextReadyEntry{
		DocumentID:     ent.DocumentID,
		MetaKey:        ent.MetaKey,
		ExtractionMode: ent.ExtractionMode,
	}
	if _, err := s.channel.Append(ctx, queue.StreamTextReady, next.Fields()); err != nil {
		// The record already advanced; redelivery re-runs extraction
		// idempotently and re-appends.
		return worker.FailTransient(store.ErrCodeTextExtractionFailed, err)
	}

	return worker.Succeed()
}
