package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/store"
)

// Stage is one pipeline phase's processing function. Process must absorb all
// failures from its work and express them only through the returned result;
// on success it is responsible for advancing the record and appending the
// downstream entry before returning.
type Stage interface {
	Name() string
	Process(ctx context.Context, entry queue.Entry) Result
}

// Config holds the wiring of one worker to its stream.
type Config struct {
	Stream   string
	Group    string
	Consumer string
	// BatchSize is the maximum entries fetched per read.
	BatchSize int64
	// Block bounds how long a read blocks when the stream is empty.
	Block time.Duration
	// ErrorSleep is the pause after an infrastructure error before the read
	// loop restarts.
	ErrorSleep time.Duration
}

// Worker runs a Stage against a channel stream as one competing consumer.
// Entries are processed in delivery order, one in flight at a time; scale
// comes from running more workers in the same group.
type Worker struct {
	logger  *observability.Logger
	channel queue.Channel
	meta    store.MetadataStore
	stage   Stage
	cfg     Config
}

// New creates a worker for the given stage.
func New(logger *observability.Logger, channel queue.Channel, meta store.MetadataStore, stage Stage, cfg Config) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	if cfg.ErrorSleep <= 0 {
		cfg.ErrorSleep = time.Second
	}

	return &Worker{
		logger:  logger.WithComponent(stage.Name() + "-worker"),
		channel: channel,
		meta:    meta,
		stage:   stage,
		cfg:     cfg,
	}
}

// Run ensures the consumer group exists and then consumes until the context
// is canceled. It returns an error only when the group cannot be ensured;
// read errors are absorbed with a brief sleep since nothing was consumed.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.channel.CreateGroup(ctx, w.cfg.Stream, w.cfg.Group); err != nil {
		return fmt.Errorf("ensure group %s/%s: %w", w.cfg.Stream, w.cfg.Group, err)
	}

	w.logger.Info().
		Str("stream", w.cfg.Stream).
		Str("group", w.cfg.Group).
		Str("consumer", w.cfg.Consumer).
		Msg("Starting consumer")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("consumer", w.cfg.Consumer).Msg("Consumer stopped")
			return nil
		default:
		}

		entries, err := w.channel.Consume(ctx, w.cfg.Stream, w.cfg.Group, w.cfg.Consumer, w.cfg.BatchSize, w.cfg.Block)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Str("consumer", w.cfg.Consumer).Msg("Consumer stopped")
				return nil
			}
			w.logger.Error().Err(err).Str("stream", w.cfg.Stream).Msg("Failed to read from stream")
			sleepCtx(ctx, w.cfg.ErrorSleep)
			continue
		}

		for _, entry := range entries {
			w.handle(ctx, entry)
		}
	}
}

// handle processes one entry and applies the acknowledgment decision.
func (w *Worker) handle(ctx context.Context, entry queue.Entry) {
	docID := entry.Fields[queue.FieldDocumentID]
	if docID == "" {
		// Poison entry: nothing to process, nothing to mark. Ack so it
		// cannot block the channel.
		w.logger.Warn().Str("entry_id", entry.ID).Msg("Entry missing document_id, dropping")
		w.ack(ctx, entry.ID)
		return
	}

	if entry.DeliveryCount > 1 {
		w.logger.Warn().
			Str("entry_id", entry.ID).
			Str("document_id", docID).
			Int64("delivery_count", entry.DeliveryCount).
			Msg("Entry redelivered")
	}

	res := w.stage.Process(ctx, entry)

	switch res.Disposition {
	case Success:
		w.logger.Info().
			Str("entry_id", entry.ID).
			Str("document_id", docID).
			Msg("Entry processed")
		w.ack(ctx, entry.ID)

	case PermanentFailure:
		w.logger.Error().
			Err(res.Err).
			Str("entry_id", entry.ID).
			Str("document_id", docID).
			Str("code", res.Code).
			Msg("Permanent failure, dropping entry")
		w.markError(ctx, docID, res.Code)
		w.ack(ctx, entry.ID)

	case TransientFailure:
		// Leave the entry pending: it will be redelivered after the
		// channel's liveness timeout and a later success overwrites the
		// error status.
		w.logger.Error().
			Err(res.Err).
			Str("entry_id", entry.ID).
			Str("document_id", docID).
			Str("code", res.Code).
			Msg("Transient failure, leaving entry pending for retry")
		w.markError(ctx, docID, res.Code)
	}
}

func (w *Worker) ack(ctx context.Context, entryID string) {
	if err := w.channel.Ack(ctx, w.cfg.Stream, w.cfg.Group, entryID); err != nil {
		// The entry stays pending and will be redelivered; processing is
		// idempotent so the repeat is harmless.
		w.logger.Warn().Err(err).Str("entry_id", entryID).Msg("Failed to acknowledge entry")
	}
}

func (w *Worker) markError(ctx context.Context, documentID, code string) {
	err := w.meta.MergeUpdate(ctx, documentID, map[string]string{
		store.FieldStatus: string(store.StatusError),
		store.FieldError:  code,
	})
	if err != nil {
		w.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to mark record as errored")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Pool runs N workers for the same stage, each with a unique consumer name,
// all competing in one group.
type Pool struct {
	logger  *observability.Logger
	channel queue.Channel
	meta    store.MetadataStore
	stage   Stage
	cfg     Config
	size    int
}

// NewPool creates a worker pool. The configured consumer name becomes the
// prefix for each worker's unique identity.
func NewPool(logger *observability.Logger, channel queue.Channel, meta store.MetadataStore, stage Stage, cfg Config, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		logger:  logger,
		channel: channel,
		meta:    meta,
		stage:   stage,
		cfg:     cfg,
		size:    size,
	}
}

// Run starts all workers and blocks until the context is canceled and every
// worker has returned. The first group-creation failure is returned.
func (p *Pool) Run(ctx context.Context) error {
	errs := make(chan error, p.size)

	for i := 0; i < p.size; i++ {
		cfg := p.cfg
		cfg.Consumer = fmt.Sprintf("%s-%d", p.cfg.Consumer, i+1)

		w := New(p.logger, p.channel, p.meta, p.stage, cfg)
		go func() {
			errs <- w.Run(ctx)
		}()
	}

	var first error
	for i := 0; i < p.size; i++ {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ConsumerName builds a unique consumer identity for this process.
func ConsumerName(stage string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	return fmt.Sprintf("%s-%s-%d", stage, host, os.Getpid())
}
