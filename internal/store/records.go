// Package store provides the per-document metadata record, its status state
// machine, and the binary store for raw document bytes.
package store

import (
	"fmt"
	"time"
)

// Status is the pipeline position of a document. It only moves forward along
// uploaded -> text_ready -> summary_ready, or jumps to error; no stage ever
// downgrades a later status.
type Status string

const (
	// StatusUploaded means the document bytes are stored and queued for extraction.
	StatusUploaded Status = "uploaded"
	// StatusTextReady means extraction succeeded and the text field is set.
	StatusTextReady Status = "text_ready"
	// StatusSummaryReady means summarization succeeded; the pipeline is done.
	StatusSummaryReady Status = "summary_ready"
	// StatusError means the last processing attempt failed; the error field
	// carries the code. A transient failure's error status is overwritten
	// when a later retry succeeds.
	StatusError Status = "error"
)

// ExtractionMode selects the extraction strategy, fixed at ingestion.
type ExtractionMode string

const (
	// ModePlainText extracts text locally, page by page.
	ModePlainText ExtractionMode = "plain_text"
	// ModeMarkdown delegates extraction to the generation service.
	ModeMarkdown ExtractionMode = "markdown"
)

// Failure codes stored in the record's error field.
const (
	ErrCodeBinaryMissing         = "binary_missing"
	ErrCodeTextExtractionFailed  = "text_extraction_failed"
	ErrCodeMissingTextForSummary = "missing_text_for_summary"
	ErrCodeSummaryFailed         = "summary_failed"
)

// Metadata hash field names.
const (
	FieldFileID         = "file_id"
	FieldFilename       = "filename"
	FieldStatus         = "status"
	FieldExtractionMode = "extraction_mode"
	FieldText           = "text"
	FieldSummary        = "summary"
	FieldError          = "error"
	FieldUpdatedAt      = "updated_at"
)

// Redis key templates. The store owns the key layout; entries carry resolved
// keys on the wire but consumers always derive them from the document ID.
const (
	binKeyTemplate  = "pdf:bin:%s"
	metaKeyTemplate = "pdf:meta:%s"
)

// BinKeyFor returns the binary-store key for a document ID.
func BinKeyFor(documentID string) string {
	return fmt.Sprintf(binKeyTemplate, documentID)
}

// MetaKeyFor returns the metadata-store key for a document ID.
func MetaKeyFor(documentID string) string {
	return fmt.Sprintf(metaKeyTemplate, documentID)
}

// DocumentRecord is the metadata record for one uploaded document, the system
// of record for pipeline progress.
type DocumentRecord struct {
	ID             string
	Filename       string
	Status         Status
	ExtractionMode ExtractionMode
	Text           string
	Summary        string
	Error          string
	UpdatedAt      time.Time
}

// NewRecord returns the initial record for a freshly ingested document.
func NewRecord(id, filename string, mode ExtractionMode) *DocumentRecord {
	return &DocumentRecord{
		ID:             id,
		Filename:       filename,
		Status:         StatusUploaded,
		ExtractionMode: mode,
	}
}

// ToFields converts the record to the flat field map persisted in the
// metadata store. The updated_at stamp is applied by the store on write.
func (r *DocumentRecord) ToFields() map[string]string {
	return map[string]string{
		FieldFileID:         r.ID,
		FieldFilename:       r.Filename,
		FieldStatus:         string(r.Status),
		FieldExtractionMode: string(r.ExtractionMode),
		FieldText:           r.Text,
		FieldSummary:        r.Summary,
		FieldError:          r.Error,
	}
}

// RecordFromFields converts a stored field map back to a record. Unknown
// fields are ignored; a malformed timestamp leaves UpdatedAt zero.
func RecordFromFields(fields map[string]string) *DocumentRecord {
	r := &DocumentRecord{
		ID:             fields[FieldFileID],
		Filename:       fields[FieldFilename],
		Status:         Status(fields[FieldStatus]),
		ExtractionMode: ExtractionMode(fields[FieldExtractionMode]),
		Text:           fields[FieldText],
		Summary:        fields[FieldSummary],
		Error:          fields[FieldError],
	}
	if ts := fields[FieldUpdatedAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.UpdatedAt = t
		}
	}
	return r
}
