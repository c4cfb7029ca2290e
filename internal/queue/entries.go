package queue

import (
	"errors"

	"github.com/docuflow-ai/summary-engine/internal/store"
)

// Wire field names shared by all entry kinds.
const (
	FieldDocumentID     = "document_id"
	FieldBinKey         = "bin_key"
	FieldMetaKey        = "meta_key"
	FieldFilename       = "filename"
	FieldExtractionMode = "extraction_mode"
)

// ErrMissingDocumentID marks a malformed (poison) entry: without a document
// ID there is nothing to process and nothing to mark failed, so workers
// acknowledge and drop it.
var ErrMissingDocumentID = errors.New("entry missing document_id")

// IngestedEntry is appended by the ingestion boundary and consumed by the
// extraction stage.
type IngestedEntry struct {
	DocumentID     string
	BinKey         string
	MetaKey        string
	Filename       string
	ExtractionMode string
}

// Fields converts the entry to its wire representation.
func (e IngestedEntry) Fields() map[string]string {
	return map[string]string{
		FieldDocumentID:     e.DocumentID,
		FieldBinKey:         e.BinKey,
		FieldMetaKey:        e.MetaKey,
		FieldFilename:       e.Filename,
		FieldExtractionMode: e.ExtractionMode,
	}
}

// ParseIngestedEntry converts wire fields to a typed entry. Missing keys are
// derived from the document ID; a missing document ID is a poison entry.
func ParseIngestedEntry(fields map[string]string) (IngestedEntry, error) {
	docID := fields[FieldDocumentID]
	if docID == "" {
		return IngestedEntry{}, ErrMissingDocumentID
	}

	e := IngestedEntry{
		DocumentID:     docID,
		BinKey:         fields[FieldBinKey],
		MetaKey:        fields[FieldMetaKey],
		Filename:       fields[FieldFilename],
		ExtractionMode: fields[FieldExtractionMode],
	}
	if e.BinKey == "" {
		e.BinKey = store.BinKeyFor(docID)
	}
	if e.MetaKey == "" {
		e.MetaKey = store.MetaKeyFor(docID)
	}

	return e, nil
}

// TextReadyEntry is appended by the extraction stage and consumed by the
// summarization stage. The extracted text itself travels through the
// metadata store, not the channel.
type TextReadyEntry struct {
	DocumentID     string
	MetaKey        string
	ExtractionMode string
}

// Fields converts the entry to its wire representation.
func (e TextReadyEntry) Fields() map[string]string {
	return map[string]string{
		FieldDocumentID:     e.DocumentID,
		FieldMetaKey:        e.MetaKey,
		FieldExtractionMode: e.ExtractionMode,
	}
}

// ParseTextReadyEntry converts wire fields to a typed entry.
func ParseTextReadyEntry(fields map[string]string) (TextReadyEntry, error) {
	docID := fields[FieldDocumentID]
	if docID == "" {
		return TextReadyEntry{}, ErrMissingDocumentID
	}

	e := TextReadyEntry{
		DocumentID:     docID,
		MetaKey:        fields[FieldMetaKey],
		ExtractionMode: fields[FieldExtractionMode],
	}
	if e.MetaKey == "" {
		e.MetaKey = store.MetaKeyFor(docID)
	}

	return e, nil
}

// SummaryReadyEntry is appended by the summarization stage. Nothing in this
// system consumes it; it exists for future stages.
type SummaryReadyEntry struct {
	DocumentID string
	MetaKey    string
}

// Fields converts the entry to its wire representation.
func (e SummaryReadyEntry) Fields() map[string]string {
	return map[string]string{
		FieldDocumentID: e.DocumentID,
		FieldMetaKey:    e.MetaKey,
	}
}

// ParseSummaryReadyEntry converts wire fields to a typed entry.
func ParseSummaryReadyEntry(fields map[string]string) (SummaryReadyEntry, error) {
	docID := fields[FieldDocumentID]
	if docID == "" {
		return SummaryReadyEntry{}, ErrMissingDocumentID
	}

	e := SummaryReadyEntry{
		DocumentID: docID,
		MetaKey:    fields[FieldMetaKey],
	}
	if e.MetaKey == "" {
		e.MetaKey = store.MetaKeyFor(docID)
	}

	return e, nil
}
