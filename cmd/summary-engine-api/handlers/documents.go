// Package handlers provides HTTP handlers for the summary engine API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docuflow-ai/summary-engine/internal/observability"
	"github.com/docuflow-ai/summary-engine/internal/queue"
	"github.com/docuflow-ai/summary-engine/internal/store"
)

// allowedContentTypes are the multipart content types accepted for upload.
var allowedContentTypes = map[string]bool{
	"application/pdf":   true,
	"application/x-pdf": true,
}

// DocumentHandler handles document upload and status requests.
type DocumentHandler struct {
	logger         *observability.Logger
	meta           store.MetadataStore
	bin            store.BinaryStore
	channel        queue.Channel
	maxUploadBytes int64
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(logger *observability.Logger, meta store.MetadataStore, bin store.BinaryStore, channel queue.Channel, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{
		logger:         logger,
		meta:           meta,
		bin:            bin,
		channel:        channel,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadResponseDTO represents the API response for an accepted upload.
type UploadResponseDTO struct {
	FileID string `json:"file_id"`
	Status string `json:"status"`
}

// DocumentDTO represents a document record in API responses.
type DocumentDTO struct {
	FileID         string `json:"file_id"`
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	ExtractionMode string `json:"extraction_mode"`
	Text           string `json:"text,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Error          string `json:"error,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// DocumentListDTO represents the API response for a document listing.
type DocumentListDTO struct {
	Documents []DocumentDTO `json:"documents"`
	Count     int           `json:"count"`
}

// Upload handles POST /api/v1/documents. The upload is accepted once the
// bytes, the initial record, and the ingested entry are all in place; the
// pipeline does the rest asynchronously.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = string(store.ModePlainText)
	}
	if mode != string(store.ModePlainText) && mode != string(store.ModeMarkdown) {
		h.writeError(w, http.StatusBadRequest, "invalid extraction mode", "mode must be plain_text or markdown")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required", err.Error())
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedContentTypes[contentType] {
		h.writeError(w, http.StatusBadRequest, "only PDF files are supported", "got "+contentType)
		return
	}

	// Read one byte past the cap so an oversized upload is detectable
	// without buffering the whole thing.
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read upload", err.Error())
		return
	}
	if len(data) == 0 {
		h.writeError(w, http.StatusBadRequest, "uploaded file is empty", "")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.writeError(w, http.StatusBadRequest, "PDF exceeds the size limit", "")
		return
	}

	id := uuid.New().String()

	if err := h.bin.Put(ctx, id, data); err != nil {
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to store document bytes")
		h.writeError(w, http.StatusInternalServerError, "unable to store PDF", "")
		return
	}

	rec := store.NewRecord(id, header.Filename, store.ExtractionMode(mode))
	if err := h.meta.MergeUpdate(ctx, id, rec.ToFields()); err != nil {
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to create document record")
		h.writeError(w, http.StatusInternalServerError, "unable to record PDF metadata", "")
		return
	}

	entry := queue.IngestedEntry{
		DocumentID:     id,
		BinKey:         store.BinKeyFor(id),
		MetaKey:        store.MetaKeyFor(id),
		Filename:       header.Filename,
		ExtractionMode: mode,
	}
	if _, err := h.channel.Append(ctx, queue.StreamIngested, entry.Fields()); err != nil {
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to enqueue document")
		h.writeError(w, http.StatusInternalServerError, "unable to enqueue PDF for processing", "")
		return
	}

	h.logger.Info().
		Str("document_id", id).
		Str("filename", header.Filename).
		Str("extraction_mode", mode).
		Int("size_bytes", len(data)).
		Msg("Document ingested")

	h.writeJSON(w, http.StatusAccepted, UploadResponseDTO{
		FileID: id,
		Status: string(store.StatusUploaded),
	})
}

// Status handles GET /api/v1/documents/{documentId}.
func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "documentId")

	rec, err := h.meta.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "document not found", "")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("document_id", id).Msg("Failed to load document record")
		h.writeError(w, http.StatusInternalServerError, "unable to load document", "")
		return
	}

	h.writeJSON(w, http.StatusOK, toDocumentDTO(rec))
}

// List handles GET /api/v1/documents.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.meta.List(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list document records")
		h.writeError(w, http.StatusInternalServerError, "unable to list documents", "")
		return
	}

	resp := DocumentListDTO{Documents: make([]DocumentDTO, 0, len(records))}
	for _, rec := range records {
		resp.Documents = append(resp.Documents, toDocumentDTO(rec))
	}
	resp.Count = len(resp.Documents)

	h.writeJSON(w, http.StatusOK, resp)
}

func toDocumentDTO(rec *store.DocumentRecord) DocumentDTO {
	dto := DocumentDTO{
		FileID:         rec.ID,
		Filename:       rec.Filename,
		Status:         string(rec.Status),
		ExtractionMode: string(rec.ExtractionMode),
		Text:           rec.Text,
		Summary:        rec.Summary,
		Error:          rec.Error,
	}
	if !rec.UpdatedAt.IsZero() {
		dto.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339Nano)
	}
	return dto
}

func (h *DocumentHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *DocumentHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
