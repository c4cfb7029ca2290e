package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryMetadataStore implements MetadataStore in process memory for
// development and tests.
type MemoryMetadataStore struct {
	mu      sync.RWMutex
	records map[string]map[string]string
}

// NewMemoryMetadataStore creates an empty in-memory metadata store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{records: make(map[string]map[string]string)}
}

// Get returns the record for a document ID, or ErrNotFound.
func (s *MemoryMetadataStore) Get(_ context.Context, documentID string) (*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields, ok := s.records[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return RecordFromFields(fields), nil
}

// MergeUpdate sets the given fields and stamps updated_at.
func (s *MemoryMetadataStore) MergeUpdate(_ context.Context, documentID string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[documentID]
	if !ok {
		existing = make(map[string]string)
		s.records[documentID] = existing
	}
	for k, v := range fields {
		existing[k] = v
	}
	existing[FieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339Nano)

	return nil
}

// List returns all document records, ordered by ID for stable output.
func (s *MemoryMetadataStore) List(_ context.Context) ([]*DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	records := make([]*DocumentRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, RecordFromFields(s.records[id]))
	}
	return records, nil
}

// MemoryBinaryStore implements BinaryStore in process memory.
type MemoryBinaryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBinaryStore creates an empty in-memory binary store.
func NewMemoryBinaryStore() *MemoryBinaryStore {
	return &MemoryBinaryStore{blobs: make(map[string][]byte)}
}

// Put stores the document bytes.
func (s *MemoryBinaryStore) Put(_ context.Context, documentID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	s.blobs[documentID] = copied
	return nil
}

// Get returns the document bytes, or ErrNotFound.
func (s *MemoryBinaryStore) Get(_ context.Context, documentID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}
