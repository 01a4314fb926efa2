// Package memory provides in-memory storage adapters, used by tests and
// as a lightweight stand-in when persistence is not configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

type vectorRecord struct {
	chunkID      string
	vector       []float32
	modelVersion string
}

// KnowledgeStore is an in-memory implementation of driven.KnowledgeStore.
type KnowledgeStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk
	// vectors keeps insertion order; bySource tracks each source's
	// chunk IDs so re-ingestion supersedes them.
	vectors  []vectorRecord
	bySource map[string][]string
}

// NewKnowledgeStore creates an empty in-memory knowledge store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
		bySource:  make(map[string][]string),
	}
}

// SaveDocument stores or replaces a document by SourceID.
func (s *KnowledgeStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.SourceID] = *doc
	return nil
}

// ReplaceChunks atomically replaces all chunks and vectors for a source.
func (s *KnowledgeStore) ReplaceChunks(_ context.Context, sourceID string, chunks []domain.Chunk, vectors [][]float32, modelVersion string) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch (%d vs %d): %w",
			len(chunks), len(vectors), domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.bySource[sourceID] {
		delete(s.chunks, id)
	}
	s.vectors = filterVectors(s.vectors, s.bySource[sourceID])
	s.bySource[sourceID] = nil

	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
		s.vectors = append(s.vectors, vectorRecord{
			chunkID:      chunk.ID,
			vector:       vectors[i],
			modelVersion: modelVersion,
		})
		ids = append(ids, chunk.ID)
	}
	s.bySource[sourceID] = ids

	return nil
}

// GetDocument retrieves a document by SourceID.
func (s *KnowledgeStore) GetDocument(_ context.Context, sourceID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[sourceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a chunk by ID.
func (s *KnowledgeStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// ListDocuments returns all stored documents.
func (s *KnowledgeStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		docs = append(docs, s.documents[id])
	}
	return docs, nil
}

// CountChunks returns the number of stored chunks.
func (s *KnowledgeStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// WalkVectors streams every stored vector in insertion order.
func (s *KnowledgeStore) WalkVectors(_ context.Context, fn func(chunkID string, vector []float32, modelVersion string) error) error {
	s.mu.RLock()
	records := make([]vectorRecord, len(s.vectors))
	copy(records, s.vectors)
	s.mu.RUnlock()

	for _, rec := range records {
		if err := fn(rec.chunkID, rec.vector, rec.modelVersion); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources.
func (s *KnowledgeStore) Close() error {
	return nil
}

func filterVectors(records []vectorRecord, removeIDs []string) []vectorRecord {
	if len(removeIDs) == 0 {
		return records
	}
	remove := make(map[string]bool, len(removeIDs))
	for _, id := range removeIDs {
		remove[id] = true
	}

	kept := records[:0]
	for _, rec := range records {
		if !remove[rec.chunkID] {
			kept = append(kept, rec)
		}
	}
	return kept
}
