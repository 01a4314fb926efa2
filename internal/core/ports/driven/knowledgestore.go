package driven

import (
	"context"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// KnowledgeStore persists documents, chunks and their embedding vectors.
// Backed by SQLite.
//
// Documents are superseded, not mutated: ReplaceChunks atomically
// removes the previous chunks for a source before inserting the new
// ones, so a reader never observes a half-written document.
type KnowledgeStore interface {
	// SaveDocument stores or replaces a document by SourceID.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// ReplaceChunks atomically replaces all chunks and vectors for a
	// source. Vectors are index-aligned with chunks and tagged with
	// the embedding model version.
	ReplaceChunks(ctx context.Context, sourceID string, chunks []domain.Chunk, vectors [][]float32, modelVersion string) error

	// GetDocument retrieves a document by SourceID.
	GetDocument(ctx context.Context, sourceID string) (*domain.Document, error)

	// GetChunk retrieves a chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// WalkVectors streams every stored vector in insertion order. The
	// walk stops at the first error returned by fn.
	WalkVectors(ctx context.Context, fn func(chunkID string, vector []float32, modelVersion string) error) error

	// Close releases resources.
	Close() error
}
