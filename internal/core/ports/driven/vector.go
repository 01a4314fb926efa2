package driven

import "context"

// VectorIndex provides cosine-similarity search over the currently
// loaded snapshot of the knowledge base.
//
// The index is read by many concurrent queries and written only during
// ingestion: Reload builds a complete new snapshot and swaps it in
// atomically, so readers see either the previous or the new state,
// never a partial build.
type VectorIndex interface {
	// Search returns at most k chunk IDs whose cosine similarity to
	// query is at least minScore, sorted by non-increasing similarity.
	// Ties are broken by insertion order (earlier-ingested chunk
	// first). Vectors are normalised internally; query need not be.
	Search(ctx context.Context, query []float32, k int, minScore float64) ([]VectorHit, error)

	// Reload rebuilds the snapshot from persistent storage and swaps
	// it in. Readers keep using the previous snapshot until Reload
	// returns successfully.
	Reload(ctx context.Context) error

	// Len returns the number of vectors in the current snapshot.
	Len() int

	// ModelVersion returns the embedding model version the current
	// snapshot was built with, or "" when the snapshot is empty.
	ModelVersion() string

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
