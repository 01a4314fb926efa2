// Package vector provides the in-memory cosine similarity index over
// the knowledge base.
//
// The index is organised around immutable snapshots: ingestion builds a
// complete new Snapshot from persistent storage and the Index swaps it
// in atomically. Concurrent readers keep using the previous snapshot
// until the swap, so a partial build is never queryable.
package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Snapshot is an immutable set of normalised vectors. Entries keep
// their insertion order, which breaks similarity ties (the
// earlier-ingested chunk wins).
type Snapshot struct {
	ids          []string
	vectors      [][]float32
	byID         map[string]int
	dims         int
	modelVersion string
}

// Len returns the number of vectors in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// ModelVersion returns the embedding model version the snapshot was
// built with, or "" when empty.
func (s *Snapshot) ModelVersion() string {
	if s == nil {
		return ""
	}
	return s.modelVersion
}

// Search returns at most k hits with cosine similarity ≥ minScore,
// sorted by non-increasing similarity, ties broken by insertion order.
func (s *Snapshot) Search(query []float32, k int, minScore float64) ([]driven.VectorHit, error) {
	if s.Len() == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != s.dims {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d: %w",
			len(query), s.dims, domain.ErrModelVersionMismatch)
	}

	q := normalise(query)

	type scored struct {
		pos   int
		score float64
	}
	hits := make([]scored, 0, len(s.ids))

	for i, vec := range s.vectors {
		score := dot(q, vec)
		if score >= minScore {
			hits = append(hits, scored{pos: i, score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	results := make([]driven.VectorHit, len(hits))
	for i, h := range hits {
		results[i] = driven.VectorHit{ChunkID: s.ids[h.pos], Similarity: h.score}
	}
	return results, nil
}

// Builder accumulates vectors for a new snapshot. It is not safe for
// concurrent use; one ingest run owns one builder.
type Builder struct {
	snapshot Snapshot
}

// NewBuilder creates an empty snapshot builder.
func NewBuilder() *Builder {
	return &Builder{
		snapshot: Snapshot{byID: make(map[string]int)},
	}
}

// Upsert adds a vector for the given chunk ID, normalising it for
// cosine comparison. Re-inserting an existing ID replaces its vector
// but keeps the original insertion position.
//
// The first vector fixes the builder's dimension and model version;
// any later mismatch returns domain.ErrModelVersionMismatch, since
// similarity across model versions is meaningless and requires a full
// rebuild.
func (b *Builder) Upsert(chunkID string, vec []float32, modelVersion string) error {
	if chunkID == "" || len(vec) == 0 {
		return fmt.Errorf("empty chunk ID or vector: %w", domain.ErrInvalidInput)
	}

	s := &b.snapshot
	if s.dims == 0 {
		s.dims = len(vec)
		s.modelVersion = modelVersion
	}
	if len(vec) != s.dims {
		return fmt.Errorf("vector dimension %d does not match index dimension %d: %w",
			len(vec), s.dims, domain.ErrModelVersionMismatch)
	}
	if modelVersion != s.modelVersion {
		return fmt.Errorf("vector model %q does not match index model %q: %w",
			modelVersion, s.modelVersion, domain.ErrModelVersionMismatch)
	}

	normalised := normalise(vec)
	if pos, ok := s.byID[chunkID]; ok {
		s.vectors[pos] = normalised
		return nil
	}

	s.byID[chunkID] = len(s.ids)
	s.ids = append(s.ids, chunkID)
	s.vectors = append(s.vectors, normalised)
	return nil
}

// Snapshot finalises the builder. The builder must not be used after.
func (b *Builder) Snapshot() *Snapshot {
	return &b.snapshot
}

// Index holds the current snapshot and rebuilds it from the knowledge
// store on demand. All methods are safe for concurrent use.
type Index struct {
	store   driven.KnowledgeStore
	current atomic.Pointer[Snapshot]
}

// NewIndex creates an index backed by the given store. The index is
// empty until the first Reload.
func NewIndex(store driven.KnowledgeStore) *Index {
	return &Index{store: store}
}

// Reload builds a fresh snapshot from the store and swaps it in. On
// error the previous snapshot stays live.
func (i *Index) Reload(ctx context.Context) error {
	builder := NewBuilder()

	err := i.store.WalkVectors(ctx, func(chunkID string, vec []float32, modelVersion string) error {
		return builder.Upsert(chunkID, vec, modelVersion)
	})
	if err != nil {
		return fmt.Errorf("rebuild snapshot: %w", err)
	}

	i.current.Store(builder.Snapshot())
	return nil
}

// Swap replaces the current snapshot directly. Used when the caller
// already built one (e.g. ingest) to avoid a second walk of the store.
func (i *Index) Swap(s *Snapshot) {
	i.current.Store(s)
}

// Search queries the current snapshot. An index with no snapshot
// returns no hits.
func (i *Index) Search(_ context.Context, query []float32, k int, minScore float64) ([]driven.VectorHit, error) {
	return i.current.Load().Search(query, k, minScore)
}

// Len returns the number of vectors in the current snapshot.
func (i *Index) Len() int {
	return i.current.Load().Len()
}

// ModelVersion returns the current snapshot's embedding model version.
func (i *Index) ModelVersion() string {
	return i.current.Load().ModelVersion()
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

// normalise returns a unit-length copy of vec. The zero vector is
// returned as-is and scores 0 against everything.
func normalise(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		out := make([]float32, len(vec))
		return out
	}

	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = v / norm
	}
	return out
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
