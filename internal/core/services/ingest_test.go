package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetta-labs/coursetta/internal/adapters/driven/storage/memory"
	"github.com/coursetta-labs/coursetta/internal/adapters/driven/vector"
	"github.com/coursetta-labs/coursetta/internal/chunker"
	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// countingEmbedding produces a deterministic vector per text and
// tolerates concurrent use.
type countingEmbedding struct {
	mu      sync.Mutex
	batches int
	fail    bool
	model   string
}

func (m *countingEmbedding) vectorFor(text string) []float32 {
	return []float32{float32(len(text)), 1, 0}
}

func (m *countingEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (m *countingEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches++
	fail := m.fail
	m.mu.Unlock()
	if fail {
		return nil, fmt.Errorf("embedding down: %w", domain.ErrBackendUnavailable)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *countingEmbedding) EmbedImage(ctx context.Context, data []byte, mimeType string) ([]float32, error) {
	return []float32{0, 0, 1}, nil
}

func (m *countingEmbedding) Dimensions() int { return 3 }

func (m *countingEmbedding) ModelVersion() string {
	if m.model == "" {
		return testModel
	}
	return m.model
}

func (m *countingEmbedding) Close() error { return nil }

func newIngest(t *testing.T, emb *countingEmbedding) (*IngestService, *memory.KnowledgeStore, *vector.Index) {
	t.Helper()
	store := memory.NewKnowledgeStore()
	idx := vector.NewIndex(store)
	ck := chunker.New(chunker.WithTargetSize(40), chunker.WithMaxSize(60))
	return NewIngestService(ck, emb, store, idx), store, idx
}

func coursePage(id, title, text string) domain.Document {
	return domain.Document{
		SourceID: id,
		Origin:   domain.OriginCoursePage,
		Title:    title,
		URL:      "https://course.example.com/" + id,
		RawText:  text,
	}
}

func TestIngest_BuildsKnowledgeBase(t *testing.T) {
	emb := &countingEmbedding{}
	svc, store, idx := newIngest(t, emb)
	ctx := context.Background()

	docs := []domain.Document{
		coursePage("d1", "Homework 1", "Homework 1 is due Friday at noon. Submit via the course portal before then."),
		coursePage("d2", "Syllabus", strings.Repeat("The syllabus covers dynamic programming. ", 6)),
	}

	stats, err := svc.Ingest(ctx, docs)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Documents)
	assert.Zero(t, stats.Skipped)
	assert.Greater(t, stats.Chunks, 2)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Chunks, count)

	// Snapshot was rebuilt and swapped in.
	assert.Equal(t, stats.Chunks, idx.Len())
	assert.Equal(t, testModel, idx.ModelVersion())

	hits, err := idx.Search(ctx, []float32{40, 1, 0}, 3, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestIngest_SkipsEmptyDocuments(t *testing.T) {
	svc, store, _ := newIngest(t, &countingEmbedding{})
	ctx := context.Background()

	stats, err := svc.Ingest(ctx, []domain.Document{
		coursePage("d1", "Empty", "   \n\n  "),
		coursePage("d2", "Real", "Actual course content lives here and gets chunked."),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Skipped)

	_, err = store.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_ReingestSupersedes(t *testing.T) {
	svc, store, idx := newIngest(t, &countingEmbedding{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, []domain.Document{
		coursePage("d1", "Homework 1", "Original deadline: Friday. Original venue: room 2. Original weighting: ten percent."),
	})
	require.NoError(t, err)
	before := idx.Len()

	stats, err := svc.Ingest(ctx, []domain.Document{
		coursePage("d1", "Homework 1", "Updated deadline: Monday."),
	})
	require.NoError(t, err)

	// Old chunks for d1 are gone, only the new ones remain.
	assert.Equal(t, stats.Chunks, idx.Len())
	assert.NotEqual(t, before, idx.Len())

	chunk, err := store.GetChunk(ctx, "d1#0")
	require.NoError(t, err)
	assert.Contains(t, chunk.Content, "Updated deadline")
}

func TestIngest_InvalidDocument(t *testing.T) {
	svc, store, _ := newIngest(t, &countingEmbedding{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, []domain.Document{
		{SourceID: "", Origin: domain.OriginCoursePage, RawText: "text"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ingest(ctx, []domain.Document{
		{SourceID: "d1", Origin: "wiki", RawText: "text"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngest_EmbeddingFailureLeavesStoreUntouched(t *testing.T) {
	emb := &countingEmbedding{fail: true}
	svc, store, idx := newIngest(t, emb)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, []domain.Document{
		coursePage("d1", "Homework 1", "Some content that would have been embedded."),
	})
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)

	count, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, idx.Len())
}

func TestIngest_ModelVersionConflictIsFatal(t *testing.T) {
	emb := &countingEmbedding{}
	svc, store, _ := newIngest(t, emb)
	ctx := context.Background()

	// Vectors from a previous model generation are already stored.
	require.NoError(t, store.ReplaceChunks(ctx, "old",
		[]domain.Chunk{{ID: "old#0", SourceID: "old", Content: "stale", Position: 0, Length: 5}},
		[][]float32{{1, 1, 1}}, "text-embedding-ada-002"))

	_, err := svc.Ingest(ctx, []domain.Document{
		coursePage("d1", "Homework 1", "Fresh content embedded with the current model."),
	})
	assert.ErrorIs(t, err, domain.ErrModelVersionMismatch)
}

func TestIngest_ProgressCallback(t *testing.T) {
	svc, _, _ := newIngest(t, &countingEmbedding{})

	var mu sync.Mutex
	var calls []int
	svc.SetProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		assert.Equal(t, 3, total)
	})

	docs := []domain.Document{
		coursePage("d1", "A", "Content for the first document in the batch."),
		coursePage("d2", "B", "Content for the second document in the batch."),
		coursePage("d3", "C", "Content for the third document in the batch."),
	}
	_, err := svc.Ingest(context.Background(), docs)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, calls, 3)
	assert.Contains(t, calls, 3)
}

func TestIngest_PersistenceOrderFollowsBatchOrder(t *testing.T) {
	svc, store, _ := newIngest(t, &countingEmbedding{})
	ctx := context.Background()

	docs := []domain.Document{
		coursePage("b", "B", "Second alphabetically but first in the batch."),
		coursePage("a", "A", "First alphabetically but second in the batch."),
	}
	_, err := svc.Ingest(ctx, docs)
	require.NoError(t, err)

	var order []string
	require.NoError(t, store.WalkVectors(ctx, func(chunkID string, vector []float32, modelVersion string) error {
		order = append(order, chunkID)
		return nil
	}))
	require.NotEmpty(t, order)
	assert.True(t, strings.HasPrefix(order[0], "b#"))
}
