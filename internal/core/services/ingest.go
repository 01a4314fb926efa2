package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/coursetta-labs/coursetta/internal/chunker"
	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driving"
	"github.com/coursetta-labs/coursetta/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultEmbedWorkers is the number of concurrent embedding requests
// during an ingest run.
const DefaultEmbedWorkers = 4

// IngestService builds the knowledge base: chunk, embed, persist, then
// rebuild the index snapshot and swap it in.
type IngestService struct {
	chunker   *chunker.Chunker
	embedding driven.EmbeddingService
	store     driven.KnowledgeStore
	index     driven.VectorIndex

	workers  int
	progress func(done, total int)
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithEmbedWorkers sets the embedding concurrency.
func WithEmbedWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	ck *chunker.Chunker,
	embedding driven.EmbeddingService,
	store driven.KnowledgeStore,
	index driven.VectorIndex,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		chunker:   ck,
		embedding: embedding,
		store:     store,
		index:     index,
		workers:   DefaultEmbedWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetProgress registers a callback invoked after each document is
// embedded. May be nil.
func (s *IngestService) SetProgress(fn func(done, total int)) {
	s.progress = fn
}

// embeddedDoc is one document's ingest-ready output.
type embeddedDoc struct {
	doc     domain.Document
	chunks  []domain.Chunk
	vectors [][]float32
}

// Ingest processes a batch of documents. Embedding runs on a bounded
// worker pool; persistence is sequential in batch order so re-runs of
// the same batch keep a stable chunk insertion order. Re-ingesting a
// SourceID supersedes its previous content.
func (s *IngestService) Ingest(ctx context.Context, docs []domain.Document) (driving.IngestStats, error) {
	logger.Section("Ingest")
	stats := driving.IngestStats{}

	for i := range docs {
		if err := validateDocument(&docs[i]); err != nil {
			return stats, err
		}
	}

	embedded, err := s.embedAll(ctx, docs)
	if err != nil {
		return stats, err
	}

	modelVersion := s.embedding.ModelVersion()
	for _, ed := range embedded {
		if len(ed.chunks) == 0 {
			stats.Skipped++
			continue
		}
		if err := s.store.SaveDocument(ctx, &ed.doc); err != nil {
			return stats, fmt.Errorf("save document %s: %w", ed.doc.SourceID, err)
		}
		if err := s.store.ReplaceChunks(ctx, ed.doc.SourceID, ed.chunks, ed.vectors, modelVersion); err != nil {
			return stats, fmt.Errorf("store chunks for %s: %w", ed.doc.SourceID, err)
		}
		stats.Documents++
		stats.Chunks += len(ed.chunks)
	}

	// Swap in a fresh snapshot only after everything is persisted.
	// A model version conflict with previously stored vectors surfaces
	// here and is fatal: the knowledge base needs a full rebuild.
	if err := s.index.Reload(ctx); err != nil {
		return stats, fmt.Errorf("rebuild index: %w", err)
	}

	logger.Info("Ingested %d documents (%d chunks, %d skipped)",
		stats.Documents, stats.Chunks, stats.Skipped)
	return stats, nil
}

// embedAll chunks and embeds every document, keeping results in batch
// order. The first failure cancels the remaining work.
func (s *IngestService) embedAll(ctx context.Context, docs []domain.Document) ([]embeddedDoc, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]embeddedDoc, len(docs))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		firstErr error
	)

	workers := s.workers
	if workers > len(docs) {
		workers = len(docs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ed, err := s.embedOne(ctx, docs[i])
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					mu.Unlock()
					continue
				}
				results[i] = ed
				done++
				if s.progress != nil {
					s.progress(done, len(docs))
				}
				mu.Unlock()
			}
		}()
	}

	for i := range docs {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (s *IngestService) embedOne(ctx context.Context, doc domain.Document) (embeddedDoc, error) {
	chunks := s.chunker.Chunk(doc)
	if len(chunks) == 0 {
		logger.Debug("Document %s produced no chunks", doc.SourceID)
		return embeddedDoc{doc: doc}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return embeddedDoc{}, fmt.Errorf("embed %s: %w", doc.SourceID, err)
	}
	logger.Debug("Embedded %s: %d chunks", doc.SourceID, len(chunks))

	return embeddedDoc{doc: doc, chunks: chunks, vectors: vectors}, nil
}

func validateDocument(doc *domain.Document) error {
	if doc.SourceID == "" {
		return fmt.Errorf("document missing source_id: %w", domain.ErrInvalidInput)
	}
	if !doc.Origin.Valid() {
		return fmt.Errorf("document %s has unknown origin %q: %w",
			doc.SourceID, doc.Origin, domain.ErrInvalidInput)
	}
	return nil
}
