package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/logger"
)

// scoredHit holds merged per-modality search results before hydration.
type scoredHit struct {
	chunkID string
	score   float64
	order   int // first-appearance position, for stable ties
}

// retrieve embeds the question (and image, when present), searches the
// index per modality, merges by union keeping the higher score per
// chunk, and hydrates the survivors from the knowledge store.
func (s *AnswerService) retrieve(ctx context.Context, q domain.Question) ([]domain.RetrievedChunk, error) {
	textVec, err := s.embedding.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.searchModality(ctx, "text", textVec)
	if err != nil {
		return nil, err
	}

	if q.HasImage() {
		imageVec, err := s.embedding.EmbedImage(ctx, q.Image, q.ImageMIME)
		if err != nil {
			return nil, fmt.Errorf("embed image: %w", err)
		}
		imageHits, err := s.searchModality(ctx, "image", imageVec)
		if err != nil {
			return nil, err
		}
		hits = mergeHits(hits, imageHits)
	}

	// Merging can push the count past K again.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].order < hits[j].order
	})
	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}

	return s.hydrate(ctx, hits)
}

// searchModality runs one index search. A snapshot that cannot serve
// this vector space contributes nothing instead of failing the query.
func (s *AnswerService) searchModality(ctx context.Context, modality string, vec []float32) ([]scoredHit, error) {
	raw, err := s.index.Search(ctx, vec, s.topK, s.minScore)
	if err != nil {
		if isSnapshotMismatch(err) {
			logger.Debug("Index cannot serve %s vectors: %v", modality, err)
			return nil, nil
		}
		return nil, fmt.Errorf("search index (%s): %w", modality, err)
	}

	hits := make([]scoredHit, len(raw))
	for i, h := range raw {
		hits[i] = scoredHit{chunkID: h.ChunkID, score: h.Similarity, order: i}
	}
	logger.Debug("%s search: %d hits", modality, len(hits))
	return hits, nil
}

// mergeHits unions two ranked hit lists, keeping the higher score per
// chunk ID and the earlier first-appearance position.
func mergeHits(first, second []scoredHit) []scoredHit {
	merged := make([]scoredHit, 0, len(first)+len(second))
	index := make(map[string]int, len(first)+len(second))

	for _, h := range first {
		index[h.chunkID] = len(merged)
		h.order = len(merged)
		merged = append(merged, h)
	}
	for _, h := range second {
		if i, ok := index[h.chunkID]; ok {
			if h.score > merged[i].score {
				merged[i].score = h.score
			}
			continue
		}
		index[h.chunkID] = len(merged)
		h.order = len(merged)
		merged = append(merged, h)
	}
	return merged
}

// hydrate resolves chunk IDs to content and document metadata. A chunk
// missing from the store (index momentarily ahead after a re-ingest) is
// skipped, not fatal.
func (s *AnswerService) hydrate(ctx context.Context, hits []scoredHit) ([]domain.RetrievedChunk, error) {
	retrieved := make([]domain.RetrievedChunk, 0, len(hits))
	docs := make(map[string]*domain.Document)

	for _, hit := range hits {
		chunk, err := s.store.GetChunk(ctx, hit.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Chunk %s not in store, skipping", hit.chunkID)
				continue
			}
			return nil, fmt.Errorf("load chunk %s: %w", hit.chunkID, err)
		}

		doc, ok := docs[chunk.SourceID]
		if !ok {
			doc, err = s.store.GetDocument(ctx, chunk.SourceID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					logger.Debug("Document %s not in store, skipping", chunk.SourceID)
					continue
				}
				return nil, fmt.Errorf("load document %s: %w", chunk.SourceID, err)
			}
			docs[chunk.SourceID] = doc
		}

		retrieved = append(retrieved, domain.RetrievedChunk{
			Chunk: *chunk,
			Title: doc.Title,
			URL:   doc.URL,
			Score: hit.score,
		})
	}
	return retrieved, nil
}
