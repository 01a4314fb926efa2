package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driving"
	"github.com/coursetta-labs/coursetta/internal/logger"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// Default pipeline settings.
const (
	DefaultTopK     = 8
	DefaultMinScore = 0.3
	DefaultTimeout  = 30 * time.Second

	// MaxImageBytes caps the decoded size of an attached image.
	MaxImageBytes = 8 << 20
)

// llmRetryDelay is the backoff before the single LLM retry.
const llmRetryDelay = 1 * time.Second

// AnswerService runs the question answering pipeline: validate input,
// retrieve grounding chunks, synthesise an answer with citations.
type AnswerService struct {
	embedding driven.EmbeddingService
	llm       driven.LLMService
	index     driven.VectorIndex
	store     driven.KnowledgeStore
	prompts   driven.PromptStore

	topK       int
	minScore   float64
	timeout    time.Duration
	retryDelay time.Duration
}

// Option configures an AnswerService.
type Option func(*AnswerService)

// WithTopK sets the maximum number of retrieved chunks.
func WithTopK(k int) Option {
	return func(s *AnswerService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithMinScore sets the similarity floor for retrieval.
func WithMinScore(score float64) Option {
	return func(s *AnswerService) {
		if score > 0 {
			s.minScore = score
		}
	}
}

// WithTimeout sets the deadline for the whole Ask pipeline.
func WithTimeout(d time.Duration) Option {
	return func(s *AnswerService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetryDelay overrides the backoff before the LLM retry.
func WithRetryDelay(d time.Duration) Option {
	return func(s *AnswerService) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// NewAnswerService creates a new answer service.
func NewAnswerService(
	embedding driven.EmbeddingService,
	llm driven.LLMService,
	index driven.VectorIndex,
	store driven.KnowledgeStore,
	prompts driven.PromptStore,
	opts ...Option,
) *AnswerService {
	s := &AnswerService{
		embedding:  embedding,
		llm:        llm,
		index:      index,
		store:      store,
		prompts:    prompts,
		topK:       DefaultTopK,
		minScore:   DefaultMinScore,
		timeout:    DefaultTimeout,
		retryDelay: llmRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask runs the full query pipeline for one question.
//
// Malformed input (empty question, undecodable or oversized or
// unrecognised image) returns an error wrapping domain.ErrInvalidInput
// before any backend is called. Backend faults and deadline exhaustion
// yield the degraded Answer with a nil error: the caller always has
// something well-formed to show.
func (s *AnswerService) Ask(ctx context.Context, question string, imageBase64 string) (domain.Answer, error) {
	logger.Section("Ask Pipeline")

	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}
	logger.Debug("Question: %q", question)

	q := domain.Question{Text: question}
	if imageBase64 != "" {
		image, mime, err := decodeImage(imageBase64)
		if err != nil {
			return domain.Answer{}, err
		}
		q.Image = image
		q.ImageMIME = mime
		logger.Debug("Image attached: %s, %d bytes", mime, len(image))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	retrieved, err := s.retrieve(ctx, q)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return domain.DegradedAnswer(), nil
	}
	logger.Info("Retrieved %d chunks", len(retrieved))

	answer, err := s.synthesise(ctx, q, retrieved)
	if err != nil {
		logger.Warn("Synthesis failed: %v", err)
		return domain.DegradedAnswer(), nil
	}
	return answer, nil
}

// Retrieve runs only the retrieval stage for a text question.
func (s *AnswerService) Retrieve(ctx context.Context, question string) ([]domain.RetrievedChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question: %w", domain.ErrInvalidInput)
	}
	return s.retrieve(ctx, domain.Question{Text: question})
}

// decodeImage decodes and validates a base64 image attachment. All
// failures are client errors; nothing here touches a backend.
func decodeImage(imageBase64 string) ([]byte, string, error) {
	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %v: %w", err, domain.ErrInvalidInput)
	}
	if len(data) > MaxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes: %w", MaxImageBytes, domain.ErrInvalidInput)
	}
	mime, ok := sniffImageMIME(data)
	if !ok {
		return nil, "", fmt.Errorf("unrecognised image format: %w", domain.ErrInvalidInput)
	}
	return data, mime, nil
}

// sniffImageMIME identifies PNG, JPEG, WebP and GIF from magic bytes.
func sniffImageMIME(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png", true
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg", true
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return "image/gif", true
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp", true
	default:
		return "", false
	}
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isSnapshotMismatch reports whether a search error means the snapshot
// cannot serve this query (wrong dimension or model version). The query
// path treats that as empty retrieval rather than a fault.
func isSnapshotMismatch(err error) bool {
	return errors.Is(err, domain.ErrModelVersionMismatch)
}
