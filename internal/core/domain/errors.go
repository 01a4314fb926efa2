package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input. Input errors
	// are rejected at the pipeline boundary and never reach retrieval
	// or embedding.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the backend API rate limit was exceeded.
	// Transient: the caller may retry with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrBackendUnavailable indicates a backend call failed with a
	// server-side or network fault. Transient: retryable with backoff.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBackendRejected indicates the backend rejected the request
	// itself (bad request, authentication failure). Permanent: retrying
	// the same call cannot succeed.
	ErrBackendRejected = errors.New("backend rejected request")

	// ErrModelVersionMismatch indicates stored vectors were produced by
	// a different embedding model or dimension than the active one.
	// Similarity scores across versions are not comparable; ingestion
	// must rebuild the index from scratch.
	ErrModelVersionMismatch = errors.New("embedding model version mismatch")

	// ErrIndexUnavailable indicates no usable vector index snapshot is
	// loaded. Query paths degrade to empty retrieval.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generative service is not
	// configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// IsTransient reports whether err is a transient backend failure worth
// retrying with backoff. Permanent failures and input errors return
// false.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrBackendUnavailable)
}
