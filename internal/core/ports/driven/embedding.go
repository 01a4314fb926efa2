package driven

import "context"

// EmbeddingService generates vector embeddings from text and images.
//
// Embeddings are a pure function of the input and the model version: the
// same text embedded twice under the same ModelVersion yields the same
// vector. Chunk text must be embedded exactly as stored, with no extra
// normalisation at query time, or similarity scores stop being
// comparable.
//
// Implementations signal transient failures (rate limits, timeouts,
// server faults) so that domain.IsTransient reports true; callers may
// retry those with backoff. Permanent failures (malformed input,
// authentication) are never retryable.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The result is index-aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedImage generates a vector embedding for image bytes. The
	// image space may have a different dimension from the text space;
	// the retriever reconciles the two by searching per modality.
	EmbedImage(ctx context.Context, data []byte, mimeType string) ([]float32, error)

	// Dimensions returns the text embedding vector size.
	Dimensions() int

	// ModelVersion returns the identifier of the embedding model.
	// Stored vectors are tagged with it; a mismatch between stored and
	// active versions requires a full index rebuild.
	ModelVersion() string

	// Close releases resources.
	Close() error
}
