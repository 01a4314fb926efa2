package driving

import (
	"context"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// AnswerService answers natural-language questions about the course.
type AnswerService interface {
	// Ask runs the full query pipeline for one question. The optional
	// image is supplied base64-encoded, exactly as received from the
	// caller; Ask decodes and validates it before any backend call.
	//
	// Malformed input returns an error wrapping domain.ErrInvalidInput.
	// Every other failure mode yields a well-formed Answer: backend
	// faults and deadline exhaustion produce the degraded Answer, and
	// empty retrieval produces a best-effort Answer with no links.
	Ask(ctx context.Context, question string, imageBase64 string) (domain.Answer, error)

	// Retrieve runs only the retrieval stage, returning the chunks that
	// would ground an answer. Used by the search surfaces.
	Retrieve(ctx context.Context, question string) ([]domain.RetrievedChunk, error)
}
