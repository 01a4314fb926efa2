package driving

import (
	"context"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// IngestService builds the knowledge base from document batches.
type IngestService interface {
	// Ingest chunks, embeds and persists a batch of documents, then
	// rebuilds the vector index snapshot and swaps it in. Re-ingesting
	// a SourceID supersedes its previous content.
	Ingest(ctx context.Context, docs []domain.Document) (IngestStats, error)

	// SetProgress registers a callback invoked after each document is
	// processed. Used by the CLI progress bar. May be nil.
	SetProgress(fn func(done, total int))
}

// IngestStats summarises one ingest run.
type IngestStats struct {
	// Documents is the number of documents processed.
	Documents int

	// Chunks is the number of chunks embedded and stored.
	Chunks int

	// Skipped is the number of documents that produced no chunks
	// (empty or whitespace-only text).
	Skipped int
}
