package domain

import (
	"fmt"
	"time"
)

// OriginKind identifies where a document came from.
type OriginKind string

const (
	// OriginCoursePage is a converted course content page.
	OriginCoursePage OriginKind = "course_page"

	// OriginForumPost is a post scraped from the course forum.
	OriginForumPost OriginKind = "forum_post"
)

// Valid reports whether the origin kind is one of the known values.
func (k OriginKind) Valid() bool {
	return k == OriginCoursePage || k == OriginForumPost
}

// Document is a single source text delivered by the external
// scraper/converter collaborators. Documents are immutable once stored;
// re-ingesting the same SourceID supersedes the previous version.
type Document struct {
	// SourceID is the stable unique identifier for the document.
	SourceID string

	// Origin is the kind of source that produced this document.
	Origin OriginKind

	// Title is the human-readable title.
	Title string

	// URL is the canonical location of the source content.
	URL string

	// RawText is the full text content as delivered.
	RawText string

	// Author is the post author, when the origin records one.
	Author string

	// PublishedAt is when the source content was published, if known.
	PublishedAt *time.Time

	// IngestedAt is when the document was ingested into the knowledge base.
	IngestedAt time.Time
}

// Chunk is a bounded retrieval unit split from a document. A chunk never
// spans two documents, and concatenating a document's chunks in Position
// order (minus the configured overlap) reconstructs its normalised text.
type Chunk struct {
	// ID identifies the chunk. It is derived from the source document
	// and ordinal, so re-chunking the same input yields the same IDs.
	ID string

	// SourceID links back to the owning Document.
	SourceID string

	// Content is the chunk text, stored exactly as embedded.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Length is the content length in characters.
	Length int
}

// ChunkID derives the stable identifier for a chunk from its source
// document and ordinal position.
func ChunkID(sourceID string, position int) string {
	return fmt.Sprintf("%s#%d", sourceID, position)
}
