// Package domain defines the core business entities for Coursetta.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a course page or forum post delivered by the ingestion collaborators
//   - Chunk: a provenance-tagged retrieval unit split from a document
//   - RetrievedChunk: a chunk paired with its similarity score
//   - Answer: the synthesised response with its cited links
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
