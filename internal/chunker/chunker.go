// Package chunker splits documents into retrieval-sized text chunks.
//
// Chunking is deterministic: the same document and configuration always
// produce the same chunk sequence, which keeps re-indexing reproducible
// and chunk IDs stable across rebuilds.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// DefaultTargetSize is the preferred chunk length in characters.
const DefaultTargetSize = 500

// DefaultMaxSize is the hard upper bound on chunk length, kept within
// embedding model input limits.
const DefaultMaxSize = 600

// DefaultOverlapFraction is the fraction of the target size duplicated
// between adjacent chunks to preserve context across split points.
const DefaultOverlapFraction = 0.2

// Chunker splits document text into bounded chunks, preferring breaks
// at paragraph and sentence boundaries over hard truncation.
type Chunker struct {
	target  int
	max     int
	overlap float64
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTargetSize sets the preferred chunk size in characters.
func WithTargetSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.target = size
		}
	}
}

// WithMaxSize sets the hard maximum chunk size in characters.
func WithMaxSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.max = size
		}
	}
}

// WithOverlapFraction sets the overlap between adjacent chunks as a
// fraction of the target size.
func WithOverlapFraction(f float64) Option {
	return func(c *Chunker) {
		if f >= 0 {
			c.overlap = f
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		target:  DefaultTargetSize,
		max:     DefaultMaxSize,
		overlap: DefaultOverlapFraction,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.max < c.target {
		c.max = c.target
	}
	// Overlap above half the target cannot make forward progress.
	if c.overlap > 0.5 {
		c.overlap = 0.5
	}

	return c
}

// Chunk splits a document into ordered chunks. Empty or whitespace-only
// documents yield zero chunks. Concatenating the chunks in Position
// order, dropping the overlap prefix of each chunk after the first,
// reconstructs the normalised document text.
func (c *Chunker) Chunk(doc domain.Document) []domain.Chunk {
	text := Normalise(doc.RawText)
	if text == "" {
		return nil
	}

	overlap := int(float64(c.target) * c.overlap)
	estimated := len(text)/(c.target-overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	position := 0

	for start < len(text) {
		end := c.cut(text, start)
		content := text[start:end]

		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(doc.SourceID, position),
			SourceID: doc.SourceID,
			Content:  content,
			Position: position,
			Length:   len(content),
		})
		position++

		if end == len(text) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// Overlap returns the configured overlap in characters. Callers use it
// to de-overlap chunk sequences when reconstructing documents.
func (c *Chunker) Overlap() int {
	return int(float64(c.target) * c.overlap)
}

// cut chooses the end offset for the chunk starting at start. It takes
// the rest of the text when it fits, otherwise it looks for a paragraph
// break, then a sentence break, near the target size. Only when no
// boundary exists does it truncate at the hard maximum.
func (c *Chunker) cut(text string, start int) int {
	if len(text)-start <= c.target {
		return len(text)
	}

	soft := start + c.target
	hard := start + c.max
	if hard > len(text) {
		hard = len(text)
	}
	// Boundaries closer to the target than half a chunk are acceptable.
	floor := start + c.target/2

	if end := lastBoundary(text, floor, soft, "\n\n"); end > 0 {
		return end
	}
	if end := sentenceBoundary(text, floor, soft); end > 0 {
		return end
	}

	return runeAligned(text, hard)
}

// lastBoundary returns the offset just past the last occurrence of sep
// in text[floor:limit], or 0 when there is none.
func lastBoundary(text string, floor, limit int, sep string) int {
	idx := strings.LastIndex(text[floor:limit], sep)
	if idx < 0 {
		return 0
	}
	return floor + idx + len(sep)
}

// sentenceBoundary returns the offset just past the last sentence
// terminator in text[floor:limit], or 0 when there is none.
func sentenceBoundary(text string, floor, limit int) int {
	window := text[floor:limit]
	best := -1
	for i := 0; i < len(window); i++ {
		switch window[i] {
		case '\n':
			best = i + 1
		case '.', '!', '?':
			// Terminator must end the sentence, not an abbreviation
			// mid-token (e.g. "3.5").
			if i+1 >= len(window) || window[i+1] == ' ' || window[i+1] == '\n' {
				best = i + 1
			}
		}
	}
	if best < 0 {
		return 0
	}
	return floor + best
}

// runeAligned backs off to the nearest rune start at or before offset so
// a hard cut never splits a UTF-8 sequence. offset may equal len(text)
// when the hard limit lands exactly on the end.
func runeAligned(text string, offset int) int {
	for offset > 0 && offset < len(text) && !utf8.RuneStart(text[offset]) {
		offset--
	}
	return offset
}

// Normalise prepares raw document text for chunking: line endings are
// unified and outer whitespace is trimmed. Chunk content is embedded
// exactly as produced here, so the same normalisation applies at build
// time and never again at query time.
func Normalise(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(text)
}
