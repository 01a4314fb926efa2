package domain

// Question is one incoming query. Questions are transient and never
// persisted.
type Question struct {
	// Text is the natural-language question (required).
	Text string

	// Image is the decoded attachment, when one was supplied.
	Image []byte

	// ImageMIME is the sniffed media type of Image (e.g. "image/png").
	ImageMIME string
}

// HasImage reports whether an image attachment is present.
func (q Question) HasImage() bool {
	return len(q.Image) > 0
}

// RetrievedChunk pairs a chunk with its similarity score and the
// provenance needed to cite it.
type RetrievedChunk struct {
	// Chunk is the matched retrieval unit, embedded so callers read
	// rc.ID and rc.Content directly.
	Chunk

	// Title is the owning document's title.
	Title string

	// URL is the owning document's canonical location.
	URL string

	// Score is the cosine similarity against the query vector (0-1).
	Score float64
}

// Link is a cited source in an answer.
type Link struct {
	// Title is the display text for the link.
	Title string

	// URL is the source location.
	URL string
}

// Answer is the synthesised response for one question.
type Answer struct {
	// Text is the natural-language answer.
	Text string

	// Links are the sources the model actually relied on, deduplicated
	// by URL and ordered by first use. Empty when the answer is not
	// grounded in retrieved context.
	Links []Link
}

// degradedText is the fixed low-confidence fallback returned when the
// pipeline cannot produce a grounded answer in time.
const degradedText = "I'm sorry, I couldn't answer your question right now. Please try again in a moment."

// DegradedAnswer returns the fixed fallback Answer used when synthesis
// fails or the pipeline deadline is exhausted. It carries no links so
// callers can recognise the low-confidence path.
func DegradedAnswer() Answer {
	return Answer{Text: degradedText, Links: []Link{}}
}
