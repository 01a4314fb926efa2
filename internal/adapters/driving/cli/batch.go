package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

// batchDocument is one entry in an ingest batch file: a JSON array of
// documents handed off by the course scraper.
type batchDocument struct {
	SourceID    string `json:"source_id"`
	Origin      string `json:"origin"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// readBatch parses a batch file into domain documents.
func readBatch(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	var entries []batchDocument
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}

	docs := make([]domain.Document, len(entries))
	for i, e := range entries {
		doc := domain.Document{
			SourceID: e.SourceID,
			Origin:   domain.OriginKind(e.Origin),
			Title:    e.Title,
			URL:      e.URL,
			RawText:  e.Text,
			Author:   e.Author,
		}
		if e.PublishedAt != "" {
			ts, err := time.Parse(time.RFC3339, e.PublishedAt)
			if err != nil {
				return nil, fmt.Errorf("document %s: bad published_at %q: %w",
					e.SourceID, e.PublishedAt, err)
			}
			doc.PublishedAt = &ts
		}
		docs[i] = doc
	}
	return docs, nil
}
