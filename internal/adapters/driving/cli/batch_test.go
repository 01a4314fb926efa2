package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetta-labs/coursetta/internal/core/domain"
)

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadBatch(t *testing.T) {
	path := writeBatchFile(t, `[
		{
			"source_id": "page-42",
			"origin": "course_page",
			"title": "Week 3 Lab",
			"url": "https://course.example.com/labs/3",
			"text": "Submit via the upload form."
		},
		{
			"source_id": "post-7",
			"origin": "forum_post",
			"title": "Lab 3 clarification",
			"url": "https://forum.example.com/t/7",
			"text": "The deadline was moved to Friday.",
			"author": "ta-jordan",
			"published_at": "2026-02-10T09:30:00Z"
		}
	]`)

	docs, err := readBatch(path)

	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "page-42", docs[0].SourceID)
	assert.Equal(t, domain.OriginCoursePage, docs[0].Origin)
	assert.Equal(t, "Week 3 Lab", docs[0].Title)
	assert.Empty(t, docs[0].Author)
	assert.Nil(t, docs[0].PublishedAt)

	assert.Equal(t, domain.OriginForumPost, docs[1].Origin)
	assert.Equal(t, "ta-jordan", docs[1].Author)
	require.NotNil(t, docs[1].PublishedAt)
	assert.Equal(t, 2026, docs[1].PublishedAt.Year())
}

func TestReadBatch_EmptyArray(t *testing.T) {
	path := writeBatchFile(t, `[]`)

	docs, err := readBatch(path)

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestReadBatch_MissingFile(t *testing.T) {
	_, err := readBatch(filepath.Join(t.TempDir(), "nope.json"))

	assert.Error(t, err)
}

func TestReadBatch_MalformedJSON(t *testing.T) {
	path := writeBatchFile(t, `{"not": "an array"}`)

	_, err := readBatch(path)

	assert.Error(t, err)
}

func TestReadBatch_BadTimestamp(t *testing.T) {
	path := writeBatchFile(t, `[
		{"source_id": "post-9", "origin": "forum_post", "text": "hi", "published_at": "yesterday"}
	]`)

	_, err := readBatch(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "post-9")
}
