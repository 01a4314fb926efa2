// Package sqlite provides the persistent knowledge base store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/coursetta-labs/coursetta/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/coursetta-labs/coursetta/internal/core/domain"
	"github.com/coursetta-labs/coursetta/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.KnowledgeStore = (*Store)(nil)

// Store is the SQLite-backed knowledge base holding documents, chunks
// and embedding vectors.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a knowledge store at the specified data directory.
// If dataDir is empty, defaults to ~/.coursetta/data/knowledge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".coursetta", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")

	// WAL mode lets query traffic read while an ingest writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or replaces a document by SourceID.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	var publishedAt any
	if doc.PublishedAt != nil {
		publishedAt = doc.PublishedAt.UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (source_id, origin, title, url, raw_text, author, published_at, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			origin = excluded.origin,
			title = excluded.title,
			url = excluded.url,
			raw_text = excluded.raw_text,
			author = excluded.author,
			published_at = excluded.published_at,
			ingested_at = excluded.ingested_at
	`, doc.SourceID, string(doc.Origin), doc.Title, doc.URL, doc.RawText,
		doc.Author, publishedAt, doc.IngestedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// ReplaceChunks atomically replaces all chunks and vectors for a source.
func (s *Store) ReplaceChunks(ctx context.Context, sourceID string, chunks []domain.Chunk, vectors [][]float32, modelVersion string) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch (%d vs %d): %w",
			len(chunks), len(vectors), domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Supersede: drop the previous version's chunks (embeddings cascade).
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("deleting superseded chunks: %w", err)
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, source_id, content, position, length)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			content = excluded.content,
			position = excluded.position,
			length = excluded.length
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk statement: %w", err)
	}
	defer chunkStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (chunk_id, vector, dimension, model_version)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			model_version = excluded.model_version
	`)
	if err != nil {
		return fmt.Errorf("preparing embedding statement: %w", err)
	}
	defer vecStmt.Close()

	for i, chunk := range chunks {
		if _, err := chunkStmt.ExecContext(ctx, chunk.ID, chunk.SourceID,
			chunk.Content, chunk.Position, chunk.Length); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}

		blob := float32SliceToBytes(vectors[i])
		if _, err := vecStmt.ExecContext(ctx, chunk.ID, blob, len(vectors[i]), modelVersion); err != nil {
			return fmt.Errorf("saving vector for %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by SourceID.
func (s *Store) GetDocument(ctx context.Context, sourceID string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT source_id, origin, title, url, raw_text, author, published_at, ingested_at
		FROM documents WHERE source_id = ?
	`, sourceID)

	var doc domain.Document
	var origin string
	var publishedAt sql.NullTime
	if err := row.Scan(&doc.SourceID, &origin, &doc.Title, &doc.URL, &doc.RawText,
		&doc.Author, &publishedAt, &doc.IngestedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Origin = domain.OriginKind(origin)
	if publishedAt.Valid {
		t := publishedAt.Time
		doc.PublishedAt = &t
	}

	return &doc, nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, content, position, length
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	if err := row.Scan(&chunk.ID, &chunk.SourceID, &chunk.Content,
		&chunk.Position, &chunk.Length); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	return &chunk, nil
}

// ListDocuments returns all stored documents.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, origin, title, url, raw_text, author, published_at, ingested_at
		FROM documents ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var origin string
		var publishedAt sql.NullTime
		if err := rows.Scan(&doc.SourceID, &origin, &doc.Title, &doc.URL, &doc.RawText,
			&doc.Author, &publishedAt, &doc.IngestedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}

		doc.Origin = domain.OriginKind(origin)
		if publishedAt.Valid {
			t := publishedAt.Time
			doc.PublishedAt = &t
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// WalkVectors streams every stored vector in chunk insertion order.
// ReplaceChunks deletes and re-inserts a source's chunks, so a
// re-ingested source takes fresh rowids at the end of the order:
// supersession is a new insertion for tie-break purposes.
func (s *Store) WalkVectors(ctx context.Context, fn func(chunkID string, vector []float32, modelVersion string) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.chunk_id, e.vector, e.model_version
		FROM embeddings e
		JOIN chunks c ON c.id = e.chunk_id
		ORDER BY c.rowid
	`)
	if err != nil {
		return fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunkID, modelVersion string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob, &modelVersion); err != nil {
			return fmt.Errorf("scanning embedding: %w", err)
		}

		if err := fn(chunkID, bytesToFloat32Slice(blob), modelVersion); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating embeddings: %w", err)
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
