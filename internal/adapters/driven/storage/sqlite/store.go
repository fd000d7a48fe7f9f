// Package sqlite persists the vault index in a SQLite database using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/arkivo-labs/arkivo-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/arkivo-labs/arkivo-cli/internal/core/domain"
	"github.com/arkivo-labs/arkivo-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexPersistence = (*Store)(nil)

// Store is a SQLite-backed index persistence.
type Store struct {
	db   *sql.DB
	path string
}

// New opens or creates the index database at dbPath and runs pending
// migrations. The parent directory is created if missing.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
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
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Load reassembles the index from the meta, files and chunks tables.
func (s *Store) Load(ctx context.Context) (*domain.VaultIndex, error) {
	index := &domain.VaultIndex{
		Files:  make(map[string]domain.FileVersion),
		Chunks: make(map[string]*domain.DocumentChunk),
	}

	var settingsJSON, statsJSON string
	row := s.db.QueryRowContext(ctx, `
		SELECT version, created_at, updated_at, settings, stats
		FROM index_meta WHERE id = 1
	`)
	err := row.Scan(&index.Version, &index.CreatedAt, &index.UpdatedAt, &settingsJSON, &statsJSON)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning index meta: %w", err)
	}

	if err := json.Unmarshal([]byte(settingsJSON), &index.Settings); err != nil {
		return nil, fmt.Errorf("%w: parse settings: %w", domain.ErrIndexCorrupt, err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &index.Stats); err != nil {
		return nil, fmt.Errorf("%w: parse stats: %w", domain.ErrIndexCorrupt, err)
	}

	if err := s.loadFiles(ctx, index); err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, index); err != nil {
		return nil, err
	}
	return index, nil
}

// loadFiles reads fingerprints into index.Files.
func (s *Store) loadFiles(ctx context.Context, index *domain.VaultIndex) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, modified_time, byte_size, content_hash FROM files
	`)
	if err != nil {
		return fmt.Errorf("querying files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var version domain.FileVersion
		if err := rows.Scan(&version.Path, &version.ModifiedTime,
			&version.ByteSize, &version.ContentHash); err != nil {
			return fmt.Errorf("scanning file: %w", err)
		}
		index.Files[version.Path] = version
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating files: %w", err)
	}
	return nil
}

// loadChunks reads chunks into index.Chunks.
func (s *Store) loadChunks(ctx context.Context, index *domain.VaultIndex) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, content, metadata, embedding, embedding_model,
			modified_time, byte_size, content_hash, created_at, updated_at
		FROM chunks
	`)
	if err != nil {
		return fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk domain.DocumentChunk
		var metadataJSON string
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.FileVersion.Path, &chunk.Content,
			&metadataJSON, &embeddingBlob, &chunk.EmbeddingModel,
			&chunk.FileVersion.ModifiedTime, &chunk.FileVersion.ByteSize,
			&chunk.FileVersion.ContentHash, &chunk.CreatedAt, &chunk.UpdatedAt); err != nil {
			return fmt.Errorf("scanning chunk: %w", err)
		}

		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return fmt.Errorf("%w: parse chunk metadata: %w", domain.ErrIndexCorrupt, err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		index.Chunks[chunk.ID] = &chunk
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating chunks: %w", err)
	}
	return nil
}

// Save replaces the persisted state with the given index in one
// transaction.
func (s *Store) Save(ctx context.Context, index *domain.VaultIndex) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	settingsJSON, err := json.Marshal(index.Settings)
	if err != nil {
		return fmt.Errorf("marshalling settings: %w", err)
	}
	statsJSON, err := json.Marshal(index.Stats)
	if err != nil {
		return fmt.Errorf("marshalling stats: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, version, created_at, updated_at, settings, stats)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			settings = excluded.settings,
			stats = excluded.stats
	`, index.Version, index.CreatedAt, index.UpdatedAt, string(settingsJSON), string(statsJSON))
	if err != nil {
		return fmt.Errorf("saving index meta: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return fmt.Errorf("clearing files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	if err := saveFiles(ctx, tx, index); err != nil {
		return err
	}
	if err := saveChunks(ctx, tx, index); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// saveFiles inserts all fingerprints.
func saveFiles(ctx context.Context, tx *sql.Tx, index *domain.VaultIndex) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (path, modified_time, byte_size, content_hash)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing file insert: %w", err)
	}
	defer stmt.Close()

	for _, version := range index.Files {
		if _, err := stmt.ExecContext(ctx, version.Path, version.ModifiedTime,
			version.ByteSize, version.ContentHash); err != nil {
			return fmt.Errorf("saving file %s: %w", version.Path, err)
		}
	}
	return nil
}

// saveChunks inserts all chunks.
func saveChunks(ctx context.Context, tx *sql.Tx, index *domain.VaultIndex) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, path, content, metadata, embedding, embedding_model,
			modified_time, byte_size, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range index.Chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.FileVersion.Path,
			chunk.Content, string(metadataJSON), float32SliceToBytes(chunk.Embedding),
			chunk.EmbeddingModel, chunk.FileVersion.ModifiedTime,
			chunk.FileVersion.ByteSize, chunk.FileVersion.ContentHash,
			chunk.CreatedAt, chunk.UpdatedAt); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
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
