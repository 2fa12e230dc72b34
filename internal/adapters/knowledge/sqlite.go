package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

// SQLiteSource stores and loads chunks from a SQLite file.
// Rows are returned in insertion order.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteSource, error) {
	if path == "" {
		path = "./data/knowledge.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteSource{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteSource) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		text TEXT NOT NULL,
		embedding TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`)
	return err
}

// Import appends chunks in one transaction. When replace is set the table
// is emptied first.
func (s *SQLiteSource) Import(ctx context.Context, chunks []entities.Chunk, replace bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
			return fmt.Errorf("clearing chunks: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (source, text, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.Source, chunk.Text, string(embeddingJSON)); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}

	return tx.Commit()
}

// Load reads every chunk.
func (s *SQLiteSource) Load(ctx context.Context) ([]entities.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, text, embedding FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []entities.Chunk{}
	for rows.Next() {
		var (
			chunk         entities.Chunk
			embeddingJSON string
		)
		if err := rows.Scan(&chunk.Source, &chunk.Text, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *SQLiteSource) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Path returns the database file path.
func (s *SQLiteSource) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
