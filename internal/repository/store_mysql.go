package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore implements Store backed by a MySQL table.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore connects to MySQL with the given DSN and prepares the table.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_key VARCHAR(191) PRIMARY KEY,
		doc_json LONGTEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQLStore] Initialized")
	return &MySQLStore{db: db}, nil
}

// Get retrieves the document stored under key.
func (s *MySQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var docJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc_json FROM documents WHERE doc_key = ?`, key).Scan(&docJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", key, err)
	}
	return []byte(docJSON), nil
}

// Set stores the document under key.
func (s *MySQLStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO documents (doc_key, doc_json, updated_at)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			doc_json = VALUES(doc_json),
			updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to set document %s: %w", key, err)
	}
	return nil
}

// Delete removes the document under key.
func (s *MySQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

// Keys lists all keys with the given prefix.
func (s *MySQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_key FROM documents WHERE doc_key LIKE ? ORDER BY doc_key`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// Ensure MySQLStore implements Store
var _ Store = (*MySQLStore)(nil)
