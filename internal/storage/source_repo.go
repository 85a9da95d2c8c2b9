package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source_store.go -package=mocks docsage/internal/storage SourceStore

import (
	"context"
	"database/sql"
	"fmt"
)

// SourceStore defines the interface for source storage operations.
type SourceStore interface {
	// Create inserts a new source row and returns it with its assigned ID.
	Create(ctx context.Context, chatID int64, name, sourceText, sourceType string) (*Source, error)
	// ListByChat returns sources for a chat. sourceType filters by type
	// (SourceTypeDocument or SourceTypeLink); empty string returns all.
	ListByChat(ctx context.Context, chatID int64, sourceType string) ([]*Source, error)
	// Delete removes a source row. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error
}

// SourceRepo provides methods for source operations.
// It implements the SourceStore interface.
type SourceRepo struct {
	db *sql.DB
}

// NewSourceRepo creates a new SourceRepo.
func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// Create inserts a new source row and returns it with its assigned ID.
func (r *SourceRepo) Create(ctx context.Context, chatID int64, name, sourceText, sourceType string) (*Source, error) {
	if sourceType != SourceTypeDocument && sourceType != SourceTypeLink {
		return nil, fmt.Errorf("invalid source type: %s", sourceType)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO sources (chat_id, name, source_text, type) VALUES (?, ?, ?, ?)",
		chatID, name, sourceText, sourceType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert source: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get source ID: %w", err)
	}

	return r.getByID(ctx, id)
}

// getByID gets a source by its ID. Returns ErrNotFound if not found.
func (r *SourceRepo) getByID(ctx context.Context, id int64) (*Source, error) {
	var source Source
	var createdAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, chat_id, name, source_text, type, created_at FROM sources WHERE id = ?",
		id,
	).Scan(&source.ID, &source.ChatID, &source.Name, &source.SourceText, &source.Type, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}

	if source.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}

	return &source, nil
}

// ListByChat returns sources for a chat, oldest first.
// Returns an empty slice if no sources exist (not an error).
func (r *SourceRepo) ListByChat(ctx context.Context, chatID int64, sourceType string) ([]*Source, error) {
	query := "SELECT id, chat_id, name, source_text, type, created_at FROM sources WHERE chat_id = ?"
	args := []any{chatID}
	if sourceType != "" {
		query += " AND type = ?"
		args = append(args, sourceType)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sources []*Source
	for rows.Next() {
		var source Source
		var createdAtStr string
		if err := rows.Scan(&source.ID, &source.ChatID, &source.Name, &source.SourceText, &source.Type, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		if source.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			return nil, err
		}
		sources = append(sources, &source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sources, nil
}

// Delete removes a source row. Returns ErrNotFound if it does not exist.
// Chunks already embedded from this source remain in the chat's collection.
func (r *SourceRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
