package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_store.go -package=mocks docsage/internal/storage ChatStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// ChatStore defines the interface for chat storage operations.
type ChatStore interface {
	// Create inserts a new chat and returns it with its assigned ID.
	Create(ctx context.Context, title string) (*Chat, error)
	// GetByID gets a chat by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*Chat, error)
	// ListAll returns all chats ordered by most recently updated first.
	ListAll(ctx context.Context) ([]*Chat, error)
	// Rename updates a chat's title and bumps updated_at.
	Rename(ctx context.Context, id int64, title string) error
	// Delete removes a chat together with its messages and source rows.
	// The chat's vector collection is NOT touched; see the ingest pipeline docs.
	Delete(ctx context.Context, id int64) error
}

// ChatRepo provides methods for chat operations.
// It implements the ChatStore interface.
type ChatRepo struct {
	db *sql.DB
}

// NewChatRepo creates a new ChatRepo.
func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// Create inserts a new chat and returns it with its assigned ID.
func (r *ChatRepo) Create(ctx context.Context, title string) (*Chat, error) {
	res, err := r.db.ExecContext(ctx, "INSERT INTO chats (title) VALUES (?)", title)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get chat ID: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID gets a chat by its ID. Returns ErrNotFound if not found.
func (r *ChatRepo) GetByID(ctx context.Context, id int64) (*Chat, error) {
	var chat Chat
	var createdAtStr, updatedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, created_at, updated_at FROM chats WHERE id = ?",
		id,
	).Scan(&chat.ID, &chat.Title, &createdAtStr, &updatedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chat: %w", err)
	}

	if chat.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}
	if chat.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return nil, err
	}

	return &chat, nil
}

// ListAll returns all chats ordered by most recently updated first.
// Returns an empty slice if no chats exist (not an error).
func (r *ChatRepo) ListAll(ctx context.Context) ([]*Chat, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, created_at, updated_at FROM chats ORDER BY updated_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chats []*Chat
	for rows.Next() {
		var chat Chat
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(&chat.ID, &chat.Title, &createdAtStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		if chat.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			return nil, err
		}
		if chat.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
			return nil, err
		}
		chats = append(chats, &chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chats, nil
}

// Rename updates a chat's title and bumps updated_at.
// Returns ErrNotFound if the chat does not exist.
func (r *ChatRepo) Rename(ctx context.Context, id int64, title string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE chats SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename chat: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rename result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a chat together with its messages and source rows
// (via ON DELETE CASCADE). Returns ErrNotFound if the chat does not exist.
func (r *ChatRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
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

// parseTimestamp parses a SQLite DATETIME string.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	// SQLite might use a different format depending on how the value was written
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return t, nil
}
