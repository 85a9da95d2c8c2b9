package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_message_store.go -package=mocks docsage/internal/storage MessageStore

import (
	"context"
	"database/sql"
	"fmt"
)

// MessageStore defines the interface for message storage operations.
type MessageStore interface {
	// Create appends a message to a chat's history.
	Create(ctx context.Context, chatID int64, sender, content string) (*Message, error)
	// ListByChat returns all messages for a chat ordered by time.
	ListByChat(ctx context.Context, chatID int64) ([]*Message, error)
	// DeleteByChat removes all messages for a chat.
	DeleteByChat(ctx context.Context, chatID int64) error
}

// MessageRepo provides methods for message operations.
// It implements the MessageStore interface.
type MessageRepo struct {
	db *sql.DB
}

// NewMessageRepo creates a new MessageRepo.
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create appends a message to a chat's history.
func (r *MessageRepo) Create(ctx context.Context, chatID int64, sender, content string) (*Message, error) {
	if sender != SenderUser && sender != SenderAI {
		return nil, fmt.Errorf("invalid sender: %s", sender)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (chat_id, sender, content) VALUES (?, ?, ?)",
		chatID, sender, content,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get message ID: %w", err)
	}

	var message Message
	var timestampStr string
	err = r.db.QueryRowContext(ctx,
		"SELECT id, chat_id, sender, content, timestamp FROM messages WHERE id = ?",
		id,
	).Scan(&message.ID, &message.ChatID, &message.Sender, &message.Content, &timestampStr)
	if err != nil {
		return nil, fmt.Errorf("failed to query message: %w", err)
	}

	if message.Timestamp, err = parseTimestamp(timestampStr); err != nil {
		return nil, err
	}

	return &message, nil
}

// ListByChat returns all messages for a chat ordered by time.
// Returns an empty slice if no messages exist (not an error).
func (r *MessageRepo) ListByChat(ctx context.Context, chatID int64) ([]*Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, chat_id, sender, content, timestamp FROM messages WHERE chat_id = ? ORDER BY timestamp, id",
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var messages []*Message
	for rows.Next() {
		var message Message
		var timestampStr string
		if err := rows.Scan(&message.ID, &message.ChatID, &message.Sender, &message.Content, &timestampStr); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if message.Timestamp, err = parseTimestamp(timestampStr); err != nil {
			return nil, err
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return messages, nil
}

// DeleteByChat removes all messages for a chat.
// Deleting zero rows is not an error: a chat with no history is valid.
func (r *MessageRepo) DeleteByChat(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?", chatID)
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
