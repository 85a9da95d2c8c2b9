package storage

import "time"

// Source types. A source is either an uploaded document or a fetched link.
const (
	SourceTypeDocument = "document"
	SourceTypeLink     = "link"
)

// Message senders.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Chat represents a conversation in the database.
// Each chat owns one vector collection, named from its ID (see collection.Name).
type Chat struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Source represents an ingested origin of context attached to a chat.
// SourceText may be empty: the durable, queryable copy of the content
// lives in the chat's vector collection, not here.
type Source struct {
	ID         int64
	ChatID     int64
	Name       string // File name for documents, URL for links
	SourceText string
	Type       string // SourceTypeDocument or SourceTypeLink
	CreatedAt  time.Time
}

// Message represents a single message in a chat's history.
type Message struct {
	ID        int64
	ChatID    int64
	Sender    string // SenderUser or SenderAI
	Content   string
	Timestamp time.Time
}
