// Package collection manages per-conversation vector collections. Every
// conversation that has ingested at least one source owns exactly one
// collection, named after the conversation id.
package collection

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docsage/internal/collection Embedder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docsage/internal/chunker"
	"docsage/internal/contextutil"
	"docsage/internal/vectorstore"
)

var (
	// ErrCollectionExists is returned when creating a collection that already exists.
	ErrCollectionExists = errors.New("collection already exists")
	// ErrCollectionNotFound is returned when loading a collection that does not exist.
	ErrCollectionNotFound = errors.New("collection not found")
)

// Embedder converts texts into vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Name returns the collection name for a conversation. The mapping is a
// pure function of the conversation id, so the same conversation always
// resolves to the same collection.
func Name(chatID int64) string {
	return fmt.Sprintf("chat_%d", chatID)
}

// Store creates, loads and checks per-conversation collections on top of
// a VectorStore.
type Store struct {
	vectors    vectorstore.VectorStore
	embedder   Embedder
	vectorSize int
}

// NewStore creates a collection store.
func NewStore(vectors vectorstore.VectorStore, embedder Embedder, vectorSize int) *Store {
	return &Store{
		vectors:    vectors,
		embedder:   embedder,
		vectorSize: vectorSize,
	}
}

// Exists reports whether the conversation's collection exists.
func (s *Store) Exists(ctx context.Context, chatID int64) (bool, error) {
	return s.vectors.CollectionExists(ctx, Name(chatID))
}

// Create makes the conversation's collection and writes the initial chunks
// into it. It fails with ErrCollectionExists when the collection is already
// there. If writing the chunks fails, the half-made collection is removed
// so a retry starts clean.
func (s *Store) Create(ctx context.Context, chatID int64, chunks []chunker.Chunk) (*Handle, error) {
	logger := contextutil.LoggerFromContext(ctx)
	name := Name(chatID)

	exists, err := s.vectors.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}

	if err := s.vectors.CreateCollection(ctx, name, s.vectorSize); err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	handle := &Handle{name: name, store: s}
	if err := handle.Append(ctx, chunks); err != nil {
		if delErr := s.vectors.DeleteCollection(ctx, name); delErr != nil {
			logger.ErrorContext(ctx, "failed to clean up collection after write failure", "collection", name, "error", delErr)
		}
		return nil, err
	}
	return handle, nil
}

// Load opens the conversation's existing collection. It fails with
// ErrCollectionNotFound when the collection does not exist; it never
// creates one.
func (s *Store) Load(ctx context.Context, chatID int64) (*Handle, error) {
	name := Name(chatID)

	exists, err := s.vectors.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return &Handle{name: name, store: s}, nil
}

// Handle is an open conversation collection.
type Handle struct {
	name  string
	store *Store
}

// Name returns the underlying collection name.
func (h *Handle) Name() string {
	return h.name
}

// Append embeds the chunks and upserts them as new points. Each point gets
// a fresh UUID, so appending the same chunks twice stores them twice.
// An empty chunk slice is a no-op.
func (h *Handle) Append(ctx context.Context, chunks []chunker.Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := h.store.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, chunk := range chunks {
		meta := map[string]any{
			"text":        chunk.Content,
			"chunk_index": i,
		}
		for k, v := range chunk.Metadata {
			meta[k] = v
		}
		points[i] = vectorstore.Point{
			ID:   uuid.NewString(),
			Vec:  vectors[i],
			Meta: meta,
		}
	}

	if err := h.store.vectors.Upsert(ctx, h.name, points); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	logger.InfoContext(ctx, "appended chunks to collection", "collection", h.name, "count", len(chunks))
	return nil
}

// Query embeds the text and searches the collection for the k nearest
// points.
func (h *Handle) Query(ctx context.Context, text string, k int) ([]vectorstore.SearchResult, error) {
	vectors, err := h.store.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 query", len(vectors))
	}

	results, err := h.store.vectors.Search(ctx, h.name, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", h.name, err)
	}
	return results, nil
}
