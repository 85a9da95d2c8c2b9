package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docsage/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a single hit from a similarity search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore defines the interface for vector storage operations.
// One store hosts many named collections; the collection package maps
// conversations onto collection names.
type VectorStore interface {
	// CreateCollection creates a named collection with the given vector size.
	CreateCollection(ctx context.Context, collection string, vectorSize int) error

	// DeleteCollection removes a named collection and all its points.
	DeleteCollection(ctx context.Context, collection string) error

	// CollectionExists reports whether a named collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search returning up to k results
	// ordered by descending score.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)
}
