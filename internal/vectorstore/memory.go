package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory VectorStore used in tests and local runs
// without a Qdrant instance. Search scores with cosine similarity.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	vectorSize int
	points     map[string]Point
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

// CreateCollection creates a named collection with the given vector size.
func (s *MemoryStore) CreateCollection(_ context.Context, collection string, vectorSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; ok {
		return fmt.Errorf("collection %s already exists", collection)
	}
	s.collections[collection] = &memoryCollection{
		vectorSize: vectorSize,
		points:     make(map[string]Point),
	}
	return nil
}

// DeleteCollection removes a named collection and all its points.
func (s *MemoryStore) DeleteCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		return fmt.Errorf("collection %s does not exist", collection)
	}
	delete(s.collections, collection)
	return nil
}

// CollectionExists reports whether a named collection exists.
func (s *MemoryStore) CollectionExists(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collections[collection]
	return ok, nil
}

// Upsert inserts or updates points in the collection.
func (s *MemoryStore) Upsert(_ context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %s does not exist", collection)
	}
	for _, point := range points {
		if len(point.Vec) != coll.vectorSize {
			return fmt.Errorf("vector size mismatch: expected %d, got %d", coll.vectorSize, len(point.Vec))
		}
		coll.points[point.ID] = point
	}
	return nil
}

// Search returns up to k points ordered by descending cosine similarity.
func (s *MemoryStore) Search(_ context.Context, collection string, query []float32, k int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %s does not exist", collection)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	results := make([]SearchResult, 0, len(coll.points))
	for _, point := range coll.points {
		results = append(results, SearchResult{
			PointID: point.ID,
			Score:   cosineSimilarity(query, point.Vec),
			Meta:    point.Meta,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].PointID < results[j].PointID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
