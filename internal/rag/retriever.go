// Package rag answers questions over a conversation's ingested sources.
package rag

import (
	"context"
	"fmt"
	"sort"

	"docsage/internal/collection"
	"docsage/internal/contextutil"
)

// DefaultTopK is how many passages a retriever asks the collection for
// before the score threshold is applied.
const DefaultTopK = 4

// Passage is a retrieved chunk of source text with its similarity score.
type Passage struct {
	Text  string
	Score float32
}

// Retriever pulls the most relevant passages for a question out of one
// conversation's collection.
type Retriever struct {
	handle    *collection.Handle
	topK      int
	threshold float32
}

// NewRetriever creates a retriever over an open collection. Passages
// scoring below threshold are discarded. topK values below 1 fall back
// to DefaultTopK.
func NewRetriever(handle *collection.Handle, topK int, threshold float32) *Retriever {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &Retriever{
		handle:    handle,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve returns passages relevant to the question, ordered by
// descending score. No passage above the threshold yields an empty
// slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]Passage, error) {
	logger := contextutil.LoggerFromContext(ctx)

	results, err := r.handle.Query(ctx, question, r.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	passages := make([]Passage, 0, len(results))
	for _, result := range results {
		if result.Score < r.threshold {
			continue
		}
		text, ok := result.Meta["text"].(string)
		if !ok || text == "" {
			logger.WarnContext(ctx, "point has no text payload", "collection", r.handle.Name(), "point_id", result.PointID)
			continue
		}
		passages = append(passages, Passage{
			Text:  text,
			Score: result.Score,
		})
	}

	sort.Slice(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})

	logger.DebugContext(ctx, "retrieved passages", "collection", r.handle.Name(), "candidates", len(results), "kept", len(passages))
	return passages, nil
}
