package rag

import (
	"context"
	"strings"
	"testing"

	"docsage/internal/chunker"
	"docsage/internal/collection"
	"docsage/internal/vectorstore"
)

// wordEmbedder is a deterministic test embedder: one dimension per
// tracked word (occurrence count) plus a constant bias dimension.
type wordEmbedder struct {
	words []string
}

func (e wordEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, len(e.words)+1)
		lower := strings.ToLower(text)
		for j, word := range e.words {
			vec[j] = float32(strings.Count(lower, word))
		}
		vec[len(e.words)] = 1
		vecs[i] = vec
	}
	return vecs, nil
}

// skyHandle builds a collection holding one relevant and one irrelevant
// chunk for "What color is the sky?".
func skyHandle(t *testing.T) *collection.Handle {
	t.Helper()

	embedder := wordEmbedder{words: []string{"sky", "blue", "grass"}}
	store := collection.NewStore(vectorstore.NewMemoryStore(), embedder, len(embedder.words)+1)

	handle, err := store.Create(context.Background(), 1, []chunker.Chunk{
		{Content: "The sky is blue."},
		{Content: "Grass is green."},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return handle
}

func TestRetriever_Retrieve_ThresholdFilters(t *testing.T) {
	retriever := NewRetriever(skyHandle(t), 4, 0.6)

	passages, err := retriever.Retrieve(context.Background(), "What color is the sky?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("Retrieve() returned %d passages, want 1 above threshold", len(passages))
	}
	if passages[0].Text != "The sky is blue." {
		t.Errorf("passages[0].Text = %q", passages[0].Text)
	}
	if passages[0].Score < 0.6 {
		t.Errorf("passages[0].Score = %v, below threshold", passages[0].Score)
	}
}

func TestRetriever_Retrieve_DescendingOrder(t *testing.T) {
	retriever := NewRetriever(skyHandle(t), 4, 0)

	passages, err := retriever.Retrieve(context.Background(), "What color is the sky?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(passages) != 2 {
		t.Fatalf("Retrieve() returned %d passages, want 2 with zero threshold", len(passages))
	}
	if passages[0].Score < passages[1].Score {
		t.Error("passages not ordered by descending score")
	}
	if passages[0].Text != "The sky is blue." {
		t.Errorf("passages[0].Text = %q, want the sky chunk first", passages[0].Text)
	}
}

func TestRetriever_Retrieve_NothingRelevant(t *testing.T) {
	retriever := NewRetriever(skyHandle(t), 4, 0.99)

	passages, err := retriever.Retrieve(context.Background(), "Tell me about submarines")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(passages) != 0 {
		t.Errorf("Retrieve() returned %d passages, want 0", len(passages))
	}
}

func TestNewRetriever_TopKFallback(t *testing.T) {
	retriever := NewRetriever(skyHandle(t), 0, 0)
	if retriever.topK != DefaultTopK {
		t.Errorf("topK = %d, want DefaultTopK %d", retriever.topK, DefaultTopK)
	}
}
