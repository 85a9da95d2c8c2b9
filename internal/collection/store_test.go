package collection

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docsage/internal/chunker"
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

type failingEmbedder struct{}

func (failingEmbedder) EmbedTexts(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("embedding capability down")
}

func testStore(t *testing.T) *Store {
	t.Helper()

	embedder := wordEmbedder{words: []string{"sky", "blue", "grass"}}
	return NewStore(vectorstore.NewMemoryStore(), embedder, len(embedder.words)+1)
}

func TestName(t *testing.T) {
	if got := Name(42); got != "chat_42" {
		t.Errorf("Name(42) = %q, want chat_42", got)
	}
	if Name(1) == Name(2) {
		t.Error("distinct chats mapped to the same collection")
	}
	// Pure function: same id, same name
	if Name(7) != Name(7) {
		t.Error("Name() is not stable")
	}
}

func TestStore_CreateAndExists(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, 1)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true before create")
	}

	chunks := []chunker.Chunk{{Content: "The sky is blue."}}
	handle, err := store.Create(ctx, 1, chunks)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if handle.Name() != "chat_1" {
		t.Errorf("handle.Name() = %q, want chat_1", handle.Name())
	}

	exists, err = store.Exists(ctx, 1)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false after create")
	}

	if _, err := store.Create(ctx, 1, chunks); !errors.Is(err, ErrCollectionExists) {
		t.Errorf("Create() twice error = %v, want ErrCollectionExists", err)
	}
}

func TestStore_Load(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, 5); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrCollectionNotFound", err)
	}

	if _, err := store.Create(ctx, 5, []chunker.Chunk{{Content: "The sky is blue."}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	handle, err := store.Load(ctx, 5)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if handle.Name() != "chat_5" {
		t.Errorf("handle.Name() = %q, want chat_5", handle.Name())
	}

	// Load never creates
	if _, err := store.Load(ctx, 6); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("Load(other missing) error = %v, want ErrCollectionNotFound", err)
	}
}

func TestStore_CreateCleansUpOnFailure(t *testing.T) {
	vectors := vectorstore.NewMemoryStore()
	store := NewStore(vectors, failingEmbedder{}, 4)
	ctx := context.Background()

	if _, err := store.Create(ctx, 9, []chunker.Chunk{{Content: "doomed"}}); err == nil {
		t.Fatal("Create() with failing embedder succeeded, want error")
	}

	exists, err := vectors.CollectionExists(ctx, Name(9))
	if err != nil {
		t.Fatalf("CollectionExists() error = %v", err)
	}
	if exists {
		t.Error("half-made collection was not removed after failed create")
	}
}

func TestHandle_AppendAndQuery(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	handle, err := store.Create(ctx, 42, []chunker.Chunk{
		{Content: "The sky is blue.", Metadata: map[string]string{"source": "sky.txt"}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := handle.Append(ctx, []chunker.Chunk{
		{Content: "Grass is green.", Metadata: map[string]string{"source": "grass.txt"}},
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	results, err := handle.Query(ctx, "What color is the sky?", 4)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Query() returned %d results, want 2", len(results))
	}
	if results[0].Meta["text"] != "The sky is blue." {
		t.Errorf("top result text = %v, want the sky chunk", results[0].Meta["text"])
	}
	if results[0].Meta["source"] != "sky.txt" {
		t.Errorf("top result source = %v, want sky.txt", results[0].Meta["source"])
	}
	if results[0].Score <= results[1].Score {
		t.Error("results not ordered by descending score")
	}
}

func TestHandle_AppendDuplicates(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	chunks := []chunker.Chunk{{Content: "The sky is blue."}}
	handle, err := store.Create(ctx, 3, chunks)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Re-appending the same chunks stores them again under new IDs
	if err := handle.Append(ctx, chunks); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	results, err := handle.Query(ctx, "sky", 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Query() returned %d results after duplicate append, want 2", len(results))
	}
}

func TestHandle_AppendEmpty(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	handle, err := store.Create(ctx, 8, []chunker.Chunk{{Content: "seed"}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := handle.Append(ctx, nil); err != nil {
		t.Errorf("Append(nil) error = %v, want nil", err)
	}
}
