package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docsage/internal/contextutil"
)

// EmbeddingClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingClient struct {
	baseURL    string
	model      string
	apiKey     string
	vectorSize int
	httpClient *http.Client
}

// NewEmbeddingClient creates a new embedding client. vectorSize is the
// dimension every returned embedding must have; a mismatch is an error.
func NewEmbeddingClient(baseURL, model, apiKey string, vectorSize int) *EmbeddingClient {
	return &EmbeddingClient{
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		vectorSize: vectorSize,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EmbedTexts embeds the given texts, returning one vector per text in
// input order.
func (c *EmbeddingClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Model: c.model,
		Input: texts,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	url := c.baseURL + "/v1/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ErrorContext(ctx, "embedding request failed", "error", err)
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.ErrorContext(ctx, "embedding API returned error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("embedding API returned status %d", resp.StatusCode)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s", embResp.Error.Message)
	}
	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d embeddings for %d inputs", len(embResp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range embResp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embedding API returned invalid index %d", item.Index)
		}
		if len(item.Embedding) != c.vectorSize {
			return nil, fmt.Errorf("embedding has size %d, expected %d", len(item.Embedding), c.vectorSize)
		}
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}

	logger.DebugContext(ctx, "embedded texts", "model", c.model, "count", len(texts))
	return vectors, nil
}
