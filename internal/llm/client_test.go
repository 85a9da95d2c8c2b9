package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Chat(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "The sky is blue."}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "secret")
	answer, err := client.Chat(context.Background(), "What color is the sky?")
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if answer != "The sky is blue." {
		t.Errorf("Chat() = %q", answer)
	}
	if gotPath != "/v1/chat/completions" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq["model"] != "test-model" {
		t.Errorf("request model = %v", gotReq["model"])
	}
}

func TestClient_Chat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "")
	if _, err := client.Chat(context.Background(), "hi"); err == nil {
		t.Fatal("Chat() succeeded on API error, want error")
	}
}

func TestClient_Chat_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "")
	if _, err := client.Chat(context.Background(), "hi"); err == nil {
		t.Fatal("Chat() succeeded with no choices, want error")
	}
}

func TestClient_Chat_NoAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", "")
	if _, err := client.Chat(context.Background(), "hi"); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty without an API key", gotAuth)
	}
}
