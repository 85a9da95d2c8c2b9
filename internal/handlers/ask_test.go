package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"docsage/internal/chunker"
	"docsage/internal/collection"
	"docsage/internal/rag"
	"docsage/internal/storage"
	storage_mocks "docsage/internal/storage/mocks"
	"docsage/internal/vectorstore"
)

// recordingCompleter returns a canned answer and counts invocations.
type recordingCompleter struct {
	answer string
	err    error
	calls  int
}

func (c *recordingCompleter) Chat(context.Context, string) (string, error) {
	c.calls++
	return c.answer, c.err
}

func newAskHandler(t *testing.T, chats storage.ChatStore, messages storage.MessageStore, completer rag.Completer) (*AskHandler, *collection.Store) {
	t.Helper()

	collections := collection.NewStore(vectorstore.NewMemoryStore(), flatEmbedder{}, 2)
	answerer := rag.NewAnswerer(completer)
	return NewAskHandler(chats, messages, collections, answerer, rag.DefaultTopK, 0.6), collections
}

func askRequest(question string) *http.Request {
	body, _ := json.Marshal(map[string]string{"question": question})
	return withURLParam(httptest.NewRequest(http.MethodPost, "/api/chats/1/ask", bytes.NewReader(body)), "id", "1")
}

func TestAskHandler_ChatNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	chats := storage_mocks.NewMockChatStore(ctrl)
	chats.EXPECT().GetByID(gomock.Any(), int64(1)).Return(nil, storage.ErrNotFound)

	handler, _ := newAskHandler(t, chats, storage_mocks.NewMockMessageStore(ctrl), &recordingCompleter{})

	rec := httptest.NewRecorder()
	handler.Ask(rec, askRequest("What color is the sky?"))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAskHandler_BlankQuestion(t *testing.T) {
	ctrl := gomock.NewController(t)
	chats := storage_mocks.NewMockChatStore(ctrl)
	chats.EXPECT().GetByID(gomock.Any(), int64(1)).Return(testChat(), nil)
	// No message store expectations: nothing is saved for a blank question

	handler, _ := newAskHandler(t, chats, storage_mocks.NewMockMessageStore(ctrl), &recordingCompleter{})

	rec := httptest.NewRecorder()
	handler.Ask(rec, askRequest("   "))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAskHandler_NoSourcesFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	chats := storage_mocks.NewMockChatStore(ctrl)
	messages := storage_mocks.NewMockMessageStore(ctrl)

	chats.EXPECT().GetByID(gomock.Any(), int64(1)).Return(testChat(), nil)
	messages.EXPECT().
		Create(gomock.Any(), int64(1), storage.SenderUser, "What color is the sky?").
		Return(&storage.Message{ID: 1}, nil)
	messages.EXPECT().
		Create(gomock.Any(), int64(1), storage.SenderAI, rag.FallbackAnswer).
		Return(&storage.Message{ID: 2}, nil)

	completer := &recordingCompleter{answer: "should not be used"}
	handler, _ := newAskHandler(t, chats, messages, completer)

	rec := httptest.NewRecorder()
	handler.Ask(rec, askRequest("What color is the sky?"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["answer"] != rag.FallbackAnswer {
		t.Errorf("answer = %q, want fallback", resp["answer"])
	}
	if completer.calls != 0 {
		t.Errorf("completer called %d times for a chat without sources", completer.calls)
	}
}

func TestAskHandler_AnswersFromCollection(t *testing.T) {
	ctrl := gomock.NewController(t)
	chats := storage_mocks.NewMockChatStore(ctrl)
	messages := storage_mocks.NewMockMessageStore(ctrl)

	chats.EXPECT().GetByID(gomock.Any(), int64(1)).Return(testChat(), nil)
	messages.EXPECT().
		Create(gomock.Any(), int64(1), storage.SenderUser, "What color is the sky?").
		Return(&storage.Message{ID: 1}, nil)
	messages.EXPECT().
		Create(gomock.Any(), int64(1), storage.SenderAI, "The sky is blue.").
		Return(&storage.Message{ID: 2, Timestamp: time.Now()}, nil)

	completer := &recordingCompleter{answer: "The sky is blue."}
	handler, collections := newAskHandler(t, chats, messages, completer)

	if _, err := collections.Create(context.Background(), 1, []chunker.Chunk{{Content: "The sky is blue."}}); err != nil {
		t.Fatalf("collections.Create() error = %v", err)
	}

	rec := httptest.NewRecorder()
	handler.Ask(rec, askRequest("What color is the sky?"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["answer"] != "The sky is blue." {
		t.Errorf("answer = %q", resp["answer"])
	}
	if completer.calls != 1 {
		t.Errorf("completer called %d times, want 1", completer.calls)
	}
}

func TestAskHandler_GenerationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	chats := storage_mocks.NewMockChatStore(ctrl)
	messages := storage_mocks.NewMockMessageStore(ctrl)

	chats.EXPECT().GetByID(gomock.Any(), int64(1)).Return(testChat(), nil)
	// Only the user message is saved; no ai message on failure
	messages.EXPECT().
		Create(gomock.Any(), int64(1), storage.SenderUser, "What color is the sky?").
		Return(&storage.Message{ID: 1}, nil)

	completer := &recordingCompleter{err: errors.New("model unavailable")}
	handler, collections := newAskHandler(t, chats, messages, completer)

	if _, err := collections.Create(context.Background(), 1, []chunker.Chunk{{Content: "The sky is blue."}}); err != nil {
		t.Fatalf("collections.Create() error = %v", err)
	}

	rec := httptest.NewRecorder()
	handler.Ask(rec, askRequest("What color is the sky?"))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502, body %s", rec.Code, rec.Body.String())
	}
}
