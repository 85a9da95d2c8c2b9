package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"docsage/internal/collection"
	"docsage/internal/contextutil"
	"docsage/internal/rag"
	"docsage/internal/storage"
)

// AskHandler serves the question answering endpoint.
type AskHandler struct {
	chats       storage.ChatStore
	messages    storage.MessageStore
	collections *collection.Store
	answerer    *rag.Answerer
	topK        int
	threshold   float32
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(chats storage.ChatStore, messages storage.MessageStore, collections *collection.Store, answerer *rag.Answerer, topK int, threshold float32) *AskHandler {
	return &AskHandler{
		chats:       chats,
		messages:    messages,
		collections: collections,
		answerer:    answerer,
		topK:        topK,
		threshold:   threshold,
	}
}

type askPayload struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask handles POST /api/chats/{id}/ask. The user message is saved before
// answering; the ai message only on success. A chat without sources gets
// the fallback answer without touching the model.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	chatID, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}

	if _, err := h.chats.GetByID(r.Context(), chatID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "chat not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to get chat")
		return
	}

	var payload askPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	question := strings.TrimSpace(payload.Question)
	if question == "" {
		writeError(w, r, http.StatusBadRequest, "question is required")
		return
	}

	if _, err := h.messages.Create(r.Context(), chatID, storage.SenderUser, question); err != nil {
		logger.ErrorContext(r.Context(), "failed to save user message", "chat_id", chatID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to save message")
		return
	}

	retriever, err := h.buildRetriever(r, chatID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to open collection", "chat_id", chatID, "error", err)
		writeError(w, r, http.StatusBadGateway, "failed to retrieve context")
		return
	}

	answer, err := h.answerer.Answer(r.Context(), question, retriever)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to answer question", "chat_id", chatID, "error", err)
		if errors.Is(err, rag.ErrGenerationFailed) {
			writeError(w, r, http.StatusBadGateway, "failed to generate an answer")
			return
		}
		writeError(w, r, http.StatusBadGateway, "failed to retrieve context")
		return
	}

	if _, err := h.messages.Create(r.Context(), chatID, storage.SenderAI, answer); err != nil {
		logger.ErrorContext(r.Context(), "failed to save ai message", "chat_id", chatID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to save message")
		return
	}

	writeJSON(w, r, http.StatusOK, askResponse{Answer: answer})
}

// buildRetriever opens the chat's collection when it exists. A chat that
// never ingested a source has no collection and gets a nil retriever.
func (h *AskHandler) buildRetriever(r *http.Request, chatID int64) (*rag.Retriever, error) {
	exists, err := h.collections.Exists(r.Context(), chatID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	handle, err := h.collections.Load(r.Context(), chatID)
	if err != nil {
		return nil, err
	}
	return rag.NewRetriever(handle, h.topK, h.threshold), nil
}
