package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"docsage/internal/contextutil"
	"docsage/internal/storage"
)

// ChatHandler serves the conversation CRUD and message history endpoints.
type ChatHandler struct {
	chats    storage.ChatStore
	messages storage.MessageStore
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chats storage.ChatStore, messages storage.MessageStore) *ChatHandler {
	return &ChatHandler{
		chats:    chats,
		messages: messages,
	}
}

type chatPayload struct {
	Title string `json:"title"`
}

type chatResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type messageResponse struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func toChatResponse(chat *storage.Chat) chatResponse {
	return chatResponse{
		ID:        chat.ID,
		Title:     chat.Title,
		CreatedAt: chat.CreatedAt.Format(time.RFC3339),
		UpdatedAt: chat.UpdatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /api/chats.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}

	chat, err := h.chats.Create(r.Context(), title)
	if err != nil {
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to create chat", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to create chat")
		return
	}

	writeJSON(w, r, http.StatusCreated, toChatResponse(chat))
}

// List handles GET /api/chats.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.ListAll(r.Context())
	if err != nil {
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to list chats", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list chats")
		return
	}

	resp := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		resp = append(resp, toChatResponse(chat))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Get handles GET /api/chats/{id}.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}

	chat, err := h.chats.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "chat not found")
			return
		}
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to get chat", "chat_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to get chat")
		return
	}

	writeJSON(w, r, http.StatusOK, toChatResponse(chat))
}

// Rename handles PATCH /api/chats/{id}.
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}

	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}

	if err := h.chats.Rename(r.Context(), id, title); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "chat not found")
			return
		}
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to rename chat", "chat_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to rename chat")
		return
	}

	chat, err := h.chats.GetByID(r.Context(), id)
	if err != nil {
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to reload chat", "chat_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to rename chat")
		return
	}

	writeJSON(w, r, http.StatusOK, toChatResponse(chat))
}

// Delete handles DELETE /api/chats/{id}. Messages and source rows go with
// the chat; the chat's vector collection is left behind.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}

	if err := h.chats.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "chat not found")
			return
		}
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to delete chat", "chat_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to delete chat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMessages handles GET /api/chats/{id}/messages.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}

	if _, err := h.chats.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "chat not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to get chat")
		return
	}

	messages, err := h.messages.ListByChat(r.Context(), id)
	if err != nil {
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to list messages", "chat_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list messages")
		return
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, message := range messages {
		resp = append(resp, messageResponse{
			ID:        message.ID,
			Sender:    message.Sender,
			Content:   message.Content,
			Timestamp: message.Timestamp.Format(time.RFC3339),
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}
