package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docsage/internal/contextutil"
	"docsage/internal/fetch"
	"docsage/internal/ingest"
	"docsage/internal/loader"
	"docsage/internal/storage"
)

// maxUploadSize caps multipart document uploads (32 MiB).
const maxUploadSize = 32 << 20

// SourceHandler serves document upload, link ingestion and source listing.
type SourceHandler struct {
	chats    storage.ChatStore
	sources  storage.SourceStore
	pipeline *ingest.Pipeline
	tempDir  string
}

// NewSourceHandler creates a new SourceHandler. tempDir is where uploads
// are staged before ingestion.
func NewSourceHandler(chats storage.ChatStore, sources storage.SourceStore, pipeline *ingest.Pipeline, tempDir string) *SourceHandler {
	return &SourceHandler{
		chats:    chats,
		sources:  sources,
		pipeline: pipeline,
		tempDir:  tempDir,
	}
}

type linkPayload struct {
	URL string `json:"url"`
}

type sourceResponse struct {
	ID        int64  `json:"id"`
	ChatID    int64  `json:"chat_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

func toSourceResponse(source *storage.Source) sourceResponse {
	return sourceResponse{
		ID:        source.ID,
		ChatID:    source.ChatID,
		Name:      source.Name,
		Type:      source.Type,
		CreatedAt: source.CreatedAt.Format(time.RFC3339),
	}
}

// Upload handles POST /api/chats/{id}/sources. The multipart "file" part
// is staged to a temp file, ingested, and the temp file removed on every
// exit path.
func (h *SourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	logger := contextutil.LoggerFromContext(r.Context())

	chatID, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}
	if !h.chatExists(w, r, chatID) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		writeError(w, r, http.StatusBadRequest, "missing file name")
		return
	}

	// The loader dispatches on extension, so the staged copy keeps it.
	tmp, err := os.CreateTemp(h.tempDir, "upload-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create temp file", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		logger.ErrorContext(r.Context(), "failed to write temp file", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if err := tmp.Close(); err != nil {
		logger.ErrorContext(r.Context(), "failed to close temp file", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to store upload")
		return
	}

	source, err := h.pipeline.IngestFile(r.Context(), chatID, tmpPath, name)
	if err != nil {
		h.handleIngestError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toSourceResponse(source))
}

// AddLink handles POST /api/chats/{id}/links.
func (h *SourceHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	chatID, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}
	if !h.chatExists(w, r, chatID) {
		return
	}

	var payload linkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}

	link := strings.TrimSpace(payload.URL)
	parsed, err := url.Parse(link)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		writeError(w, r, http.StatusBadRequest, "url must be absolute")
		return
	}

	source, err := h.pipeline.IngestLink(r.Context(), chatID, link)
	if err != nil {
		h.handleIngestError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, toSourceResponse(source))
}

// List handles GET /api/chats/{id}/sources. The optional type query
// parameter filters by source type.
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	chatID, ok := urlID(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid chat ID")
		return
	}
	if !h.chatExists(w, r, chatID) {
		return
	}

	sourceType := r.URL.Query().Get("type")
	if sourceType != "" && sourceType != storage.SourceTypeDocument && sourceType != storage.SourceTypeLink {
		writeError(w, r, http.StatusBadRequest, "type must be document or link")
		return
	}

	sources, err := h.sources.ListByChat(r.Context(), chatID, sourceType)
	if err != nil {
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to list sources", "chat_id", chatID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list sources")
		return
	}

	resp := make([]sourceResponse, 0, len(sources))
	for _, source := range sources {
		resp = append(resp, toSourceResponse(source))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Delete handles DELETE /api/chats/{id}/sources/{sourceID}. Only the
// source row is removed; chunks already in the chat's collection stay.
func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sourceID, ok := urlID(r, "sourceID")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid source ID")
		return
	}

	if err := h.sources.Delete(r.Context(), sourceID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "source not found")
			return
		}
		logger := contextutil.LoggerFromContext(r.Context())
		logger.ErrorContext(r.Context(), "failed to delete source", "source_id", sourceID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to delete source")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// chatExists verifies the chat and writes the error response when it is
// missing. Returns false when a response was already written.
func (h *SourceHandler) chatExists(w http.ResponseWriter, r *http.Request, chatID int64) bool {
	if _, err := h.chats.GetByID(r.Context(), chatID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "chat not found")
			return false
		}
		writeError(w, r, http.StatusInternalServerError, "failed to get chat")
		return false
	}
	return true
}

// handleIngestError maps pipeline failures to HTTP statuses.
func (h *SourceHandler) handleIngestError(w http.ResponseWriter, r *http.Request, err error) {
	logger := contextutil.LoggerFromContext(r.Context())

	switch {
	case errors.Is(err, loader.ErrUnsupportedFormat):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ingest.ErrEmptySource):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, fetch.ErrFetchFailed):
		writeError(w, r, http.StatusBadGateway, err.Error())
	default:
		logger.ErrorContext(r.Context(), "ingestion failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to ingest source")
	}
}
