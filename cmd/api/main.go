package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docsage/internal/chunker"
	"docsage/internal/collection"
	"docsage/internal/config"
	"docsage/internal/fetch"
	"docsage/internal/handlers"
	"docsage/internal/http"
	"docsage/internal/ingest"
	"docsage/internal/llm"
	"docsage/internal/rag"
	"docsage/internal/storage"
	"docsage/internal/vectorstore"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up structured logging
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	// Open the database and run migrations
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	chatRepo := storage.NewChatRepo(db)
	sourceRepo := storage.NewSourceRepo(db)
	messageRepo := storage.NewMessageRepo(db)

	// Connect to Qdrant
	vectors, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		slog.Error("Failed to create Qdrant client", "error", err, "url", cfg.QdrantURL)
		os.Exit(1)
	}

	// LLM clients
	embedder := llm.NewEmbeddingClient(cfg.EmbeddingBaseURL, cfg.EmbeddingModelName, cfg.LLMAPIKey, cfg.QdrantVectorSize)
	completer := llm.NewClient(cfg.LLMBaseURL, cfg.LLMModelName, cfg.LLMAPIKey)

	// Ingestion pipeline
	collections := collection.NewStore(vectors, embedder, cfg.QdrantVectorSize)
	splitter, err := chunker.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		slog.Error("Invalid chunk configuration", "error", err)
		os.Exit(1)
	}
	pipeline := ingest.NewPipeline(splitter, collections, sourceRepo, fetch.NewFetcher())

	// Answer generation
	answerer := rag.NewAnswerer(completer)

	// HTTP handlers and router
	router := http.NewRouter(&http.Deps{
		Chats:   handlers.NewChatHandler(chatRepo, messageRepo),
		Sources: handlers.NewSourceHandler(chatRepo, sourceRepo, pipeline, cfg.UploadTempDir),
		Ask:     handlers.NewAskHandler(chatRepo, messageRepo, collections, answerer, rag.DefaultTopK, float32(cfg.ScoreThreshold)),
	})

	addr := ":" + cfg.APIPort
	slog.Info("Starting server", "addr", addr, "db", cfg.DBPath, "qdrant", cfg.QdrantURL)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
