package config

import (
	"log/slog"
	"testing"
)

// setRequired sets the env vars Load refuses to default.
func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("QDRANT_VECTOR_SIZE", "1536")
	t.Setenv("DB_PATH", t.TempDir()+"/test.db")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.QdrantVectorSize != 1536 {
		t.Errorf("QdrantVectorSize = %d, want 1536", cfg.QdrantVectorSize)
	}
	if cfg.ChunkSize != 1000 {
		t.Errorf("ChunkSize = %d, want default 1000", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 0 {
		t.Errorf("ChunkOverlap = %d, want default 0", cfg.ChunkOverlap)
	}
	if cfg.ScoreThreshold != 0.6 {
		t.Errorf("ScoreThreshold = %v, want default 0.6", cfg.ScoreThreshold)
	}
	if cfg.APIPort != "9000" {
		t.Errorf("APIPort = %q, want default 9000", cfg.APIPort)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_MissingVectorSize(t *testing.T) {
	t.Setenv("QDRANT_VECTOR_SIZE", "")
	t.Setenv("DB_PATH", t.TempDir()+"/test.db")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without QDRANT_VECTOR_SIZE, want error")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "vector size not a number", key: "QDRANT_VECTOR_SIZE", value: "lots"},
		{name: "vector size negative", key: "QDRANT_VECTOR_SIZE", value: "-4"},
		{name: "chunk size zero", key: "CHUNK_SIZE", value: "0"},
		{name: "overlap negative", key: "CHUNK_OVERLAP", value: "-1"},
		{name: "overlap at chunk size", key: "CHUNK_OVERLAP", value: "1000"},
		{name: "threshold above one", key: "SCORE_THRESHOLD", value: "1.5"},
		{name: "threshold not a number", key: "SCORE_THRESHOLD", value: "high"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("SCORE_THRESHOLD", "0.8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d, want 500/50", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.ScoreThreshold != 0.8 {
		t.Errorf("ScoreThreshold = %v, want 0.8", cfg.ScoreThreshold)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}
