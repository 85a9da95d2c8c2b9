package contextutil

import (
	"context"
	"log/slog"
	"os"
	"testing"
)

func TestLoggerFromContext_Default(t *testing.T) {
	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("LoggerFromContext(empty) did not return the default logger")
	}
}

func TestWithLogger_RoundTrip(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("request", "abc")
	ctx := WithLogger(context.Background(), logger)

	if got := LoggerFromContext(ctx); got != logger {
		t.Error("LoggerFromContext did not return the stored logger")
	}
}
