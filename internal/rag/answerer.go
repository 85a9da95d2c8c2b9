package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks docsage/internal/rag Completer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docsage/internal/contextutil"
)

// ErrGenerationFailed is returned when the language model cannot produce
// an answer.
var ErrGenerationFailed = errors.New("answer generation failed")

// FallbackAnswer is returned whenever no context is available for a
// question, either because the conversation has no sources or because
// nothing relevant was retrieved.
const FallbackAnswer = "I need some context to answer that question."

// promptTemplate grounds the model on retrieved passages only.
const promptTemplate = "Answer this question using the provided context only.\n\n%s\n\nContext:\n%s"

// Completer produces a chat completion for a prompt.
type Completer interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Answerer generates grounded answers from retrieved passages.
type Answerer struct {
	completer Completer
}

// NewAnswerer creates an Answerer backed by the given completer.
func NewAnswerer(completer Completer) *Answerer {
	return &Answerer{completer: completer}
}

// Answer responds to a question using passages from the retriever. A nil
// retriever means the conversation has no sources yet; the fallback is
// returned without touching the model or the retriever. Retrieval that
// comes back empty also yields the fallback, skipping the model call.
func (a *Answerer) Answer(ctx context.Context, question string, retriever *Retriever) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if retriever == nil {
		logger.InfoContext(ctx, "no sources for conversation, returning fallback")
		return FallbackAnswer, nil
	}

	passages, err := retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	if len(passages) == 0 {
		logger.InfoContext(ctx, "no relevant passages, returning fallback")
		return FallbackAnswer, nil
	}

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}
	prompt := fmt.Sprintf(promptTemplate, question, strings.Join(texts, "\n\n"))

	answer, err := a.completer.Chat(ctx, prompt)
	if err != nil {
		logger.ErrorContext(ctx, "completion failed", "error", err)
		return "", fmt.Errorf("%w: %s", ErrGenerationFailed, err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", fmt.Errorf("%w: model returned an empty answer", ErrGenerationFailed)
	}

	logger.InfoContext(ctx, "generated answer", "passages", len(passages), "answer_length", len(answer))
	return answer, nil
}
