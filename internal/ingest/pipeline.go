// Package ingest runs the ingestion pipeline: load or fetch a source,
// chunk its text, write the chunks into the chat's collection and record
// the source row.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docsage/internal/chunker"
	"docsage/internal/collection"
	"docsage/internal/contextutil"
	"docsage/internal/fetch"
	"docsage/internal/loader"
	"docsage/internal/storage"
)

// ErrEmptySource is returned when a source yields no extractable text.
var ErrEmptySource = errors.New("source contains no extractable text")

// sourceTextLimit caps how much extracted text is kept on the source row.
// The full text lives in the chat's collection.
const sourceTextLimit = 4000

// Pipeline ingests documents and links into chat collections.
type Pipeline struct {
	splitter    *chunker.Splitter
	collections *collection.Store
	sources     storage.SourceStore
	fetcher     *fetch.Fetcher
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(splitter *chunker.Splitter, collections *collection.Store, sources storage.SourceStore, fetcher *fetch.Fetcher) *Pipeline {
	return &Pipeline{
		splitter:    splitter,
		collections: collections,
		sources:     sources,
		fetcher:     fetcher,
	}
}

// IngestFile loads the document at path and ingests it into the chat's
// collection under displayName. Unsupported formats fail with the
// loader's ErrUnsupportedFormat before anything is written.
func (p *Pipeline) IngestFile(ctx context.Context, chatID int64, path, displayName string) (*storage.Source, error) {
	records, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	return p.ingest(ctx, chatID, records, displayName, storage.SourceTypeDocument)
}

// IngestLink fetches the page at url and ingests its text into the
// chat's collection. Fetch failures surface as fetch.ErrFetchFailed.
func (p *Pipeline) IngestLink(ctx context.Context, chatID int64, url string) (*storage.Source, error) {
	record, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return p.ingest(ctx, chatID, []loader.Record{record}, url, storage.SourceTypeLink)
}

// ingest chunks the records, writes them into the chat's collection
// (creating it on first ingestion, appending afterwards) and records the
// source row. Nothing is recorded when any step fails, so a failed
// ingestion leaves no source behind.
func (p *Pipeline) ingest(ctx context.Context, chatID int64, records []loader.Record, name, sourceType string) (*storage.Source, error) {
	logger := contextutil.LoggerFromContext(ctx)

	chunks := p.splitter.Split(records)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, name)
	}

	exists, err := p.collections.Exists(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		handle, err := p.collections.Load(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if err := handle.Append(ctx, chunks); err != nil {
			return nil, err
		}
	} else {
		if _, err := p.collections.Create(ctx, chatID, chunks); err != nil {
			return nil, err
		}
	}

	source, err := p.sources.Create(ctx, chatID, name, sourceText(records), sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to record source: %w", err)
	}

	logger.InfoContext(ctx, "ingested source",
		"chat_id", chatID,
		"source", name,
		"type", sourceType,
		"chunks", len(chunks),
	)
	return source, nil
}

// sourceText joins the record contents and truncates the result for the
// source row.
func sourceText(records []loader.Record) string {
	parts := make([]string, 0, len(records))
	for _, record := range records {
		if record.Content != "" {
			parts = append(parts, record.Content)
		}
	}
	text := strings.Join(parts, "\n\n")

	runes := []rune(text)
	if len(runes) > sourceTextLimit {
		return string(runes[:sourceTextLimit])
	}
	return text
}
