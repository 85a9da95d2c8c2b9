// Package loader normalizes source documents into content+metadata records.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when a file's extension has no registered parser.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Record is a loader-normalized unit of content plus provenance metadata.
// Metadata always carries a "source" key (file path or URL). Depending on the
// format a single file may produce several records (PDF pages, CSV rows).
type Record struct {
	Content  string
	Metadata map[string]string
}

// parseFunc parses raw file content into records. source is the origin
// identifier stored in each record's metadata.
type parseFunc func(content []byte, source string) ([]Record, error)

// parsers maps lowercased file extensions to their format parser.
// An extension missing from this table is rejected before any file I/O.
var parsers = map[string]parseFunc{
	".txt":  parsePlain,
	".md":   parseMarkdown,
	".pdf":  parsePDF,
	".docx": parseDOCX,
	".csv":  parseCSV,
	".html": parseHTML,
}

// Load reads the file at path and returns its normalized records.
// Dispatch is purely by extension; content is never sniffed. Unsupported
// extensions fail with ErrUnsupportedFormat naming the extension.
func Load(path string) ([]Record, error) {
	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := parsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return parse(content, path)
}

// parsePlain wraps UTF-8 text content into a single record.
func parsePlain(content []byte, source string) ([]Record, error) {
	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, nil
	}
	return []Record{{
		Content:  text,
		Metadata: map[string]string{"source": source},
	}}, nil
}
