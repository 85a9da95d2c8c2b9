// Package chunker splits loader records into bounded-size chunks for embedding.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"docsage/internal/loader"
)

// ErrInvalidChunkConfig is returned when the splitter configuration is unusable.
var ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 1000
	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 0
	// DefaultSeparator is the boundary the splitter prefers to cut at.
	DefaultSeparator = "\n\n"
)

// Chunk is a bounded-length slice of a record's content. It inherits the
// record's metadata so provenance survives embedding.
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// Splitter cuts record content into chunks no longer than ChunkSize runes.
// Splitting is deterministic: the same records and configuration always
// yield the same chunks.
type Splitter struct {
	chunkSize int
	overlap   int
	separator string
}

// NewSplitter creates a Splitter. It fails with ErrInvalidChunkConfig when
// chunkSize is not positive or overlap is negative or not strictly less
// than chunkSize.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunkConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be non-negative and less than chunk size %d", ErrInvalidChunkConfig, overlap, chunkSize)
	}
	return &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
		separator: DefaultSeparator,
	}, nil
}

// Split chunks each record's content, copying the record's metadata onto
// every derived chunk. Records with empty content yield no chunks; an empty
// input slice yields no chunks. Neither is an error.
func (s *Splitter) Split(records []loader.Record) []Chunk {
	var chunks []Chunk
	for _, record := range records {
		for _, piece := range s.splitText(record.Content) {
			chunks = append(chunks, Chunk{
				Content:  piece,
				Metadata: copyMetadata(record.Metadata),
			})
		}
	}
	return chunks
}

// splitText cuts text at separator boundaries, greedily packing pieces into
// chunks up to chunkSize runes. Pieces longer than chunkSize are hard-split
// at rune granularity. With overlap > 0, each chunk after the first starts
// with the trailing window of its predecessor.
func (s *Splitter) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []string{text}
	}

	var pieces []string
	for _, p := range strings.Split(text, s.separator) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) > s.chunkSize {
			pieces = append(pieces, s.hardSplit(p)...)
		} else {
			pieces = append(pieces, p)
		}
	}

	// Greedy merge: pack consecutive pieces into chunks, counting the
	// separator re-inserted between them.
	sepLen := utf8.RuneCountInString(s.separator)
	var result []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		result = append(result, strings.Join(current, s.separator))
		if s.overlap > 0 {
			// Keep trailing pieces within the overlap window as the
			// seed of the next chunk.
			var kept []string
			keptLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				pl := utf8.RuneCountInString(current[i])
				add := pl
				if len(kept) > 0 {
					add += sepLen
				}
				if keptLen+add > s.overlap {
					break
				}
				kept = append([]string{current[i]}, kept...)
				keptLen += add
			}
			current = kept
			currentLen = keptLen
		} else {
			current = nil
			currentLen = 0
		}
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		add := pieceLen
		if len(current) > 0 {
			add += sepLen
		}
		if currentLen+add > s.chunkSize {
			flush()
			// Recompute with the post-flush buffer (overlap seed or empty)
			add = pieceLen
			if len(current) > 0 {
				add += sepLen
			}
			if currentLen+add > s.chunkSize {
				// Overlap seed plus piece still too large; drop the seed
				current = nil
				currentLen = 0
				add = pieceLen
			}
		}
		current = append(current, piece)
		currentLen += add
	}
	if len(current) > 0 {
		result = append(result, strings.Join(current, s.separator))
	}

	return result
}

// hardSplit cuts an oversized piece into chunkSize-rune windows. The stride
// is chunkSize minus overlap so consecutive windows share an overlap-sized
// margin when overlap is configured.
func (s *Splitter) hardSplit(piece string) []string {
	runes := []rune(piece)
	stride := s.chunkSize - s.overlap

	var parts []string
	for start := 0; start < len(runes); start += stride {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return parts
}

// copyMetadata creates a shallow copy so chunks never alias a record's map.
func copyMetadata(src map[string]string) map[string]string {
	if src == nil {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
