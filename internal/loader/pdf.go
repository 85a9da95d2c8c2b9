package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF extracts text from a PDF, producing one record per non-empty page.
// The page number (1-based) is recorded in each record's metadata.
func parsePDF(content []byte, source string) ([]Record, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var records []Record
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract PDF page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		records = append(records, Record{
			Content: text,
			Metadata: map[string]string{
				"source": source,
				"page":   strconv.Itoa(i),
			},
		})
	}

	return records, nil
}
